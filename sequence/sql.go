// MIT License
//
// Copyright (c) 2022-2026 GoAkt Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package sequence

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"sync"

	"github.com/pressly/goose/v3"
	"go.uber.org/atomic"
	_ "modernc.org/sqlite" // SQLite driver

	gerrors "github.com/tochemey/catalogsync/errors"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// guards the package-level goose settings
var migrateMu sync.Mutex

// SQL is a durable Counter kept in a single-row SQLite table.
// Each operation is a single statement, which SQLite runs atomically.
type SQL struct {
	db     *sql.DB
	closed *atomic.Bool
}

var _ Counter = (*SQL)(nil)

// OpenSQL opens the SQLite database at dsn and runs the migrations.
// Use ":memory:" for a throwaway counter.
func OpenSQL(ctx context.Context, dsn string) (*SQL, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sequence: failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sequence: failed to ping database: %w", err)
	}

	// one writer at a time, and a single connection keeps ":memory:" databases alive
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA synchronous = NORMAL;",
		"PRAGMA busy_timeout = 5000;",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sequence: failed to set pragma: %w", err)
		}
	}

	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQL{db: db, closed: atomic.NewBool(false)}, nil
}

// Current returns the current value
func (s *SQL) Current(ctx context.Context) (int64, error) {
	if s.closed.Load() {
		return 0, gerrors.ErrCounterClosed
	}
	var value int64
	err := s.db.QueryRowContext(ctx, `SELECT value FROM update_sequence WHERE id = 1`).Scan(&value)
	return value, err
}

// Next increments the counter
func (s *SQL) Next(ctx context.Context) (int64, error) {
	if s.closed.Load() {
		return 0, gerrors.ErrCounterClosed
	}
	var value int64
	err := s.db.QueryRowContext(ctx, `UPDATE update_sequence SET value = value + 1 WHERE id = 1 RETURNING value`).Scan(&value)
	return value, err
}

// Observe moves the counter forward to value
func (s *SQL) Observe(ctx context.Context, value int64) (bool, error) {
	if s.closed.Load() {
		return false, gerrors.ErrCounterClosed
	}
	result, err := s.db.ExecContext(ctx, `UPDATE update_sequence SET value = ? WHERE id = 1 AND value < ?`, value, value)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	return rows == 1, err
}

// Close closes the database
func (s *SQL) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}

func migrate(ctx context.Context, db *sql.DB) error {
	migrateMu.Lock()
	defer migrateMu.Unlock()

	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("sequence: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("sequence: goose up failed: %w", err)
	}
	return nil
}
