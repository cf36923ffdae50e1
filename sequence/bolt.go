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
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
	"go.uber.org/atomic"

	gerrors "github.com/tochemey/catalogsync/errors"
)

const (
	boltFileMode os.FileMode = 0o600
	boltBucket               = "sequence"
)

// Bolt is a durable Counter backed by go.etcd.io/bbolt.
// bbolt serializes write transactions, which linearizes Next.
type Bolt struct {
	db     *bbolt.DB
	closed *atomic.Bool
}

var _ Counter = (*Bolt)(nil)

// OpenBolt opens (or creates) the counter at the given path
func OpenBolt(path string) (*Bolt, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("sequence: unable to create directory: %w", err)
	}

	db, err := bbolt.Open(path, boltFileMode, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("sequence: opening boltdb: %w", err)
	}

	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(boltBucket))
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sequence: initializing boltdb bucket: %w", err)
	}

	return &Bolt{db: db, closed: atomic.NewBool(false)}, nil
}

// Current returns the current value
func (b *Bolt) Current(context.Context) (int64, error) {
	if b.closed.Load() {
		return 0, gerrors.ErrCounterClosed
	}
	var value int64
	err := b.db.View(func(tx *bbolt.Tx) error {
		value = decode(tx.Bucket([]byte(boltBucket)).Get([]byte(Key)))
		return nil
	})
	return value, err
}

// Next increments the counter
func (b *Bolt) Next(context.Context) (int64, error) {
	if b.closed.Load() {
		return 0, gerrors.ErrCounterClosed
	}
	var value int64
	err := b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(boltBucket))
		value = decode(bucket.Get([]byte(Key))) + 1
		return bucket.Put([]byte(Key), encode(value))
	})
	return value, err
}

// Observe moves the counter forward to value
func (b *Bolt) Observe(_ context.Context, value int64) (bool, error) {
	if b.closed.Load() {
		return false, gerrors.ErrCounterClosed
	}
	moved := false
	err := b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(boltBucket))
		if value <= decode(bucket.Get([]byte(Key))) {
			return nil
		}
		moved = true
		return bucket.Put([]byte(Key), encode(value))
	})
	return moved, err
}

// Close releases the database handle
func (b *Bolt) Close() error {
	if b.closed.Swap(true) {
		return nil
	}
	return b.db.Close()
}

func encode(value int64) []byte {
	return binary.BigEndian.AppendUint64(nil, uint64(value))
}

func decode(bytea []byte) int64 {
	if len(bytea) != 8 {
		return 0
	}
	return int64(binary.BigEndian.Uint64(bytea))
}
