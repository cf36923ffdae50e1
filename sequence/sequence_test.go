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
	"fmt"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travisjeffery/go-dynaport"

	gerrors "github.com/tochemey/catalogsync/errors"
)

func TestMemory(t *testing.T) {
	testCounter(t, func(t *testing.T) Counter {
		return NewMemory(0)
	})
}

func TestBolt(t *testing.T) {
	testCounter(t, func(t *testing.T) Counter {
		counter, err := OpenBolt(filepath.Join(t.TempDir(), "sequence.db"))
		require.NoError(t, err)
		return counter
	})

	t.Run("With durability across reopen", func(t *testing.T) {
		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "sequence.db")
		counter, err := OpenBolt(path)
		require.NoError(t, err)
		_, err = counter.Next(ctx)
		require.NoError(t, err)
		require.NoError(t, counter.Close())

		counter, err = OpenBolt(path)
		require.NoError(t, err)
		value, err := counter.Current(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 1, value)
		require.NoError(t, counter.Close())
	})
}

func TestSQL(t *testing.T) {
	testCounter(t, func(t *testing.T) Counter {
		counter, err := OpenSQL(context.Background(), filepath.Join(t.TempDir(), "sequence.sqlite"))
		require.NoError(t, err)
		return counter
	})

	t.Run("With in-memory database", func(t *testing.T) {
		ctx := context.Background()
		counter, err := OpenSQL(ctx, ":memory:")
		require.NoError(t, err)
		value, err := counter.Next(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 1, value)
		require.NoError(t, counter.Close())
	})
	t.Run("With concurrent opens", func(t *testing.T) {
		ctx := context.Background()
		dir := t.TempDir()
		const n = 8
		counters := make([]*SQL, n)
		errs := make([]error, n)
		var wg sync.WaitGroup
		for i := range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				counters[i], errs[i] = OpenSQL(ctx, filepath.Join(dir, fmt.Sprintf("sequence-%d.sqlite", i)))
			}()
		}
		wg.Wait()

		for i := range n {
			require.NoError(t, errs[i])
			value, err := counters[i].Next(ctx)
			require.NoError(t, err)
			assert.EqualValues(t, 1, value)
			require.NoError(t, counters[i].Close())
		}
	})
}

func TestNATS(t *testing.T) {
	srv := startNatsServer(t)
	t.Cleanup(srv.Shutdown)

	connect := func(t *testing.T) *nats.Conn {
		conn, err := nats.Connect(srv.ClientURL())
		require.NoError(t, err)
		t.Cleanup(conn.Close)
		return conn
	}

	bucket := 0
	testCounter(t, func(t *testing.T) Counter {
		bucket++
		counter, err := NewNATS(connect(t), bucketName(bucket))
		require.NoError(t, err)
		return counter
	})

	t.Run("With counters of two services sharing the bucket", func(t *testing.T) {
		ctx := context.Background()
		first, err := NewNATS(connect(t), "shared")
		require.NoError(t, err)
		second, err := NewNATS(connect(t), "shared")
		require.NoError(t, err)

		const perCounter = 25
		var (
			mu     sync.Mutex
			values []int64
			wg     sync.WaitGroup
		)
		for _, counter := range []Counter{first, second} {
			for range perCounter {
				wg.Add(1)
				go func() {
					defer wg.Done()
					value, err := counter.Next(ctx)
					assert.NoError(t, err)
					mu.Lock()
					values = append(values, value)
					mu.Unlock()
				}()
			}
		}
		wg.Wait()
		assertContiguous(t, values, 1, 2*perCounter)
		require.NoError(t, first.Close())
		require.NoError(t, second.Close())
	})
}

func testCounter(t *testing.T, newCounter func(t *testing.T) Counter) {
	ctx := context.Background()

	t.Run("With next", func(t *testing.T) {
		counter := newCounter(t)
		value, err := counter.Current(ctx)
		require.NoError(t, err)
		assert.Zero(t, value)

		value, err = counter.Next(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 1, value)
		value, err = counter.Next(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 2, value)

		value, err = counter.Current(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 2, value)
		require.NoError(t, counter.Close())
	})
	t.Run("With concurrent increments", func(t *testing.T) {
		counter := newCounter(t)
		const n = 50
		values := make([]int64, n)
		var wg sync.WaitGroup
		for i := range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				value, err := counter.Next(ctx)
				assert.NoError(t, err)
				values[i] = value
			}()
		}
		wg.Wait()
		assertContiguous(t, values, 1, n)
		require.NoError(t, counter.Close())
	})
	t.Run("With observe", func(t *testing.T) {
		counter := newCounter(t)
		moved, err := counter.Observe(ctx, 10)
		require.NoError(t, err)
		assert.True(t, moved)

		// stale and equal values are ignored
		moved, err = counter.Observe(ctx, 7)
		require.NoError(t, err)
		assert.False(t, moved)
		moved, err = counter.Observe(ctx, 10)
		require.NoError(t, err)
		assert.False(t, moved)

		value, err := counter.Current(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 10, value)

		value, err = counter.Next(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 11, value)
		require.NoError(t, counter.Close())
	})
	t.Run("With closed counter", func(t *testing.T) {
		counter := newCounter(t)
		require.NoError(t, counter.Close())
		_, err := counter.Next(ctx)
		require.ErrorIs(t, err, gerrors.ErrCounterClosed)
		_, err = counter.Current(ctx)
		require.ErrorIs(t, err, gerrors.ErrCounterClosed)
		_, err = counter.Observe(ctx, 3)
		require.ErrorIs(t, err, gerrors.ErrCounterClosed)
	})
}

func assertContiguous(t *testing.T, values []int64, from, count int64) {
	t.Helper()
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	require.Len(t, sorted, int(count))
	for i, value := range sorted {
		assert.Equal(t, from+int64(i), value)
	}
}

func bucketName(i int) string {
	return "sequence-" + string(rune('a'+i))
}

func startNatsServer(t *testing.T) *natsserver.Server {
	t.Helper()
	serv, err := natsserver.NewServer(&natsserver.Options{
		Host:      "127.0.0.1",
		Port:      dynaport.Get(1)[0],
		JetStream: true,
		StoreDir:  t.TempDir(),
	})
	require.NoError(t, err)

	ready := make(chan bool)
	go func() {
		ready <- true
		serv.Start()
	}()
	<-ready

	if !serv.ReadyForConnections(2 * time.Second) {
		t.Fatalf("nats-io server failed to start")
	}
	return serv
}
