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
	"errors"
	"fmt"
	"sync"

	"github.com/nats-io/nats.go"
	"go.uber.org/atomic"

	gerrors "github.com/tochemey/catalogsync/errors"
)

// NATS is a Counter shared by every service of a cluster through a JetStream
// KeyValue bucket. Writes use optimistic concurrency on the entry revision and
// retry on conflict, so concurrent increments from any service never collide.
type NATS struct {
	kv     nats.KeyValue
	mu     sync.Mutex
	closed *atomic.Bool
}

var _ Counter = (*NATS)(nil)

// NewNATS binds the counter to the given bucket, creating it when missing.
// The connection is owned by the caller.
func NewNATS(conn *nats.Conn, bucket string) (*NATS, error) {
	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("sequence: jetstream: %w", err)
	}

	kv, err := js.KeyValue(bucket)
	if err != nil {
		kv, err = js.CreateKeyValue(&nats.KeyValueConfig{Bucket: bucket})
		if err != nil {
			// another service may have created the bucket first
			if errors.Is(err, nats.ErrStreamNameAlreadyInUse) {
				kv, err = js.KeyValue(bucket)
			}
			if err != nil {
				return nil, fmt.Errorf("sequence: create bucket: %w", err)
			}
		}
	}
	return &NATS{kv: kv, closed: atomic.NewBool(false)}, nil
}

// Current returns the current value
func (n *NATS) Current(ctx context.Context) (int64, error) {
	if n.closed.Load() {
		return 0, gerrors.ErrCounterClosed
	}
	value, _, err := n.get(ctx)
	return value, err
}

// Next increments the counter
func (n *NATS) Next(ctx context.Context) (int64, error) {
	if n.closed.Load() {
		return 0, gerrors.ErrCounterClosed
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	for {
		current, revision, err := n.get(ctx)
		if err != nil {
			return 0, err
		}
		ok, err := n.swap(current+1, revision)
		if err != nil {
			return 0, err
		}
		if ok {
			return current + 1, nil
		}
	}
}

// Observe moves the counter forward to value
func (n *NATS) Observe(ctx context.Context, value int64) (bool, error) {
	if n.closed.Load() {
		return false, gerrors.ErrCounterClosed
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	for {
		current, revision, err := n.get(ctx)
		if err != nil {
			return false, err
		}
		if value <= current {
			return false, nil
		}
		ok, err := n.swap(value, revision)
		if err != nil || ok {
			return ok, err
		}
	}
}

// Close stops using the bucket. The connection stays open.
func (n *NATS) Close() error {
	n.closed.Store(true)
	return nil
}

// get returns the current value and the revision it was read at.
// A missing key reads as zero at revision zero.
func (n *NATS) get(ctx context.Context) (int64, uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}
	entry, err := n.kv.Get(Key)
	if err != nil {
		if errors.Is(err, nats.ErrKeyNotFound) || errors.Is(err, nats.ErrKeyDeleted) {
			return 0, 0, nil
		}
		return 0, 0, fmt.Errorf("sequence: get: %w", err)
	}
	return decode(entry.Value()), entry.Revision(), nil
}

// swap writes value when the entry is still at revision.
// It returns false on a revision conflict.
func (n *NATS) swap(value int64, revision uint64) (bool, error) {
	var err error
	if revision == 0 {
		_, err = n.kv.Create(Key, encode(value))
	} else {
		_, err = n.kv.Update(Key, encode(value), revision)
	}
	if err == nil {
		return true, nil
	}
	if isRevisionConflict(err) {
		return false, nil
	}
	return false, fmt.Errorf("sequence: update: %w", err)
}

func isRevisionConflict(err error) bool {
	if errors.Is(err, nats.ErrKeyExists) {
		return true
	}
	var apiErr *nats.APIError
	if errors.As(err, &apiErr) && apiErr != nil && apiErr.ErrorCode == nats.JSErrCodeStreamWrongLastSequence {
		return true
	}
	return false
}
