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

	"go.uber.org/atomic"

	gerrors "github.com/tochemey/catalogsync/errors"
)

// Memory is an in-process Counter
type Memory struct {
	value  *atomic.Int64
	closed *atomic.Bool
}

var _ Counter = (*Memory)(nil)

// NewMemory creates a counter starting at the given value
func NewMemory(initial int64) *Memory {
	return &Memory{
		value:  atomic.NewInt64(initial),
		closed: atomic.NewBool(false),
	}
}

// Current returns the current value
func (m *Memory) Current(context.Context) (int64, error) {
	if m.closed.Load() {
		return 0, gerrors.ErrCounterClosed
	}
	return m.value.Load(), nil
}

// Next increments the counter
func (m *Memory) Next(context.Context) (int64, error) {
	if m.closed.Load() {
		return 0, gerrors.ErrCounterClosed
	}
	return m.value.Inc(), nil
}

// Observe moves the counter forward to value
func (m *Memory) Observe(_ context.Context, value int64) (bool, error) {
	if m.closed.Load() {
		return false, gerrors.ErrCounterClosed
	}
	for {
		current := m.value.Load()
		if value <= current {
			return false, nil
		}
		if m.value.CompareAndSwap(current, value) {
			return true, nil
		}
	}
}

// Close closes the counter
func (m *Memory) Close() error {
	m.closed.Store(true)
	return nil
}
