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

// Package sequence implements the update sequence: a monotonic counter bumped
// on every catalog or configuration change so clients can tell whether their
// view is stale.
package sequence

import "context"

// Key is the name under which the counters persist the sequence
const Key = "updateSequence"

// Counter is the update sequence of a service.
//
// Next is linearizable: N concurrent calls on the same counter return N
// distinct contiguous values. Observe merges a value seen elsewhere in the
// cluster and only ever moves the counter forward.
type Counter interface {
	// Current returns the current value
	Current(ctx context.Context) (int64, error)
	// Next increments the counter and returns the new value
	Next(ctx context.Context) (int64, error)
	// Observe sets the counter to value when value is greater than the current one.
	// It reports whether the counter moved. Lower or equal values are stale.
	Observe(ctx context.Context, value int64) (bool, error)
	// Close releases the counter resources
	Close() error
}
