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

package replication

import (
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/zeebo/xxh3"
)

// default bounds of the seen-id window
const (
	DefaultDuplicateWindow   = 5 * time.Minute
	defaultDuplicateCapacity = 100_000
)

// Deduplicator remembers the ids of the remote events seen within a window so
// that a redelivered event is applied at most once. Ids are kept as 128-bit
// hashes to bound the memory of a busy window.
type Deduplicator struct {
	seen *ttlcache.Cache[xxh3.Uint128, struct{}]
}

// NewDeduplicator creates an instance of Deduplicator. A non-positive window
// uses DefaultDuplicateWindow.
func NewDeduplicator(window time.Duration) *Deduplicator {
	if window <= 0 {
		window = DefaultDuplicateWindow
	}
	return &Deduplicator{
		seen: ttlcache.New[xxh3.Uint128, struct{}](
			ttlcache.WithTTL[xxh3.Uint128, struct{}](window),
			ttlcache.WithCapacity[xxh3.Uint128, struct{}](defaultDuplicateCapacity),
			ttlcache.WithDisableTouchOnHit[xxh3.Uint128, struct{}](),
		),
	}
}

// Seen records the id and reports whether it was already recorded.
// Events without id are never considered duplicates.
func (x *Deduplicator) Seen(id string) bool {
	if id == "" {
		return false
	}
	_, loaded := x.seen.GetOrSet(xxh3.HashString128(id), struct{}{})
	return loaded
}

// Len returns the number of remembered ids
func (x *Deduplicator) Len() int {
	return x.seen.Len()
}
