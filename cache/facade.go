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

package cache

import (
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/tochemey/catalogsync/catalog"
)

// Facade is the local cache of a service
type Facade interface {
	// Get returns the cached entity
	Get(key Key) (*catalog.Info, bool)
	// Put caches the entity under the given key. A nil entity is ignored.
	Put(key Key, info *catalog.Info)
	// Evict removes the entry and reports whether it was present.
	// Evicting an absent key is not an error.
	Evict(key Key) bool
	// EvictEntity removes the entry of the given entity
	EvictEntity(info *catalog.Info) bool
	// Len returns the number of entries
	Len() int
	// Keys returns the cached keys
	Keys() []Key
	// Clear drops every entry
	Clear()
}

// Option configures a Cache
type Option func(*options)

type options struct {
	ttl      time.Duration
	capacity uint64
}

// WithTTL sets the time to live of the entries. Entries never expire by default.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) {
		o.ttl = ttl
	}
}

// WithCapacity bounds the number of entries. Unbounded by default.
func WithCapacity(capacity uint64) Option {
	return func(o *options) {
		o.capacity = capacity
	}
}

// Cache is a Facade backed by ttlcache
type Cache struct {
	cache *ttlcache.Cache[Key, *catalog.Info]
	ttl   time.Duration
}

var _ Facade = (*Cache)(nil)

// New creates an instance of Cache
func New(opts ...Option) *Cache {
	config := &options{ttl: ttlcache.NoTTL}
	for _, opt := range opts {
		opt(config)
	}

	cacheOpts := []ttlcache.Option[Key, *catalog.Info]{
		ttlcache.WithTTL[Key, *catalog.Info](config.ttl),
		ttlcache.WithDisableTouchOnHit[Key, *catalog.Info](),
	}
	if config.capacity > 0 {
		cacheOpts = append(cacheOpts, ttlcache.WithCapacity[Key, *catalog.Info](config.capacity))
	}

	return &Cache{
		cache: ttlcache.New(cacheOpts...),
		ttl:   config.ttl,
	}
}

// Get returns the cached entity
func (x *Cache) Get(key Key) (*catalog.Info, bool) {
	item := x.cache.Get(key)
	if item == nil || item.IsExpired() {
		return nil, false
	}
	return item.Value(), true
}

// Put caches the entity
func (x *Cache) Put(key Key, info *catalog.Info) {
	if info == nil {
		return
	}
	x.cache.Set(key, info, ttlcache.DefaultTTL)
}

// Evict removes the entry and reports whether it was present
func (x *Cache) Evict(key Key) bool {
	_, present := x.cache.GetAndDelete(key)
	return present
}

// EvictEntity removes the entry of the given entity
func (x *Cache) EvictEntity(info *catalog.Info) bool {
	if info == nil {
		return false
	}
	return x.Evict(KeyFor(info))
}

// Len returns the number of entries
func (x *Cache) Len() int {
	return x.cache.Len()
}

// Keys returns the cached keys
func (x *Cache) Keys() []Key {
	return x.cache.Keys()
}

// Clear drops every entry
func (x *Cache) Clear() {
	x.cache.DeleteAll()
}
