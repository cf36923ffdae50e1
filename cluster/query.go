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

package cluster

import (
	"context"

	"github.com/tochemey/catalogsync/cache"
	"github.com/tochemey/catalogsync/catalog"
)

// Get returns the entity of the given kind and id. A cache miss loads the
// entity from the store and caches it.
func (x *Node) Get(ctx context.Context, kind catalog.Kind, id string) (*catalog.Info, error) {
	return x.cached(x.cacheFor(kind), cache.KeyOf(kind, id), func() (*catalog.Info, error) {
		return x.config.store.Get(ctx, kind, id)
	})
}

// List returns the stored entities of the given kind. It bypasses the caches.
func (x *Node) List(ctx context.Context, kind catalog.Kind) ([]*catalog.Info, error) {
	return x.config.store.List(ctx, kind)
}

// DefaultWorkspace returns the default workspace
func (x *Node) DefaultWorkspace(ctx context.Context) (*catalog.Info, error) {
	return x.cached(x.config.catalogCache, cache.DefaultWorkspaceKey, func() (*catalog.Info, error) {
		return x.config.store.DefaultWorkspace(ctx)
	})
}

// DefaultNamespace returns the default namespace
func (x *Node) DefaultNamespace(ctx context.Context) (*catalog.Info, error) {
	return x.cached(x.config.catalogCache, cache.DefaultNamespaceKey, func() (*catalog.Info, error) {
		return x.config.store.DefaultNamespace(ctx)
	})
}

// DefaultDataStore returns the default store of the workspace
func (x *Node) DefaultDataStore(ctx context.Context, workspaceID string) (*catalog.Info, error) {
	key := cache.DefaultDataStoreKey(catalog.Unresolved(catalog.Workspace, workspaceID))
	return x.cached(x.config.catalogCache, key, func() (*catalog.Info, error) {
		return x.config.store.DefaultDataStore(ctx, workspaceID)
	})
}

// UpdateSequence returns the current update sequence
func (x *Node) UpdateSequence(ctx context.Context) (int64, error) {
	return x.config.counter.Current(ctx)
}

// CatalogCache returns the catalog cache facade
func (x *Node) CatalogCache() cache.Facade {
	return x.config.catalogCache
}

// ConfigCache returns the config cache facade
func (x *Node) ConfigCache() cache.Facade {
	return x.config.configCache
}

func (x *Node) cached(facade cache.Facade, key cache.Key, load func() (*catalog.Info, error)) (*catalog.Info, error) {
	if info, ok := facade.Get(key); ok {
		return info, nil
	}

	info, err := load()
	if err != nil {
		return nil, err
	}
	facade.Put(key, info)
	return info, nil
}
