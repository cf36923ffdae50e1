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
	"fmt"

	"github.com/tochemey/catalogsync/cache"
	"github.com/tochemey/catalogsync/catalog"
	gerrors "github.com/tochemey/catalogsync/errors"
	"github.com/tochemey/catalogsync/events"
)

// Add stores a new entity and announces it
func (x *Node) Add(ctx context.Context, info *catalog.Info) error {
	if err := x.ensureRunning(); err != nil {
		return err
	}
	if info == nil {
		return fmt.Errorf("%w: nil entity", gerrors.ErrInvalidEntity)
	}

	x.mutationMu.Lock()
	defer x.mutationMu.Unlock()

	if err := x.config.store.Add(ctx, info); err != nil {
		return err
	}
	x.cacheFor(info.Kind()).EvictEntity(info)

	if err := x.dispatch(ctx, events.NewAdd(info)); err != nil {
		return err
	}
	return x.bumpSequence(ctx)
}

// Save applies the patch to the entity of the given kind and id and returns
// the updated entity. The Modify event is dispatched before the change is
// applied and the PostModify event after. A failing Modify dispatch leaves the
// entity untouched. An empty patch changes nothing and is not published.
func (x *Node) Save(ctx context.Context, kind catalog.Kind, id string, patch *catalog.Patch) (*catalog.Info, error) {
	if err := x.ensureRunning(); err != nil {
		return nil, err
	}

	x.mutationMu.Lock()
	defer x.mutationMu.Unlock()

	current, err := x.config.store.Get(ctx, kind, id)
	if err != nil {
		return nil, err
	}

	if err := x.dispatch(ctx, events.NewModify(kind, id, patch)); err != nil {
		return nil, err
	}

	if patch.IsEmpty() {
		if err := x.dispatch(ctx, events.NewPostModify(kind, id, patch)); err != nil {
			return nil, err
		}
		return current, nil
	}

	updated, err := x.config.store.ApplyPatch(ctx, kind, id, patch)
	if err != nil {
		return nil, err
	}
	x.cacheFor(kind).Evict(cache.KeyOf(kind, id))

	if err := x.dispatch(ctx, events.NewPostModify(kind, id, patch)); err != nil {
		return nil, err
	}
	if err := x.bumpSequence(ctx); err != nil {
		return nil, err
	}
	return updated, nil
}

// Remove deletes the entity of the given kind and id and announces it
func (x *Node) Remove(ctx context.Context, kind catalog.Kind, id string) error {
	if err := x.ensureRunning(); err != nil {
		return err
	}

	x.mutationMu.Lock()
	defer x.mutationMu.Unlock()

	unsets, err := x.defaultsOf(ctx, kind, id)
	if err != nil {
		return err
	}

	removed, err := x.config.store.Remove(ctx, kind, id)
	if err != nil {
		return err
	}
	x.cacheFor(kind).Evict(cache.KeyOf(kind, id))

	if err := x.dispatch(ctx, events.NewRemove(removed)); err != nil {
		return err
	}

	// a removed default is unset so that no service keeps serving it
	for _, unset := range unsets {
		if err := unset(ctx); err != nil {
			return err
		}
	}
	return x.bumpSequence(ctx)
}

// defaultsOf returns the actions unsetting every default pointing at the
// entity of the given kind and id
func (x *Node) defaultsOf(ctx context.Context, kind catalog.Kind, id string) ([]func(context.Context) error, error) {
	var unsets []func(context.Context) error
	switch {
	case kind == catalog.Workspace:
		if current, err := x.config.store.DefaultWorkspace(ctx); err == nil && current.ID() == id {
			unsets = append(unsets, func(ctx context.Context) error {
				if err := x.config.store.SetDefaultWorkspace(ctx, nil); err != nil {
					return err
				}
				x.config.catalogCache.Evict(cache.DefaultWorkspaceKey)
				return x.dispatch(ctx, events.NewDefaultWorkspaceSet(nil))
			})
		}
	case kind == catalog.Namespace:
		if current, err := x.config.store.DefaultNamespace(ctx); err == nil && current.ID() == id {
			unsets = append(unsets, func(ctx context.Context) error {
				if err := x.config.store.SetDefaultNamespace(ctx, nil); err != nil {
					return err
				}
				x.config.catalogCache.Evict(cache.DefaultNamespaceKey)
				return x.dispatch(ctx, events.NewDefaultNamespaceSet(nil))
			})
		}
	case kind.IsStore():
		info, err := x.config.store.Get(ctx, kind, id)
		if err != nil {
			return nil, err
		}
		value, ok := info.Get(catalog.PropWorkspace)
		if !ok {
			return nil, nil
		}
		ref, ok := value.(catalog.Ref)
		if !ok {
			return nil, nil
		}
		workspace, err := x.config.store.Get(ctx, catalog.Workspace, ref.ID())
		if err != nil {
			return nil, nil
		}
		if current, err := x.config.store.DefaultDataStore(ctx, workspace.ID()); err == nil && current.Identity() == info.Identity() {
			unsets = append(unsets, func(ctx context.Context) error {
				if err := x.config.store.SetDefaultDataStore(ctx, workspace.ID(), nil); err != nil {
					return err
				}
				x.config.catalogCache.Evict(cache.DefaultDataStoreKey(catalog.Resolved(workspace)))
				return x.dispatch(ctx, events.NewDefaultDataStoreSet(workspace, nil))
			})
		}
	}
	return unsets, nil
}

// SetDefaultWorkspace sets the default workspace. Nil unsets it.
func (x *Node) SetDefaultWorkspace(ctx context.Context, workspace *catalog.Info) error {
	if err := x.ensureRunning(); err != nil {
		return err
	}

	x.mutationMu.Lock()
	defer x.mutationMu.Unlock()

	if err := x.config.store.SetDefaultWorkspace(ctx, workspace); err != nil {
		return err
	}
	x.config.catalogCache.Evict(cache.DefaultWorkspaceKey)

	if err := x.dispatch(ctx, events.NewDefaultWorkspaceSet(workspace)); err != nil {
		return err
	}
	return x.bumpSequence(ctx)
}

// SetDefaultNamespace sets the default namespace. Nil unsets it.
func (x *Node) SetDefaultNamespace(ctx context.Context, namespace *catalog.Info) error {
	if err := x.ensureRunning(); err != nil {
		return err
	}

	x.mutationMu.Lock()
	defer x.mutationMu.Unlock()

	if err := x.config.store.SetDefaultNamespace(ctx, namespace); err != nil {
		return err
	}
	x.config.catalogCache.Evict(cache.DefaultNamespaceKey)

	if err := x.dispatch(ctx, events.NewDefaultNamespaceSet(namespace)); err != nil {
		return err
	}
	return x.bumpSequence(ctx)
}

// SetDefaultDataStore sets the default store of the workspace. A nil store unsets it.
func (x *Node) SetDefaultDataStore(ctx context.Context, workspace, store *catalog.Info) error {
	if err := x.ensureRunning(); err != nil {
		return err
	}
	if workspace == nil {
		return fmt.Errorf("%w: workspace is required", gerrors.ErrInvalidEntity)
	}

	x.mutationMu.Lock()
	defer x.mutationMu.Unlock()

	if err := x.config.store.SetDefaultDataStore(ctx, workspace.ID(), store); err != nil {
		return err
	}
	x.config.catalogCache.Evict(cache.DefaultDataStoreKey(catalog.Resolved(workspace)))

	if err := x.dispatch(ctx, events.NewDefaultDataStoreSet(workspace, store)); err != nil {
		return err
	}
	return x.bumpSequence(ctx)
}

// bumpSequence increments the update sequence, records it on the global
// configuration when there is one, and announces the new value.
func (x *Node) bumpSequence(ctx context.Context) error {
	next, err := x.config.counter.Next(ctx)
	if err != nil {
		return fmt.Errorf("failed to increment the update sequence: %w", err)
	}

	if global, err := x.config.store.Get(ctx, catalog.Global, catalog.GlobalID); err == nil {
		previous, _ := global.Get(catalog.PropUpdateSequence)
		patch := catalog.NewPatch().With(catalog.PropUpdateSequence, previous, next)
		updated, err := x.config.store.ApplyPatch(ctx, catalog.Global, catalog.GlobalID, patch)
		if err != nil {
			return fmt.Errorf("failed to record the update sequence: %w", err)
		}
		// the cached copy is refreshed rather than evicted
		key := cache.KeyFor(updated)
		if _, cached := x.config.configCache.Get(key); cached {
			x.config.configCache.Put(key, updated)
		}
	}

	return x.dispatch(ctx, events.NewUpdateSequenceChanged(next))
}

func (x *Node) ensureRunning() error {
	if !x.started.Load() {
		return gerrors.ErrNotRunning
	}
	return nil
}
