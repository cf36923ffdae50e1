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

// Package store holds the local entity store of a service: the raw facade
// mutated directly by the replica catch-up processor and read by the
// reference resolver. Store operations never emit events.
package store

import (
	"context"
	"fmt"

	"github.com/tochemey/catalogsync/catalog"
	gerrors "github.com/tochemey/catalogsync/errors"
)

// Store is the raw, event-free facade over the entities of a service.
//
// Entities are stored with their references reduced to (kind, id) pairs and
// returned with their direct references resolved one level deep. Writing an
// entity whose references do not name stored entities fails with
// ErrUnresolvedReference, so placeholders are never persisted.
type Store interface {
	// Get returns the entity of the given kind and id or ErrEntityNotFound
	Get(ctx context.Context, kind catalog.Kind, id string) (*catalog.Info, error)
	// ByName returns the first entity of the given kind with the given name
	ByName(ctx context.Context, kind catalog.Kind, name string) (*catalog.Info, error)
	// List returns the entities of the given kind ordered by id
	List(ctx context.Context, kind catalog.Kind) ([]*catalog.Info, error)
	// Add stores the entity. Adding an existing entity overwrites it.
	Add(ctx context.Context, info *catalog.Info) error
	// Remove deletes the entity and returns it
	Remove(ctx context.Context, kind catalog.Kind, id string) (*catalog.Info, error)
	// ApplyPatch applies the patch to the stored entity and returns the result
	ApplyPatch(ctx context.Context, kind catalog.Kind, id string, patch *catalog.Patch) (*catalog.Info, error)
	// DefaultWorkspace returns the default workspace or ErrEntityNotFound
	DefaultWorkspace(ctx context.Context) (*catalog.Info, error)
	// DefaultNamespace returns the default namespace or ErrEntityNotFound
	DefaultNamespace(ctx context.Context) (*catalog.Info, error)
	// DefaultDataStore returns the default store of the workspace or ErrEntityNotFound
	DefaultDataStore(ctx context.Context, workspaceID string) (*catalog.Info, error)
	// SetDefaultWorkspace sets the default workspace. Nil unsets it.
	SetDefaultWorkspace(ctx context.Context, workspace *catalog.Info) error
	// SetDefaultNamespace sets the default namespace. Nil unsets it.
	SetDefaultNamespace(ctx context.Context, namespace *catalog.Info) error
	// SetDefaultDataStore sets the default store of the workspace. Nil unsets it.
	SetDefaultDataStore(ctx context.Context, workspaceID string, store *catalog.Info) error
	// Close releases the store resources
	Close() error
}

// strip returns a copy of the entity with every reference reduced to a placeholder.
func strip(info *catalog.Info) *catalog.Info {
	clone := info.Clone()
	clone.MapValues(func(value any) any {
		switch v := value.(type) {
		case catalog.Ref:
			return v.Unresolve()
		case []catalog.Ref:
			out := make([]catalog.Ref, len(v))
			for i, ref := range v {
				out[i] = ref.Unresolve()
			}
			return out
		default:
			return v
		}
	})
	return clone
}

// resolve replaces the references of a stored entity with the entities
// lookup finds. Missing targets stay unresolved.
func resolve(info *catalog.Info, lookup func(catalog.Identity) (*catalog.Info, bool)) *catalog.Info {
	resolveRef := func(ref catalog.Ref) catalog.Ref {
		if target, ok := lookup(ref.Identity()); ok {
			return catalog.Resolved(target)
		}
		return ref
	}

	info.MapValues(func(value any) any {
		switch v := value.(type) {
		case catalog.Ref:
			return resolveRef(v)
		case []catalog.Ref:
			out := make([]catalog.Ref, len(v))
			for i, ref := range v {
				out[i] = resolveRef(ref)
			}
			return out
		default:
			return v
		}
	})
	return info
}

// checkRefs makes sure every reference of the entity names an existing entity.
// A reference to the entity itself is accepted.
func checkRefs(info *catalog.Info, exists func(catalog.Identity) bool) error {
	for _, ref := range info.Refs() {
		if ref.Identity() == info.Identity() {
			continue
		}
		if !exists(ref.Identity()) {
			return fmt.Errorf("%w: %s references missing %s", gerrors.ErrUnresolvedReference, info.Identity(), ref.Identity())
		}
	}
	return nil
}

func notFound(kind catalog.Kind, id string) error {
	return fmt.Errorf("%w: %s:%s", gerrors.ErrEntityNotFound, kind, id)
}

func validate(info *catalog.Info) error {
	if info == nil {
		return fmt.Errorf("%w: nil entity", gerrors.ErrInvalidEntity)
	}
	return nil
}

func contextErr(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
