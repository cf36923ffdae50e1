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

package store

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/atomic"

	"github.com/tochemey/catalogsync/catalog"
	gerrors "github.com/tochemey/catalogsync/errors"
)

// Memory is an in-memory Store kept in mutex-protected maps.
// Entities are cloned on the way in and out so callers never share
// the stored copies.
type Memory struct {
	mu       sync.RWMutex
	entities map[catalog.Kind]map[string]*catalog.Info

	defaultWorkspace string
	defaultNamespace string
	defaultStores    map[string]catalog.Identity

	closed *atomic.Bool
}

var _ Store = (*Memory)(nil)

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{
		entities:      make(map[catalog.Kind]map[string]*catalog.Info),
		defaultStores: make(map[string]catalog.Identity),
		closed:        atomic.NewBool(false),
	}
}

// Get returns the entity of the given kind and id
func (m *Memory) Get(ctx context.Context, kind catalog.Kind, id string) (*catalog.Info, error) {
	if err := m.ensureOpen(ctx); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	info, ok := m.get(catalog.Identity{Kind: kind, ID: id})
	if !ok {
		return nil, notFound(kind, id)
	}
	return info, nil
}

// ByName returns the first entity of the given kind with the given name
func (m *Memory) ByName(ctx context.Context, kind catalog.Kind, name string) (*catalog.Info, error) {
	infos, err := m.List(ctx, kind)
	if err != nil {
		return nil, err
	}
	for _, info := range infos {
		if info.Name() == name {
			return info, nil
		}
	}
	return nil, fmt.Errorf("%w: %s named %q", gerrors.ErrEntityNotFound, kind, name)
}

// List returns the entities of the given kind ordered by id
func (m *Memory) List(ctx context.Context, kind catalog.Kind) ([]*catalog.Info, error) {
	if err := m.ensureOpen(ctx); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	infos := make([]*catalog.Info, 0, len(m.entities[kind]))
	for id := range m.entities[kind] {
		info, _ := m.get(catalog.Identity{Kind: kind, ID: id})
		infos = append(infos, info)
	}
	slices.SortFunc(infos, func(a, b *catalog.Info) int {
		return cmp.Compare(a.ID(), b.ID())
	})
	return infos, nil
}

// Add stores the entity, overwriting an existing one
func (m *Memory) Add(ctx context.Context, info *catalog.Info) error {
	if err := m.ensureOpen(ctx); err != nil {
		return err
	}
	if err := validate(info); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := checkRefs(info, m.exists); err != nil {
		return err
	}
	m.put(strip(info))
	return nil
}

// Remove deletes the entity and returns it
func (m *Memory) Remove(ctx context.Context, kind catalog.Kind, id string) (*catalog.Info, error) {
	if err := m.ensureOpen(ctx); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	info, ok := m.get(catalog.Identity{Kind: kind, ID: id})
	if !ok {
		return nil, notFound(kind, id)
	}
	delete(m.entities[kind], id)
	return info, nil
}

// ApplyPatch applies the patch to the stored entity
func (m *Memory) ApplyPatch(ctx context.Context, kind catalog.Kind, id string, patch *catalog.Patch) (*catalog.Info, error) {
	if err := m.ensureOpen(ctx); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.entities[kind][id]
	if !ok {
		return nil, notFound(kind, id)
	}

	updated := stored.Clone()
	if err := patch.Apply(updated); err != nil {
		return nil, err
	}
	if err := checkRefs(updated, m.exists); err != nil {
		return nil, err
	}

	m.put(strip(updated))
	info, _ := m.get(updated.Identity())
	return info, nil
}

// DefaultWorkspace returns the default workspace
func (m *Memory) DefaultWorkspace(ctx context.Context) (*catalog.Info, error) {
	m.mu.RLock()
	id := m.defaultWorkspace
	m.mu.RUnlock()
	if id == "" {
		return nil, fmt.Errorf("%w: no default workspace", gerrors.ErrEntityNotFound)
	}
	return m.Get(ctx, catalog.Workspace, id)
}

// DefaultNamespace returns the default namespace
func (m *Memory) DefaultNamespace(ctx context.Context) (*catalog.Info, error) {
	m.mu.RLock()
	id := m.defaultNamespace
	m.mu.RUnlock()
	if id == "" {
		return nil, fmt.Errorf("%w: no default namespace", gerrors.ErrEntityNotFound)
	}
	return m.Get(ctx, catalog.Namespace, id)
}

// DefaultDataStore returns the default store of the workspace
func (m *Memory) DefaultDataStore(ctx context.Context, workspaceID string) (*catalog.Info, error) {
	m.mu.RLock()
	identity, ok := m.defaultStores[workspaceID]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: no default store for workspace %s", gerrors.ErrEntityNotFound, workspaceID)
	}
	return m.Get(ctx, identity.Kind, identity.ID)
}

// SetDefaultWorkspace sets the default workspace
func (m *Memory) SetDefaultWorkspace(ctx context.Context, workspace *catalog.Info) error {
	if err := m.ensureOpen(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if workspace == nil {
		m.defaultWorkspace = ""
		return nil
	}
	if !m.exists(workspace.Identity()) {
		return notFound(workspace.Kind(), workspace.ID())
	}
	m.defaultWorkspace = workspace.ID()
	return nil
}

// SetDefaultNamespace sets the default namespace
func (m *Memory) SetDefaultNamespace(ctx context.Context, namespace *catalog.Info) error {
	if err := m.ensureOpen(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if namespace == nil {
		m.defaultNamespace = ""
		return nil
	}
	if !m.exists(namespace.Identity()) {
		return notFound(namespace.Kind(), namespace.ID())
	}
	m.defaultNamespace = namespace.ID()
	return nil
}

// SetDefaultDataStore sets the default store of the workspace
func (m *Memory) SetDefaultDataStore(ctx context.Context, workspaceID string, store *catalog.Info) error {
	if err := m.ensureOpen(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.exists(catalog.Identity{Kind: catalog.Workspace, ID: workspaceID}) {
		return notFound(catalog.Workspace, workspaceID)
	}
	if store == nil {
		delete(m.defaultStores, workspaceID)
		return nil
	}
	if !m.exists(store.Identity()) {
		return notFound(store.Kind(), store.ID())
	}
	m.defaultStores[workspaceID] = store.Identity()
	return nil
}

// Close clears every entity
func (m *Memory) Close() error {
	if m.closed.Swap(true) {
		return nil
	}
	m.mu.Lock()
	m.entities = make(map[catalog.Kind]map[string]*catalog.Info)
	m.defaultStores = make(map[string]catalog.Identity)
	m.defaultWorkspace = ""
	m.defaultNamespace = ""
	m.mu.Unlock()
	return nil
}

// get returns a resolved copy. Callers hold the lock.
func (m *Memory) get(identity catalog.Identity) (*catalog.Info, bool) {
	stored, ok := m.entities[identity.Kind][identity.ID]
	if !ok {
		return nil, false
	}
	return resolve(stored.Clone(), func(target catalog.Identity) (*catalog.Info, bool) {
		info, ok := m.entities[target.Kind][target.ID]
		if !ok {
			return nil, false
		}
		return info.Clone(), true
	}), true
}

func (m *Memory) put(info *catalog.Info) {
	byID, ok := m.entities[info.Kind()]
	if !ok {
		byID = make(map[string]*catalog.Info)
		m.entities[info.Kind()] = byID
	}
	byID[info.ID()] = info
}

func (m *Memory) exists(identity catalog.Identity) bool {
	_, ok := m.entities[identity.Kind][identity.ID]
	return ok
}

func (m *Memory) ensureOpen(ctx context.Context) error {
	if m.closed.Load() {
		return gerrors.ErrStoreClosed
	}
	return contextErr(ctx)
}
