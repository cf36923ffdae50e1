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
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tochemey/catalogsync/catalog"
	gerrors "github.com/tochemey/catalogsync/errors"
)

func TestMemory(t *testing.T) {
	testStore(t, func(t *testing.T) Store {
		return NewMemory()
	})
}

func TestBolt(t *testing.T) {
	testStore(t, func(t *testing.T) Store {
		store, err := OpenBolt(filepath.Join(t.TempDir(), "catalog.db"))
		require.NoError(t, err)
		return store
	})

	t.Run("With durability across reopen", func(t *testing.T) {
		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "catalog.db")
		store, err := OpenBolt(path)
		require.NoError(t, err)
		assert.Equal(t, path, store.Path())

		ws := catalog.MustInfo(catalog.Workspace, "ws1", map[string]any{catalog.PropName: "topp"})
		require.NoError(t, store.Add(ctx, ws))
		require.NoError(t, store.SetDefaultWorkspace(ctx, ws))
		require.NoError(t, store.Close())

		store, err = OpenBolt(path)
		require.NoError(t, err)
		actual, err := store.DefaultWorkspace(ctx)
		require.NoError(t, err)
		assert.True(t, ws.Equal(actual))
		require.NoError(t, store.Close())
	})
}

func testStore(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()
	ws := catalog.MustInfo(catalog.Workspace, "ws1", map[string]any{catalog.PropName: "topp"})
	ds := catalog.MustInfo(catalog.DataStore, "s1", map[string]any{
		catalog.PropName:      "states",
		catalog.PropWorkspace: ws,
		catalog.PropEnabled:   true,
	})

	t.Run("With add and get", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Add(ctx, ws))
		require.NoError(t, store.Add(ctx, ds))

		actual, err := store.Get(ctx, catalog.DataStore, "s1")
		require.NoError(t, err)
		assert.True(t, ds.Equal(actual))
		assert.NotSame(t, ds, actual)

		// direct references come back resolved
		value, _ := actual.Get(catalog.PropWorkspace)
		ref := value.(catalog.Ref)
		require.True(t, ref.IsResolved())
		target, _ := ref.Entity()
		assert.Equal(t, "topp", target.Name())

		byName, err := store.ByName(ctx, catalog.DataStore, "states")
		require.NoError(t, err)
		assert.Equal(t, "s1", byName.ID())

		_, err = store.ByName(ctx, catalog.DataStore, "rivers")
		require.ErrorIs(t, err, gerrors.ErrEntityNotFound)
		require.NoError(t, store.Close())
	})
	t.Run("With unresolved reference", func(t *testing.T) {
		store := newStore(t)
		err := store.Add(ctx, ds)
		require.ErrorIs(t, err, gerrors.ErrUnresolvedReference)

		placeholder := catalog.MustInfo(catalog.DataStore, "s2", map[string]any{
			catalog.PropName:      "roads",
			catalog.PropWorkspace: catalog.Unresolved(catalog.Workspace, "ws1"),
		})
		require.ErrorIs(t, store.Add(ctx, placeholder), gerrors.ErrUnresolvedReference)

		require.NoError(t, store.Add(ctx, ws))
		require.NoError(t, store.Add(ctx, placeholder))
		require.NoError(t, store.Close())
	})
	t.Run("With duplicate add overwriting", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Add(ctx, ws))
		renamed := ws.Clone()
		require.NoError(t, renamed.Set(catalog.PropName, "sf"))
		require.NoError(t, store.Add(ctx, renamed))

		infos, err := store.List(ctx, catalog.Workspace)
		require.NoError(t, err)
		require.Len(t, infos, 1)
		assert.Equal(t, "sf", infos[0].Name())
		require.NoError(t, store.Close())
	})
	t.Run("With list ordered by id", func(t *testing.T) {
		store := newStore(t)
		for _, id := range []string{"c", "a", "b"} {
			require.NoError(t, store.Add(ctx, catalog.MustInfo(catalog.Style, id, map[string]any{catalog.PropName: id})))
		}
		infos, err := store.List(ctx, catalog.Style)
		require.NoError(t, err)
		require.Len(t, infos, 3)
		assert.Equal(t, "a", infos[0].ID())
		assert.Equal(t, "b", infos[1].ID())
		assert.Equal(t, "c", infos[2].ID())

		empty, err := store.List(ctx, catalog.Map)
		require.NoError(t, err)
		assert.Empty(t, empty)
		require.NoError(t, store.Close())
	})
	t.Run("With remove", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Add(ctx, ws))
		removed, err := store.Remove(ctx, catalog.Workspace, "ws1")
		require.NoError(t, err)
		assert.True(t, ws.Equal(removed))

		_, err = store.Get(ctx, catalog.Workspace, "ws1")
		require.ErrorIs(t, err, gerrors.ErrEntityNotFound)
		_, err = store.Remove(ctx, catalog.Workspace, "ws1")
		require.ErrorIs(t, err, gerrors.ErrEntityNotFound)
		require.NoError(t, store.Close())
	})
	t.Run("With patch", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Add(ctx, ws))
		require.NoError(t, store.Add(ctx, ds))

		patch := catalog.NewPatch().With(catalog.PropEnabled, true, false).With("description", nil, "boundaries")
		updated, err := store.ApplyPatch(ctx, catalog.DataStore, "s1", patch)
		require.NoError(t, err)
		enabled, _ := updated.Get(catalog.PropEnabled)
		assert.Equal(t, false, enabled)

		actual, err := store.Get(ctx, catalog.DataStore, "s1")
		require.NoError(t, err)
		assert.True(t, updated.Equal(actual))
		require.NoError(t, store.Close())
	})
	t.Run("With patch naming an unknown property", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Add(ctx, ws))
		patch := catalog.NewPatch().With(catalog.PropName, "topp", "sf").With("elephant", nil, 1)
		_, err := store.ApplyPatch(ctx, catalog.Workspace, "ws1", patch)
		require.ErrorIs(t, err, gerrors.ErrUnknownProperty)

		actual, err := store.Get(ctx, catalog.Workspace, "ws1")
		require.NoError(t, err)
		assert.Equal(t, "topp", actual.Name())
		require.NoError(t, store.Close())
	})
	t.Run("With patch on a missing entity", func(t *testing.T) {
		store := newStore(t)
		_, err := store.ApplyPatch(ctx, catalog.Workspace, "ws1", catalog.NewPatch())
		require.ErrorIs(t, err, gerrors.ErrEntityNotFound)
		require.NoError(t, store.Close())
	})
	t.Run("With defaults", func(t *testing.T) {
		store := newStore(t)
		ns := catalog.MustInfo(catalog.Namespace, "ns1", map[string]any{"prefix": "topp"})

		_, err := store.DefaultWorkspace(ctx)
		require.ErrorIs(t, err, gerrors.ErrEntityNotFound)
		require.ErrorIs(t, store.SetDefaultWorkspace(ctx, ws), gerrors.ErrEntityNotFound)

		require.NoError(t, store.Add(ctx, ws))
		require.NoError(t, store.Add(ctx, ns))
		require.NoError(t, store.Add(ctx, ds))

		require.NoError(t, store.SetDefaultWorkspace(ctx, ws))
		require.NoError(t, store.SetDefaultNamespace(ctx, ns))
		require.NoError(t, store.SetDefaultDataStore(ctx, "ws1", ds))

		actualWs, err := store.DefaultWorkspace(ctx)
		require.NoError(t, err)
		assert.Equal(t, "ws1", actualWs.ID())
		actualNs, err := store.DefaultNamespace(ctx)
		require.NoError(t, err)
		assert.Equal(t, "ns1", actualNs.ID())
		actualDs, err := store.DefaultDataStore(ctx, "ws1")
		require.NoError(t, err)
		assert.Equal(t, "s1", actualDs.ID())

		_, err = store.DefaultDataStore(ctx, "ws2")
		require.ErrorIs(t, err, gerrors.ErrEntityNotFound)
		require.ErrorIs(t, store.SetDefaultDataStore(ctx, "ws2", ds), gerrors.ErrEntityNotFound)

		require.NoError(t, store.SetDefaultWorkspace(ctx, nil))
		require.NoError(t, store.SetDefaultNamespace(ctx, nil))
		require.NoError(t, store.SetDefaultDataStore(ctx, "ws1", nil))
		_, err = store.DefaultWorkspace(ctx)
		require.ErrorIs(t, err, gerrors.ErrEntityNotFound)
		_, err = store.DefaultNamespace(ctx)
		require.ErrorIs(t, err, gerrors.ErrEntityNotFound)
		_, err = store.DefaultDataStore(ctx, "ws1")
		require.ErrorIs(t, err, gerrors.ErrEntityNotFound)
		require.NoError(t, store.Close())
	})
	t.Run("With closed store", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Close())
		require.NoError(t, store.Close())
		_, err := store.Get(ctx, catalog.Workspace, "ws1")
		require.ErrorIs(t, err, gerrors.ErrStoreClosed)
		require.ErrorIs(t, store.Add(ctx, ws), gerrors.ErrStoreClosed)
	})
}
