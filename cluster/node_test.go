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
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	"github.com/tochemey/catalogsync/bus"
	"github.com/tochemey/catalogsync/cache"
	"github.com/tochemey/catalogsync/catalog"
	gerrors "github.com/tochemey/catalogsync/errors"
	"github.com/tochemey/catalogsync/events"
	"github.com/tochemey/catalogsync/log"
	"github.com/tochemey/catalogsync/replication"
	"github.com/tochemey/catalogsync/sequence"
	"github.com/tochemey/catalogsync/store"
)

func TestConfig(t *testing.T) {
	t.Run("With defaults", func(t *testing.T) {
		config := NewConfig(bus.NewLocal())
		config.Sanitize()
		require.NoError(t, config.Validate())
		assert.NotEmpty(t, config.ServiceID())
		assert.Equal(t, DefaultTopic, config.Topic())
		assert.False(t, config.ReplicaCatchUp())
		assert.True(t, config.ownsStore)
		assert.True(t, config.ownsCounter)
		require.NoError(t, config.store.Close())
		require.NoError(t, config.counter.Close())
	})
	t.Run("With caller resources", func(t *testing.T) {
		shared := store.NewMemory()
		counter := sequence.NewMemory(0)
		config := NewConfig(bus.NewLocal(),
			WithServiceID("service-a"),
			WithTopic("geoserver"),
			WithStore(shared),
			WithSequence(counter),
			WithReplicaCatchUp())
		config.Sanitize()
		require.NoError(t, config.Validate())
		assert.Equal(t, "service-a", config.ServiceID())
		assert.Equal(t, "geoserver", config.Topic())
		assert.True(t, config.ReplicaCatchUp())
		assert.False(t, config.ownsStore)
		assert.False(t, config.ownsCounter)
	})
	t.Run("With missing bus", func(t *testing.T) {
		_, err := NewNode(NewConfig(nil))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bus is required")
	})
}

func TestNodeLifecycle(t *testing.T) {
	ctx := context.Background()
	transport := bus.NewLocal()

	node, err := NewNode(NewConfig(transport, WithLogger(log.DiscardLogger)))
	require.NoError(t, err)

	require.ErrorIs(t, node.Add(ctx, workspace("ws1", "topp")), gerrors.ErrNotRunning)
	require.ErrorIs(t, node.Stop(ctx), gerrors.ErrNotRunning)

	require.NoError(t, node.Start(ctx))
	require.ErrorIs(t, node.Start(ctx), gerrors.ErrAlreadyRunning)
	assert.Equal(t, 1, transport.SubscribersCount(DefaultTopic))

	require.NoError(t, node.Stop(ctx))
	assert.Zero(t, transport.SubscribersCount(DefaultTopic))
	assert.False(t, node.Running())
	require.NoError(t, transport.Close())
}

func TestNodeMutations(t *testing.T) {
	ctx := context.Background()

	t.Run("With update sequence", func(t *testing.T) {
		transport := bus.NewLocal()
		t.Cleanup(func() { _ = transport.Close() })
		node := startNode(t, transport)

		global := catalog.MustInfo(catalog.Global, catalog.GlobalID, map[string]any{catalog.PropUpdateSequence: int64(0)})
		require.NoError(t, node.Add(ctx, global))
		// cache the global configuration
		_, err := node.Get(ctx, catalog.Global, catalog.GlobalID)
		require.NoError(t, err)

		ws := workspace("ws1", "topp")
		require.NoError(t, node.Add(ctx, ws))
		_, err = node.Save(ctx, catalog.Workspace, ws.ID(), catalog.NewPatch().With(catalog.PropName, "topp", "sf"))
		require.NoError(t, err)
		require.NoError(t, node.SetDefaultWorkspace(ctx, ws))

		current, err := node.UpdateSequence(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 4, current)

		cached, err := node.Get(ctx, catalog.Global, catalog.GlobalID)
		require.NoError(t, err)
		value, _ := cached.Get(catalog.PropUpdateSequence)
		assert.Equal(t, int64(4), value)
	})
	t.Run("With event order", func(t *testing.T) {
		transport := bus.NewLocal()
		t.Cleanup(func() { _ = transport.Close() })
		node := startNode(t, transport)

		ws := workspace("ws1", "topp")
		require.NoError(t, node.Add(ctx, ws))

		var (
			mu       sync.Mutex
			variants []events.Variant
			names    []string
		)
		node.AddListener(replication.LocalListenerFunc(func(ctx context.Context, event *events.Local) error {
			mu.Lock()
			defer mu.Unlock()
			assert.Equal(t, node.ServiceID(), event.Origin)
			variants = append(variants, event.Variant)
			if event.Variant.IsModification() {
				// the store is read while the event is dispatched
				stored, err := node.config.store.Get(ctx, catalog.Workspace, ws.ID())
				require.NoError(t, err)
				names = append(names, stored.Name())
			}
			return nil
		}))

		updated, err := node.Save(ctx, catalog.Workspace, ws.ID(), catalog.NewPatch().With(catalog.PropName, "topp", "sf"))
		require.NoError(t, err)
		assert.Equal(t, "sf", updated.Name())
		assert.Equal(t, []events.Variant{events.Modify, events.PostModify, events.UpdateSequenceChanged}, variants)
		assert.Equal(t, []string{"topp", "sf"}, names)
	})
	t.Run("With empty patch", func(t *testing.T) {
		transport := bus.NewLocal()
		t.Cleanup(func() { _ = transport.Close() })
		node := startNode(t, transport)

		ws := workspace("ws1", "topp")
		require.NoError(t, node.Add(ctx, ws))

		published := atomic.NewInt32(0)
		_, err := transport.Subscribe(DefaultTopic, func(context.Context, []byte) { published.Inc() })
		require.NoError(t, err)

		before, err := node.UpdateSequence(ctx)
		require.NoError(t, err)

		saved, err := node.Save(ctx, catalog.Workspace, ws.ID(), catalog.NewPatch())
		require.NoError(t, err)
		assert.Equal(t, "topp", saved.Name())
		assert.EqualValues(t, 0, published.Load())

		after, err := node.UpdateSequence(ctx)
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})
	t.Run("With publish failure", func(t *testing.T) {
		transport := newFlakyBus()
		t.Cleanup(func() { _ = transport.Close() })
		node := startNode(t, transport)

		ws := workspace("ws1", "topp")
		require.NoError(t, node.Add(ctx, ws))

		transport.fail.Store(true)
		_, err := node.Save(ctx, catalog.Workspace, ws.ID(), catalog.NewPatch().With(catalog.PropName, "topp", "sf"))
		require.ErrorIs(t, err, gerrors.ErrPublishFailed)
		require.ErrorIs(t, err, errTransport)

		// the Modify event failed before the change was applied
		stored, err := node.Get(ctx, catalog.Workspace, ws.ID())
		require.NoError(t, err)
		assert.Equal(t, "topp", stored.Name())

		err = node.Add(ctx, workspace("ws2", "sf"))
		require.ErrorIs(t, err, gerrors.ErrPublishFailed)
	})
	t.Run("With business listener veto", func(t *testing.T) {
		transport := bus.NewLocal()
		t.Cleanup(func() { _ = transport.Close() })
		node := startNode(t, transport)

		ws := workspace("ws1", "topp")
		require.NoError(t, node.Add(ctx, ws))
		node.AddListener(replication.LocalListenerFunc(func(_ context.Context, event *events.Local) error {
			if event.Variant == events.Modify {
				return gerrors.ErrInvalidPatch
			}
			return nil
		}))

		_, err := node.Save(ctx, catalog.Workspace, ws.ID(), catalog.NewPatch().With(catalog.PropName, "topp", "sf"))
		require.ErrorIs(t, err, gerrors.ErrInvalidPatch)
		stored, err := node.Get(ctx, catalog.Workspace, ws.ID())
		require.NoError(t, err)
		assert.Equal(t, "topp", stored.Name())
	})
	t.Run("With unknown property", func(t *testing.T) {
		transport := bus.NewLocal()
		t.Cleanup(func() { _ = transport.Close() })
		node := startNode(t, transport)

		ws := workspace("ws1", "topp")
		require.NoError(t, node.Add(ctx, ws))
		_, err := node.Save(ctx, catalog.Workspace, ws.ID(), catalog.NewPatch().With("color", nil, "blue"))
		require.ErrorIs(t, err, gerrors.ErrUnknownProperty)
	})
	t.Run("With concurrent mutations", func(t *testing.T) {
		transport := bus.NewLocal()
		t.Cleanup(func() { _ = transport.Close() })
		node := startNode(t, transport)

		const count = 25
		var wg sync.WaitGroup
		for i := range count {
			wg.Add(1)
			go func() {
				defer wg.Done()
				id := "ws" + strings.Repeat("x", i+1)
				assert.NoError(t, node.Add(ctx, workspace(id, id)))
			}()
		}
		wg.Wait()

		current, err := node.UpdateSequence(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, count, current)

		list, err := node.List(ctx, catalog.Workspace)
		require.NoError(t, err)
		assert.Len(t, list, count)
	})
}

func TestRemoteListener(t *testing.T) {
	ctx := context.Background()
	transport := bus.NewLocal()
	t.Cleanup(func() { _ = transport.Close() })

	x := startNode(t, transport, WithServiceID("x"))
	y := startNode(t, transport, WithServiceID("y"))

	var (
		mu      sync.Mutex
		origins []string
	)
	y.AddRemoteListener(replication.RemoteListenerFunc(func(_ context.Context, event *events.Remote) error {
		mu.Lock()
		origins = append(origins, event.Origin)
		mu.Unlock()
		return nil
	}))

	require.NoError(t, x.Add(ctx, workspace("ws1", "topp")))
	require.NoError(t, y.Add(ctx, workspace("ws2", "sf")))

	// Add and UpdateSequenceChanged from x only
	assert.Equal(t, []string{"x", "x"}, origins)
}

// every scenario runs two services sharing an in-process bus
func TestScenarios(t *testing.T) {
	ctx := context.Background()

	t.Run("A: remote add reaches the replica store but not the cache", func(t *testing.T) {
		transport := bus.NewLocal()
		t.Cleanup(func() { _ = transport.Close() })
		x := startNode(t, transport, WithServiceID("x"), WithReplicaCatchUp())
		y := startNode(t, transport, WithServiceID("y"), WithReplicaCatchUp())

		require.NoError(t, x.Add(ctx, workspace("ws1", "topp")))

		assert.Zero(t, y.CatalogCache().Len())
		stored, err := y.config.store.Get(ctx, catalog.Workspace, "ws1")
		require.NoError(t, err)
		assert.Equal(t, "topp", stored.Name())

		// y followed the update sequence of x
		current, err := y.UpdateSequence(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 1, current)
	})
	t.Run("B: remote rename evicts the cached entity", func(t *testing.T) {
		transport := bus.NewLocal()
		t.Cleanup(func() { _ = transport.Close() })
		x := startNode(t, transport, WithServiceID("x"), WithReplicaCatchUp())
		y := startNode(t, transport, WithServiceID("y"), WithReplicaCatchUp())

		require.NoError(t, x.Add(ctx, workspace("ws1", "topp")))
		require.NoError(t, x.Add(ctx, workspace("ws2", "other")))
		_, err := y.Get(ctx, catalog.Workspace, "ws1")
		require.NoError(t, err)
		_, err = y.Get(ctx, catalog.Workspace, "ws2")
		require.NoError(t, err)
		require.Equal(t, 2, y.CatalogCache().Len())

		_, err = x.Save(ctx, catalog.Workspace, "ws1", catalog.NewPatch().With(catalog.PropName, "topp", "sf"))
		require.NoError(t, err)

		_, ok := y.CatalogCache().Get(cache.KeyOf(catalog.Workspace, "ws1"))
		assert.False(t, ok)
		_, ok = y.CatalogCache().Get(cache.KeyOf(catalog.Workspace, "ws2"))
		assert.True(t, ok)

		renamed, err := y.Get(ctx, catalog.Workspace, "ws1")
		require.NoError(t, err)
		assert.Equal(t, "sf", renamed.Name())
	})
	t.Run("C: remote default datastore evicts only its composite key", func(t *testing.T) {
		transport := bus.NewLocal()
		t.Cleanup(func() { _ = transport.Close() })
		shared := store.NewMemory()
		counter := sequence.NewMemory(0)
		t.Cleanup(func() {
			_ = shared.Close()
			_ = counter.Close()
		})
		x := startNode(t, transport, WithServiceID("x"), WithStore(shared), WithSequence(counter))
		y := startNode(t, transport, WithServiceID("y"), WithStore(shared), WithSequence(counter))

		ws1 := workspace("ws1", "topp")
		ws2 := workspace("ws2", "sf")
		require.NoError(t, x.Add(ctx, ws1))
		require.NoError(t, x.Add(ctx, ws2))
		s1 := dataStore("s1", "states", ws1)
		s1b := dataStore("s1b", "roads", ws1)
		s2 := dataStore("s2", "parcels", ws2)
		for _, ds := range []*catalog.Info{s1, s1b, s2} {
			require.NoError(t, x.Add(ctx, ds))
		}
		require.NoError(t, x.SetDefaultWorkspace(ctx, ws1))
		require.NoError(t, x.SetDefaultDataStore(ctx, ws1, s1b))
		require.NoError(t, x.SetDefaultDataStore(ctx, ws2, s2))

		_, err := y.DefaultWorkspace(ctx)
		require.NoError(t, err)
		cached, err := y.DefaultDataStore(ctx, "ws1")
		require.NoError(t, err)
		assert.Equal(t, "s1b", cached.ID())
		_, err = y.DefaultDataStore(ctx, "ws2")
		require.NoError(t, err)
		require.Equal(t, 3, y.CatalogCache().Len())

		require.NoError(t, x.SetDefaultDataStore(ctx, ws1, s1))

		assert.ElementsMatch(t, []cache.Key{
			cache.DefaultWorkspaceKey,
			cache.DefaultDataStoreKey(catalog.RefTo(ws2)),
		}, y.CatalogCache().Keys())

		current, err := y.DefaultDataStore(ctx, "ws1")
		require.NoError(t, err)
		assert.Equal(t, "s1", current.ID())
	})
	t.Run("D: remote modify of an entity missing locally is skipped", func(t *testing.T) {
		transport := bus.NewLocal()
		t.Cleanup(func() { _ = transport.Close() })
		x := startNode(t, transport, WithServiceID("x"), WithReplicaCatchUp())

		// y joins after the entity was created and never saw the Add
		require.NoError(t, x.Add(ctx, workspace("ws9", "late")))

		buf := new(syncBuffer)
		y := startNode(t, transport, WithServiceID("y"), WithReplicaCatchUp(), WithLogger(log.New(log.DebugLevel, buf)))

		assert.NotPanics(t, func() {
			_, err := x.Save(ctx, catalog.Workspace, "ws9", catalog.NewPatch().With(catalog.PropName, "late", "later"))
			require.NoError(t, err)
		})

		_, err := y.config.store.Get(ctx, catalog.Workspace, "ws9")
		assert.ErrorIs(t, err, gerrors.ErrEntityNotFound)
		// both the Modify and the PostModify were skipped
		assert.Equal(t, 2, strings.Count(buf.String(), `"level":"warn"`))
		assert.NotContains(t, buf.String(), `"level":"error"`)

		// y keeps working
		require.NoError(t, x.Add(ctx, workspace("ws10", "next")))
		_, err = y.config.store.Get(ctx, catalog.Workspace, "ws10")
		require.NoError(t, err)
	})
}

func TestSequenceHeartbeat(t *testing.T) {
	ctx := context.Background()
	transport := bus.NewLocal()
	t.Cleanup(func() { _ = transport.Close() })

	x := startNode(t, transport, WithServiceID("x"), WithSequenceHeartbeat(20*time.Millisecond))
	y := startNode(t, transport, WithServiceID("y"))

	var (
		mu        sync.Mutex
		sequences []int64
	)
	y.AddRemoteListener(replication.RemoteListenerFunc(func(_ context.Context, event *events.Remote) error {
		if event.Variant == events.UpdateSequenceChanged {
			mu.Lock()
			sequences = append(sequences, event.Sequence)
			mu.Unlock()
		}
		return nil
	}))

	require.NoError(t, x.Add(ctx, workspace("ws1", "topp")))

	// the mutation announces 1 once, the heartbeat keeps repeating it
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(sequences) >= 3
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, x.Stop(ctx))

	mu.Lock()
	defer mu.Unlock()
	for _, sequence := range sequences {
		assert.EqualValues(t, 1, sequence)
	}
}

func TestRemoteRemove(t *testing.T) {
	ctx := context.Background()

	t.Run("With a read between the store change and the eviction", func(t *testing.T) {
		transport := bus.NewLocal()
		t.Cleanup(func() { _ = transport.Close() })
		local := &readingStore{Memory: store.NewMemory()}
		t.Cleanup(func() { _ = local.Close() })

		x := startNode(t, transport, WithServiceID("x"), WithReplicaCatchUp())
		y := startNode(t, transport, WithServiceID("y"), WithReplicaCatchUp(), WithStore(local))

		require.NoError(t, x.Add(ctx, workspace("ws1", "topp")))

		read := false
		local.beforeRemove = func() {
			read = true
			_, _ = y.Get(ctx, catalog.Workspace, "ws1")
		}
		require.NoError(t, x.Remove(ctx, catalog.Workspace, "ws1"))
		require.True(t, read)

		_, ok := y.CatalogCache().Get(cache.KeyOf(catalog.Workspace, "ws1"))
		assert.False(t, ok)
		_, err := y.Get(ctx, catalog.Workspace, "ws1")
		assert.ErrorIs(t, err, gerrors.ErrEntityNotFound)
	})
	t.Run("With the default workspace removed", func(t *testing.T) {
		transport := bus.NewLocal()
		t.Cleanup(func() { _ = transport.Close() })
		x := startNode(t, transport, WithServiceID("x"), WithReplicaCatchUp())
		y := startNode(t, transport, WithServiceID("y"), WithReplicaCatchUp())

		ws1 := workspace("ws1", "topp")
		require.NoError(t, x.Add(ctx, ws1))
		require.NoError(t, x.SetDefaultWorkspace(ctx, ws1))
		current, err := y.DefaultWorkspace(ctx)
		require.NoError(t, err)
		require.Equal(t, "ws1", current.ID())

		var variants []events.Variant
		x.AddListener(replication.LocalListenerFunc(func(_ context.Context, event *events.Local) error {
			variants = append(variants, event.Variant)
			return nil
		}))

		require.NoError(t, x.Remove(ctx, catalog.Workspace, "ws1"))
		assert.Equal(t, []events.Variant{events.Remove, events.DefaultWorkspaceSet, events.UpdateSequenceChanged}, variants)

		_, err = x.DefaultWorkspace(ctx)
		assert.ErrorIs(t, err, gerrors.ErrEntityNotFound)
		_, err = y.DefaultWorkspace(ctx)
		assert.ErrorIs(t, err, gerrors.ErrEntityNotFound)

		// one bump per mutation
		sequence, err := x.UpdateSequence(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 3, sequence)
	})
	t.Run("With the default datastore removed", func(t *testing.T) {
		transport := bus.NewLocal()
		t.Cleanup(func() { _ = transport.Close() })
		x := startNode(t, transport, WithServiceID("x"), WithReplicaCatchUp())
		y := startNode(t, transport, WithServiceID("y"), WithReplicaCatchUp())

		ws1 := workspace("ws1", "topp")
		require.NoError(t, x.Add(ctx, ws1))
		s1 := dataStore("s1", "states", ws1)
		s2 := dataStore("s2", "roads", ws1)
		require.NoError(t, x.Add(ctx, s1))
		require.NoError(t, x.Add(ctx, s2))
		require.NoError(t, x.SetDefaultDataStore(ctx, ws1, s1))
		current, err := y.DefaultDataStore(ctx, "ws1")
		require.NoError(t, err)
		require.Equal(t, "s1", current.ID())

		// removing another store leaves the default alone
		require.NoError(t, x.Remove(ctx, catalog.DataStore, "s2"))
		current, err = y.DefaultDataStore(ctx, "ws1")
		require.NoError(t, err)
		assert.Equal(t, "s1", current.ID())

		require.NoError(t, x.Remove(ctx, catalog.DataStore, "s1"))
		_, err = x.DefaultDataStore(ctx, "ws1")
		assert.ErrorIs(t, err, gerrors.ErrEntityNotFound)
		_, err = y.DefaultDataStore(ctx, "ws1")
		assert.ErrorIs(t, err, gerrors.ErrEntityNotFound)

		// the workspace itself stays
		_, err = y.Get(ctx, catalog.Workspace, "ws1")
		require.NoError(t, err)
	})
}
