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
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	"github.com/tochemey/catalogsync/bus"
	"github.com/tochemey/catalogsync/catalog"
	"github.com/tochemey/catalogsync/log"
	"github.com/tochemey/catalogsync/store"
)

var errTransport = errors.New("transport down")

// flakyBus is a local bus whose publications fail on demand
type flakyBus struct {
	*bus.Local
	fail *atomic.Bool
}

func newFlakyBus() *flakyBus {
	return &flakyBus{Local: bus.NewLocal(), fail: atomic.NewBool(false)}
}

func (b *flakyBus) Publish(ctx context.Context, topic string, payload []byte) error {
	if b.fail.Load() {
		return errTransport
	}
	return b.Local.Publish(ctx, topic, payload)
}

// readingStore runs a read of its own before every removal, the way a
// concurrent reader would interleave with a replicated change
type readingStore struct {
	*store.Memory
	beforeRemove func()
}

func (s *readingStore) Remove(ctx context.Context, kind catalog.Kind, id string) (*catalog.Info, error) {
	if s.beforeRemove != nil {
		s.beforeRemove()
	}
	return s.Memory.Remove(ctx, kind, id)
}

// syncBuffer is a bytes.Buffer safe to share with a logger
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// startNode creates and starts a node stopped at the end of the test
func startNode(t *testing.T, transport bus.Bus, opts ...Option) *Node {
	t.Helper()
	opts = append([]Option{WithLogger(log.DiscardLogger)}, opts...)
	node, err := NewNode(NewConfig(transport, opts...))
	require.NoError(t, err)
	require.NoError(t, node.Start(context.Background()))
	t.Cleanup(func() {
		if node.Running() {
			require.NoError(t, node.Stop(context.Background()))
		}
	})
	return node
}

func workspace(id, name string) *catalog.Info {
	return catalog.MustInfo(catalog.Workspace, id, map[string]any{catalog.PropName: name})
}

func dataStore(id, name string, ws *catalog.Info) *catalog.Info {
	return catalog.MustInfo(catalog.DataStore, id, map[string]any{
		catalog.PropName:      name,
		catalog.PropWorkspace: ws,
		catalog.PropEnabled:   true,
	})
}
