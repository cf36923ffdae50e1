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
	"bytes"
	"context"
	"errors"
	"sync"

	"github.com/tochemey/catalogsync/bus"
	"github.com/tochemey/catalogsync/catalog"
	"github.com/tochemey/catalogsync/events"
	"github.com/tochemey/catalogsync/internal/codec"
	"github.com/tochemey/catalogsync/log"
	"github.com/tochemey/catalogsync/telemetry"
)

const (
	selfID  = "service-a"
	otherID = "service-b"
	topic   = "catalog.events"
)

var errTransport = errors.New("transport down")

// failingBus rejects every publication
type failingBus struct {
	bus.Bus
}

func (failingBus) Publish(context.Context, string, []byte) error {
	return errTransport
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

func bufferedLogger() (log.Logger, *syncBuffer) {
	buf := new(syncBuffer)
	return log.New(log.DebugLevel, buf), buf
}

func noopMetrics() *telemetry.Metrics {
	return telemetry.NoopMetrics()
}

// remote builds the remote counterpart of a local event as received from the given origin
func remote(event *events.Local, origin string) *events.Remote {
	return event.ToRemote(origin)
}

// wire encodes then decodes the event, the way a peer receives it
func wire(event *events.Remote) *events.Remote {
	c := codec.New()
	payload, err := c.Encode(event)
	if err != nil {
		panic(err)
	}
	decoded, err := c.Decode(payload)
	if err != nil {
		panic(err)
	}
	return decoded
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
