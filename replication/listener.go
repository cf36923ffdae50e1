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

// Package replication implements the propagation pipeline of catalog changes:
// the local stages turning mutations into cluster messages and the remote
// stages turning cluster messages into local cache and store operations.
//
// Local events flow through
//
//	OriginTagger -> business listeners -> Bridge -> bus
//
// and remote payloads through
//
//	decode -> destination check -> Deduplicator -> Resolver -> CatchUp -> Evictor -> listeners
//
// CatchUp changes the local store before Evictor clears the cache, so a read
// racing the two never caches the entity as it was before the change.
//
// Every remote consumer ignores events produced by its own service.
package replication

import (
	"context"

	"github.com/tochemey/catalogsync/events"
)

// LocalListener reacts to a local event during dispatch. An error aborts the
// dispatch and is returned to the mutation caller.
type LocalListener interface {
	OnLocal(ctx context.Context, event *events.Local) error
}

// LocalListenerFunc adapts a function to LocalListener
type LocalListenerFunc func(ctx context.Context, event *events.Local) error

// OnLocal calls f
func (f LocalListenerFunc) OnLocal(ctx context.Context, event *events.Local) error {
	return f(ctx, event)
}

// RemoteListener consumes a remote event. Errors are logged by the pipeline
// and never reach the bus.
type RemoteListener interface {
	OnRemote(ctx context.Context, event *events.Remote) error
}

// RemoteListenerFunc adapts a function to RemoteListener
type RemoteListenerFunc func(ctx context.Context, event *events.Remote) error

// OnRemote calls f
func (f RemoteListenerFunc) OnRemote(ctx context.Context, event *events.Remote) error {
	return f(ctx, event)
}
