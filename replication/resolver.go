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
	"context"

	"github.com/tochemey/catalogsync/catalog"
	"github.com/tochemey/catalogsync/events"
	"github.com/tochemey/catalogsync/log"
	"github.com/tochemey/catalogsync/store"
	"github.com/tochemey/catalogsync/telemetry"
)

// Resolver replaces the reference placeholders of a decoded remote event with
// the local entities they name. It runs before every consumer.
//
// References that cannot be resolved stay placeholders and are tagged on the
// event. The resolver never drops an event.
type Resolver struct {
	store   store.Store
	logger  log.Logger
	metrics *telemetry.Metrics
}

// NewResolver creates an instance of Resolver
func NewResolver(store store.Store, logger log.Logger, metrics *telemetry.Metrics) *Resolver {
	return &Resolver{store: store, logger: logger, metrics: metrics}
}

// Resolve walks the object, the patch values and the default references of
// the event and resolves them in place.
func (x *Resolver) Resolve(ctx context.Context, event *events.Remote) {
	unresolved := 0
	resolveRef := func(ref catalog.Ref) catalog.Ref {
		if ref.IsResolved() {
			return ref
		}
		info, err := x.store.Get(ctx, ref.Kind(), ref.ID())
		if err != nil {
			x.logger.Debugf("unable to resolve %s of %s: %v", ref, event, err)
			event.MarkUnresolved(ref)
			unresolved++
			return ref
		}
		return catalog.Resolved(info)
	}

	resolveValue := func(value any) any {
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
	}

	if event.Object != nil {
		event.Object.MapValues(resolveValue)
	}
	event.Patch.MapValues(resolveValue)

	if event.Default != nil {
		ref := resolveRef(*event.Default)
		event.Default = &ref
	}
	if event.Workspace != nil {
		ref := resolveRef(*event.Workspace)
		event.Workspace = &ref
	}

	if unresolved > 0 {
		x.metrics.Unresolved(ctx, unresolved)
	}
}
