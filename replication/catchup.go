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
	"errors"

	"github.com/tochemey/catalogsync/catalog"
	gerrors "github.com/tochemey/catalogsync/errors"
	"github.com/tochemey/catalogsync/events"
	"github.com/tochemey/catalogsync/log"
	"github.com/tochemey/catalogsync/sequence"
	"github.com/tochemey/catalogsync/store"
	"github.com/tochemey/catalogsync/telemetry"
)

const catchUpName = "catchup"

// CatchUp mirrors remote changes directly into the local store of a service
// whose backing storage replicates asynchronously. Store writes never emit
// events, so nothing applied here is published again.
//
// Missing targets are logged at WARN and skipped. Missing payloads are logged
// at ERROR and skipped. No event makes it fail.
type CatchUp struct {
	consumer
	store   store.Store
	counter sequence.Counter
}

var _ RemoteListener = (*CatchUp)(nil)

// NewCatchUp creates an instance of CatchUp. The counter is optional.
func NewCatchUp(serviceID string, store store.Store, counter sequence.Counter, logger log.Logger, metrics *telemetry.Metrics) *CatchUp {
	return &CatchUp{
		consumer: consumer{
			name:      catchUpName,
			serviceID: serviceID,
			logger:    logger,
			metrics:   metrics,
		},
		store:   store,
		counter: counter,
	}
}

// OnRemote applies the event to the local store
func (x *CatchUp) OnRemote(ctx context.Context, event *events.Remote) error {
	if x.skipSelf(ctx, event) {
		return nil
	}

	switch event.Variant {
	case events.Add:
		x.add(ctx, event)
	case events.Remove:
		x.remove(ctx, event)
	case events.Modify, events.PostModify:
		x.modify(ctx, event)
	case events.DefaultWorkspaceSet:
		x.setDefault(ctx, event, x.store.SetDefaultWorkspace)
	case events.DefaultNamespaceSet:
		x.setDefault(ctx, event, x.store.SetDefaultNamespace)
	case events.DefaultDataStoreSet:
		x.setDefaultDataStore(ctx, event)
	case events.UpdateSequenceChanged:
		x.observeSequence(ctx, event)
	default:
		x.malformed(ctx, event, "unknown variant")
	}
	return nil
}

func (x *CatchUp) add(ctx context.Context, event *events.Remote) {
	if event.Object == nil {
		x.malformed(ctx, event, "no object")
		return
	}
	if missing := unresolved(event.Object.Refs()); len(missing) > 0 {
		x.absent(ctx, event, "references %v are not present locally", missing)
		return
	}

	// an existing entity is overwritten
	if err := x.store.Add(ctx, event.Object); err != nil {
		x.failed(ctx, event, err)
		return
	}
	x.logger.Debugf("added %s", event.Object)
}

func (x *CatchUp) remove(ctx context.Context, event *events.Remote) {
	id := event.ObjectID
	if id == "" && event.Object != nil {
		id = event.Object.ID()
	}
	if id == "" {
		x.malformed(ctx, event, "no entity id")
		return
	}

	if _, err := x.store.Get(ctx, event.Kind, id); err != nil {
		if errors.Is(err, gerrors.ErrEntityNotFound) {
			x.absent(ctx, event, "%s:%s is already absent", event.Kind, id)
			return
		}
		x.failed(ctx, event, err)
		return
	}

	if _, err := x.store.Remove(ctx, event.Kind, id); err != nil {
		x.failed(ctx, event, err)
		return
	}
	x.logger.Debugf("removed %s:%s", event.Kind, id)
}

func (x *CatchUp) modify(ctx context.Context, event *events.Remote) {
	if event.Patch == nil {
		x.malformed(ctx, event, "no patch")
		return
	}
	if event.Patch.IsEmpty() {
		return
	}
	// placeholders among the old values do not matter, they are not written
	if missing := unresolved(event.Patch.Refs()); len(missing) > 0 {
		x.absent(ctx, event, "references %v are not present locally", missing)
		return
	}

	if _, err := x.store.Get(ctx, event.Kind, event.ObjectID); err != nil {
		if errors.Is(err, gerrors.ErrEntityNotFound) {
			// eventual consistency window: a later Add or a resync closes the gap
			x.absent(ctx, event, "%s:%s is not present locally", event.Kind, event.ObjectID)
			return
		}
		x.failed(ctx, event, err)
		return
	}

	if _, err := x.store.ApplyPatch(ctx, event.Kind, event.ObjectID, event.Patch); err != nil {
		x.failed(ctx, event, err)
		return
	}
	x.logger.Debugf("patched %s:%s with %v", event.Kind, event.ObjectID, event.Patch.Names())
}

func (x *CatchUp) setDefault(ctx context.Context, event *events.Remote, set func(context.Context, *catalog.Info) error) {
	var target *catalog.Info
	if event.Default != nil {
		entity, ok := event.Default.Entity()
		if !ok {
			x.absent(ctx, event, "default %s is not present locally", event.Default.Identity())
			return
		}
		target = entity
	}

	if err := set(ctx, target); err != nil {
		x.failed(ctx, event, err)
		return
	}
	x.logger.Debugf("applied %s", event)
}

func (x *CatchUp) setDefaultDataStore(ctx context.Context, event *events.Remote) {
	if event.Workspace == nil {
		x.malformed(ctx, event, "no workspace")
		return
	}
	if !event.Workspace.IsResolved() {
		x.absent(ctx, event, "workspace %s is not present locally", event.Workspace.Identity())
		return
	}

	var target *catalog.Info
	if event.Default != nil {
		entity, ok := event.Default.Entity()
		if !ok {
			x.absent(ctx, event, "store %s is not present locally", event.Default.Identity())
			return
		}
		target = entity
	}

	if err := x.store.SetDefaultDataStore(ctx, event.Workspace.ID(), target); err != nil {
		x.failed(ctx, event, err)
		return
	}
	x.logger.Debugf("applied %s", event)
}

// observeSequence merges the remote update sequence. Stale values are ignored.
func (x *CatchUp) observeSequence(ctx context.Context, event *events.Remote) {
	if x.counter == nil {
		return
	}

	moved, err := x.counter.Observe(ctx, event.Sequence)
	if err != nil {
		x.failed(ctx, event, err)
		return
	}
	if !moved {
		x.logger.Debugf("ignoring stale update sequence %d from %s", event.Sequence, event.Origin)
		x.metrics.Skipped(ctx, x.name, telemetry.ReasonStale)
		return
	}

	global, err := x.store.Get(ctx, catalog.Global, catalog.GlobalID)
	if err != nil {
		return
	}
	previous, _ := global.Get(catalog.PropUpdateSequence)
	patch := catalog.NewPatch().With(catalog.PropUpdateSequence, previous, event.Sequence)
	if _, err := x.store.ApplyPatch(ctx, catalog.Global, catalog.GlobalID, patch); err != nil {
		x.failed(ctx, event, err)
	}
}

func (x *CatchUp) absent(ctx context.Context, event *events.Remote, format string, args ...any) {
	x.logger.Warnf("skipping %s: "+format, append([]any{event}, args...)...)
	x.metrics.Skipped(ctx, x.name, telemetry.ReasonAbsent)
}

func (x *CatchUp) malformed(ctx context.Context, event *events.Remote, reason string) {
	x.logger.Errorf("skipping malformed %s: %s", event, reason)
	x.metrics.Skipped(ctx, x.name, telemetry.ReasonMalformed)
}

// failed classifies a store error: missing entities are an expected race,
// everything else is reported at ERROR.
func (x *CatchUp) failed(ctx context.Context, event *events.Remote, err error) {
	if errors.Is(err, gerrors.ErrEntityNotFound) || errors.Is(err, gerrors.ErrUnresolvedReference) {
		x.absent(ctx, event, "%v", err)
		return
	}
	x.logger.Errorf("failed to apply %s: %v", event, err)
	x.metrics.Skipped(ctx, x.name, telemetry.ReasonMalformed)
}

func unresolved(refs []catalog.Ref) []catalog.Identity {
	var missing []catalog.Identity
	for _, ref := range refs {
		if !ref.IsResolved() {
			missing = append(missing, ref.Identity())
		}
	}
	return missing
}
