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

package events

import (
	"fmt"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"

	"github.com/tochemey/catalogsync/catalog"
	gerrors "github.com/tochemey/catalogsync/errors"
)

// Broadcast is the destination of an event meant for every service
const Broadcast = "*"

// Payload is the part of an event shared by local and remote events.
type Payload struct {
	// Variant tells what happened
	Variant Variant
	// ObjectID is the id of the affected entity. For default reference events
	// it is the id of the new default, empty when the default is unset.
	ObjectID string
	// Kind is the kind of the affected entity
	Kind catalog.Kind
	// Object is the entity carried by Add and Remove events
	Object *catalog.Info
	// Patch is carried by Modify and PostModify events
	Patch *catalog.Patch
	// Default is the new default reference, nil when unset
	Default *catalog.Ref
	// Workspace is the owning workspace of a DefaultDataStoreSet event
	Workspace *catalog.Ref
	// Sequence is the value carried by UpdateSequenceChanged events
	Sequence int64
}

// Identity returns the (kind, id) pair of the affected entity
func (p Payload) Identity() catalog.Identity {
	return catalog.Identity{Kind: p.Kind, ID: p.ObjectID}
}

// Validate checks that the payload carries what its variant requires.
func (p Payload) Validate() error {
	if !p.Variant.Valid() {
		return fmt.Errorf("%w: invalid variant %s", gerrors.ErrMalformedEvent, p.Variant)
	}
	if !p.Kind.Valid() {
		return fmt.Errorf("%w: invalid kind %s", gerrors.ErrMalformedEvent, p.Kind)
	}

	switch p.Variant {
	case Add:
		if p.Object == nil {
			return fmt.Errorf("%w: %s of %s carries no object", gerrors.ErrMalformedEvent, p.Variant, p.Identity())
		}
	case Remove:
		if p.Object == nil && p.ObjectID == "" {
			return fmt.Errorf("%w: %s carries neither object nor id", gerrors.ErrMalformedEvent, p.Variant)
		}
	case Modify, PostModify:
		if p.Patch == nil {
			return fmt.Errorf("%w: %s of %s carries no patch", gerrors.ErrMalformedEvent, p.Variant, p.Identity())
		}
	case DefaultDataStoreSet:
		if p.Workspace == nil {
			return fmt.Errorf("%w: %s carries no workspace", gerrors.ErrMalformedEvent, p.Variant)
		}
	}
	return nil
}

// Local is an event produced by this service. It exists only for the
// duration of the listener dispatch of the mutation that created it.
type Local struct {
	Payload
	// Origin is empty until the origin tagger runs
	Origin string
}

// String returns a printable form of the event
func (e *Local) String() string {
	return fmt.Sprintf("Local%s[%s, origin=%s]", e.Variant, e.Identity(), e.Origin)
}

// ToRemote maps the local event to its remote counterpart broadcast to every service.
func (e *Local) ToRemote(origin string) *Remote {
	return &Remote{
		Payload:     e.Payload,
		ID:          uuid.NewString(),
		Origin:      origin,
		Destination: Broadcast,
		Timestamp:   time.Now().UTC(),
	}
}

// Remote is an event received from, or sent to, the cluster bus.
// It always has its origin set.
type Remote struct {
	Payload
	// ID uniquely identifies the event
	ID string
	// Origin is the id of the service that produced the event
	Origin string
	// Destination is empty or Broadcast when the event targets every service
	Destination string
	// Timestamp is the time the event was produced
	Timestamp time.Time

	unresolved mapset.Set[catalog.Identity]
}

// AddressedTo reports whether the event targets the given service.
func (e *Remote) AddressedTo(serviceID string) bool {
	return e.Destination == "" || e.Destination == Broadcast || e.Destination == serviceID
}

// MarkUnresolved tags a reference that could not be resolved locally.
func (e *Remote) MarkUnresolved(ref catalog.Ref) {
	if e.unresolved == nil {
		e.unresolved = mapset.NewThreadUnsafeSet[catalog.Identity]()
	}
	e.unresolved.Add(ref.Identity())
}

// HasUnresolved reports whether the payload still holds placeholders.
func (e *Remote) HasUnresolved() bool {
	return e.unresolved != nil && e.unresolved.Cardinality() > 0
}

// Unresolved returns the identities of the placeholders left in the payload.
func (e *Remote) Unresolved() []catalog.Identity {
	if e.unresolved == nil {
		return nil
	}
	return e.unresolved.ToSlice()
}

// String returns a printable form of the event
func (e *Remote) String() string {
	return fmt.Sprintf("Remote%s[%s, id=%s, origin=%s]", e.Variant, e.Identity(), e.ID, e.Origin)
}

// NewAdd creates the local event announcing a new entity.
func NewAdd(info *catalog.Info) *Local {
	return &Local{Payload: Payload{
		Variant:  Add,
		ObjectID: info.ID(),
		Kind:     info.Kind(),
		Object:   info,
	}}
}

// NewRemove creates the local event announcing a removed entity.
func NewRemove(info *catalog.Info) *Local {
	return &Local{Payload: Payload{
		Variant:  Remove,
		ObjectID: info.ID(),
		Kind:     info.Kind(),
		Object:   info,
	}}
}

// NewModify creates the local event announcing an update about to be applied.
func NewModify(kind catalog.Kind, id string, patch *catalog.Patch) *Local {
	return &Local{Payload: Payload{
		Variant:  Modify,
		ObjectID: id,
		Kind:     kind,
		Patch:    patch,
	}}
}

// NewPostModify creates the local event announcing an applied update.
func NewPostModify(kind catalog.Kind, id string, patch *catalog.Patch) *Local {
	return &Local{Payload: Payload{
		Variant:  PostModify,
		ObjectID: id,
		Kind:     kind,
		Patch:    patch,
	}}
}

// NewDefaultWorkspaceSet creates the local event announcing a new default
// workspace. A nil workspace unsets the default.
func NewDefaultWorkspaceSet(workspace *catalog.Info) *Local {
	return newDefaultSet(DefaultWorkspaceSet, catalog.Workspace, workspace)
}

// NewDefaultNamespaceSet creates the local event announcing a new default
// namespace. A nil namespace unsets the default.
func NewDefaultNamespaceSet(namespace *catalog.Info) *Local {
	return newDefaultSet(DefaultNamespaceSet, catalog.Namespace, namespace)
}

// NewDefaultDataStoreSet creates the local event announcing the new default
// datastore of the given workspace. A nil store unsets the default.
func NewDefaultDataStoreSet(workspace, store *catalog.Info) *Local {
	event := newDefaultSet(DefaultDataStoreSet, catalog.DataStore, store)
	ref := catalog.Resolved(workspace)
	event.Workspace = &ref
	return event
}

// NewUpdateSequenceChanged creates the local event announcing a new update sequence value.
func NewUpdateSequenceChanged(sequence int64) *Local {
	return &Local{Payload: Payload{
		Variant:  UpdateSequenceChanged,
		ObjectID: catalog.GlobalID,
		Kind:     catalog.Global,
		Sequence: sequence,
	}}
}

func newDefaultSet(variant Variant, kind catalog.Kind, info *catalog.Info) *Local {
	event := &Local{Payload: Payload{Variant: variant, Kind: kind}}
	if info != nil {
		ref := catalog.Resolved(info)
		event.ObjectID = info.ID()
		event.Default = &ref
	}
	return event
}
