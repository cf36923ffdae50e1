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

package catalog

import "fmt"

// Identity is the comparable (kind, id) pair naming an entity.
type Identity struct {
	Kind Kind
	ID   string
}

// String returns the identity as kind:id
func (x Identity) String() string {
	return fmt.Sprintf("%s:%s", x.Kind, x.ID)
}

// Ref references an entity. A Ref is either resolved, and then carries the
// entity it points at, or it is a resolving placeholder that only knows the
// (kind, id) pair of its target and must be dereferenced against a local store
// before use.
//
// Two references are equal when they name the same (kind, id), whatever their state.
type Ref struct {
	kind   Kind
	id     string
	entity *Info
}

// Unresolved creates a placeholder reference
func Unresolved(kind Kind, id string) Ref {
	return Ref{kind: kind, id: id}
}

// Resolved creates a reference to the given entity.
// It panics when info is nil.
func Resolved(info *Info) Ref {
	if info == nil {
		panic("catalog: resolved reference to a nil entity")
	}
	return Ref{kind: info.Kind(), id: info.ID(), entity: info}
}

// RefTo returns a placeholder pointing at the given entity identity.
func RefTo(info *Info) Ref {
	return Unresolved(info.Kind(), info.ID())
}

// Kind returns the kind of the referenced entity
func (r Ref) Kind() Kind {
	return r.kind
}

// ID returns the id of the referenced entity
func (r Ref) ID() string {
	return r.id
}

// Identity returns the (kind, id) pair of the referenced entity
func (r Ref) Identity() Identity {
	return Identity{Kind: r.kind, ID: r.id}
}

// IsResolved reports whether the reference carries its entity.
func (r Ref) IsResolved() bool {
	return r.entity != nil
}

// Entity returns the referenced entity when the reference is resolved.
func (r Ref) Entity() (*Info, bool) {
	return r.entity, r.entity != nil
}

// Equal compares two references by (kind, id) only.
func (r Ref) Equal(other Ref) bool {
	return r.kind == other.kind && r.id == other.id
}

// Unresolve drops the carried entity and returns the placeholder.
func (r Ref) Unresolve() Ref {
	return Ref{kind: r.kind, id: r.id}
}

// String returns a printable form of the reference
func (r Ref) String() string {
	if r.entity == nil {
		return fmt.Sprintf("ref(%s:%s, unresolved)", r.kind, r.id)
	}
	return fmt.Sprintf("ref(%s:%s)", r.kind, r.id)
}
