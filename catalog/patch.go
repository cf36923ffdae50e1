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

import (
	"fmt"

	gerrors "github.com/tochemey/catalogsync/errors"
)

// Change is a single property update within a patch
type Change struct {
	Name string
	Old  any
	New  any
}

// Patch is an ordered set of property changes describing a partial update.
// Property names are unique within a patch. An empty patch is a valid state
// meaning nothing changed.
type Patch struct {
	changes []Change
}

// NewPatch creates an empty patch
func NewPatch() *Patch {
	return &Patch{}
}

// With records a change and returns the patch for chaining.
// Recording a name twice replaces the earlier change in place.
func (p *Patch) With(name string, oldValue, newValue any) *Patch {
	change := Change{Name: name, Old: oldValue, New: newValue}
	for i := range p.changes {
		if p.changes[i].Name == name {
			p.changes[i] = change
			return p
		}
	}
	p.changes = append(p.changes, change)
	return p
}

// IsEmpty reports whether the patch holds no change.
// A nil patch is empty.
func (p *Patch) IsEmpty() bool {
	return p == nil || len(p.changes) == 0
}

// Len returns the number of changes
func (p *Patch) Len() int {
	if p == nil {
		return 0
	}
	return len(p.changes)
}

// Names returns the changed property names in patch order
func (p *Patch) Names() []string {
	if p == nil {
		return nil
	}
	names := make([]string, len(p.changes))
	for i, change := range p.changes {
		names[i] = change.Name
	}
	return names
}

// Changes returns a copy of the changes in patch order
func (p *Patch) Changes() []Change {
	if p == nil {
		return nil
	}
	out := make([]Change, len(p.changes))
	copy(out, p.changes)
	return out
}

// Get returns the change recorded for the given property
func (p *Patch) Get(name string) (Change, bool) {
	if p == nil {
		return Change{}, false
	}
	for _, change := range p.changes {
		if change.Name == name {
			return change, true
		}
	}
	return Change{}, false
}

// Refs returns every reference held by the new values of the patch.
func (p *Patch) Refs() []Ref {
	if p == nil {
		return nil
	}
	var refs []Ref
	for _, change := range p.changes {
		refs = appendRefs(refs, change.New)
	}
	return refs
}

// MapValues replaces the old and new values of every change with fn(value).
func (p *Patch) MapValues(fn func(value any) any) {
	if p == nil {
		return
	}
	for i := range p.changes {
		p.changes[i].Old = fn(p.changes[i].Old)
		p.changes[i].New = fn(p.changes[i].New)
	}
}

// Apply sets every changed property of info to its new value.
// Names outside the schema of the kind fail the whole patch with
// ErrUnknownProperty and info is left untouched.
func (p *Patch) Apply(info *Info) error {
	if info == nil {
		return fmt.Errorf("%w: nil entity", gerrors.ErrInvalidPatch)
	}
	if p.IsEmpty() {
		return nil
	}

	normalized := make([]any, len(p.changes))
	for i, change := range p.changes {
		if !HasProperty(info.kind, change.Name) {
			return fmt.Errorf("%w: %s has no property %q", gerrors.ErrUnknownProperty, info.kind, change.Name)
		}
		value, err := normalize(change.New)
		if err != nil {
			return fmt.Errorf("%w: property %q: %v", gerrors.ErrInvalidPatch, change.Name, err)
		}
		normalized[i] = value
	}

	for i, change := range p.changes {
		if normalized[i] == nil {
			delete(info.properties, change.Name)
			continue
		}
		info.properties[change.Name] = normalized[i]
	}
	return nil
}

// Clone returns a copy of the patch
func (p *Patch) Clone() *Patch {
	if p == nil {
		return nil
	}
	clone := &Patch{changes: make([]Change, len(p.changes))}
	for i, change := range p.changes {
		clone.changes[i] = Change{Name: change.Name, Old: cloneValue(change.Old), New: cloneValue(change.New)}
	}
	return clone
}

// Diff builds the patch turning before into after.
// Both entities must share kind and id.
func Diff(before, after *Info) (*Patch, error) {
	if before == nil || after == nil {
		return nil, fmt.Errorf("%w: nil entity", gerrors.ErrInvalidPatch)
	}
	if before.Identity() != after.Identity() {
		return nil, fmt.Errorf("%w: %s and %s differ", gerrors.ErrInvalidPatch, before.Identity(), after.Identity())
	}

	patch := NewPatch()
	for _, name := range after.Properties() {
		newValue := after.properties[name]
		oldValue, ok := before.properties[name]
		if !ok || !ValueEqual(oldValue, newValue) {
			patch.With(name, cloneValue(oldValue), cloneValue(newValue))
		}
	}

	for _, name := range before.Properties() {
		if _, ok := after.properties[name]; !ok {
			patch.With(name, cloneValue(before.properties[name]), nil)
		}
	}
	return patch, nil
}
