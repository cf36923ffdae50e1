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
	"maps"
	"slices"
	"strings"

	gerrors "github.com/tochemey/catalogsync/errors"
)

// Info is a catalog or configuration entity: a kind, a stable id and a set of
// named properties. Property names are restricted to the schema of the kind.
//
// Supported property values are string, bool, int64, float64, []string,
// map[string]string, Ref, []Ref and nil.
type Info struct {
	id         string
	kind       Kind
	properties map[string]any
}

// NewInfo creates an entity and validates its properties against the schema
// of the kind.
func NewInfo(kind Kind, id string, properties map[string]any) (*Info, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %s", gerrors.ErrInvalidKind, kind)
	}
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: id is required", gerrors.ErrInvalidEntity)
	}

	info := &Info{
		id:         id,
		kind:       kind,
		properties: make(map[string]any, len(properties)),
	}

	for name, value := range properties {
		if err := info.Set(name, value); err != nil {
			return nil, err
		}
	}
	return info, nil
}

// MustInfo is like NewInfo but panics on error.
func MustInfo(kind Kind, id string, properties map[string]any) *Info {
	info, err := NewInfo(kind, id, properties)
	if err != nil {
		panic(err)
	}
	return info
}

// ID returns the entity id
func (x *Info) ID() string {
	return x.id
}

// Kind returns the entity kind
func (x *Info) Kind() Kind {
	return x.kind
}

// Identity returns the (kind, id) pair of the entity
func (x *Info) Identity() Identity {
	return Identity{Kind: x.kind, ID: x.id}
}

// Name returns the name property when set
func (x *Info) Name() string {
	name, _ := x.properties[PropName].(string)
	return name
}

// Get returns the value of the given property
func (x *Info) Get(name string) (any, bool) {
	value, ok := x.properties[name]
	return value, ok
}

// Set sets the value of the given property. Setting nil clears it.
func (x *Info) Set(name string, value any) error {
	if !HasProperty(x.kind, name) {
		return fmt.Errorf("%w: %s has no property %q", gerrors.ErrUnknownProperty, x.kind, name)
	}

	normalized, err := normalize(value)
	if err != nil {
		return fmt.Errorf("%w: property %q: %v", gerrors.ErrInvalidEntity, name, err)
	}

	if normalized == nil {
		delete(x.properties, name)
		return nil
	}
	x.properties[name] = normalized
	return nil
}

// Properties returns the property names in sorted order
func (x *Info) Properties() []string {
	return slices.Sorted(maps.Keys(x.properties))
}

// Refs returns every reference held by the entity properties.
func (x *Info) Refs() []Ref {
	var refs []Ref
	for _, name := range x.Properties() {
		refs = appendRefs(refs, x.properties[name])
	}
	return refs
}

// MapValues replaces every property value with fn(value).
// It is used to swap references in place.
func (x *Info) MapValues(fn func(value any) any) {
	for name, value := range x.properties {
		x.properties[name] = fn(value)
	}
}

// Clone returns a deep copy of the entity.
// Referenced entities are shared, not copied.
func (x *Info) Clone() *Info {
	if x == nil {
		return nil
	}
	clone := &Info{
		id:         x.id,
		kind:       x.kind,
		properties: make(map[string]any, len(x.properties)),
	}
	for name, value := range x.properties {
		clone.properties[name] = cloneValue(value)
	}
	return clone
}

// Equal reports whether both entities share kind, id and property values.
// References are compared by (kind, id).
func (x *Info) Equal(other *Info) bool {
	if x == nil || other == nil {
		return x == other
	}
	if x.id != other.id || x.kind != other.kind || len(x.properties) != len(other.properties) {
		return false
	}
	for name, value := range x.properties {
		otherValue, ok := other.properties[name]
		if !ok || !ValueEqual(value, otherValue) {
			return false
		}
	}
	return true
}

// String returns a printable form of the entity
func (x *Info) String() string {
	return fmt.Sprintf("%s[id=%s, name=%s]", x.kind, x.id, x.Name())
}

// ValueEqual compares two property values.
func ValueEqual(a, b any) bool {
	switch av := a.(type) {
	case nil:
		return b == nil
	case Ref:
		bv, ok := b.(Ref)
		return ok && av.Equal(bv)
	case []Ref:
		bv, ok := b.([]Ref)
		return ok && slices.EqualFunc(av, bv, Ref.Equal)
	case []string:
		bv, ok := b.([]string)
		return ok && slices.Equal(av, bv)
	case map[string]string:
		bv, ok := b.(map[string]string)
		return ok && maps.Equal(av, bv)
	default:
		return a == b
	}
}

// normalize coerces the numeric types to int64/float64 and rejects unsupported values.
func normalize(value any) (any, error) {
	switch v := value.(type) {
	case nil, string, bool, int64, float64, Ref, []Ref, []string, map[string]string:
		return v, nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case float32:
		return float64(v), nil
	case *Info:
		if v == nil {
			return nil, nil
		}
		return Resolved(v), nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", value)
	}
}

func cloneValue(value any) any {
	switch v := value.(type) {
	case []string:
		return slices.Clone(v)
	case []Ref:
		return slices.Clone(v)
	case map[string]string:
		return maps.Clone(v)
	default:
		return v
	}
}

func appendRefs(refs []Ref, value any) []Ref {
	switch v := value.(type) {
	case Ref:
		return append(refs, v)
	case []Ref:
		return append(refs, v...)
	default:
		return refs
	}
}
