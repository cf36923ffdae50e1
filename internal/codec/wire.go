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

package codec

import (
	"fmt"

	"github.com/tochemey/catalogsync/catalog"
)

// value tags
const (
	valueNil uint8 = iota
	valueString
	valueBool
	valueInt
	valueFloat
	valueStrings
	valueMap
	valueRef
	valueRefs
)

type wireRef struct {
	Kind string `msgpack:"k"`
	ID   string `msgpack:"i"`
}

type wireValue struct {
	Type    uint8             `msgpack:"t"`
	String  string            `msgpack:"s,omitempty"`
	Bool    bool              `msgpack:"b,omitempty"`
	Int     int64             `msgpack:"n,omitempty"`
	Float   float64           `msgpack:"f,omitempty"`
	Strings []string          `msgpack:"ss,omitempty"`
	Map     map[string]string `msgpack:"m,omitempty"`
	Ref     *wireRef          `msgpack:"r,omitempty"`
	Refs    []wireRef         `msgpack:"rs,omitempty"`
}

type wireInfo struct {
	ID         string               `msgpack:"id"`
	Kind       string               `msgpack:"kind"`
	Properties map[string]wireValue `msgpack:"props,omitempty"`
}

type wireChange struct {
	Name string    `msgpack:"name"`
	Old  wireValue `msgpack:"old"`
	New  wireValue `msgpack:"new"`
}

type envelope struct {
	ID          string       `msgpack:"id"`
	Origin      string       `msgpack:"origin"`
	Destination string       `msgpack:"destination,omitempty"`
	Timestamp   int64        `msgpack:"ts"`
	Variant     string       `msgpack:"variant"`
	ObjectID    string       `msgpack:"objectId,omitempty"`
	Kind        string       `msgpack:"kind"`
	Object      *wireInfo    `msgpack:"object,omitempty"`
	HasPatch    bool         `msgpack:"hasPatch,omitempty"`
	Patch       []wireChange `msgpack:"patch,omitempty"`
	Default     *wireRef     `msgpack:"default,omitempty"`
	Workspace   *wireRef     `msgpack:"workspace,omitempty"`
	Sequence    int64        `msgpack:"seq,omitempty"`
}

// references travel as (kind, id) only
func toWireRef(ref catalog.Ref) wireRef {
	return wireRef{Kind: ref.Kind().String(), ID: ref.ID()}
}

func fromWireRef(ref wireRef) (catalog.Ref, error) {
	kind, err := catalog.ParseKind(ref.Kind)
	if err != nil {
		return catalog.Ref{}, err
	}
	return catalog.Unresolved(kind, ref.ID), nil
}

func toWireValue(value any) (wireValue, error) {
	switch v := value.(type) {
	case nil:
		return wireValue{Type: valueNil}, nil
	case string:
		return wireValue{Type: valueString, String: v}, nil
	case bool:
		return wireValue{Type: valueBool, Bool: v}, nil
	case int64:
		return wireValue{Type: valueInt, Int: v}, nil
	case int:
		return wireValue{Type: valueInt, Int: int64(v)}, nil
	case float64:
		return wireValue{Type: valueFloat, Float: v}, nil
	case []string:
		return wireValue{Type: valueStrings, Strings: v}, nil
	case map[string]string:
		return wireValue{Type: valueMap, Map: v}, nil
	case *catalog.Info:
		if v == nil {
			return wireValue{Type: valueNil}, nil
		}
		ref := toWireRef(catalog.RefTo(v))
		return wireValue{Type: valueRef, Ref: &ref}, nil
	case catalog.Ref:
		ref := toWireRef(v)
		return wireValue{Type: valueRef, Ref: &ref}, nil
	case []catalog.Ref:
		refs := make([]wireRef, len(v))
		for i, ref := range v {
			refs[i] = toWireRef(ref)
		}
		return wireValue{Type: valueRefs, Refs: refs}, nil
	default:
		return wireValue{}, fmt.Errorf("unsupported value type %T", value)
	}
}

func fromWireValue(value wireValue) (any, error) {
	switch value.Type {
	case valueNil:
		return nil, nil
	case valueString:
		return value.String, nil
	case valueBool:
		return value.Bool, nil
	case valueInt:
		return value.Int, nil
	case valueFloat:
		return value.Float, nil
	case valueStrings:
		if value.Strings == nil {
			return []string{}, nil
		}
		return value.Strings, nil
	case valueMap:
		if value.Map == nil {
			return map[string]string{}, nil
		}
		return value.Map, nil
	case valueRef:
		if value.Ref == nil {
			return nil, fmt.Errorf("reference value without reference")
		}
		return fromWireRef(*value.Ref)
	case valueRefs:
		refs := make([]catalog.Ref, len(value.Refs))
		for i, ref := range value.Refs {
			decoded, err := fromWireRef(ref)
			if err != nil {
				return nil, err
			}
			refs[i] = decoded
		}
		return refs, nil
	default:
		return nil, fmt.Errorf("unknown value type %d", value.Type)
	}
}

func toWireInfo(info *catalog.Info) (*wireInfo, error) {
	if info == nil {
		return nil, nil
	}
	out := &wireInfo{
		ID:         info.ID(),
		Kind:       info.Kind().String(),
		Properties: make(map[string]wireValue),
	}
	for _, name := range info.Properties() {
		value, _ := info.Get(name)
		encoded, err := toWireValue(value)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", name, err)
		}
		out.Properties[name] = encoded
	}
	return out, nil
}

func fromWireInfo(info *wireInfo) (*catalog.Info, error) {
	if info == nil {
		return nil, nil
	}
	kind, err := catalog.ParseKind(info.Kind)
	if err != nil {
		return nil, err
	}
	properties := make(map[string]any, len(info.Properties))
	for name, value := range info.Properties {
		decoded, err := fromWireValue(value)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", name, err)
		}
		properties[name] = decoded
	}
	return catalog.NewInfo(kind, info.ID, properties)
}

func toWirePatch(patch *catalog.Patch) ([]wireChange, error) {
	changes := patch.Changes()
	out := make([]wireChange, len(changes))
	for i, change := range changes {
		oldValue, err := toWireValue(change.Old)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", change.Name, err)
		}
		newValue, err := toWireValue(change.New)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", change.Name, err)
		}
		out[i] = wireChange{Name: change.Name, Old: oldValue, New: newValue}
	}
	return out, nil
}

func fromWirePatch(changes []wireChange) (*catalog.Patch, error) {
	patch := catalog.NewPatch()
	for _, change := range changes {
		oldValue, err := fromWireValue(change.Old)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", change.Name, err)
		}
		newValue, err := fromWireValue(change.New)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", change.Name, err)
		}
		patch.With(change.Name, oldValue, newValue)
	}
	return patch, nil
}
