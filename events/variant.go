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
)

// Variant identifies what happened to an entity.
type Variant uint8

const (
	VariantUnknown Variant = iota
	// Add announces a new entity and carries it.
	Add
	// Remove announces a removed entity and carries it or only its id.
	Remove
	// Modify announces an update before it is applied and carries its patch.
	Modify
	// PostModify announces an update after it has been applied and carries its patch.
	PostModify
	// DefaultWorkspaceSet announces a new default workspace.
	DefaultWorkspaceSet
	// DefaultNamespaceSet announces a new default namespace.
	DefaultNamespaceSet
	// DefaultDataStoreSet announces a new default datastore of a workspace.
	DefaultDataStoreSet
	// UpdateSequenceChanged announces a new update sequence value.
	UpdateSequenceChanged
	numVariants
)

var variantNames = [numVariants]string{
	VariantUnknown:        "Unknown",
	Add:                   "Add",
	Remove:                "Remove",
	Modify:                "Modify",
	PostModify:            "PostModify",
	DefaultWorkspaceSet:   "DefaultWorkspaceSet",
	DefaultNamespaceSet:   "DefaultNamespaceSet",
	DefaultDataStoreSet:   "DefaultDataStoreSet",
	UpdateSequenceChanged: "UpdateSequenceChanged",
}

// String returns the variant name
func (v Variant) String() string {
	if v >= numVariants {
		return fmt.Sprintf("Variant(%d)", uint8(v))
	}
	return variantNames[v]
}

// Valid reports whether v is a declared variant
func (v Variant) Valid() bool {
	return v > VariantUnknown && v < numVariants
}

// IsModification reports whether the variant carries a patch.
func (v Variant) IsModification() bool {
	return v == Modify || v == PostModify
}

// IsDefaultReference reports whether the variant sets a default reference.
func (v Variant) IsDefaultReference() bool {
	return v == DefaultWorkspaceSet || v == DefaultNamespaceSet || v == DefaultDataStoreSet
}

// ParseVariant returns the variant matching the given name
func ParseVariant(name string) (Variant, error) {
	for v := Add; v < numVariants; v++ {
		if variantNames[v] == name {
			return v, nil
		}
	}
	return VariantUnknown, fmt.Errorf("unknown event variant %q", name)
}
