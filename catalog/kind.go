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

// Kind identifies a replicable entity category.
// Every event carries exactly one Kind.
type Kind uint8

const (
	KindUnknown Kind = iota
	Workspace
	Namespace
	DataStore
	CoverageStore
	WMSStore
	WMTSStore
	FeatureType
	Coverage
	WMSLayer
	WMTSLayer
	Layer
	LayerGroup
	Style
	Map
	Service
	WMSService
	WFSService
	WCSService
	WMTSService
	Settings
	Logging
	Global
	numKinds
)

var kindNames = [numKinds]string{
	KindUnknown:   "Unknown",
	Workspace:     "Workspace",
	Namespace:     "Namespace",
	DataStore:     "DataStore",
	CoverageStore: "CoverageStore",
	WMSStore:      "WMSStore",
	WMTSStore:     "WMTSStore",
	FeatureType:   "FeatureType",
	Coverage:      "Coverage",
	WMSLayer:      "WMSLayer",
	WMTSLayer:     "WMTSLayer",
	Layer:         "Layer",
	LayerGroup:    "LayerGroup",
	Style:         "Style",
	Map:           "Map",
	Service:       "Service",
	WMSService:    "WMSService",
	WFSService:    "WFSService",
	WCSService:    "WCSService",
	WMTSService:   "WMTSService",
	Settings:      "Settings",
	Logging:       "Logging",
	Global:        "Global",
}

// Kinds returns every valid kind in declaration order.
func Kinds() []Kind {
	kinds := make([]Kind, 0, numKinds-1)
	for k := Workspace; k < numKinds; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

// String returns the kind name
func (k Kind) String() string {
	if k >= numKinds {
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
	return kindNames[k]
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool {
	return k > KindUnknown && k < numKinds
}

// IsStore reports whether the kind is a store subtype.
func (k Kind) IsStore() bool {
	switch k {
	case DataStore, CoverageStore, WMSStore, WMTSStore:
		return true
	default:
		return false
	}
}

// IsResource reports whether the kind is a resource subtype.
func (k Kind) IsResource() bool {
	switch k {
	case FeatureType, Coverage, WMSLayer, WMTSLayer:
		return true
	default:
		return false
	}
}

// IsService reports whether the kind is a service subtype.
func (k Kind) IsService() bool {
	switch k {
	case Service, WMSService, WFSService, WCSService, WMTSService:
		return true
	default:
		return false
	}
}

// IsConfig reports whether the kind belongs to the configuration scope
// (services, settings, logging and the global configuration) rather than
// to the catalog scope.
func (k Kind) IsConfig() bool {
	return k.IsService() || k == Settings || k == Logging || k == Global
}

// ParseKind returns the kind matching the given name.
func ParseKind(name string) (Kind, error) {
	for k := Workspace; k < numKinds; k++ {
		if kindNames[k] == name {
			return k, nil
		}
	}
	return KindUnknown, fmt.Errorf("%w: %q", gerrors.ErrInvalidKind, name)
}
