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

// Package cache holds the local cache facades of a service and the keys the
// evictor derives from events.
package cache

import (
	"fmt"

	"github.com/tochemey/catalogsync/catalog"
)

// Key identifies a cache entry. Keys are derived deterministically so every
// service computes the same key for the same entity.
type Key string

// well-known keys of the default references
const (
	DefaultWorkspaceKey Key = "default:workspace"
	DefaultNamespaceKey Key = "default:namespace"
)

// KeyOf returns the key of the entity of the given kind and id
func KeyOf(kind catalog.Kind, id string) Key {
	return Key(fmt.Sprintf("%s:%s", kind, id))
}

// KeyFor returns the key of the given entity
func KeyFor(info *catalog.Info) Key {
	return KeyOf(info.Kind(), info.ID())
}

// DefaultDataStoreKey returns the key of the default datastore of the given
// workspace. Only the (kind, id) of the reference is used, resolved or not.
func DefaultDataStoreKey(workspace catalog.Ref) Key {
	return Key(fmt.Sprintf("default:datastore:%s", workspace.ID()))
}

// String returns the key as a string
func (k Key) String() string {
	return string(k)
}
