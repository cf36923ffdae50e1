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

package errors

import (
	"errors"
)

var (
	// ErrInvalidKind is returned when an entity kind is unknown.
	ErrInvalidKind = errors.New("invalid entity kind")

	// ErrInvalidEntity is returned when an entity is nil, has no id or carries
	// a property value of an unsupported type.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrUnknownProperty is returned when a property name is not part of the
	// schema of the entity kind. Applying a patch that names such a property is a
	// contract violation and must not be retried.
	ErrUnknownProperty = errors.New("unknown property")

	// ErrInvalidPatch is returned when a patch does not target the given entity.
	ErrInvalidPatch = errors.New("invalid patch")

	// ErrUnresolvedReference is returned when a reference cannot be resolved
	// against the local entity store.
	ErrUnresolvedReference = errors.New("unresolved reference")

	// ErrEntityNotFound is returned when the entity does not exist in the local store.
	ErrEntityNotFound = errors.New("entity not found")

	// ErrMalformedEvent is returned when an event lacks the payload its variant requires.
	ErrMalformedEvent = errors.New("malformed event")

	// ErrPublishFailed is returned when an event cannot be delivered to the cluster bus.
	ErrPublishFailed = errors.New("event publication failed")

	// ErrBusClosed is returned when the bus has been closed.
	ErrBusClosed = errors.New("bus is closed")

	// ErrStoreClosed is returned when the store has been closed.
	ErrStoreClosed = errors.New("store is closed")

	// ErrCounterClosed is returned when the update sequence counter has been closed.
	ErrCounterClosed = errors.New("update sequence counter is closed")

	// ErrNotRunning is returned when the node has not been started.
	ErrNotRunning = errors.New("node is not running")

	// ErrAlreadyRunning is returned when the node is started twice.
	ErrAlreadyRunning = errors.New("node is already running")

	// ErrInvalidCodecFormat is returned when a payload was not produced by the codec.
	ErrInvalidCodecFormat = errors.New("invalid codec format")
)
