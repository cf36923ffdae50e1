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

// Package codec serializes remote events and entities for the cluster bus
// and the durable store.
package codec

import (
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/tochemey/catalogsync/catalog"
	gerrors "github.com/tochemey/catalogsync/errors"
	"github.com/tochemey/catalogsync/events"
)

// Option configures a Codec
type Option func(*Codec)

// WithCompression sets the algorithm compressing the encoded payloads
func WithCompression(compression Compression) Option {
	return func(c *Codec) {
		c.compression = compression
	}
}

// Codec encodes remote events into bus payloads. Decoding accepts every
// supported payload format regardless of the encoding setting, so services
// with different settings can share a bus.
type Codec struct {
	compression Compression
}

// New creates an instance of Codec. Payloads are not compressed by default.
func New(opts ...Option) *Codec {
	codec := &Codec{compression: NoCompression}
	for _, opt := range opts {
		opt(codec)
	}
	return codec
}

// Compression returns the algorithm compressing the encoded payloads
func (c *Codec) Compression() Compression {
	return c.compression
}

// Encode serializes a remote event. Resolved references only carry their
// (kind, id) pair on the wire.
func (c *Codec) Encode(event *events.Remote) ([]byte, error) {
	if event == nil {
		return nil, fmt.Errorf("%w: nil event", gerrors.ErrMalformedEvent)
	}

	env := envelope{
		ID:          event.ID,
		Origin:      event.Origin,
		Destination: event.Destination,
		Timestamp:   event.Timestamp.UnixNano(),
		Variant:     event.Variant.String(),
		ObjectID:    event.ObjectID,
		Kind:        event.Kind.String(),
		Sequence:    event.Sequence,
	}

	var err error
	if env.Object, err = toWireInfo(event.Object); err != nil {
		return nil, fmt.Errorf("failed to encode event %s: %w", event.ID, err)
	}

	if event.Patch != nil {
		env.HasPatch = true
		if env.Patch, err = toWirePatch(event.Patch); err != nil {
			return nil, fmt.Errorf("failed to encode event %s: %w", event.ID, err)
		}
	}

	if event.Default != nil {
		ref := toWireRef(*event.Default)
		env.Default = &ref
	}

	if event.Workspace != nil {
		ref := toWireRef(*event.Workspace)
		env.Workspace = &ref
	}

	bytea, err := msgpack.Marshal(&env)
	if err != nil {
		return nil, fmt.Errorf("failed to encode event %s: %w", event.ID, err)
	}
	return c.frame(bytea)
}

// Decode deserializes a remote event. Every reference in the result is an
// unresolved placeholder.
func (c *Codec) Decode(bytea []byte) (*events.Remote, error) {
	raw, err := c.unframe(bytea)
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := msgpack.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %w", gerrors.ErrMalformedEvent, err)
	}

	variant, err := events.ParseVariant(env.Variant)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", gerrors.ErrMalformedEvent, err)
	}

	kind, err := catalog.ParseKind(env.Kind)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", gerrors.ErrMalformedEvent, err)
	}

	event := &events.Remote{
		Payload: events.Payload{
			Variant:  variant,
			ObjectID: env.ObjectID,
			Kind:     kind,
			Sequence: env.Sequence,
		},
		ID:          env.ID,
		Origin:      env.Origin,
		Destination: env.Destination,
		Timestamp:   time.Unix(0, env.Timestamp).UTC(),
	}

	if event.Object, err = fromWireInfo(env.Object); err != nil {
		return nil, fmt.Errorf("%w: %w", gerrors.ErrMalformedEvent, err)
	}

	if env.HasPatch {
		if event.Patch, err = fromWirePatch(env.Patch); err != nil {
			return nil, fmt.Errorf("%w: %w", gerrors.ErrMalformedEvent, err)
		}
	}

	if env.Default != nil {
		ref, err := fromWireRef(*env.Default)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", gerrors.ErrMalformedEvent, err)
		}
		event.Default = &ref
	}

	if env.Workspace != nil {
		ref, err := fromWireRef(*env.Workspace)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", gerrors.ErrMalformedEvent, err)
		}
		event.Workspace = &ref
	}

	if event.Origin == "" {
		return nil, fmt.Errorf("%w: event %s has no origin", gerrors.ErrMalformedEvent, event.ID)
	}
	return event, nil
}

// EncodeInfo serializes an entity
func (c *Codec) EncodeInfo(info *catalog.Info) ([]byte, error) {
	if info == nil {
		return nil, gerrors.ErrInvalidEntity
	}
	wire, err := toWireInfo(info)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", info.Identity(), err)
	}
	bytea, err := msgpack.Marshal(wire)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", info.Identity(), err)
	}
	return c.frame(bytea)
}

// DecodeInfo deserializes an entity. References come back unresolved.
func (c *Codec) DecodeInfo(bytea []byte) (*catalog.Info, error) {
	raw, err := c.unframe(bytea)
	if err != nil {
		return nil, err
	}
	wire := new(wireInfo)
	if err := msgpack.Unmarshal(raw, wire); err != nil {
		return nil, fmt.Errorf("%w: %w", gerrors.ErrInvalidEntity, err)
	}
	return fromWireInfo(wire)
}

func (c *Codec) frame(raw []byte) ([]byte, error) {
	switch c.compression {
	case ZstdCompression:
		return zstdCompress(raw)
	case BrotliCompression:
		return brotliCompress(raw)
	default:
		out := make([]byte, 0, len(raw)+1)
		out = append(out, formatPlain)
		return append(out, raw...), nil
	}
}

func (c *Codec) unframe(bytea []byte) ([]byte, error) {
	if len(bytea) < 2 {
		return nil, gerrors.ErrInvalidCodecFormat
	}

	var (
		raw []byte
		err error
	)
	switch bytea[0] {
	case formatPlain:
		return bytea[1:], nil
	case formatZstd:
		raw, err = zstdDecompress(bytea[1:])
	case formatBrotli:
		raw, err = brotliDecompress(bytea[1:])
	default:
		return nil, gerrors.ErrInvalidCodecFormat
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %w", gerrors.ErrInvalidCodecFormat, err)
	}
	return raw, nil
}

// EncodeIdentity serializes an entity identity
func (c *Codec) EncodeIdentity(identity catalog.Identity) ([]byte, error) {
	bytea, err := msgpack.Marshal(&wireRef{Kind: identity.Kind.String(), ID: identity.ID})
	if err != nil {
		return nil, err
	}
	return c.frame(bytea)
}

// DecodeIdentity deserializes an entity identity
func (c *Codec) DecodeIdentity(bytea []byte) (catalog.Identity, error) {
	raw, err := c.unframe(bytea)
	if err != nil {
		return catalog.Identity{}, err
	}
	var wire wireRef
	if err := msgpack.Unmarshal(raw, &wire); err != nil {
		return catalog.Identity{}, fmt.Errorf("%w: %w", gerrors.ErrInvalidCodecFormat, err)
	}
	kind, err := catalog.ParseKind(wire.Kind)
	if err != nil {
		return catalog.Identity{}, err
	}
	return catalog.Identity{Kind: kind, ID: wire.ID}, nil
}
