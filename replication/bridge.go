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

package replication

import (
	"context"
	"fmt"

	"github.com/tochemey/catalogsync/bus"
	gerrors "github.com/tochemey/catalogsync/errors"
	"github.com/tochemey/catalogsync/events"
	"github.com/tochemey/catalogsync/internal/codec"
	"github.com/tochemey/catalogsync/log"
	"github.com/tochemey/catalogsync/telemetry"
)

// Bridge turns local events into remote events and publishes them.
// It is the last stage of the local pipeline and never touches local state.
type Bridge struct {
	serviceID string
	topic     string
	bus       bus.Bus
	codec     *codec.Codec
	logger    log.Logger
	metrics   *telemetry.Metrics
}

var _ LocalListener = (*Bridge)(nil)

// NewBridge creates an instance of Bridge
func NewBridge(serviceID, topic string, transport bus.Bus, codec *codec.Codec, logger log.Logger, metrics *telemetry.Metrics) *Bridge {
	return &Bridge{
		serviceID: serviceID,
		topic:     topic,
		bus:       transport,
		codec:     codec,
		logger:    logger,
		metrics:   metrics,
	}
}

// OnLocal publishes the remote counterpart of the event to every service.
// Modifications carrying an empty patch are not published. A transport
// failure is returned wrapping ErrPublishFailed.
func (x *Bridge) OnLocal(ctx context.Context, event *events.Local) error {
	if event.Variant.IsModification() && event.Patch.IsEmpty() {
		x.logger.Debugf("no change in %s, not publishing", event)
		x.metrics.Suppressed(ctx, event.Variant.String())
		return nil
	}

	remote := event.ToRemote(x.serviceID)
	payload, err := x.codec.Encode(remote)
	if err != nil {
		x.logger.Errorf("failed to encode %s: %v", remote, err)
		return fmt.Errorf("%w: %w", gerrors.ErrPublishFailed, err)
	}

	if err := x.bus.Publish(ctx, x.topic, payload); err != nil {
		x.logger.Errorf("failed to publish %s: %v", remote, err)
		return fmt.Errorf("%w: %s: %w", gerrors.ErrPublishFailed, remote, err)
	}

	x.logger.Debugf("published %s", remote)
	x.metrics.Published(ctx, event.Variant.String())
	return nil
}
