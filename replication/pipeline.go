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
	"slices"
	"sync"

	"github.com/tochemey/catalogsync/events"
	"github.com/tochemey/catalogsync/internal/codec"
	"github.com/tochemey/catalogsync/log"
	"github.com/tochemey/catalogsync/telemetry"
)

// LocalPipeline dispatches local events through its stages in order:
// the origin tagger, the business listeners in registration order, then the bridge.
type LocalPipeline struct {
	mu        sync.RWMutex
	tagger    *OriginTagger
	listeners []LocalListener
	bridge    *Bridge
}

// NewLocalPipeline creates an instance of LocalPipeline
func NewLocalPipeline(tagger *OriginTagger, bridge *Bridge) *LocalPipeline {
	return &LocalPipeline{tagger: tagger, bridge: bridge}
}

// AddListener registers a business listener. It runs after the origin tagger
// and before the bridge.
func (x *LocalPipeline) AddListener(listener LocalListener) {
	x.mu.Lock()
	x.listeners = append(x.listeners, listener)
	x.mu.Unlock()
}

// Dispatch runs the event through every stage. The first error stops the
// dispatch and is returned.
func (x *LocalPipeline) Dispatch(ctx context.Context, event *events.Local) error {
	if err := x.tagger.OnLocal(ctx, event); err != nil {
		return err
	}

	x.mu.RLock()
	listeners := slices.Clone(x.listeners)
	x.mu.RUnlock()

	for _, listener := range listeners {
		if err := listener.OnLocal(ctx, event); err != nil {
			return err
		}
	}
	return x.bridge.OnLocal(ctx, event)
}

// RemotePipeline takes payloads from the bus and runs them through the
// remote stages: decode, destination check, duplicate suppression, reference
// resolution, then every consumer in registration order.
//
// Failures are contained: a payload that cannot be decoded, or a consumer
// that fails or panics, is logged and the next event is processed normally.
type RemotePipeline struct {
	serviceID string
	codec     *codec.Codec
	dedup     *Deduplicator
	resolver  *Resolver
	logger    log.Logger
	metrics   *telemetry.Metrics

	mu        sync.RWMutex
	consumers []RemoteListener
}

// NewRemotePipeline creates an instance of RemotePipeline
func NewRemotePipeline(serviceID string, codec *codec.Codec, dedup *Deduplicator, resolver *Resolver, logger log.Logger, metrics *telemetry.Metrics) *RemotePipeline {
	return &RemotePipeline{
		serviceID: serviceID,
		codec:     codec,
		dedup:     dedup,
		resolver:  resolver,
		logger:    logger,
		metrics:   metrics,
	}
}

// AddConsumer registers a consumer
func (x *RemotePipeline) AddConsumer(consumer RemoteListener) {
	x.mu.Lock()
	x.consumers = append(x.consumers, consumer)
	x.mu.Unlock()
}

// Handle decodes a bus payload and delivers it. It matches bus.Handler.
func (x *RemotePipeline) Handle(ctx context.Context, payload []byte) {
	event, err := x.codec.Decode(payload)
	if err != nil {
		x.logger.Errorf("dropping undecodable payload of %d bytes: %v", len(payload), err)
		x.metrics.Skipped(ctx, "pipeline", telemetry.ReasonMalformed)
		return
	}
	x.Deliver(ctx, event)
}

// Deliver runs a decoded remote event through the remote stages
func (x *RemotePipeline) Deliver(ctx context.Context, event *events.Remote) {
	x.metrics.Received(ctx, event.Variant.String())

	if !event.AddressedTo(x.serviceID) {
		x.logger.Tracef("%s is addressed to %s, skipping", event, event.Destination)
		x.metrics.Skipped(ctx, "pipeline", telemetry.ReasonNotForUs)
		return
	}

	if x.dedup.Seen(event.ID) {
		x.logger.Debugf("%s already processed, skipping", event)
		x.metrics.Skipped(ctx, "pipeline", telemetry.ReasonDuplicate)
		return
	}

	x.resolver.Resolve(ctx, event)

	x.mu.RLock()
	consumers := slices.Clone(x.consumers)
	x.mu.RUnlock()

	for _, consumer := range consumers {
		if err := x.safeDeliver(ctx, consumer, event); err != nil {
			x.logger.Errorf("failed to process %s: %v", event, err)
		}
	}
}

func (x *RemotePipeline) safeDeliver(ctx context.Context, consumer RemoteListener, event *events.Remote) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("consumer panic: %v", r)
		}
	}()
	return consumer.OnRemote(ctx, event)
}
