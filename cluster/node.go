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

// Package cluster assembles the propagation pipeline of a catalog service and
// exposes the mutation and read API the rest of the service calls.
//
// Every mutation is applied to the local store first, then announced through
// the local pipeline within the same call, so the remote counterpart is on the
// bus before the call returns. Remote events received from the other services
// invalidate the local caches and, when replica catch-up is on, are mirrored
// into the local store.
package cluster

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/atomic"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/tochemey/catalogsync/bus"
	"github.com/tochemey/catalogsync/cache"
	"github.com/tochemey/catalogsync/catalog"
	gerrors "github.com/tochemey/catalogsync/errors"
	"github.com/tochemey/catalogsync/events"
	"github.com/tochemey/catalogsync/internal/chain"
	"github.com/tochemey/catalogsync/internal/codec"
	"github.com/tochemey/catalogsync/log"
	"github.com/tochemey/catalogsync/replication"
	"github.com/tochemey/catalogsync/telemetry"
)

// Node is a catalog service taking part in the cluster
type Node struct {
	config    *Config
	logger    log.Logger
	telemetry *telemetry.Telemetry

	local  *replication.LocalPipeline
	remote *replication.RemotePipeline

	// serializes the mutations so the Modify, apply, PostModify sequence of
	// one entity is never interleaved with another mutation
	mutationMu sync.Mutex

	subscription bus.Subscription
	heartbeat    *heartbeat
	started      *atomic.Bool
}

// NewNode creates an instance of Node. The node does not receive remote
// events until it is started.
func NewNode(config *Config) (*Node, error) {
	if config == nil {
		return nil, errors.New("cluster config is required")
	}

	config.Sanitize()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	logger := config.logger.With("service", config.serviceID)
	tel := telemetry.New(telemetry.WithMeterProvider(config.meterProvider))
	metrics := tel.Metrics()

	wire := codec.New(codec.WithCompression(config.compression))

	local := replication.NewLocalPipeline(
		replication.NewOriginTagger(config.serviceID),
		replication.NewBridge(config.serviceID, config.topic, config.bus, wire, logger, metrics),
	)

	remote := replication.NewRemotePipeline(
		config.serviceID,
		wire,
		replication.NewDeduplicator(config.duplicateWindow),
		replication.NewResolver(config.store, logger, metrics),
		logger,
		metrics,
	)
	// the store changes before the cache is cleared, otherwise a read in
	// between would cache the old entity again
	if config.replicaCatchUp {
		remote.AddConsumer(replication.NewCatchUp(config.serviceID, config.store, config.counter, logger, metrics))
	}
	remote.AddConsumer(replication.NewEvictor(config.serviceID, config.catalogCache, config.configCache, logger, metrics))

	node := &Node{
		config:    config,
		logger:    logger,
		telemetry: tel,
		local:     local,
		remote:    remote,
		started:   atomic.NewBool(false),
	}
	if config.heartbeat > 0 {
		node.heartbeat = newHeartbeat(config.heartbeat, node.announceSequence, logger)
	}
	return node, nil
}

// ServiceID returns the id of the service
func (x *Node) ServiceID() string {
	return x.config.serviceID
}

// Start subscribes the node to the bus
func (x *Node) Start(ctx context.Context) error {
	if x.started.Load() {
		return gerrors.ErrAlreadyRunning
	}

	if err := chain.
		New(chain.WithFailFast(), chain.WithContext(ctx)).
		Add("update sequence", x.loadSequence).
		AddStep(chain.Step{Name: "subscribe", Run: x.subscribe, Undo: x.unsubscribe}).
		AddIf(x.heartbeat != nil, "heartbeat", x.startHeartbeat).
		Run(); err != nil {
		x.logger.Errorf("failed to start: %v", err)
		return err
	}

	x.started.Store(true)
	x.logger.Infof("catalog service %s listening on %s (replica catch-up=%t)", x.config.serviceID, x.config.topic, x.config.replicaCatchUp)
	return nil
}

// Stop unsubscribes the node and releases the resources it owns.
// The bus and any store or counter supplied by the caller stay open.
func (x *Node) Stop(ctx context.Context) error {
	if !x.started.Swap(false) {
		return gerrors.ErrNotRunning
	}

	err := multierr.Append(x.stopHeartbeat(ctx), x.unsubscribe(ctx))

	eg, _ := errgroup.WithContext(ctx)
	if x.config.ownsStore {
		eg.Go(x.config.store.Close)
	}
	if x.config.ownsCounter {
		eg.Go(x.config.counter.Close)
	}
	if closeErr := eg.Wait(); closeErr != nil {
		err = multierr.Append(err, closeErr)
	}

	if err != nil {
		x.logger.Errorf("failed to stop cleanly: %v", err)
		return err
	}

	x.logger.Infof("catalog service %s stopped", x.config.serviceID)
	return x.logger.Flush()
}

// Running reports whether the node is started
func (x *Node) Running() bool {
	return x.started.Load()
}

// AddListener registers a business listener of the local events. Listeners
// run in registration order, before the events are published.
func (x *Node) AddListener(listener replication.LocalListener) {
	x.local.AddListener(listener)
}

// AddRemoteListener registers a consumer of the remote events. It runs after
// the built-in consumers and never sees the events of this service.
func (x *Node) AddRemoteListener(listener replication.RemoteListener) {
	x.remote.AddConsumer(replication.SelfOriginGuard(x.config.serviceID, listener))
}

// Telemetry returns the instruments of the node
func (x *Node) Telemetry() *telemetry.Telemetry {
	return x.telemetry
}

func (x *Node) loadSequence(ctx context.Context) error {
	current, err := x.config.counter.Current(ctx)
	if err != nil {
		return err
	}
	x.logger.Debugf("update sequence is %d", current)
	return nil
}

func (x *Node) startHeartbeat(ctx context.Context) error {
	return x.heartbeat.start(ctx)
}

func (x *Node) stopHeartbeat(ctx context.Context) error {
	if x.heartbeat == nil {
		return nil
	}
	return x.heartbeat.stop(ctx)
}

func (x *Node) subscribe(context.Context) error {
	subscription, err := x.config.bus.Subscribe(x.config.topic, x.remote.Handle)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", x.config.topic, err)
	}
	x.subscription = subscription
	return nil
}

func (x *Node) unsubscribe(context.Context) error {
	if x.subscription == nil {
		return nil
	}
	err := x.subscription.Unsubscribe()
	x.subscription = nil
	return err
}

// cacheFor returns the cache facade holding entities of the given kind
func (x *Node) cacheFor(kind catalog.Kind) cache.Facade {
	if kind.IsConfig() {
		return x.config.configCache
	}
	return x.config.catalogCache
}

// dispatch runs a local event through the local pipeline
func (x *Node) dispatch(ctx context.Context, event *events.Local) error {
	return x.local.Dispatch(ctx, event)
}
