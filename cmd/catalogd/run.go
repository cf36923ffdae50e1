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

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/multierr"

	"github.com/tochemey/catalogsync/bus"
	natsbus "github.com/tochemey/catalogsync/bus/nats"
	redisbus "github.com/tochemey/catalogsync/bus/redis"
	"github.com/tochemey/catalogsync/cluster"
	"github.com/tochemey/catalogsync/events"
	"github.com/tochemey/catalogsync/log"
	"github.com/tochemey/catalogsync/replication"
	"github.com/tochemey/catalogsync/sequence"
	"github.com/tochemey/catalogsync/store"
)

// resources collects what run opens so it can be released in reverse order
type resources struct {
	closers []func() error
}

func (r *resources) add(closer func() error) {
	r.closers = append(r.closers, closer)
}

func (r *resources) close() error {
	var err error
	for i := len(r.closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, r.closers[i]())
	}
	return err
}

func run(config *FileConfig) (err error) {
	ctx := context.Background()
	logger := log.New(config.Level(), os.Stdout)

	if err := os.MkdirAll(config.Storage.Dir, 0o750); err != nil {
		return fmt.Errorf("failed to create %s: %w", config.Storage.Dir, err)
	}

	res := new(resources)
	defer func() {
		err = multierr.Append(err, res.close())
	}()

	transport, natsBus, err := openBus(ctx, config, logger)
	if err != nil {
		return err
	}
	res.add(transport.Close)

	local, err := store.OpenBolt(config.StorePath())
	if err != nil {
		return err
	}
	res.add(local.Close)

	counter, err := openSequence(ctx, config, natsBus)
	if err != nil {
		return err
	}
	res.add(counter.Close)

	opts := []cluster.Option{
		cluster.WithLogger(logger),
		cluster.WithStore(local),
		cluster.WithSequence(counter),
		cluster.WithServiceID(config.ServiceID),
		cluster.WithTopic(config.Topic),
		cluster.WithDuplicateWindow(config.DuplicateWindow),
		cluster.WithCompression(config.CompressionAlgorithm()),
	}
	if config.ReplicaCatchUp {
		opts = append(opts, cluster.WithReplicaCatchUp())
	}
	if config.SequenceHeartbeat > 0 {
		opts = append(opts, cluster.WithSequenceHeartbeat(config.SequenceHeartbeat))
	}

	node, err := cluster.NewNode(cluster.NewConfig(transport, opts...))
	if err != nil {
		return err
	}

	node.AddRemoteListener(replication.RemoteListenerFunc(func(_ context.Context, event *events.Remote) error {
		logger.Infof("received %s", event)
		return nil
	}))

	if err := node.Start(ctx); err != nil {
		return err
	}

	interruptSignal := make(chan os.Signal, 1)
	signal.Notify(interruptSignal, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	<-interruptSignal

	logger.Info("shutting down")
	return node.Stop(ctx)
}

// openBus connects the configured bus. The NATS bus is also returned when
// selected since the nats update sequence shares its connection.
func openBus(ctx context.Context, config *FileConfig, logger log.Logger) (bus.Bus, *natsbus.Bus, error) {
	switch config.Bus.Kind {
	case busNATS:
		transport, err := natsbus.Dial(&natsbus.Config{
			Server:        config.Bus.NATS.Server,
			Name:          config.ServiceID,
			MaxRetries:    config.Bus.NATS.MaxRetries,
			ReconnectWait: config.Bus.NATS.ReconnectWait,
		}, natsbus.WithLogger(logger))
		if err != nil {
			return nil, nil, err
		}
		return transport, transport, nil
	case busRedis:
		transport, err := redisbus.New(ctx, &redisbus.Config{
			Addr:     config.Bus.Redis.Addr,
			Password: config.Bus.Redis.Password,
			DB:       config.Bus.Redis.DB,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		return transport, nil, nil
	default:
		return nil, nil, fmt.Errorf("unsupported bus %q", config.Bus.Kind)
	}
}

func openSequence(ctx context.Context, config *FileConfig, natsBus *natsbus.Bus) (sequence.Counter, error) {
	switch config.Storage.Sequence {
	case sequenceBolt:
		return sequence.OpenBolt(config.SequencePath())
	case sequenceSQL:
		return sequence.OpenSQL(ctx, config.Storage.DSN)
	case sequenceNATS:
		if natsBus == nil {
			return nil, fmt.Errorf("the nats update sequence requires the nats bus")
		}
		return sequence.NewNATS(natsBus.Connection(), config.Bus.NATS.Bucket)
	case sequenceMemory:
		return sequence.NewMemory(0), nil
	default:
		return nil, fmt.Errorf("unsupported update sequence %q", config.Storage.Sequence)
	}
}
