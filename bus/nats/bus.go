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

// Package nats implements the cluster bus on top of core NATS subjects.
package nats

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/flowchartsman/retry"
	"github.com/nats-io/nats.go"
	"go.uber.org/atomic"

	"github.com/tochemey/catalogsync/bus"
	gerrors "github.com/tochemey/catalogsync/errors"
	"github.com/tochemey/catalogsync/log"
)

// Bus publishes payloads on NATS subjects. The topic is used as the subject.
type Bus struct {
	config *Config
	mu     sync.Mutex

	connection    *nats.Conn
	subscriptions []*subscription

	closed *atomic.Bool
	logger log.Logger
}

var _ bus.Bus = (*Bus)(nil)

// Dial connects to the NATS server, retrying with an exponential backoff.
func Dial(config *Config, opts ...Option) (*Bus, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	config.sanitize()

	x := &Bus{
		config: config,
		closed: atomic.NewBool(false),
		logger: log.DefaultLogger,
	}

	for _, opt := range opts {
		opt.Apply(x)
	}

	options := nats.GetDefaultOptions()
	options.Url = config.Server
	options.Name = config.Name
	options.ReconnectWait = config.ReconnectWait
	options.MaxReconnect = -1

	var connection *nats.Conn
	retrier := retry.NewRetrier(config.MaxRetries, 100*time.Millisecond, config.ReconnectWait)
	err := retrier.Run(func() error {
		var err error
		connection, err = options.Connect()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats server %s: %w", config.Server, err)
	}

	x.connection = connection
	x.logger.Infof("connected to nats server %s", connection.ConnectedUrl())
	return x, nil
}

// Connection returns the underlying NATS connection
func (x *Bus) Connection() *nats.Conn {
	return x.connection
}

// Publish sends the payload to the subject named after the topic.
func (x *Bus) Publish(ctx context.Context, topic string, payload []byte) error {
	if x.closed.Load() {
		return gerrors.ErrBusClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return x.connection.Publish(topic, payload)
}

// Subscribe registers the handler on the subject named after the topic.
// NATS delivers the messages of one subscription sequentially.
func (x *Bus) Subscribe(topic string, handler bus.Handler) (bus.Subscription, error) {
	if x.closed.Load() {
		return nil, gerrors.ErrBusClosed
	}

	sub, err := x.connection.Subscribe(topic, func(msg *nats.Msg) {
		handler(context.Background(), msg.Data)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", topic, err)
	}

	// make sure the server knows about the interest before returning
	if err := x.connection.Flush(); err != nil {
		_ = sub.Unsubscribe()
		return nil, err
	}

	wrapped := &subscription{topic: topic, sub: sub}
	x.mu.Lock()
	x.subscriptions = append(x.subscriptions, wrapped)
	x.mu.Unlock()
	return wrapped, nil
}

// Close unsubscribes every handler and closes the connection
func (x *Bus) Close() error {
	if x.closed.Swap(true) {
		return gerrors.ErrBusClosed
	}

	x.mu.Lock()
	for _, sub := range x.subscriptions {
		if err := sub.Unsubscribe(); err != nil {
			x.logger.Warnf("failed to unsubscribe from %s: %v", sub.topic, err)
		}
	}
	x.subscriptions = nil
	x.mu.Unlock()

	x.connection.Close()
	return nil
}

type subscription struct {
	topic string
	sub   *nats.Subscription
}

func (s *subscription) Topic() string {
	return s.topic
}

func (s *subscription) Unsubscribe() error {
	if !s.sub.IsValid() {
		return nil
	}
	return s.sub.Unsubscribe()
}
