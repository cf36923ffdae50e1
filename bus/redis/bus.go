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

// Package redis implements the cluster bus on top of Redis pub/sub channels.
package redis

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/atomic"

	"github.com/tochemey/catalogsync/bus"
	gerrors "github.com/tochemey/catalogsync/errors"
	"github.com/tochemey/catalogsync/internal/validation"
	"github.com/tochemey/catalogsync/log"
)

// Config represents the Redis bus configuration
type Config struct {
	// Addr is the redis server address in the format host:port
	Addr string
	// Password is optional
	Password string
	// DB selects the database
	DB int
}

// Validate checks whether the given configuration is valid
func (x Config) Validate() error {
	return validation.New(validation.FailFast()).
		AddValidator(validation.NewEmptyStringValidator("Addr", x.Addr)).
		Validate()
}

// Bus publishes payloads on Redis channels. The topic is used as the channel.
type Bus struct {
	client *redis.Client
	mu     sync.Mutex
	subs   []*subscription
	closed *atomic.Bool
	logger log.Logger
}

var _ bus.Bus = (*Bus)(nil)

// New creates a Redis bus and checks the server is reachable.
func New(ctx context.Context, config *Config, logger log.Logger) (*Bus, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if logger == nil {
		logger = log.DefaultLogger
	}

	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to reach redis server %s: %w", config.Addr, err)
	}

	return &Bus{
		client: client,
		closed: atomic.NewBool(false),
		logger: logger,
	}, nil
}

// Publish sends the payload to the channel named after the topic
func (x *Bus) Publish(ctx context.Context, topic string, payload []byte) error {
	if x.closed.Load() {
		return gerrors.ErrBusClosed
	}
	return x.client.Publish(ctx, topic, payload).Err()
}

// Subscribe registers the handler on the channel named after the topic.
// Each subscription runs its own receive loop.
func (x *Bus) Subscribe(topic string, handler bus.Handler) (bus.Subscription, error) {
	if x.closed.Load() {
		return nil, gerrors.ErrBusClosed
	}

	ctx := context.Background()
	pubsub := x.client.Subscribe(ctx, topic)
	// wait for the subscription confirmation
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", topic, err)
	}

	sub := &subscription{
		topic:  topic,
		pubsub: pubsub,
		done:   make(chan struct{}),
	}

	go sub.consume(handler)

	x.mu.Lock()
	x.subs = append(x.subs, sub)
	x.mu.Unlock()
	return sub, nil
}

// Close stops every receive loop and closes the client
func (x *Bus) Close() error {
	if x.closed.Swap(true) {
		return gerrors.ErrBusClosed
	}

	x.mu.Lock()
	for _, sub := range x.subs {
		if err := sub.Unsubscribe(); err != nil {
			x.logger.Warnf("failed to unsubscribe from %s: %v", sub.topic, err)
		}
	}
	x.subs = nil
	x.mu.Unlock()
	return x.client.Close()
}

type subscription struct {
	topic  string
	pubsub *redis.PubSub
	done   chan struct{}
	once   sync.Once
}

func (s *subscription) consume(handler bus.Handler) {
	defer close(s.done)
	for message := range s.pubsub.Channel() {
		handler(context.Background(), []byte(message.Payload))
	}
}

func (s *subscription) Topic() string {
	return s.topic
}

// Unsubscribe closes the pub/sub connection and waits for the receive loop to end
func (s *subscription) Unsubscribe() error {
	var err error
	s.once.Do(func() {
		err = s.pubsub.Close()
		<-s.done
	})
	return err
}
