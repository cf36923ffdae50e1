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

package bus

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/atomic"

	gerrors "github.com/tochemey/catalogsync/errors"
)

// Local is an in-process bus. Publish delivers synchronously to every
// subscriber of the topic, the publisher included, in subscription order.
// Several services of the same process can share a Local to form a cluster.
type Local struct {
	topicsMu sync.RWMutex
	topics   map[string][]*localSubscription
	closed   *atomic.Bool
}

var _ Bus = (*Local)(nil)

// NewLocal creates an instance of Local
func NewLocal() *Local {
	return &Local{
		topics: make(map[string][]*localSubscription),
		closed: atomic.NewBool(false),
	}
}

// Publish delivers the payload to the current subscribers of the topic.
func (x *Local) Publish(ctx context.Context, topic string, payload []byte) error {
	if x.closed.Load() {
		return gerrors.ErrBusClosed
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	// handlers may subscribe or publish, so they run outside the lock
	x.topicsMu.RLock()
	snapshot := slices.Clone(x.topics[topic])
	x.topicsMu.RUnlock()

	for _, sub := range snapshot {
		if sub.active.Load() {
			// each subscriber gets its own copy, like a broker would deliver
			sub.handler(ctx, slices.Clone(payload))
		}
	}
	return nil
}

// Subscribe registers the handler on the topic
func (x *Local) Subscribe(topic string, handler Handler) (Subscription, error) {
	if x.closed.Load() {
		return nil, gerrors.ErrBusClosed
	}

	sub := &localSubscription{
		id:      uuid.NewString(),
		topic:   topic,
		handler: handler,
		active:  atomic.NewBool(true),
		bus:     x,
	}

	x.topicsMu.Lock()
	x.topics[topic] = append(x.topics[topic], sub)
	x.topicsMu.Unlock()
	return sub, nil
}

// SubscribersCount returns the number of active subscriptions on the topic
func (x *Local) SubscribersCount(topic string) int {
	x.topicsMu.RLock()
	defer x.topicsMu.RUnlock()
	return len(x.topics[topic])
}

// Close drops every subscription
func (x *Local) Close() error {
	if x.closed.Swap(true) {
		return gerrors.ErrBusClosed
	}

	x.topicsMu.Lock()
	for _, subs := range x.topics {
		for _, sub := range subs {
			sub.active.Store(false)
		}
	}
	x.topics = make(map[string][]*localSubscription)
	x.topicsMu.Unlock()
	return nil
}

func (x *Local) unsubscribe(sub *localSubscription) {
	x.topicsMu.Lock()
	defer x.topicsMu.Unlock()

	subs := slices.DeleteFunc(x.topics[sub.topic], func(s *localSubscription) bool {
		return s.id == sub.id
	})
	if len(subs) == 0 {
		delete(x.topics, sub.topic)
		return
	}
	x.topics[sub.topic] = subs
}

type localSubscription struct {
	id      string
	topic   string
	handler Handler
	active  *atomic.Bool
	bus     *Local
}

func (s *localSubscription) Topic() string {
	return s.topic
}

func (s *localSubscription) Unsubscribe() error {
	if s.active.Swap(false) {
		s.bus.unsubscribe(s)
	}
	return nil
}
