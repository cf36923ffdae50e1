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

// Package bus defines the cluster bus the services use to exchange catalog
// events. Every service publishes to and subscribes on a single topic; a
// publisher also receives its own events, which consumers must discard.
package bus

import "context"

// Handler processes a payload received from the bus.
// Handlers must not block for long: transports deliver sequentially.
type Handler func(ctx context.Context, payload []byte)

// Subscription is an active registration on a topic
type Subscription interface {
	// Topic returns the subscribed topic
	Topic() string
	// Unsubscribe stops the delivery of payloads to the handler
	Unsubscribe() error
}

// Bus is a broadcast publish/subscribe transport.
type Bus interface {
	// Publish sends the payload to every subscriber of the topic.
	// It returns an error when the payload could not be handed to the transport.
	Publish(ctx context.Context, topic string, payload []byte) error
	// Subscribe registers a handler on the given topic
	Subscribe(topic string, handler Handler) (Subscription, error)
	// Close releases the transport resources. Subsequent calls return ErrBusClosed.
	Close() error
}
