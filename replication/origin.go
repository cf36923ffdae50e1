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

	"github.com/tochemey/catalogsync/events"
	"github.com/tochemey/catalogsync/log"
	"github.com/tochemey/catalogsync/telemetry"
)

// OriginTagger stamps local events with the id of the service.
// It is the first stage of the local pipeline and never fails.
type OriginTagger struct {
	serviceID string
}

var _ LocalListener = (*OriginTagger)(nil)

// NewOriginTagger creates an instance of OriginTagger
func NewOriginTagger(serviceID string) *OriginTagger {
	return &OriginTagger{serviceID: serviceID}
}

// OnLocal sets the event origin
func (x *OriginTagger) OnLocal(_ context.Context, event *events.Local) error {
	event.Origin = x.serviceID
	return nil
}

// IsSelfOrigin reports whether the remote event was produced by the given service.
func IsSelfOrigin(event *events.Remote, serviceID string) bool {
	return event.Origin == serviceID
}

// SelfOriginGuard wraps a remote listener so that it never sees the events
// of its own service.
func SelfOriginGuard(serviceID string, listener RemoteListener) RemoteListener {
	return RemoteListenerFunc(func(ctx context.Context, event *events.Remote) error {
		if IsSelfOrigin(event, serviceID) {
			return nil
		}
		return listener.OnRemote(ctx, event)
	})
}

// consumer carries what every remote consumer needs for its first check
type consumer struct {
	name      string
	serviceID string
	logger    log.Logger
	metrics   *telemetry.Metrics
}

// skipSelf reports whether the event must be ignored because this service produced it
func (c consumer) skipSelf(ctx context.Context, event *events.Remote) bool {
	if !IsSelfOrigin(event, c.serviceID) {
		return false
	}
	c.logger.Tracef("%s skipping self-origin event %s", c.name, event)
	c.metrics.Skipped(ctx, c.name, telemetry.ReasonSelf)
	return true
}
