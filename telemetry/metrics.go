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

package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// reasons a remote event is skipped by a consumer
const (
	ReasonSelf       = "self"
	ReasonDuplicate  = "duplicate"
	ReasonStale      = "stale"
	ReasonMalformed  = "malformed"
	ReasonAbsent     = "absent"
	ReasonNotForUs   = "destination"
	ReasonUnresolved = "unresolved"
)

// Metrics groups the instruments of the propagation pipeline.
//
// Instruments:
//   - catalogsync.events.published       (Int64Counter, attribute variant)
//   - catalogsync.events.suppressed      (Int64Counter, attribute variant)
//   - catalogsync.events.received        (Int64Counter, attribute variant)
//   - catalogsync.events.skipped         (Int64Counter, attributes consumer, reason)
//   - catalogsync.cache.evictions        (Int64Counter, attributes cache, hit)
//   - catalogsync.references.unresolved  (Int64Counter)
type Metrics struct {
	published  metric.Int64Counter
	suppressed metric.Int64Counter
	received   metric.Int64Counter
	skipped    metric.Int64Counter
	evictions  metric.Int64Counter
	unresolved metric.Int64Counter
}

// NewMetrics creates the instruments using the provided meter
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	var metrics Metrics
	var err error

	if metrics.published, err = meter.Int64Counter(
		"catalogsync.events.published",
		metric.WithDescription("Total number of events published to the cluster bus"),
	); err != nil {
		return nil, err
	}

	if metrics.suppressed, err = meter.Int64Counter(
		"catalogsync.events.suppressed",
		metric.WithDescription("Total number of local events not published because they carried no change"),
	); err != nil {
		return nil, err
	}

	if metrics.received, err = meter.Int64Counter(
		"catalogsync.events.received",
		metric.WithDescription("Total number of events received from the cluster bus"),
	); err != nil {
		return nil, err
	}

	if metrics.skipped, err = meter.Int64Counter(
		"catalogsync.events.skipped",
		metric.WithDescription("Total number of remote events a consumer did not act upon"),
	); err != nil {
		return nil, err
	}

	if metrics.evictions, err = meter.Int64Counter(
		"catalogsync.cache.evictions",
		metric.WithDescription("Total number of cache evictions triggered by remote events"),
	); err != nil {
		return nil, err
	}

	if metrics.unresolved, err = meter.Int64Counter(
		"catalogsync.references.unresolved",
		metric.WithDescription("Total number of references that could not be resolved locally"),
	); err != nil {
		return nil, err
	}
	return &metrics, nil
}

// NoopMetrics returns instruments recording nothing
func NoopMetrics() *Metrics {
	return noopMetrics()
}

func noopMetrics() *Metrics {
	metrics, _ := NewMetrics(noop.NewMeterProvider().Meter(instrumentationName))
	return metrics
}

// Published records an event handed to the bus
func (x *Metrics) Published(ctx context.Context, variant string) {
	x.published.Add(ctx, 1, metric.WithAttributes(attribute.String("variant", variant)))
}

// Suppressed records an event not published
func (x *Metrics) Suppressed(ctx context.Context, variant string) {
	x.suppressed.Add(ctx, 1, metric.WithAttributes(attribute.String("variant", variant)))
}

// Received records an event taken from the bus
func (x *Metrics) Received(ctx context.Context, variant string) {
	x.received.Add(ctx, 1, metric.WithAttributes(attribute.String("variant", variant)))
}

// Skipped records an event a consumer did not act upon
func (x *Metrics) Skipped(ctx context.Context, consumer, reason string) {
	x.skipped.Add(ctx, 1, metric.WithAttributes(
		attribute.String("consumer", consumer),
		attribute.String("reason", reason),
	))
}

// Evicted records a cache eviction and whether an entry was present
func (x *Metrics) Evicted(ctx context.Context, cache string, hit bool) {
	x.evictions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("cache", cache),
		attribute.Bool("hit", hit),
	))
}

// Unresolved records references left unresolved
func (x *Metrics) Unresolved(ctx context.Context, count int) {
	if count <= 0 {
		return
	}
	x.unresolved.Add(ctx, int64(count))
}
