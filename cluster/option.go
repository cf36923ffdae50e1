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

package cluster

import (
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/tochemey/catalogsync/cache"
	"github.com/tochemey/catalogsync/internal/codec"
	"github.com/tochemey/catalogsync/log"
	"github.com/tochemey/catalogsync/sequence"
	"github.com/tochemey/catalogsync/store"
)

// Compression is the algorithm compressing the published payloads
type Compression = codec.Compression

// supported compression algorithms
const (
	NoCompression     = codec.NoCompression
	ZstdCompression   = codec.ZstdCompression
	BrotliCompression = codec.BrotliCompression
)

// ParseCompression returns the algorithm of the given name: none, zstd or brotli
func ParseCompression(name string) (Compression, error) {
	return codec.ParseCompression(name)
}

// Option is the interface that applies a configuration option.
type Option interface {
	// Apply sets the Option value of a config.
	Apply(config *Config)
}

var _ Option = OptionFunc(nil)

// OptionFunc implements the Option interface.
type OptionFunc func(config *Config)

// Apply applies the option
func (f OptionFunc) Apply(c *Config) {
	f(c)
}

// WithServiceID sets the id of the service. A random id is used otherwise.
func WithServiceID(id string) Option {
	return OptionFunc(func(config *Config) {
		config.serviceID = id
	})
}

// WithTopic sets the bus topic
func WithTopic(topic string) Option {
	return OptionFunc(func(config *Config) {
		config.topic = topic
	})
}

// WithLogger sets the logger
func WithLogger(logger log.Logger) Option {
	return OptionFunc(func(config *Config) {
		config.logger = logger
	})
}

// WithCompression sets the algorithm compressing the published payloads.
// Payloads are not compressed by default.
func WithCompression(compression Compression) Option {
	return OptionFunc(func(config *Config) {
		config.compression = compression
	})
}

// WithCaches sets the catalog and config cache facades
func WithCaches(catalogCache, configCache cache.Facade) Option {
	return OptionFunc(func(config *Config) {
		config.catalogCache = catalogCache
		config.configCache = configCache
	})
}

// WithStore sets the local entity store. The caller keeps ownership of it.
func WithStore(store store.Store) Option {
	return OptionFunc(func(config *Config) {
		config.store = store
		config.ownsStore = false
	})
}

// WithSequence sets the update sequence counter. The caller keeps ownership of it.
func WithSequence(counter sequence.Counter) Option {
	return OptionFunc(func(config *Config) {
		config.counter = counter
		config.ownsCounter = false
	})
}

// WithReplicaCatchUp mirrors remote changes into the local store.
// Use it when the backing storage replicates asynchronously.
func WithReplicaCatchUp() Option {
	return OptionFunc(func(config *Config) {
		config.replicaCatchUp = true
	})
}

// WithDuplicateWindow sets how long remote event ids are remembered
func WithDuplicateWindow(window time.Duration) Option {
	return OptionFunc(func(config *Config) {
		config.duplicateWindow = window
	})
}

// WithSequenceHeartbeat re-announces the current update sequence at the given
// interval. It is off by default.
func WithSequenceHeartbeat(interval time.Duration) Option {
	return OptionFunc(func(config *Config) {
		config.heartbeat = interval
	})
}

// WithMeterProvider sets the OpenTelemetry meter provider
func WithMeterProvider(provider metric.MeterProvider) Option {
	return OptionFunc(func(config *Config) {
		config.meterProvider = provider
	})
}
