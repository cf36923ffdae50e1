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
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"

	"github.com/tochemey/catalogsync/bus"
	"github.com/tochemey/catalogsync/cache"
	"github.com/tochemey/catalogsync/internal/codec"
	"github.com/tochemey/catalogsync/internal/validation"
	"github.com/tochemey/catalogsync/log"
	"github.com/tochemey/catalogsync/replication"
	"github.com/tochemey/catalogsync/sequence"
	"github.com/tochemey/catalogsync/store"
)

// DefaultTopic is the bus topic carrying the remote events
const DefaultTopic = "catalog.events"

// Config defines the settings of a Node
type Config struct {
	serviceID       string
	topic           string
	logger          log.Logger
	bus             bus.Bus
	compression     codec.Compression
	catalogCache    cache.Facade
	configCache     cache.Facade
	store           store.Store
	counter         sequence.Counter
	replicaCatchUp  bool
	duplicateWindow time.Duration
	heartbeat       time.Duration
	meterProvider   metric.MeterProvider

	// resources created by Sanitize are closed by the node
	ownsStore   bool
	ownsCounter bool
}

// NewConfig creates an instance of Config for the given bus
func NewConfig(transport bus.Bus, opts ...Option) *Config {
	config := &Config{
		bus:             transport,
		topic:           DefaultTopic,
		logger:          log.DefaultLogger,
		duplicateWindow: replication.DefaultDuplicateWindow,
	}

	for _, opt := range opts {
		opt.Apply(config)
	}
	return config
}

// ServiceID returns the id of the service
func (x *Config) ServiceID() string {
	return x.serviceID
}

// Topic returns the bus topic
func (x *Config) Topic() string {
	return x.topic
}

// ReplicaCatchUp reports whether remote changes are mirrored into the local store
func (x *Config) ReplicaCatchUp() bool {
	return x.replicaCatchUp
}

// Sanitize fills the settings left unset with their defaults.
// The store and counter it creates are in memory and owned by the node.
func (x *Config) Sanitize() {
	if x.serviceID == "" {
		x.serviceID = uuid.NewString()
	}
	if x.topic == "" {
		x.topic = DefaultTopic
	}
	if x.logger == nil {
		x.logger = log.DefaultLogger
	}
	if x.catalogCache == nil {
		x.catalogCache = cache.New()
	}
	if x.configCache == nil {
		x.configCache = cache.New()
	}
	if x.store == nil {
		x.store = store.NewMemory()
		x.ownsStore = true
	}
	if x.counter == nil {
		x.counter = sequence.NewMemory(0)
		x.ownsCounter = true
	}
	if x.duplicateWindow <= 0 {
		x.duplicateWindow = replication.DefaultDuplicateWindow
	}
}

// Validate checks the settings
func (x *Config) Validate() error {
	if err := validation.New(validation.AllErrors()).
		AddAssertion(x.bus != nil, "bus is required").
		AddValidator(validation.NewEmptyStringValidator("serviceID", x.serviceID)).
		AddValidator(validation.NewEmptyStringValidator("topic", x.topic)).
		AddAssertion(x.logger != nil, "logger is required").
		AddAssertion(x.store != nil, "store is required").
		AddAssertion(x.counter != nil, "sequence counter is required").
		AddAssertion(x.catalogCache != nil, "catalog cache is required").
		AddAssertion(x.configCache != nil, "config cache is required").
		Validate(); err != nil {
		return fmt.Errorf("invalid cluster config: %w", err)
	}
	return nil
}
