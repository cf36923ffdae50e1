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
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/tochemey/catalogsync/cluster"
	"github.com/tochemey/catalogsync/internal/validation"
	"github.com/tochemey/catalogsync/log"
)

// supported transports
const (
	busNATS  = "nats"
	busRedis = "redis"
)

// supported update sequence backends
const (
	sequenceBolt   = "bolt"
	sequenceSQL    = "sql"
	sequenceNATS   = "nats"
	sequenceMemory = "memory"
)

// FileConfig is the YAML configuration of catalogd
type FileConfig struct {
	ServiceID         string        `yaml:"service_id"`
	Topic             string        `yaml:"topic"`
	LogLevel          string        `yaml:"log_level"`
	Compression       string        `yaml:"compression"`
	ReplicaCatchUp    bool          `yaml:"replica_catch_up"`
	DuplicateWindow   time.Duration `yaml:"duplicate_window"`
	SequenceHeartbeat time.Duration `yaml:"sequence_heartbeat"`
	Bus               BusConfig     `yaml:"bus"`
	Storage           StorageConfig `yaml:"storage"`
}

// BusConfig selects and configures the cluster bus
type BusConfig struct {
	Kind  string      `yaml:"kind"`
	NATS  NATSConfig  `yaml:"nats"`
	Redis RedisConfig `yaml:"redis"`
}

// NATSConfig configures the NATS bus
type NATSConfig struct {
	Server        string        `yaml:"server"`
	MaxRetries    int           `yaml:"max_retries"`
	ReconnectWait time.Duration `yaml:"reconnect_wait"`
	// Bucket is the key-value bucket of the nats update sequence
	Bucket string `yaml:"bucket"`
}

// RedisConfig configures the Redis bus
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// StorageConfig configures the local store and the update sequence
type StorageConfig struct {
	// Dir holds the bolt files
	Dir      string `yaml:"dir"`
	Sequence string `yaml:"sequence"`
	// DSN is the sqlite data source of the sql update sequence
	DSN string `yaml:"dsn"`
}

// LoadConfig reads and validates the configuration file
func LoadConfig(path string) (*FileConfig, error) {
	bytea, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	config := &FileConfig{}
	if err := yaml.Unmarshal(bytea, config); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	config.sanitize()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks the configuration
func (x *FileConfig) Validate() error {
	chain := validation.New(validation.AllErrors()).
		AddValidator(validation.NewEmptyStringValidator("storage.dir", x.Storage.Dir)).
		AddAssertion(x.Bus.Kind == busNATS || x.Bus.Kind == busRedis, fmt.Sprintf("unsupported bus %q", x.Bus.Kind)).
		AddAssertion(x.DuplicateWindow >= 0, "duplicate_window must not be negative").
		AddAssertion(x.SequenceHeartbeat >= 0, "sequence_heartbeat must not be negative").
		AddAssertion(x.Level() != log.InvalidLevel, fmt.Sprintf("unsupported log_level %q", x.LogLevel))

	if _, err := cluster.ParseCompression(x.Compression); err != nil {
		chain.AddAssertion(false, err.Error())
	}

	switch x.Bus.Kind {
	case busNATS:
		chain.AddValidator(validation.NewEmptyStringValidator("bus.nats.server", x.Bus.NATS.Server))
	case busRedis:
		chain.AddValidator(validation.NewEmptyStringValidator("bus.redis.addr", x.Bus.Redis.Addr))
	}

	switch x.Storage.Sequence {
	case sequenceBolt, sequenceMemory:
	case sequenceSQL:
		chain.AddValidator(validation.NewEmptyStringValidator("storage.dsn", x.Storage.DSN))
	case sequenceNATS:
		chain.AddAssertion(x.Bus.Kind == busNATS, "the nats update sequence requires the nats bus")
	default:
		chain.AddAssertion(false, fmt.Sprintf("unsupported update sequence %q", x.Storage.Sequence))
	}

	if err := chain.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Level returns the log level, info when unset
func (x *FileConfig) Level() log.Level {
	if x.LogLevel == "" {
		return log.InfoLevel
	}
	return log.ParseLevel(x.LogLevel)
}

// CompressionAlgorithm returns the compression of the published payloads
func (x *FileConfig) CompressionAlgorithm() cluster.Compression {
	compression, _ := cluster.ParseCompression(x.Compression)
	return compression
}

// StorePath returns the path of the bolt store
func (x *FileConfig) StorePath() string {
	return filepath.Join(x.Storage.Dir, "catalog.db")
}

// SequencePath returns the path of the bolt update sequence
func (x *FileConfig) SequencePath() string {
	return filepath.Join(x.Storage.Dir, "sequence.db")
}

func (x *FileConfig) sanitize() {
	// the bus connection and the node share the id
	if x.ServiceID == "" {
		x.ServiceID = uuid.NewString()
	}
	if x.Storage.Sequence == "" {
		x.Storage.Sequence = sequenceBolt
	}
	if x.Bus.NATS.Bucket == "" {
		x.Bus.NATS.Bucket = "catalog_sequence"
	}
}
