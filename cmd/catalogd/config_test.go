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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tochemey/catalogsync/cluster"
	"github.com/tochemey/catalogsync/log"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalogd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Run("With nats bus", func(t *testing.T) {
		path := writeConfig(t, `
service_id: geoserver-1
log_level: debug
compression: brotli
replica_catch_up: true
duplicate_window: 2m
sequence_heartbeat: 30s
bus:
  kind: nats
  nats:
    server: nats://127.0.0.1:4222
    max_retries: 3
storage:
  dir: /var/lib/catalogd
  sequence: nats
`)
		config, err := LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, "geoserver-1", config.ServiceID)
		assert.Equal(t, log.DebugLevel, config.Level())
		assert.True(t, config.ReplicaCatchUp)
		assert.Equal(t, cluster.BrotliCompression, config.CompressionAlgorithm())
		assert.Equal(t, 2*time.Minute, config.DuplicateWindow)
		assert.Equal(t, 30*time.Second, config.SequenceHeartbeat)
		assert.Equal(t, 3, config.Bus.NATS.MaxRetries)
		assert.Equal(t, "catalog_sequence", config.Bus.NATS.Bucket)
		assert.Equal(t, filepath.Join("/var/lib/catalogd", "catalog.db"), config.StorePath())
		assert.Equal(t, filepath.Join("/var/lib/catalogd", "sequence.db"), config.SequencePath())
	})
	t.Run("With redis bus and defaults", func(t *testing.T) {
		path := writeConfig(t, `
bus:
  kind: redis
  redis:
    addr: 127.0.0.1:6379
storage:
  dir: /tmp/catalogd
`)
		config, err := LoadConfig(path)
		require.NoError(t, err)
		assert.NotEmpty(t, config.ServiceID)
		assert.Equal(t, log.InfoLevel, config.Level())
		assert.Equal(t, sequenceBolt, config.Storage.Sequence)
		assert.Equal(t, cluster.NoCompression, config.CompressionAlgorithm())
	})
	t.Run("With invalid settings", func(t *testing.T) {
		path := writeConfig(t, `
log_level: loud
compression: lz4
bus:
  kind: redis
storage:
  sequence: nats
`)
		_, err := LoadConfig(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "storage.dir")
		assert.Contains(t, err.Error(), "bus.redis.addr")
		assert.Contains(t, err.Error(), "requires the nats bus")
		assert.Contains(t, err.Error(), "log_level")
		assert.Contains(t, err.Error(), `unsupported compression "lz4"`)
	})
	t.Run("With unknown bus", func(t *testing.T) {
		path := writeConfig(t, `
bus:
  kind: kafka
storage:
  dir: /tmp/catalogd
`)
		_, err := LoadConfig(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unsupported bus "kafka"`)
	})
	t.Run("With missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
		require.Error(t, err)
	})
}
