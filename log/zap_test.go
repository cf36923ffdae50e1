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

package log

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	Level   string `json:"level"`
	Message string `json:"msg"`
	Service string `json:"service"`
}

func lines(t *testing.T, buffer *bytes.Buffer) []entry {
	t.Helper()
	var out []entry
	for _, line := range strings.Split(strings.TrimSpace(buffer.String()), "\n") {
		if line == "" {
			continue
		}
		var e entry
		require.NoError(t, json.Unmarshal([]byte(line), &e))
		out = append(out, e)
	}
	return out
}

func TestZap(t *testing.T) {
	t.Run("With info level", func(t *testing.T) {
		buffer := new(bytes.Buffer)
		logger := New(InfoLevel, buffer)

		logger.Debug("hidden")
		logger.Trace("hidden")
		logger.Info("hello")
		logger.Warnf("hello %s", "world")

		entries := lines(t, buffer)
		require.Len(t, entries, 2)
		assert.Equal(t, "info", entries[0].Level)
		assert.Equal(t, "hello", entries[0].Message)
		assert.Equal(t, "warn", entries[1].Level)
		assert.Equal(t, "hello world", entries[1].Message)

		assert.Equal(t, InfoLevel, logger.LogLevel())
		assert.True(t, logger.Enabled(ErrorLevel))
		assert.False(t, logger.Enabled(DebugLevel))
	})
	t.Run("With trace level", func(t *testing.T) {
		buffer := new(bytes.Buffer)
		logger := New(TraceLevel, buffer)

		logger.Tracef("skipping %s", "self")
		logger.Debug("debug")

		entries := lines(t, buffer)
		require.Len(t, entries, 2)
		assert.Equal(t, "trace", entries[0].Level)
		assert.Equal(t, "skipping self", entries[0].Message)
		assert.Equal(t, "debug", entries[1].Level)
		assert.True(t, logger.Enabled(TraceLevel))
	})
	t.Run("With fields", func(t *testing.T) {
		buffer := new(bytes.Buffer)
		logger := New(InfoLevel, buffer).With("service", "node-a")

		logger.Error("boom")

		entries := lines(t, buffer)
		require.Len(t, entries, 1)
		assert.Equal(t, "node-a", entries[0].Service)
		assert.Equal(t, "error", entries[0].Level)
	})
	t.Run("With file output flush", func(t *testing.T) {
		file, err := os.Create(filepath.Join(t.TempDir(), "out.log"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = file.Close() })

		logger := New(InfoLevel, file)
		logger.Info("persisted")
		require.NoError(t, logger.Flush())

		content, err := os.ReadFile(file.Name())
		require.NoError(t, err)
		assert.Contains(t, string(content), "persisted")
		assert.Len(t, logger.LogOutput(), 1)
		assert.NotNil(t, logger.StdLogger())
	})
}

func TestDiscard(t *testing.T) {
	logger := DiscardLogger
	logger.Info("nothing")
	logger.Tracef("nothing %d", 1)
	assert.Equal(t, DiscardLogger, logger.With("a", "b"))
	assert.False(t, logger.Enabled(InfoLevel))
	assert.NoError(t, logger.Flush())
	assert.Panics(t, func() { logger.Panic("boom") })
}

func TestLevel(t *testing.T) {
	assert.Equal(t, "trace", TraceLevel.String())
	assert.Equal(t, WarningLevel, ParseLevel("warn"))
	assert.Equal(t, DebugLevel, ParseLevel("debug"))
	assert.Equal(t, InvalidLevel, ParseLevel("loud"))
}
