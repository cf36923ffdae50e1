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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gerrors "github.com/tochemey/catalogsync/errors"
)

func TestLocal(t *testing.T) {
	ctx := context.Background()

	t.Run("With publisher receiving its own payload", func(t *testing.T) {
		hub := NewLocal()
		var received [][]byte
		_, err := hub.Subscribe("catalog", func(_ context.Context, payload []byte) {
			received = append(received, payload)
		})
		require.NoError(t, err)

		require.NoError(t, hub.Publish(ctx, "catalog", []byte("hello")))
		require.Len(t, received, 1)
		assert.Equal(t, []byte("hello"), received[0])
		require.NoError(t, hub.Close())
	})
	t.Run("With fan-out in subscription order", func(t *testing.T) {
		hub := NewLocal()
		var order []string
		for _, name := range []string{"a", "b", "c"} {
			_, err := hub.Subscribe("catalog", func(context.Context, []byte) {
				order = append(order, name)
			})
			require.NoError(t, err)
		}
		_, err := hub.Subscribe("other", func(context.Context, []byte) {
			order = append(order, "other")
		})
		require.NoError(t, err)

		require.NoError(t, hub.Publish(ctx, "catalog", []byte("x")))
		assert.Equal(t, []string{"a", "b", "c"}, order)
		assert.Equal(t, 3, hub.SubscribersCount("catalog"))
		require.NoError(t, hub.Close())
	})
	t.Run("With unsubscribe", func(t *testing.T) {
		hub := NewLocal()
		count := 0
		sub, err := hub.Subscribe("catalog", func(context.Context, []byte) { count++ })
		require.NoError(t, err)
		assert.Equal(t, "catalog", sub.Topic())

		require.NoError(t, sub.Unsubscribe())
		require.NoError(t, sub.Unsubscribe())
		require.NoError(t, hub.Publish(ctx, "catalog", []byte("x")))
		assert.Zero(t, count)
		assert.Zero(t, hub.SubscribersCount("catalog"))
		require.NoError(t, hub.Close())
	})
	t.Run("With isolated payload copies", func(t *testing.T) {
		hub := NewLocal()
		_, err := hub.Subscribe("catalog", func(_ context.Context, payload []byte) { payload[0] = 'X' })
		require.NoError(t, err)
		var seen []byte
		_, err = hub.Subscribe("catalog", func(_ context.Context, payload []byte) { seen = payload })
		require.NoError(t, err)

		payload := []byte("abc")
		require.NoError(t, hub.Publish(ctx, "catalog", payload))
		assert.Equal(t, []byte("abc"), seen)
		assert.Equal(t, []byte("abc"), payload)
		require.NoError(t, hub.Close())
	})
	t.Run("With closed bus", func(t *testing.T) {
		hub := NewLocal()
		require.NoError(t, hub.Close())
		require.ErrorIs(t, hub.Publish(ctx, "catalog", nil), gerrors.ErrBusClosed)
		_, err := hub.Subscribe("catalog", func(context.Context, []byte) {})
		require.ErrorIs(t, err, gerrors.ErrBusClosed)
		require.ErrorIs(t, hub.Close(), gerrors.ErrBusClosed)
	})
	t.Run("With canceled context", func(t *testing.T) {
		hub := NewLocal()
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		require.ErrorIs(t, hub.Publish(cctx, "catalog", nil), context.Canceled)
		require.NoError(t, hub.Close())
	})
}
