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

package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func TestChain(t *testing.T) {
	t.Run("With all errors", func(t *testing.T) {
		err := New(AllErrors()).
			AddValidator(NewEmptyStringValidator("topic", "")).
			AddAssertion(false, "window must be positive").
			AddAssertion(true, "never").
			Validate()
		require.Error(t, err)
		assert.Len(t, multierr.Errors(err), 2)
		assert.Contains(t, err.Error(), "the [topic] is required")
	})
	t.Run("With fail fast", func(t *testing.T) {
		err := New(FailFast()).
			AddAssertion(false, "first").
			AddAssertion(false, "second").
			Validate()
		require.EqualError(t, err, "first")
	})
	t.Run("With valid chain", func(t *testing.T) {
		err := New().
			AddValidator(NewEmptyStringValidator("topic", "catalog.events")).
			Validate()
		require.NoError(t, err)
	})
}
