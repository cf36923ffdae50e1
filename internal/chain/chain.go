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

// Package chain runs ordered startup and shutdown steps.
package chain

import (
	"context"
	"fmt"

	"go.uber.org/multierr"
)

// Step is a named unit of work. Undo, when set, reverts a completed step
// and runs when a later step fails.
type Step struct {
	Name string
	Run  func(ctx context.Context) error
	Undo func(ctx context.Context) error
}

// Chain runs its steps in insertion order
type Chain struct {
	failFast bool
	ctx      context.Context
	steps    []Step
}

// Option configures a chain at creation time.
type Option func(*Chain)

// New creates a chain. By default every step runs and the errors are
// aggregated.
func New(opts ...Option) *Chain {
	chain := &Chain{ctx: context.Background()}
	for _, opt := range opts {
		opt(chain)
	}
	return chain
}

// WithFailFast stops the chain on the first failing step and undoes the
// steps that completed before it, most recent first.
func WithFailFast() Option {
	return func(c *Chain) { c.failFast = true }
}

// WithContext sets the context handed to the steps
func WithContext(ctx context.Context) Option {
	return func(c *Chain) { c.ctx = ctx }
}

// Add appends a step without undo
func (c *Chain) Add(name string, fn func(ctx context.Context) error) *Chain {
	return c.AddStep(Step{Name: name, Run: fn})
}

// AddIf appends the step only when condition holds
func (c *Chain) AddIf(condition bool, name string, fn func(ctx context.Context) error) *Chain {
	if !condition {
		return c
	}
	return c.Add(name, fn)
}

// AddStep appends a step
func (c *Chain) AddStep(step Step) *Chain {
	c.steps = append(c.steps, step)
	return c
}

// Run executes the steps. Errors are prefixed with the step name.
func (c *Chain) Run() error {
	var err error
	for i, step := range c.steps {
		stepErr := step.Run(c.ctx)
		if stepErr == nil {
			continue
		}

		stepErr = fmt.Errorf("%s: %w", step.Name, stepErr)
		if !c.failFast {
			err = multierr.Append(err, stepErr)
			continue
		}

		for j := i - 1; j >= 0; j-- {
			if undo := c.steps[j].Undo; undo != nil {
				if undoErr := undo(c.ctx); undoErr != nil {
					stepErr = multierr.Append(stepErr, fmt.Errorf("undo %s: %w", c.steps[j].Name, undoErr))
				}
			}
		}
		return stepErr
	}
	return err
}
