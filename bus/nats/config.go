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

package nats

import (
	"time"

	"github.com/tochemey/catalogsync/internal/validation"
)

// Config represents the NATS bus configuration
type Config struct {
	// Server defines the nats server in the format nats://host:port
	Server string
	// Name is the connection name reported to the server, usually the service id
	Name string
	// MaxRetries is the number of connection attempts. Defaults to 5.
	MaxRetries int
	// ReconnectWait is the upper bound of the delay between connection attempts.
	// Defaults to 2s.
	ReconnectWait time.Duration
}

// Validate checks whether the given configuration is valid
func (x Config) Validate() error {
	return validation.New(validation.FailFast()).
		AddValidator(validation.NewEmptyStringValidator("Server", x.Server)).
		AddValidator(validation.NewEmptyStringValidator("Name", x.Name)).
		Validate()
}

func (x *Config) sanitize() {
	if x.MaxRetries <= 0 {
		x.MaxRetries = 5
	}
	if x.ReconnectWait <= 0 {
		x.ReconnectWait = 2 * time.Second
	}
}
