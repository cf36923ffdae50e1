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

// Level specifies the log level
type Level int

const (
	// InfoLevel indicates Info log level.
	InfoLevel Level = iota
	// WarningLevel indicates Warning log level.
	WarningLevel
	// ErrorLevel indicates Error log level.
	ErrorLevel
	// FatalLevel indicates Fatal log level.
	FatalLevel
	// PanicLevel indicates Panic log level
	PanicLevel
	// DebugLevel indicates Debug log level
	DebugLevel
	// TraceLevel indicates Trace log level, the most verbose one.
	// Self-origin events and cache misses are reported at this level.
	TraceLevel
	// InvalidLevel indicates an unknown level
	InvalidLevel
)

var levelNames = [...]string{
	InfoLevel:    "info",
	WarningLevel: "warning",
	ErrorLevel:   "error",
	FatalLevel:   "fatal",
	PanicLevel:   "panic",
	DebugLevel:   "debug",
	TraceLevel:   "trace",
	InvalidLevel: "invalid",
}

// String returns the level name
func (l Level) String() string {
	if l < InfoLevel || l > InvalidLevel {
		return levelNames[InvalidLevel]
	}
	return levelNames[l]
}

// ParseLevel returns the level matching the given name.
// Unknown names yield InvalidLevel.
func ParseLevel(name string) Level {
	for level, levelName := range levelNames {
		if levelName == name {
			return Level(level)
		}
	}
	switch name {
	case "warn":
		return WarningLevel
	default:
		return InvalidLevel
	}
}
