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
	"fmt"
	"io"
	golog "log"
	"os"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// DefaultLogger is a global logger configured to output messages at InfoLevel
	// and above to os.Stdout.
	DefaultLogger = New(InfoLevel, os.Stdout)

	// DebugLogger is a global logger configured to output messages at DebugLevel
	// and above to os.Stdout.
	DebugLogger = New(DebugLevel, os.Stdout)

	// DiscardLogger is a no-op logger that discards all log messages.
	DiscardLogger Logger = discardLogger{}
)

// zap has no trace level, trace entries are written one step below debug.
const zapTraceLevel = zapcore.DebugLevel - 1

// Zap implements Logger interface with zap as the underlying logging library.
// Message formatting is skipped when the level is disabled.
type Zap struct {
	logger  *zap.Logger
	sugar   *zap.SugaredLogger
	level   Level
	outputs []io.Writer
}

// enforce compilation and linter error
var _ Logger = &Zap{}

// New creates an instance of Zap writing JSON lines to the given writers.
// It writes to os.Stdout when no writer is given.
func New(level Level, writers ...io.Writer) *Zap {
	if len(writers) == 0 {
		writers = []io.Writer{os.Stdout}
	}

	syncers := make([]zapcore.WriteSyncer, 0, len(writers))
	for _, writer := range writers {
		syncers = append(syncers, zapcore.AddSync(writer))
	}

	enabler := zap.LevelEnablerFunc(func(l zapcore.Level) bool {
		return l >= toZapLevel(level)
	})

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(newEncoderConfig()),
		zap.CombineWriteSyncers(syncers...),
		enabler)

	logger := zap.New(core,
		zap.AddCaller(),
		zap.AddCallerSkip(1),
		zap.AddStacktrace(zapcore.ErrorLevel))

	return &Zap{
		logger:  logger,
		sugar:   logger.Sugar(),
		level:   level,
		outputs: writers,
	}
}

// Trace starts a message with trace level
func (z *Zap) Trace(v ...any) {
	if ce := z.logger.Check(zapTraceLevel, ""); ce != nil {
		ce.Message = fmt.Sprint(v...)
		ce.Write()
	}
}

// Tracef starts a message with trace level
func (z *Zap) Tracef(format string, v ...any) {
	if ce := z.logger.Check(zapTraceLevel, ""); ce != nil {
		ce.Message = fmt.Sprintf(format, v...)
		ce.Write()
	}
}

// Debug starts a message with debug level
func (z *Zap) Debug(v ...any) {
	z.sugar.Debug(v...)
}

// Debugf starts a message with debug level
func (z *Zap) Debugf(format string, v ...any) {
	z.sugar.Debugf(format, v...)
}

// Info starts a message with info level
func (z *Zap) Info(v ...any) {
	z.sugar.Info(v...)
}

// Infof starts a message with info level
func (z *Zap) Infof(format string, v ...any) {
	z.sugar.Infof(format, v...)
}

// Warn starts a new message with warn level
func (z *Zap) Warn(v ...any) {
	z.sugar.Warn(v...)
}

// Warnf starts a new message with warn level
func (z *Zap) Warnf(format string, v ...any) {
	z.sugar.Warnf(format, v...)
}

// Error starts a new message with error level.
func (z *Zap) Error(v ...any) {
	z.sugar.Error(v...)
}

// Errorf starts a new message with error level.
func (z *Zap) Errorf(format string, v ...any) {
	z.sugar.Errorf(format, v...)
}

// Fatal starts a new message with fatal level. The os.Exit(1) function
// is called which terminates the program immediately.
func (z *Zap) Fatal(v ...any) {
	z.sugar.Fatal(v...)
}

// Fatalf starts a new message with fatal level. The os.Exit(1) function
// is called which terminates the program immediately.
func (z *Zap) Fatalf(format string, v ...any) {
	z.sugar.Fatalf(format, v...)
}

// Panic starts a new message with panic level. The panic() function
// is called which stops the ordinary flow of a goroutine.
func (z *Zap) Panic(v ...any) {
	z.sugar.Panic(v...)
}

// Panicf starts a new message with panic level. The panic() function
// is called which stops the ordinary flow of a goroutine.
func (z *Zap) Panicf(format string, v ...any) {
	z.sugar.Panicf(format, v...)
}

// Enabled reports whether the given level is enabled.
func (z *Zap) Enabled(level Level) bool {
	return z.logger.Core().Enabled(toZapLevel(level))
}

// With returns a Logger that includes the given key-value pairs in all subsequent log entries.
// A trailing key without value is recorded under "_".
func (z *Zap) With(keyValues ...any) Logger {
	fields := make([]zap.Field, 0, (len(keyValues)+1)/2)
	for i := 0; i < len(keyValues); i += 2 {
		if i+1 >= len(keyValues) {
			fields = append(fields, zap.Any("_", keyValues[i]))
			break
		}
		key, ok := keyValues[i].(string)
		if !ok {
			continue
		}
		fields = append(fields, zap.Any(key, keyValues[i+1]))
	}

	if len(fields) == 0 {
		return z
	}

	logger := z.logger.With(fields...)
	return &Zap{
		logger:  logger,
		sugar:   logger.Sugar(),
		level:   z.level,
		outputs: z.outputs,
	}
}

// LogLevel returns the log level that is used
func (z *Zap) LogLevel() Level {
	return z.level
}

// LogOutput returns the log output that is set
func (z *Zap) LogOutput() []io.Writer {
	return z.outputs
}

// StdLogger returns the standard logger associated to the logger
func (z *Zap) StdLogger() *golog.Logger {
	stdlogger, _ := zap.NewStdLogAt(z.logger, toZapLevel(z.level))
	return stdlogger
}

// Flush syncs the file outputs. Standard streams are left alone.
func (z *Zap) Flush() error {
	var err error
	for _, output := range z.outputs {
		file, ok := output.(*os.File)
		if !ok || isStdStream(file) {
			continue
		}
		err = multierr.Append(err, file.Sync())
	}
	return err
}

func newEncoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:       "ts",
		LevelKey:      "level",
		NameKey:       "logger",
		CallerKey:     "caller",
		MessageKey:    "msg",
		StacktraceKey: "stacktrace",
		LineEnding:    zapcore.DefaultLineEnding,
		EncodeLevel: func(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
			if l == zapTraceLevel {
				enc.AppendString("trace")
				return
			}
			zapcore.LowercaseLevelEncoder(l, enc)
		},
		EncodeTime: func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString(t.Format("2006-01-02T15:04:05.000000Z0700"))
		},
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

func isStdStream(file *os.File) bool {
	if file == nil {
		return false
	}
	fd := file.Fd()
	return fd == os.Stdout.Fd() || fd == os.Stderr.Fd()
}

func toZapLevel(level Level) zapcore.Level {
	switch level {
	case TraceLevel:
		return zapTraceLevel
	case DebugLevel:
		return zapcore.DebugLevel
	case InfoLevel:
		return zapcore.InfoLevel
	case WarningLevel:
		return zapcore.WarnLevel
	case ErrorLevel:
		return zapcore.ErrorLevel
	case PanicLevel:
		return zapcore.PanicLevel
	case FatalLevel:
		return zapcore.FatalLevel
	default:
		return zapcore.DebugLevel
	}
}
