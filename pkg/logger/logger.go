// Package logger holds the process wide zap logger.
package logger

import (
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	global atomic.Pointer[zap.Logger]
	level  = zap.NewAtomicLevelAt(zap.InfoLevel)
	nop    = zap.NewNop()
)

// Init builds the global logger. level is one of debug, info, warn, error,
// dpanic, panic or fatal; format is json or console. Output goes to stderr
// so the CLI can keep stdout for its results.
func Init(lvl, format string) (*zap.Logger, error) {
	if err := SetLevel(lvl); err != nil {
		return nil, err
	}

	enc, err := encoder(format)
	if err != nil {
		return nil, err
	}

	l := zap.New(zapcore.NewCore(enc, zapcore.Lock(os.Stderr), level), zap.AddCaller())
	global.Store(l)
	return l, nil
}

func encoder(format string) (zapcore.Encoder, error) {
	cfg := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
	switch strings.ToLower(format) {
	case "json":
		cfg.EncodeLevel = zapcore.LowercaseLevelEncoder
		return zapcore.NewJSONEncoder(cfg), nil
	case "console":
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return zapcore.NewConsoleEncoder(cfg), nil
	}
	return nil, fmt.Errorf("invalid log format %q", format)
}

// SetLevel changes the level of the global logger at runtime.
func SetLevel(lvl string) error {
	var l zapcore.Level
	if err := l.Set(strings.ToLower(lvl)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", lvl, err)
	}
	level.SetLevel(l)
	return nil
}

// L returns the global logger, or a no-op logger before Init.
func L() *zap.Logger {
	if l := global.Load(); l != nil {
		return l
	}
	return nop
}

// Named returns a child of the global logger for one component.
func Named(component string) *zap.Logger {
	return L().Named(component)
}

// Sync flushes any buffered log entries.
func Sync() {
	if l := global.Load(); l != nil {
		_ = l.Sync()
	}
}
