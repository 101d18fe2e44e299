// Package logger is a thin structured-logging facade over zap. Every
// component takes a [Logger] through its options and derives a child with
// With("component", name); when none is supplied the process-wide
// [Default] is used.
package logger

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the structured logger used across the module. Key/value pairs
// follow the message as alternating arguments.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)

	// With returns a child logger that always carries the given pairs.
	With(keysAndValues ...any) Logger

	// Sync flushes any buffered entries.
	Sync() error
}

type zapLogger struct {
	s *zap.SugaredLogger
}

// New wraps an existing zap logger.
func New(z *zap.Logger) Logger {
	return &zapLogger{s: z.Sugar()}
}

func (l *zapLogger) Debug(msg string, kv ...any) { l.s.Debugw(msg, kv...) }
func (l *zapLogger) Info(msg string, kv ...any)  { l.s.Infow(msg, kv...) }
func (l *zapLogger) Warn(msg string, kv ...any)  { l.s.Warnw(msg, kv...) }
func (l *zapLogger) Error(msg string, kv ...any) { l.s.Errorw(msg, kv...) }

func (l *zapLogger) With(kv ...any) Logger {
	return &zapLogger{s: l.s.With(kv...)}
}

func (l *zapLogger) Sync() error { return l.s.Sync() }

// NewProduction builds a JSON logger at the given level ("debug", "info",
// "warn", "error").
func NewProduction(level string) (Logger, error) {
	cfg := zap.NewProductionConfig()
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("logger: invalid level %q: %w", level, err)
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	z, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, fmt.Errorf("logger: build failed: %w", err)
	}
	return New(z), nil
}

// MustProduction is NewProduction at info level that panics on error.
func MustProduction() Logger {
	l, err := NewProduction("info")
	if err != nil {
		panic(err)
	}
	return l
}

// MustDevelopment returns a human-readable console logger at debug level.
func MustDevelopment() Logger {
	z, err := zap.NewDevelopment(zap.AddCallerSkip(1))
	if err != nil {
		panic(err)
	}
	return New(z)
}

// NewNop returns a logger that discards everything. Handy in tests.
func NewNop() Logger {
	return New(zap.NewNop())
}

var (
	defaultMu sync.RWMutex
	defaultL  Logger = NewNop()
)

// Default returns the process-wide logger.
func Default() Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultL
}

// SetDefault replaces the process-wide logger. A nil logger is ignored.
func SetDefault(l Logger) {
	if l == nil {
		return
	}
	defaultMu.Lock()
	defaultL = l
	defaultMu.Unlock()
}

// SyncDefault flushes the process-wide logger. Errors are dropped because
// zap returns EINVAL when syncing stderr on some platforms.
func SyncDefault() {
	_ = Default().Sync()
}

// Fatal logs at error level on the default logger, flushes, and panics
// through zap's fatal path (os.Exit(1)).
func Fatal(msg string, kv ...any) {
	l := Default()
	if zl, ok := l.(*zapLogger); ok {
		zl.s.Fatalw(msg, kv...)
		return
	}
	l.Error(msg, kv...)
	_ = l.Sync()
	zap.L().Fatal(msg)
}
