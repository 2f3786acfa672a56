// Package logger owns the process-wide zap logger. The HTTP layer, the
// staffing services and the maintenance jobs all log through it, tagging
// entries with a module field (http, notifications, maintenance) via
// WithModule instead of building loggers of their own.
package logger

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu sync.RWMutex

	// A no-op logger stands in until Init runs, so early callers
	// (constructors, tests) never hit a nil logger.
	root = zap.NewNop()
)

// Init swaps in a production JSON logger at the given level. An unknown
// level string falls back to info rather than failing startup.
func Init(level string) error {
	var parsed zapcore.Level
	if err := parsed.UnmarshalText([]byte(level)); err != nil {
		parsed = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(parsed)

	built, err := cfg.Build()
	if err != nil {
		return err
	}

	mu.Lock()
	root = built
	mu.Unlock()
	return nil
}

// Sync flushes buffered entries; main defers it for shutdown.
func Sync() error {
	return current().Sync()
}

// WithModule returns a child logger carrying the originating module name.
func WithModule(module string) *zap.Logger {
	return current().With(zap.String("module", module))
}

// Debug logs directly through the process logger.
func Debug(msg string, fields ...zap.Field) {
	current().Debug(msg, fields...)
}

func current() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return root
}
