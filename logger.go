package cachego

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with cachego-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithCache adds the cache name to the logger.
func (l *Logger) WithCache(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("cache", name),
	}
}

// LogLoad logs a snapshot load at cache construction.
func (l *Logger) LogLoad(ctx context.Context, name string, entries int, err error) {
	if err != nil {
		l.WarnContext(ctx, "cache load failed, starting empty",
			"cache", name,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "cache loaded",
			"cache", name,
			"entries", entries,
		)
	}
}

// LogPersist logs a snapshot write.
func (l *Logger) LogPersist(ctx context.Context, name string, size int, err error) {
	if err != nil {
		l.WarnContext(ctx, "cache persist failed, state retained in memory",
			"cache", name,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "cache persisted",
			"cache", name,
			"bytes", size,
		)
	}
}

// LogEviction logs a size-bound eviction.
func (l *Logger) LogEviction(ctx context.Context, name, key string, accessCount uint64) {
	l.DebugContext(ctx, "cache entry evicted",
		"cache", name,
		"key", key,
		"access_count", accessCount,
	)
}

// LogSweep logs one periodic cleanup pass.
func (l *Logger) LogSweep(ctx context.Context, name string, removed int) {
	if removed > 0 {
		l.DebugContext(ctx, "expired entries swept",
			"cache", name,
			"removed", removed,
		)
	}
}
