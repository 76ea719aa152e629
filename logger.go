package facetidx

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with facet-level specific helpers.
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
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.DiscardHandler)
}

// WithField adds a field_id attribute to the logger.
func (l *Logger) WithField(fid FieldID) *Logger {
	return &Logger{
		Logger: l.Logger.With("field_id", fid),
	}
}

// LogFieldLevels logs the outcome of computing one kind of levels for a field.
func (l *Logger) LogFieldLevels(ctx context.Context, kind string, topLevel uint8, level0Size int, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "facet levels failed",
			"kind", kind,
			"level0_size", level0Size,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "facet levels computed",
		"kind", kind,
		"top_level", topLevel,
		"level0_size", level0Size,
		"elapsed", elapsed,
	)
}

// LogClearedLevels logs how many stale level entries a field had.
func (l *Logger) LogClearedLevels(ctx context.Context, numbers, strings int) {
	l.DebugContext(ctx, "facet levels cleared",
		"number_entries", numbers,
		"string_entries", strings,
	)
}

// LogRebuild logs a complete facet level rebuild.
func (l *Logger) LogRebuild(ctx context.Context, fields int, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "facet rebuild failed",
			"fields", fields,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "facet rebuild completed",
		"fields", fields,
		"elapsed", elapsed,
	)
}

// LogSnapshot logs a snapshot save or load.
func (l *Logger) LogSnapshot(ctx context.Context, op, name string, size int64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "snapshot "+op+" failed",
			"name", name,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "snapshot "+op,
		"name", name,
		"bytes", size,
	)
}
