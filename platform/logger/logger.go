// Package logger provides structured logging infrastructure for the application.
// This is part of the platform layer and contains no business logic.
package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

// Context key types for storing values in context
type contextKey string

const (
	// SweepIDKey is the context key for the current sweep run ID
	SweepIDKey contextKey = "sweep_id"
	// EntityIDKey is the context key for the entity being processed
	EntityIDKey contextKey = "entity_id"
)

// Logger wraps slog.Logger for structured logging
type Logger struct {
	*slog.Logger
}

// New creates a new logger based on environment
func New(env string) *Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	if strings.EqualFold(env, "development") {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithContext returns a logger with context values extracted.
// Supports sweep_id and entity_id from context.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}

	newLogger := l

	if sweepID, ok := ctx.Value(SweepIDKey).(string); ok && sweepID != "" {
		newLogger = newLogger.WithSweepID(sweepID)
	}

	if entityID, ok := ctx.Value(EntityIDKey).(string); ok && entityID != "" {
		newLogger = &Logger{
			Logger: newLogger.With(slog.String("entity_id", entityID)),
		}
	}

	return newLogger
}

// WithSweepID returns a logger with the sweep run ID attached.
func (l *Logger) WithSweepID(sweepID string) *Logger {
	return &Logger{
		Logger: l.With(slog.String("sweep_id", sweepID)),
	}
}

// StoreError logs a store read/write failure for a single entity.
// The entity's unit of work is skipped, not the sweep.
func (l *Logger) StoreError(operation, entityID string, err error) {
	l.Error("store_error",
		slog.String("operation", operation),
		slog.String("entity_id", entityID),
		slog.String("error", err.Error()),
	)
}

// DispatchFailed logs a best-effort notification failure. The ledger mark
// still happens, so this is informational rather than actionable per entity.
func (l *Logger) DispatchFailed(kind, entityID string, err error) {
	l.Warn("dispatch_failed",
		slog.String("kind", kind),
		slog.String("entity_id", entityID),
		slog.String("error", err.Error()),
	)
}

// CascadeSkipped logs a cascade-consistency skip (unexpected aggregate state).
func (l *Logger) CascadeSkipped(entityID, reason string) {
	l.Warn("cascade_skipped",
		slog.String("entity_id", entityID),
		slog.String("reason", reason),
	)
}

// SettingDefaulted logs a missing or malformed stored setting.
func (l *Logger) SettingDefaulted(key, raw string) {
	l.Warn("setting_defaulted",
		slog.String("key", key),
		slog.String("raw_value", raw),
	)
}

// SweepCompleted logs a finished sweep with its aggregate counters.
func (l *Logger) SweepCompleted(durationMs float64, totalActions int) {
	l.Info("sweep_completed",
		slog.Float64("duration_ms", durationMs),
		slog.Int("total_actions", totalActions),
	)
}
