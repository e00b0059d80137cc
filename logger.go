package annbench

import (
	"io"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with annbench-specific context.
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
	return &Logger{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// WithAlgorithm adds an algorithm field to the logger.
func (l *Logger) WithAlgorithm(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("algorithm", name),
	}
}

// WithDataset adds dataset and scale fields to the logger.
func (l *Logger) WithDataset(name string, scale int) *Logger {
	return &Logger{
		Logger: l.Logger.With("dataset", name, "scale", scale),
	}
}

// WithK adds a k (neighbor count) field to the logger.
func (l *Logger) WithK(k int) *Logger {
	return &Logger{
		Logger: l.Logger.With("k", k),
	}
}

// WithRadius adds a radius field to the logger.
func (l *Logger) WithRadius(radius float32) *Logger {
	return &Logger{
		Logger: l.Logger.With("radius", radius),
	}
}
