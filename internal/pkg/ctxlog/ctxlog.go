// Package ctxlog provides context-aware logging utilities and logger
// construction for the console.
package ctxlog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
)

type ctxKey struct{}

// FromContext extracts the logger from context.
// Returns slog.Default() if no logger is found.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// ParseLevel maps a config level string to a slog level, defaulting
// to info for unrecognized values.
func ParseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewFileLogger creates a JSON logger appending to the given file.
// The TUI owns the terminal, so log records never go to stdout or
// stderr while it runs; the returned close function releases the file.
func NewFileLogger(path string, level string) (*slog.Logger, func() error, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file %s: %w", path, err)
	}

	handler := slog.NewJSONHandler(file, &slog.HandlerOptions{Level: ParseLevel(level)})
	return slog.New(handler), file.Close, nil
}

// NewDiscardLogger creates a logger that drops everything. Used when
// no log file is configured.
func NewDiscardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}
