// Package logger provides the configured structured logger for the service.
// It wraps "log/slog" so every binary emits the same format: JSON by default,
// text when LOG_FORMAT=text, level from LOG_LEVEL.
package logger

import (
	"io"
	"log/slog"
	"os"
)

// New creates a *slog.Logger from the LOG_LEVEL and LOG_FORMAT environment
// variables, writing to os.Stdout.
func New(service string) *slog.Logger {
	return NewWithWriter(service, os.Stdout, os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
}

// NewWithWriter creates a *slog.Logger writing to the given io.Writer.
// Useful for tests and custom output destinations.
func NewWithWriter(service string, w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: parseLevel(level),
	}

	var handler slog.Handler
	switch format {
	case "text":
		handler = slog.NewTextHandler(w, opts)
	default:
		handler = slog.NewJSONHandler(w, opts)
	}

	return slog.New(handler).With(slog.String("service", service))
}

// parseLevel converts a string to slog.Level. Defaults to INFO.
func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}
