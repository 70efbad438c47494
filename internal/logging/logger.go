// Package logging provides structured logging configuration using log/slog.
//
// This package integrates with chi's RequestID middleware to propagate
// request IDs through structured log entries, and can fan log output out to
// a JSON file alongside the console.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	slogmulti "github.com/samber/slog-multi"
)

// Setup configures the global slog logger based on level and format.
//
// Level values: "debug", "info", "warn", "error" (default: "info")
// Format values: "text", "json" (default: "text")
//
// When file is non-empty, entries are also appended to that file as JSON.
// The returned function closes the file and is safe to call when no file was opened.
func Setup(level, format, file string) (func() error, error) {
	logger, closer, err := New(os.Stdout, level, format, file)
	if err != nil {
		return func() error { return nil }, err
	}
	slog.SetDefault(logger)
	return closer, nil
}

// New builds a logger writing to w, plus an optional JSON log file.
func New(w io.Writer, level, format, file string) (*slog.Logger, func() error, error) {
	opts := &slog.HandlerOptions{
		Level: parseLevel(level),
	}

	var console slog.Handler
	if strings.ToLower(format) == "json" {
		console = slog.NewJSONHandler(w, opts)
	} else {
		console = slog.NewTextHandler(w, opts)
	}

	if file == "" {
		return slog.New(console), func() error { return nil }, nil
	}

	f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return slog.New(console), func() error { return nil }, fmt.Errorf("open log file %s: %w", file, err)
	}

	logger := slog.New(slogmulti.Fanout(console, slog.NewJSONHandler(f, opts)))
	return logger, f.Close, nil
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// FromContext returns a logger enriched with request context.
//
// When called with a request context that contains a chi RequestID,
// the returned logger automatically includes request_id in all log entries.
func FromContext(ctx context.Context) *slog.Logger {
	logger := slog.Default()

	if reqID := middleware.GetReqID(ctx); reqID != "" {
		logger = logger.With("request_id", reqID)
	}

	return logger
}

// WithFields returns a logger with additional structured fields.
//
// Usage:
//
//	docLogger := logging.WithFields(ctx,
//	    "document_id", doc.ID,
//	    "file", doc.DisplayName,
//	)
//	docLogger.Info("extraction started")
func WithFields(ctx context.Context, args ...any) *slog.Logger {
	return FromContext(ctx).With(args...)
}
