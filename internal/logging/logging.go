// Package logging carries request-scoped slog loggers through contexts and
// builds the JSON logger the server writes to.
package logging

import (
	"context"
	"io"
	"log/slog"
)

type loggerKey struct{}

// NewJSONLogger returns a structured logger emitting one JSON object per
// record at the given level.
func NewJSONLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// ContextWithLogger returns a derived context carrying the logger, so
// request-scoped attributes follow the call into the service layer.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	if ctx == nil || logger == nil {
		return ctx
	}
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext returns the logger attached to the context, or nil when the
// caller never attached one. Callers fall back to their own base logger.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return nil
	}
	logger, _ := ctx.Value(loggerKey{}).(*slog.Logger)
	return logger
}
