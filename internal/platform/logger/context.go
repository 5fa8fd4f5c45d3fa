package logger

import (
	"context"
	"log/slog"
)

// contextKey is an unexported type to prevent collisions with keys from
// other packages.
type contextKey struct{}

// WithLogger returns a copy of ctx carrying the given logger, typically
// one enriched with request-scoped attributes.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext extracts the logger stored in ctx, falling back to
// slog.Default when none was set.
func FromContext(ctx context.Context) *slog.Logger {
	return FromContextOrDefault(ctx, slog.Default())
}

// FromContextOrDefault extracts the logger stored in ctx, returning
// fallback when none was set.
func FromContextOrDefault(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if logger, ok := ctx.Value(contextKey{}).(*slog.Logger); ok && logger != nil {
		return logger
	}
	return fallback
}
