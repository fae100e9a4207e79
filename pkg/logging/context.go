package logging

import (
	"context"

	"go.uber.org/zap"
)

type loggerKey struct{}

// WithContext stores the provided logger on the context for request-scoped logging.
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	if ctx == nil || logger == nil {
		return ctx
	}
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext retrieves a logger from the context if present.
func FromContext(ctx context.Context) *zap.Logger {
	if ctx == nil {
		return nil
	}
	logger, _ := ctx.Value(loggerKey{}).(*zap.Logger)
	return logger
}

// FromContextOr returns the context logger when available, otherwise the fallback.
// A nil fallback yields a no-op logger.
func FromContextOr(ctx context.Context, fallback *zap.Logger) *zap.Logger {
	if logger := FromContext(ctx); logger != nil {
		return logger
	}
	if fallback == nil {
		return zap.NewNop()
	}
	return fallback
}
