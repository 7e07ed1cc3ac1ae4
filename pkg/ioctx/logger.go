package ioctx

import (
	"context"

	"go.uber.org/zap"
)

type loggerKey struct{}

// LoggerToContext returns a context carrying log.
func LoggerToContext(ctx context.Context, log *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, log)
}

// LoggerFromContext returns the logger carried by ctx, or a no-op logger.
func LoggerFromContext(ctx context.Context) *zap.Logger {
	if log, ok := ctx.Value(loggerKey{}).(*zap.Logger); ok && log != nil {
		return log
	}
	return zap.NewNop()
}
