package log

import (
	"context"

	"go.uber.org/zap"
)

var logger *zap.Logger

// Init builds the process logger once. Later calls keep the first logger.
func Init(prod bool, fields ...zap.Field) error {
	if logger != nil {
		return nil
	}
	var (
		built *zap.Logger
		err   error
	)
	if prod {
		built, err = zap.NewProduction()
	} else {
		built, err = zap.NewDevelopment()
	}
	if err != nil {
		return err
	}
	logger = built.With(fields...)
	return nil
}

// L returns the process logger, or a no-op logger before Init.
func L() *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func Sync() {
	if logger != nil {
		_ = logger.Sync()
	}
}

type contextKey struct{}

// WithContext attaches logger to ctx so code further down the call chain
// logs with its fields, such as a run id.
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext returns the logger attached to ctx, or L().
func FromContext(ctx context.Context) *zap.Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(contextKey{}).(*zap.Logger); ok && logger != nil {
			return logger
		}
	}
	return L()
}
