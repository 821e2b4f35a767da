// Package log provides a context-scoped zap logger.
package log

import (
	"context"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var base *zap.Logger

func init() {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if lvl := os.Getenv("LOGLEVEL"); lvl != "" {
		if l, err := zapcore.ParseLevel(lvl); err == nil {
			cfg.Level = zap.NewAtomicLevelAt(l)
		}
	}
	l, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	base = l
}

type logKey struct{}

// Logger returns the logger attached to ctx, or the process logger.
func Logger(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(logKey{}).(*zap.Logger); ok {
		return l
	}
	return base
}

// With returns a context whose logger carries the given key/value pairs.
func With(ctx context.Context, keysAndValues ...interface{}) context.Context {
	return context.WithValue(ctx, logKey{}, Logger(ctx).Sugar().With(keysAndValues...).Desugar())
}

// Fatal logs at fatal level on the process logger and exits.
func Fatal(msg string, fields ...zap.Field) {
	base.Fatal(msg, fields...)
}
