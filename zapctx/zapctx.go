// Package zapctx stores the agent's *zap.Logger in a context.Context.
//
// The hook pump, usage tracker and report stream each receive a context
// named after the component (see Named) and log through the package-level
// helpers. Code that may run without a configured logger calls Ensure first.
package zapctx

import (
	"context"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// loggerKey holds the context key used for loggers.
type loggerKey struct{}

// WithLogger returns a new context derived from ctx that
// is associated with the given logger.
func WithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// WithFields returns a new context derived from ctx
// that has a logger that always logs the given fields.
func WithFields(ctx context.Context, fields ...zapcore.Field) context.Context {
	return WithLogger(ctx, Logger(ctx).With(fields...))
}

// Named returns a context whose logger has name appended to its name.
func Named(ctx context.Context, name string) context.Context {
	return WithLogger(ctx, Logger(ctx).Named(name))
}

// Logger returns the logger associated with the given
// context. If there is no context or no logger, it will panic.
func Logger(ctx context.Context) *zap.Logger {
	if ctx == nil {
		panic("nil context passed to zapctx.Logger()")
	}
	logger, ok := lookup(ctx)
	if !ok {
		panic("context without logger passed to zapctx.Logger()")
	}
	return logger
}

// Ensure returns ctx unchanged when it already carries a logger, otherwise
// a derived context holding fallback. A nil fallback is replaced with a
// no-op logger so the result is always safe to pass to Logger.
func Ensure(ctx context.Context, fallback *zap.Logger) context.Context {
	if _, ok := lookup(ctx); ok {
		return ctx
	}
	if fallback == nil {
		fallback = zap.NewNop()
	}
	return WithLogger(ctx, fallback)
}

func Debug(ctx context.Context, msg string, fields ...zapcore.Field) {
	loggerForCaller(ctx).Debug(msg, fields...)
}

func Info(ctx context.Context, msg string, fields ...zapcore.Field) {
	loggerForCaller(ctx).Info(msg, fields...)
}

func Warn(ctx context.Context, msg string, fields ...zapcore.Field) {
	loggerForCaller(ctx).Warn(msg, fields...)
}

func Error(ctx context.Context, msg string, fields ...zapcore.Field) {
	loggerForCaller(ctx).Error(msg, fields...)
}

func lookup(ctx context.Context) (*zap.Logger, bool) {
	logger, _ := ctx.Value(loggerKey{}).(*zap.Logger)
	return logger, logger != nil
}

func loggerForCaller(ctx context.Context) *zap.Logger {
	return Logger(ctx).WithOptions(zap.AddCaller(), zap.AddCallerSkip(1))
}
