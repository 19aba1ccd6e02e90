package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
)

var (
	defaultLogger *slog.Logger
	output        io.Writer = os.Stdout
)

type attrsKey struct{}

// Init sets the process logger. json selects JSON lines over logfmt text.
func Init(level string, json bool) {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLevel(level),
	}

	if json {
		handler = slog.NewJSONHandler(output, opts)
	} else {
		handler = slog.NewTextHandler(output, opts)
	}

	defaultLogger = slog.New(handler)
	slog.SetDefault(defaultLogger)
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func get() *slog.Logger {
	if defaultLogger == nil {
		Init("info", false)
	}
	return defaultLogger
}

// WithAttrs returns a context whose loggers carry args (wallet, hub_id, ...)
// in addition to any attributes already attached.
func WithAttrs(ctx context.Context, args ...any) context.Context {
	prev := Attrs(ctx)
	merged := make([]any, 0, len(prev)+len(args))
	merged = append(append(merged, prev...), args...)
	return context.WithValue(ctx, attrsKey{}, merged)
}

// Attrs returns the key/value pairs attached to ctx by WithAttrs.
func Attrs(ctx context.Context) []any {
	attrs, _ := ctx.Value(attrsKey{}).([]any)
	return attrs
}

// WithContext returns a logger carrying the attributes stored by WithAttrs.
func WithContext(ctx context.Context) *slog.Logger {
	if attrs := Attrs(ctx); len(attrs) > 0 {
		return get().With(attrs...)
	}
	return get()
}

func Info(msg string, args ...any) {
	get().Info(msg, args...)
}

func Debug(msg string, args ...any) {
	get().Debug(msg, args...)
}

func Warn(msg string, args ...any) {
	get().Warn(msg, args...)
}

func Error(msg string, args ...any) {
	get().Error(msg, args...)
}

// Fatal logs at error level and exits
func Fatal(msg string, args ...any) {
	get().Error(msg, args...)
	os.Exit(1)
}

// With returns a logger with the given attributes
func With(args ...any) *slog.Logger {
	return get().With(args...)
}
