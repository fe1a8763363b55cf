package log

import (
	"log/slog"

	"golang.org/x/net/context"
)

// Logger carries a fixed set of attributes. The default slog logger is
// resolved on every call, so loggers built before Initialize still pick up
// the configured handler.
type Logger struct {
	args []any
}

func With(args ...any) *Logger {
	return &Logger{args: args}
}

func (l *Logger) With(args ...any) *Logger {
	merged := make([]any, 0, len(l.args)+len(args))
	merged = append(merged, l.args...)
	merged = append(merged, args...)
	return &Logger{args: merged}
}

func (l *Logger) slog() *slog.Logger {
	return slog.Default().With(l.args...)
}

func (l *Logger) Info(ctx context.Context, msg string, args ...any) {
	l.slog().InfoContext(ctx, msg, args...)
}

func (l *Logger) Debug(ctx context.Context, msg string, args ...any) {
	l.slog().DebugContext(ctx, msg, args...)
}

func (l *Logger) Warn(ctx context.Context, msg string, args ...any) {
	l.slog().WarnContext(ctx, msg, args...)
}

func (l *Logger) Error(ctx context.Context, msg string, args ...any) {
	l.slog().ErrorContext(ctx, msg, args...)
}
