package log

import (
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"golang.org/x/net/context"
)

type loggerCtxKey struct{}

const messageKey = "message"

var (
	keys         []string
	logMapCtxKey = loggerCtxKey{}
)

// Initialize: initializes the logger with default handler.
// keyInput lists context keys whose values are copied onto every record.
func Initialize(w io.Writer, debug bool, keyInput []string) {
	keys = keyInput
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if v, ok := a.Value.Any().(time.Duration); ok {
				a.Value = slog.StringValue(v.String())
			}
			if a.Key != slog.MessageKey {
				return a
			}
			a.Key = messageKey
			return a
		},
	}

	slog.SetDefault(slog.New(&handler{
		Handler: slog.NewJSONHandler(w, opts),
	}))
}

// AddLogValToCtx returns a context whose log records carry key=val. Values
// stored on the parent context are copied, never modified.
func AddLogValToCtx(ctx context.Context, key string, val interface{}) context.Context {
	m := &sync.Map{}
	if parent, ok := ctx.Value(logMapCtxKey).(*sync.Map); ok {
		parent.Range(func(k, v any) bool {
			m.Store(k, v)
			return true
		})
	}
	m.Store(key, val)
	return context.WithValue(ctx, logMapCtxKey, m)
}

func Info(ctx context.Context, msg string, args ...any) {
	slog.InfoContext(ctx, msg, args...)
}

func Debug(ctx context.Context, msg string, args ...any) {
	slog.DebugContext(ctx, msg, args...)
}

func Warn(ctx context.Context, msg string, args ...any) {
	slog.WarnContext(ctx, msg, args...)
}

func Error(ctx context.Context, msg string, args ...any) {
	slog.ErrorContext(ctx, msg, args...)
}

func Fatal(ctx context.Context, msg string, args ...any) {
	slog.ErrorContext(ctx, msg, args...)
	os.Exit(1)
}
