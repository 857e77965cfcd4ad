package logger

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// New returns the process-wide structured JSON logger. Local and dev
// environments log at debug so the advance chain can be traced call by call.
func New(appEnv string) *slog.Logger {
	level := slog.LevelInfo
	if appEnv == "local" || appEnv == "dev" {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

type ctxKey struct{}

// With stores a logger in context.
func With(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// From gets a logger from context, falling back to slog.Default().
// Orchestrator code uses this so every log line under a webhook or scheduler
// invocation carries that invocation's request_id.
func From(ctx context.Context) *slog.Logger {
	if v := ctx.Value(ctxKey{}); v != nil {
		if l, ok := v.(*slog.Logger); ok && l != nil {
			return l
		}
	}
	return slog.Default()
}

// ShutdownFlush exists for a future buffered handler; the JSON handler
// writes through, so there is nothing to flush today.
func ShutdownFlush(_ context.Context, _ time.Duration) error { return nil }
