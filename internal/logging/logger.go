// Package logging defines the structured-logging interface used across the
// server, with slog and zap implementations.
package logging

import (
	"context"
	"fmt"
	"strings"
)

// Logger is a context-aware, structured logger.
//
// The variadic args are interpreted as key–value pairs, e.g.:
//
//	log.Info(ctx, "quest completed", "user_id", id, "gained_xp", xp)
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given key–value pairs.
	With(args ...any) Logger
}

// Backend names accepted by New.
const (
	BackendSlog = "slog"
	BackendZap  = "zap"
)

// New builds a Logger for the named backend at the given level
// ("debug", "info", "warn", "error").
func New(backend, level string) (Logger, error) {
	switch strings.ToLower(backend) {
	case "", BackendSlog:
		return NewJSONSlogLogger(level), nil
	case BackendZap:
		return NewZapLogger(level)
	default:
		return nil, fmt.Errorf("unknown log backend %q", backend)
	}
}
