// Package telemetry provides core.TelemetryHook sinks for structured logs
// and Prometheus metrics.
package telemetry

import (
	"context"
	"log/slog"

	"github.com/petal-labs/swipe/core"
)

// SlogHook writes one log record per attempt. Successful attempts log at
// debug, failures that will be retried at info, and final failures at warn.
type SlogHook struct {
	Logger *slog.Logger
}

// NewSlogHook returns a hook writing to logger, or slog.Default when nil.
func NewSlogHook(logger *slog.Logger) *SlogHook {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogHook{Logger: logger}
}

// OnAttempt implements core.TelemetryHook.
func (h *SlogHook) OnAttempt(e core.AttemptEvent) {
	attrs := []slog.Attr{
		slog.String("operation", e.Operation),
		slog.String("request_id", e.RequestID),
		slog.Int("attempt", e.Attempt),
		slog.Duration("elapsed", e.Elapsed),
	}
	if e.StatusCode != 0 {
		attrs = append(attrs, slog.Int("status", e.StatusCode))
	}

	level := slog.LevelDebug
	msg := "attempt succeeded"
	if !e.Success() {
		attrs = append(attrs, slog.String("kind", e.Kind.String()))
		if e.Ambiguous {
			attrs = append(attrs, slog.Bool("ambiguous", true))
		}
		if e.Final {
			level = slog.LevelWarn
			msg = "request failed"
		} else {
			level = slog.LevelInfo
			msg = "attempt failed, retrying"
			attrs = append(attrs, slog.Duration("wait", e.Wait))
		}
	}

	h.Logger.LogAttrs(context.Background(), level, msg, attrs...)
}
