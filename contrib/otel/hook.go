// Package otel exports dispatcher attempts as OpenTelemetry spans.
//
// Each network attempt becomes one client span named after the logical
// operation. Spans of the same Execute call share the swipe.request_id
// attribute.
//
//	hook := otel.NewHook(otel.WithTracerProvider(tp))
//	client, err := tinder.New(creds, tinder.WithTelemetry(hook))
package otel

import (
	"context"
	"time"

	"github.com/petal-labs/swipe/core"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/petal-labs/swipe/contrib/otel"

// Hook implements core.TelemetryHook.
type Hook struct {
	tracer trace.Tracer
	now    func() time.Time
}

// Option configures a Hook.
type Option func(*hookConfig)

type hookConfig struct {
	provider trace.TracerProvider
}

// WithTracerProvider sets the provider. Defaults to the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *hookConfig) {
		if tp != nil {
			c.provider = tp
		}
	}
}

// NewHook creates a span-emitting hook.
func NewHook(opts ...Option) *Hook {
	cfg := hookConfig{provider: otel.GetTracerProvider()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Hook{
		tracer: cfg.provider.Tracer(instrumentationName),
		now:    time.Now,
	}
}

// OnAttempt records e as a finished span that started e.Elapsed ago.
func (h *Hook) OnAttempt(e core.AttemptEvent) {
	end := h.now()
	_, span := h.tracer.Start(context.Background(), e.Operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithTimestamp(end.Add(-e.Elapsed)),
		trace.WithAttributes(attributes(e)...),
	)
	if e.Success() {
		span.SetStatus(codes.Ok, "")
	} else {
		span.SetStatus(codes.Error, e.Kind.String())
	}
	span.End(trace.WithTimestamp(end))
}

func attributes(e core.AttemptEvent) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("swipe.operation", e.Operation),
		attribute.String("swipe.request_id", e.RequestID),
		attribute.Int("swipe.attempt", e.Attempt),
		attribute.String("swipe.kind", e.Kind.String()),
		attribute.Bool("swipe.final", e.Final),
	}
	if e.StatusCode != 0 {
		attrs = append(attrs, attribute.Int("http.response.status_code", e.StatusCode))
	}
	if e.Ambiguous {
		attrs = append(attrs, attribute.Bool("swipe.ambiguous", true))
	}
	if e.Wait > 0 {
		attrs = append(attrs, attribute.Float64("swipe.backoff_seconds", e.Wait.Seconds()))
	}
	return attrs
}

var _ core.TelemetryHook = (*Hook)(nil)
