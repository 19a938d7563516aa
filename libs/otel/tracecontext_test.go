package otelx

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

func TestCaptureAndRestoreTrace(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	fields := CaptureTrace(ctx)
	if fields.Traceparent != "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01" {
		t.Fatalf("unexpected traceparent %q", fields.Traceparent)
	}

	restored := fields.Restore(context.Background())
	if got := trace.SpanContextFromContext(restored).TraceID(); got != traceID {
		t.Fatalf("restored trace id %s", got)
	}
	if trace.SpanContextFromContext(TraceFields{}.Restore(context.Background())).IsValid() {
		t.Fatalf("empty fields must not invent a span context")
	}
}
