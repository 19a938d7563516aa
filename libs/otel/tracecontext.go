package otelx

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// TraceFields is a W3C trace context flattened for JSON payloads, used when a
// message may lose its transport headers on the way.
type TraceFields struct {
	Traceparent string
	Tracestate  string
}

func CaptureTrace(ctx context.Context) TraceFields {
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	return TraceFields{Traceparent: carrier["traceparent"], Tracestate: carrier["tracestate"]}
}

// Restore returns ctx unchanged when f is empty or ctx already carries a valid span.
func (f TraceFields) Restore(ctx context.Context) context.Context {
	if f.Traceparent == "" {
		return ctx
	}
	if trace.SpanContextFromContext(ctx).IsValid() {
		return ctx
	}
	carrier := propagation.MapCarrier{"traceparent": f.Traceparent}
	if f.Tracestate != "" {
		carrier["tracestate"] = f.Tracestate
	}
	return otel.GetTextMapPropagator().Extract(ctx, carrier)
}
