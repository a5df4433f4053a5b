package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/xraph/conduit"

// Tracer provides OpenTelemetry tracing for Conduit.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer creates a new Conduit tracer.
func NewTracer() *Tracer {
	return &Tracer{
		tracer: otel.Tracer(tracerName),
	}
}

// StartDeliverySpan starts a new span for a delivery attempt.
func (t *Tracer) StartDeliverySpan(ctx context.Context, entryID, eventType, endpointID string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "conduit.delivery",
		trace.WithAttributes(
			attribute.String("conduit.entry_id", entryID),
			attribute.String("conduit.event_type", eventType),
			attribute.String("conduit.endpoint_id", endpointID),
		),
	)
}

// EndDeliverySpan ends a delivery span with result attributes.
func (t *Tracer) EndDeliverySpan(span trace.Span, statusCode, latencyMs int, err string) {
	span.SetAttributes(
		attribute.Int("http.status_code", statusCode),
		attribute.Int("conduit.latency_ms", latencyMs),
	)
	if err != "" {
		span.SetAttributes(attribute.String("conduit.error", err))
	}
	span.End()
}
