package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/petal-labs/scribe/core"
)

const tracerName = "github.com/petal-labs/scribe"

// TracingHook records one span per provider request.
//
// Hooks receive no context, so spans are created when the request ends and
// back-dated to the start event. They are root spans unless the tracer
// provider's sampler links them elsewhere.
type TracingHook struct {
	tracer trace.Tracer
}

// Tracing returns a hook using the global TracerProvider. With no provider
// configured it is a no-op.
func Tracing() *TracingHook {
	return TracingWithTracer(otel.Tracer(tracerName))
}

// TracingWithTracer returns a hook using tracer.
func TracingWithTracer(tracer trace.Tracer) *TracingHook {
	return &TracingHook{tracer: tracer}
}

// OnRequestStart does nothing; the span is emitted on completion.
func (h *TracingHook) OnRequestStart(core.RequestStartEvent) {}

// OnRequestEnd emits a span covering the request.
func (h *TracingHook) OnRequestEnd(e core.RequestEndEvent) {
	attrs := []attribute.KeyValue{
		attribute.String("scribe.provider", e.Provider),
		attribute.String("scribe.operation", e.Operation),
		attribute.Int("http.response.status_code", e.Status),
	}
	if e.Model != "" {
		attrs = append(attrs, attribute.String("scribe.model", string(e.Model)))
	}
	if !e.Usage.IsZero() {
		attrs = append(attrs,
			attribute.Int("scribe.usage.prompt_tokens", e.Usage.PromptTokens),
			attribute.Int("scribe.usage.completion_tokens", e.Usage.CompletionTokens),
		)
	}

	_, span := h.tracer.Start(context.Background(), e.Provider+"."+e.Operation,
		trace.WithTimestamp(e.Start),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
	if e.Err != nil {
		span.SetAttributes(attribute.String("scribe.error.kind", string(core.KindOf(e.Err))))
		span.RecordError(e.Err, trace.WithTimestamp(e.End))
		span.SetStatus(codes.Error, e.Err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End(trace.WithTimestamp(e.End))
}

var _ core.TelemetryHook = (*TracingHook)(nil)
