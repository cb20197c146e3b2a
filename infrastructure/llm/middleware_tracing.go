package llm

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracedLLM wraps each request in an OpenTelemetry span carrying the
// model, prompt size, and token usage.
type tracedLLM struct {
	next   CoreLLM
	tracer trace.Tracer
}

// TracingMiddleware creates middleware that records a span per request
// under the given service name.
func TracingMiddleware(serviceName string) Middleware {
	tracer := otel.Tracer(serviceName)

	return func(next CoreLLM) CoreLLM {
		return &tracedLLM{
			next:   next,
			tracer: tracer,
		}
	}
}

// DoRequest executes the request within a trace span. Errors are
// recorded on the span; truncation is surfaced as an event so it is
// visible without inspecting payloads.
func (t *tracedLLM) DoRequest(ctx context.Context, prompt string, opts map[string]any) (Completion, error) {
	ctx, span := t.tracer.Start(ctx, "llm.request",
		trace.WithAttributes(
			attribute.String("llm.model", t.next.GetModel()),
			attribute.String("llm.provider", providerFromModel(t.next.GetModel())),
			attribute.Int("llm.prompt.length", len(prompt)),
		),
	)
	defer span.End()

	completion, err := t.next.DoRequest(ctx, prompt, opts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return completion, err
	}

	span.SetAttributes(
		attribute.Int("llm.tokens.input", completion.TokensIn),
		attribute.Int("llm.tokens.output", completion.TokensOut),
		attribute.String("llm.finish_reason", completion.FinishReason.String()),
	)
	if completion.FinishReason == FinishTruncated {
		span.AddEvent("llm.response_truncated")
	}
	span.SetStatus(codes.Ok, "")

	return completion, nil
}

// GetModel returns the model name from the wrapped implementation.
func (t *tracedLLM) GetModel() string { return t.next.GetModel() }

// SetModel updates the model name in the wrapped implementation.
func (t *tracedLLM) SetModel(m string) { t.next.SetModel(m) }
