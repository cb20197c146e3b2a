package llm

import (
	"context"
	"time"

	"github.com/gitmate/gitmate/internal/ports"
)

// metricsLLM records request latency, outcomes, and token usage for
// operational monitoring.
type metricsLLM struct {
	next      CoreLLM
	collector ports.MetricsCollector
}

// MetricsMiddleware creates middleware that collects request metrics,
// labeled by provider, model, and outcome.
func MetricsMiddleware(collector ports.MetricsCollector) Middleware {
	return func(next CoreLLM) CoreLLM {
		return &metricsLLM{
			next:      next,
			collector: collector,
		}
	}
}

// DoRequest executes the request while recording latency, status, and
// token counters.
func (m *metricsLLM) DoRequest(ctx context.Context, prompt string, opts map[string]any) (Completion, error) {
	start := time.Now()
	completion, err := m.next.DoRequest(ctx, prompt, opts)

	labels := map[string]string{
		"provider": providerFromModel(m.next.GetModel()),
		"model":    m.next.GetModel(),
		"status":   "success",
	}

	if err != nil {
		switch {
		case err == ErrCircuitOpen:
			labels["status"] = "circuit_open"
		case ctx.Err() == context.DeadlineExceeded:
			labels["status"] = "timeout"
		default:
			labels["status"] = "error"
		}
	} else if completion.FinishReason == FinishTruncated {
		labels["status"] = "truncated"
	}

	if m.collector != nil {
		m.collector.RecordHistogram("llm_latency_seconds", time.Since(start).Seconds(), labels)
		m.collector.RecordCounter("llm_requests_total", 1, labels)

		if err == nil {
			labels["token_type"] = "input"
			m.collector.RecordCounter("llm_tokens_total", float64(completion.TokensIn), labels)

			labels["token_type"] = "output"
			m.collector.RecordCounter("llm_tokens_total", float64(completion.TokensOut), labels)
		}
	}

	return completion, err
}

// GetModel returns the model name from the wrapped implementation.
func (m *metricsLLM) GetModel() string { return m.next.GetModel() }

// SetModel updates the model name in the wrapped implementation.
func (m *metricsLLM) SetModel(model string) { m.next.SetModel(model) }
