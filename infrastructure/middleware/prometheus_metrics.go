// Package middleware provides the Prometheus-backed metrics sinks for
// the completion client's observability middleware.
package middleware

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/gitmate/gitmate/internal/ports"
)

// PrometheusMetrics implements ports.MetricsCollector using Prometheus,
// exposing request volume, latency, and token consumption per provider
// and model.
type PrometheusMetrics struct {
	requestsTotal  *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
	tokensTotal    *prometheus.CounterVec
	systemGauges   *prometheus.GaugeVec
}

// NewPrometheusMetrics creates a PrometheusMetrics instance and
// registers its metrics in the default registry.
func NewPrometheusMetrics() *PrometheusMetrics {
	return &PrometheusMetrics{
		requestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llm_requests_total",
				Help: "Total number of completion requests by provider, model, and outcome.",
			},
			[]string{"provider", "model", "status"},
		),
		requestLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "llm_latency_seconds",
				Help:    "Completion request latency in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider", "model", "status"},
		),
		tokensTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llm_tokens_total",
				Help: "Total tokens consumed by completion requests.",
			},
			[]string{"provider", "model", "token_type"},
		),
		systemGauges: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "llm_client_state",
				Help: "Current state values for the completion client.",
			},
			[]string{"metric"},
		),
	}
}

// RecordLatency records an operation duration in the latency histogram.
func (pm *PrometheusMetrics) RecordLatency(operation string, duration time.Duration, labels map[string]string) {
	pm.requestLatency.WithLabelValues(
		labels["provider"], labels["model"], labels["status"],
	).Observe(duration.Seconds())
}

// RecordCounter increments the counter matching the metric name.
func (pm *PrometheusMetrics) RecordCounter(metric string, value float64, labels map[string]string) {
	switch metric {
	case "llm_tokens_total":
		pm.tokensTotal.WithLabelValues(
			labels["provider"], labels["model"], labels["token_type"],
		).Add(value)
	default:
		pm.requestsTotal.WithLabelValues(
			labels["provider"], labels["model"], labels["status"],
		).Add(value)
	}
}

// RecordGauge sets a client state gauge.
func (pm *PrometheusMetrics) RecordGauge(metric string, value float64, labels map[string]string) {
	pm.systemGauges.WithLabelValues(metric).Set(value)
}

// RecordHistogram records a raw value in the latency histogram.
func (pm *PrometheusMetrics) RecordHistogram(metric string, value float64, labels map[string]string) {
	pm.requestLatency.WithLabelValues(
		labels["provider"], labels["model"], labels["status"],
	).Observe(value)
}

var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)
