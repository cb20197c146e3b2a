package middleware

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/gitmate/gitmate/infrastructure/llm"
)

// CircuitBreakerMetrics exposes the circuit breaker's state and
// outcome counts to Prometheus.
type CircuitBreakerMetrics struct {
	state    prometheus.Gauge
	trips    prometheus.Counter
	outcomes *prometheus.CounterVec
}

// NewCircuitBreakerMetrics creates a circuit breaker metrics sink and
// registers its metrics in the default registry.
func NewCircuitBreakerMetrics() *CircuitBreakerMetrics {
	return &CircuitBreakerMetrics{
		state: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "llm_circuit_breaker_state",
			Help: "Current circuit breaker state (0=closed, 1=open, 2=half-open).",
		}),
		trips: promauto.NewCounter(prometheus.CounterOpts{
			Name: "llm_circuit_breaker_trips_total",
			Help: "Total requests rejected by an open circuit.",
		}),
		outcomes: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llm_circuit_breaker_requests_total",
				Help: "Total requests through the circuit breaker by outcome.",
			},
			[]string{"outcome"},
		),
	}
}

// RecordState updates the state gauge.
func (m *CircuitBreakerMetrics) RecordState(state llm.CircuitBreakerState) {
	m.state.Set(float64(state))
}

// RecordTrip counts a request rejected by an open circuit.
func (m *CircuitBreakerMetrics) RecordTrip() { m.trips.Inc() }

// RecordSuccess counts a successful request.
func (m *CircuitBreakerMetrics) RecordSuccess() { m.outcomes.WithLabelValues("success").Inc() }

// RecordFailure counts a failed request.
func (m *CircuitBreakerMetrics) RecordFailure() { m.outcomes.WithLabelValues("failure").Inc() }

var _ llm.CircuitBreakerMetrics = (*CircuitBreakerMetrics)(nil)
