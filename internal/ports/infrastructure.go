package ports

import "time"

// MetricsCollector abstracts the metrics backend so the completion
// middleware does not depend on a concrete monitoring system. The
// Prometheus implementation lives in infrastructure/middleware.
type MetricsCollector interface {
	// RecordLatency records the duration of an operation.
	RecordLatency(operation string, duration time.Duration, labels map[string]string)

	// RecordCounter increments a counter by value.
	RecordCounter(metric string, value float64, labels map[string]string)

	// RecordGauge sets a gauge to value.
	RecordGauge(metric string, value float64, labels map[string]string)

	// RecordHistogram records an observation in a histogram.
	RecordHistogram(metric string, value float64, labels map[string]string)
}
