package llm

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestTimeoutMiddleware_Expires(t *testing.T) {
	mock := NewMockCoreLLM()
	mock.ResponseDelay = 200 * time.Millisecond

	wrapped := TimeoutMiddleware(20 * time.Millisecond)(mock)

	_, err := wrapped.DoRequest(context.Background(), "prompt", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestTimeoutMiddleware_FastRequestPasses(t *testing.T) {
	mock := NewMockCoreLLM()

	wrapped := TimeoutMiddleware(time.Second)(mock)

	completion, err := wrapped.DoRequest(context.Background(), "prompt", nil)
	require.NoError(t, err)
	assert.Equal(t, "test response", completion.Text)
}

func TestRateLimitMiddleware_PacesRequests(t *testing.T) {
	mock := NewMockCoreLLM()

	// 20 requests per second: the second call has to wait ~50ms.
	wrapped := RateLimitMiddleware(rate.Limit(20), 1)(mock)

	_, err := wrapped.DoRequest(context.Background(), "first", nil)
	require.NoError(t, err)
	_, err = wrapped.DoRequest(context.Background(), "second", nil)
	require.NoError(t, err)

	gap := mock.GetTimeBetweenCalls(0, 1)
	require.NotNil(t, gap)
	assert.GreaterOrEqual(t, *gap, 30*time.Millisecond)
}

func TestRateLimitMiddleware_RespectsCancellation(t *testing.T) {
	mock := NewMockCoreLLM()
	wrapped := RateLimitMiddleware(rate.Limit(1), 1)(mock)

	// Exhaust the burst so the next call must wait a full second.
	_, err := wrapped.DoRequest(context.Background(), "first", nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = wrapped.DoRequest(ctx, "second", nil)
	require.Error(t, err)
	assert.Equal(t, 1, mock.GetCallCount())
}

func TestCircuitBreakerMiddleware_OpensAfterFailures(t *testing.T) {
	mock := NewMockCoreLLM()
	mock.Error = errors.New("provider down")

	wrapped := CircuitBreakerMiddleware(2, time.Minute)(mock)

	for range 2 {
		_, err := wrapped.DoRequest(context.Background(), "prompt", nil)
		require.Error(t, err)
	}

	// Third request is rejected without reaching the provider.
	_, err := wrapped.DoRequest(context.Background(), "prompt", nil)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, 2, mock.GetCallCount())
}

func TestCircuitBreakerMiddleware_RecoversAfterCooldown(t *testing.T) {
	mock := NewMockCoreLLM()
	mock.Error = errors.New("provider down")
	mock.FailUntilAttempt = 2

	wrapped := CircuitBreakerMiddleware(2, 20*time.Millisecond)(mock)

	for range 2 {
		_, err := wrapped.DoRequest(context.Background(), "prompt", nil)
		require.Error(t, err)
	}
	_, err := wrapped.DoRequest(context.Background(), "prompt", nil)
	require.ErrorIs(t, err, ErrCircuitOpen)

	time.Sleep(30 * time.Millisecond)

	completion, err := wrapped.DoRequest(context.Background(), "prompt", nil)
	require.NoError(t, err)
	assert.Equal(t, "test response", completion.Text)
}

func TestCircuitBreakerMiddleware_ClosedStateRunsConcurrently(t *testing.T) {
	mock := NewMockCoreLLM()
	mock.ResponseDelay = 100 * time.Millisecond

	wrapped := CircuitBreakerMiddleware(2, time.Minute)(mock)

	start := time.Now()
	var wg sync.WaitGroup
	for range 3 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := wrapped.DoRequest(context.Background(), "prompt", nil)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// Serialized execution would take at least 300ms.
	assert.Less(t, time.Since(start), 250*time.Millisecond,
		"a closed breaker must not serialize concurrent requests")
	assert.Equal(t, 3, mock.GetCallCount())
}

func TestCircuitBreaker_SingleProbeAfterCooldown(t *testing.T) {
	cb := NewCircuitBreaker(1, 10*time.Millisecond)
	_ = cb.Call(func() error { return errors.New("boom") })
	require.Equal(t, StateOpen, cb.GetState())

	time.Sleep(15 * time.Millisecond)

	// The first call after the cooldown is the probe; a second call
	// while the probe is in flight is rejected.
	probeStarted := make(chan struct{})
	probeRelease := make(chan struct{})
	probeDone := make(chan error, 1)
	go func() {
		probeDone <- cb.Call(func() error {
			close(probeStarted)
			<-probeRelease
			return nil
		})
	}()

	<-probeStarted
	err := cb.Call(func() error { return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)

	close(probeRelease)
	require.NoError(t, <-probeDone)
	assert.Equal(t, StateClosed, cb.GetState())
}

func TestCircuitBreaker_StateTransitions(t *testing.T) {
	cb := NewCircuitBreaker(1, 10*time.Millisecond)
	assert.Equal(t, StateClosed, cb.GetState())

	_ = cb.Call(func() error { return errors.New("boom") })
	assert.Equal(t, StateOpen, cb.GetState())

	time.Sleep(15 * time.Millisecond)
	require.NoError(t, cb.Call(func() error { return nil }))
	assert.Equal(t, StateClosed, cb.GetState())
}

// recordingCollector captures metric calls for assertions.
type recordingCollector struct {
	mu         sync.Mutex
	counters   map[string]float64
	histograms map[string]int
	labels     map[string]map[string]string
}

func newRecordingCollector() *recordingCollector {
	return &recordingCollector{
		counters:   make(map[string]float64),
		histograms: make(map[string]int),
		labels:     make(map[string]map[string]string),
	}
}

func (r *recordingCollector) RecordLatency(op string, d time.Duration, labels map[string]string) {}

func (r *recordingCollector) RecordCounter(metric string, value float64, labels map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counters[metric] += value
	r.labels[metric] = cloneLabels(labels)
}

func (r *recordingCollector) RecordGauge(metric string, value float64, labels map[string]string) {}

func (r *recordingCollector) RecordHistogram(metric string, value float64, labels map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.histograms[metric]++
	r.labels[metric] = cloneLabels(labels)
}

func cloneLabels(labels map[string]string) map[string]string {
	out := make(map[string]string, len(labels))
	for k, v := range labels {
		out[k] = v
	}
	return out
}

func TestMetricsMiddleware_RecordsSuccess(t *testing.T) {
	mock := NewMockCoreLLM()
	mock.Model = "gemini-2.0-flash-lite"
	collector := newRecordingCollector()

	wrapped := MetricsMiddleware(collector)(mock)

	_, err := wrapped.DoRequest(context.Background(), "prompt", nil)
	require.NoError(t, err)

	assert.Equal(t, float64(1), collector.counters["llm_requests_total"])
	assert.Equal(t, 1, collector.histograms["llm_latency_seconds"])
	assert.Equal(t, float64(30), collector.counters["llm_tokens_total"], "input and output tokens accumulate")
	assert.Equal(t, "google", collector.labels["llm_latency_seconds"]["provider"])
	assert.Equal(t, "success", collector.labels["llm_latency_seconds"]["status"])
}

func TestMetricsMiddleware_RecordsErrorStatus(t *testing.T) {
	mock := NewMockCoreLLM()
	mock.Error = errors.New("boom")
	collector := newRecordingCollector()

	wrapped := MetricsMiddleware(collector)(mock)

	_, err := wrapped.DoRequest(context.Background(), "prompt", nil)
	require.Error(t, err)

	assert.Equal(t, "error", collector.labels["llm_requests_total"]["status"])
	assert.Zero(t, collector.counters["llm_tokens_total"], "no token counters on failure")
}

func TestMetricsMiddleware_RecordsTruncatedStatus(t *testing.T) {
	mock := NewMockCoreLLM()
	mock.FinishReason = FinishTruncated
	collector := newRecordingCollector()

	wrapped := MetricsMiddleware(collector)(mock)

	_, err := wrapped.DoRequest(context.Background(), "prompt", nil)
	require.NoError(t, err)

	assert.Equal(t, "truncated", collector.labels["llm_requests_total"]["status"])
}
