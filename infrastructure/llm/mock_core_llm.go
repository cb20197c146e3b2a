package llm

import (
	"context"
	"sync"
	"time"
)

// MockCoreLLM is a configurable CoreLLM for tests. It allows precise
// control over the returned completion, finish reason, timing, and
// failure behavior.
type MockCoreLLM struct {
	mu sync.Mutex

	// Response configuration.
	Response      string
	FinishReason  FinishReason
	TokensIn      int
	TokensOut     int
	Error         error
	Model         string
	ResponseDelay time.Duration

	// Behavior flags.
	FailUntilAttempt int  // Fail for the first N calls, then succeed.
	AlternateErrors  bool // Alternate between success and failure.

	// Tracking.
	CallCount      int
	LastPrompt     string
	LastOpts       map[string]any
	LastContext    context.Context
	Contexts       []context.Context
	CallTimestamps []time.Time
}

// NewMockCoreLLM creates a mock with default successful behavior.
func NewMockCoreLLM() *MockCoreLLM {
	return &MockCoreLLM{
		Response:       "test response",
		TokensIn:       10,
		TokensOut:      20,
		Model:          "test-model",
		Contexts:       make([]context.Context, 0),
		CallTimestamps: make([]time.Time, 0),
	}
}

// DoRequest implements CoreLLM with the configured behavior.
func (m *MockCoreLLM) DoRequest(ctx context.Context, prompt string, opts map[string]any) (Completion, error) {
	m.mu.Lock()

	m.CallCount++
	m.LastPrompt = prompt
	m.LastOpts = opts
	m.LastContext = ctx
	m.Contexts = append(m.Contexts, ctx)
	m.CallTimestamps = append(m.CallTimestamps, time.Now())

	// Snapshot everything the response depends on, then release the
	// lock so the simulated delay does not serialize concurrent calls.
	callCount := m.CallCount
	delay := m.ResponseDelay
	failUntilAttempt := m.FailUntilAttempt
	alternateErrors := m.AlternateErrors
	configuredErr := m.Error
	completion := Completion{
		Text:         m.Response,
		FinishReason: m.FinishReason,
		TokensIn:     m.TokensIn,
		TokensOut:    m.TokensOut,
	}

	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return Completion{}, ctx.Err()
		}
	}

	switch {
	case failUntilAttempt > 0:
		// Fail only inside the configured window, then recover.
		if callCount <= failUntilAttempt {
			if configuredErr != nil {
				return Completion{}, configuredErr
			}
			return Completion{}, &testError{message: "simulated failure"}
		}
	case alternateErrors:
		if callCount%2 == 0 {
			if configuredErr != nil {
				return Completion{}, configuredErr
			}
			return Completion{}, &testError{message: "alternating failure"}
		}
	case configuredErr != nil:
		return Completion{}, configuredErr
	}

	return completion, nil
}

// GetModel returns the configured model name.
func (m *MockCoreLLM) GetModel() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Model
}

// SetModel updates the model name.
func (m *MockCoreLLM) SetModel(model string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Model = model
}

// Reset clears all tracking data while preserving configuration.
func (m *MockCoreLLM) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CallCount = 0
	m.LastPrompt = ""
	m.LastOpts = nil
	m.LastContext = nil
	m.Contexts = make([]context.Context, 0)
	m.CallTimestamps = make([]time.Time, 0)
}

// GetCallCount returns the number of times DoRequest was called.
func (m *MockCoreLLM) GetCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CallCount
}

// GetTimeBetweenCalls returns the duration between two calls, or nil
// when either index is out of range.
func (m *MockCoreLLM) GetTimeBetweenCalls(call1, call2 int) *time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()

	if call1 < 0 || call2 < 0 || call1 >= len(m.CallTimestamps) || call2 >= len(m.CallTimestamps) {
		return nil
	}

	duration := m.CallTimestamps[call2].Sub(m.CallTimestamps[call1])
	return &duration
}

// testError is a simple retryable-looking error for tests.
type testError struct {
	message string
}

func (e *testError) Error() string {
	return e.message
}
