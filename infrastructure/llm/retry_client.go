package llm

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/gitmate/gitmate/internal/ports"
)

// Default retry configuration constants.
const (
	// DefaultMaxAttempts is the default total number of attempts.
	DefaultMaxAttempts = 3
	// DefaultBaseDelay is the default delay before the first retry.
	DefaultBaseDelay = 1 * time.Second
	// DefaultMaxDelay caps the delay between retries.
	DefaultMaxDelay = 8 * time.Second
	// DefaultJitterPercent is the default jitter percentage.
	DefaultJitterPercent = 0.1
)

// RetryConfig controls the exponential backoff behavior of the
// resilient client.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts, the first try
	// included. Retrying stops once this many attempts have failed.
	MaxAttempts int

	// BaseDelay is the delay before the first retry. Each subsequent
	// retry doubles the delay.
	BaseDelay time.Duration

	// MaxDelay caps the delay between retries so exponential growth
	// never exceeds the configured ceiling.
	MaxDelay time.Duration

	// JitterPercent adds a random fraction of the current delay to
	// spread out concurrent retries. It should be between 0.0 and 1.0.
	JitterPercent float64

	// Observer, when set, receives a CompletionAttempt record for each
	// attempt. Used by tests to verify the delay sequence and by
	// callers that want attempt-level logging.
	Observer AttemptObserver
}

// DefaultRetryConfig returns the reference retry settings: three
// attempts with 1s/2s/4s backoff bounded by an 8s cap.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:   DefaultMaxAttempts,
		BaseDelay:     DefaultBaseDelay,
		MaxDelay:      DefaultMaxDelay,
		JitterPercent: DefaultJitterPercent,
	}
}

// CompletionAttempt is the transient record of one attempt inside a
// Generate call. It exists only for the duration of the call; nothing
// retains it afterwards.
type CompletionAttempt struct {
	// Number is the 1-based attempt number.
	Number int

	// Delay is the backoff slept before the next attempt, zero for the
	// final or successful attempt.
	Delay time.Duration

	// Err is the outcome of the attempt, nil on success.
	Err error
}

// AttemptObserver receives per-attempt records during a Generate call.
type AttemptObserver func(CompletionAttempt)

var _ ports.CompletionClient = (*ResilientClient)(nil)

// ResilientClient wraps a CoreLLM with bounded retry, exponential
// backoff, and truncation detection, turning a flaky remote endpoint
// into a dependable internal service. It holds no mutable state of its
// own and is safe for concurrent use.
type ResilientClient struct {
	core      CoreLLM
	config    RetryConfig
	estimator TokenEstimator
}

// NewResilientClient wraps core with the given retry behavior.
func NewResilientClient(core CoreLLM, config RetryConfig, estimator TokenEstimator) *ResilientClient {
	if estimator == nil {
		estimator = NewCharacterBasedTokenEstimator(0)
	}
	return &ResilientClient{core: core, config: config, estimator: estimator}
}

// Generate sends the prompt and returns the complete generated text.
//
// Retry policy: transient failures (rate limit, 5xx-equivalent,
// transport errors) are retried with exponentially doubling backoff up
// to MaxAttempts total attempts, after which an UnavailableError
// wrapping the last failure is returned. Non-retryable failures return
// immediately. A response flagged as cut off by the output token
// budget returns a TruncatedError immediately without consuming any
// retry: the identical prompt would truncate again, so the caller has
// to raise the budget or shrink the input.
//
// Both the network round trip and the backoff sleep respect ctx;
// cancellation abandons the call promptly.
func (c *ResilientClient) Generate(ctx context.Context, prompt string, options map[string]any) (string, error) {
	var lastErr error
	delay := c.config.BaseDelay

	for attempt := 1; attempt <= c.config.MaxAttempts; attempt++ {
		completion, err := c.core.DoRequest(ctx, prompt, options)
		if err == nil {
			if completion.FinishReason == FinishTruncated {
				c.observe(CompletionAttempt{Number: attempt})
				return "", &TruncatedError{
					Provider: providerFromModel(c.core.GetModel()),
					Model:    c.core.GetModel(),
					MaxTokens: ExtractOptionalInt(
						options, "max_tokens", DefaultMaxTokens, IsPositiveInt),
				}
			}
			c.observe(CompletionAttempt{Number: attempt})
			return completion.Text, nil
		}

		lastErr = err
		if !isRetryableError(err) {
			c.observe(CompletionAttempt{Number: attempt, Err: err})
			return "", err
		}
		if attempt == c.config.MaxAttempts {
			c.observe(CompletionAttempt{Number: attempt, Err: err})
			break
		}

		wait := c.applyJitter(delay)
		c.observe(CompletionAttempt{Number: attempt, Delay: wait, Err: err})

		select {
		case <-ctx.Done():
			return "", fmt.Errorf("context cancelled during retry: %w", ctx.Err())
		case <-time.After(wait):
		}

		delay *= 2
		if delay > c.config.MaxDelay {
			delay = c.config.MaxDelay
		}
	}

	return "", &UnavailableError{Attempts: c.config.MaxAttempts, Err: lastErr}
}

// EstimateTokens approximates the token count for text.
func (c *ResilientClient) EstimateTokens(text string) (int, error) {
	return c.estimator.EstimateTokens(text), nil
}

// GetModel returns the model identifier of the wrapped provider.
func (c *ResilientClient) GetModel() string { return c.core.GetModel() }

func (c *ResilientClient) observe(attempt CompletionAttempt) {
	if c.config.Observer != nil {
		c.config.Observer(attempt)
	}
}

// applyJitter adds a bounded random offset to the delay and clamps the
// result into [BaseDelay, MaxDelay] so jitter can never push a sleep
// past the configured ceiling.
func (c *ResilientClient) applyJitter(delay time.Duration) time.Duration {
	jitter := int64(float64(delay) * c.config.JitterPercent)
	if jitter > 0 {
		//nolint:gosec // G404: math/rand is fine for retry jitter.
		delay += time.Duration(rand.Int64N(2*jitter) - jitter)
	}
	if delay < c.config.BaseDelay {
		return c.config.BaseDelay
	}
	if delay > c.config.MaxDelay {
		return c.config.MaxDelay
	}
	return delay
}

// isRetryableError decides whether a failed attempt is worth retrying.
// Classified provider errors answer directly; unclassified errors fall
// back to matching common transient failure messages.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var provErr *ProviderError
	if errors.As(err, &provErr) {
		return provErr.IsRetryable()
	}

	errStr := strings.ToLower(err.Error())
	retryablePatterns := []string{
		"rate limit", "too many requests", "timeout", "connection refused",
		"connection reset", "temporary failure", "service unavailable",
		"internal server error", "bad gateway", "gateway timeout", "network",
	}
	for _, pattern := range retryablePatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}
