// Package llm provides the resilient outbound client for text
// completion endpoints. It abstracts multiple providers (Google,
// OpenAI, Anthropic) behind a common interface and layers retry with
// exponential backoff, truncation detection, and pluggable middleware
// for timeouts, rate limiting, metrics, tracing, and circuit breaking
// on top of the raw transport.
//
// Architecture:
//   - Provider implementations abstracted through the CoreLLM interface
//   - Middleware chain composition over CoreLLM
//   - ResilientClient adding bounded retry and truncation fail-fast
//   - A lifecycle registry owning the single process-wide client
//
// Basic usage:
//
//	client, err := llm.NewClient("google", llm.ClientConfig{
//	    APIKey: os.Getenv("GOOGLE_API_KEY"),
//	    Model:  "gemini-2.0-flash-lite",
//	})
//	text, err := client.Generate(ctx, prompt, map[string]any{
//	    "max_tokens":      2000,
//	    "response_format": "json",
//	})
package llm

import (
	"context"
	"fmt"
	"time"
)

// FinishReason tags why the provider stopped generating. The
// distinction between a normal stop and a token-budget stop is load
// bearing: a budget stop means the text is incomplete and must never
// be handed to the parser as if it were whole.
type FinishReason int

const (
	// FinishComplete means generation stopped normally.
	FinishComplete FinishReason = iota

	// FinishTruncated means the output token budget was exhausted
	// before generation completed.
	FinishTruncated

	// FinishOther covers provider-specific stop causes such as safety
	// filters or stop sequences.
	FinishOther
)

// String returns a human-readable finish reason for logs.
func (f FinishReason) String() string {
	switch f {
	case FinishComplete:
		return "complete"
	case FinishTruncated:
		return "truncated"
	default:
		return "other"
	}
}

// Completion is the result of one network round trip to a provider:
// the generated text, why generation stopped, and token usage.
type Completion struct {
	// Text is the generated content.
	Text string

	// FinishReason tags why generation stopped.
	FinishReason FinishReason

	// TokensIn is the prompt token count, estimated when the provider
	// does not report usage.
	TokensIn int

	// TokensOut is the output token count, estimated when the provider
	// does not report usage.
	TokensOut int
}

// CoreLLM is the minimal surface a provider must implement. The
// middleware chain and the resilient client wrap any conforming
// implementation.
type CoreLLM interface {
	// DoRequest performs one round trip with the given prompt and
	// generation options. It reports the provider's finish reason
	// unmodified so truncation is detectable by the caller.
	DoRequest(ctx context.Context, prompt string, opts map[string]any) (Completion, error)

	// GetModel returns the currently configured model name.
	GetModel() string

	// SetModel updates the model for subsequent requests.
	SetModel(model string)
}

// Middleware wraps a CoreLLM to add cross-cutting behavior. Middleware
// composes without the providers knowing about it.
type Middleware func(CoreLLM) CoreLLM

// TokenEstimator approximates token counts when exact counts are not
// available before or after a request.
type TokenEstimator interface {
	// EstimateTokens returns an approximate token count for text.
	EstimateTokens(text string) int
}

// ClientConfig holds everything needed to build a provider-backed
// resilient client.
type ClientConfig struct {
	// APIKey authenticates requests to the provider.
	APIKey string

	// Model selects the model for requests.
	Model string

	// BaseURL overrides the provider's default endpoint when set.
	BaseURL string

	// Timeout bounds each individual request when positive. The retry
	// layer sits above this, so the worst case for one Generate call
	// is roughly attempts*Timeout plus cumulative backoff; callers
	// should still apply their own overall deadline.
	Timeout time.Duration

	// Retry controls the backoff behavior of the resilient layer.
	// Zero value means DefaultRetryConfig.
	Retry RetryConfig

	// TokenEstimator supplies custom token counting; a character-based
	// estimator is used when nil.
	TokenEstimator TokenEstimator

	// Middleware is applied to the provider in the order given, the
	// first element outermost.
	Middleware []Middleware
}

// NewClient builds a resilient completion client for the named
// provider type. It validates configuration, constructs the provider,
// applies the middleware chain, and wraps the result with the retry
// layer. The returned client is safe for concurrent use.
func NewClient(providerType string, config ClientConfig) (*ResilientClient, error) {
	if config.APIKey == "" {
		return nil, ErrEmptyAPIKey
	}
	if config.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	factory, ok := providerFactories[providerType]
	if !ok {
		return nil, fmt.Errorf("unknown provider: %s", providerType)
	}

	core, err := factory(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s provider: %w", providerType, err)
	}

	// Reverse order so the first middleware is the outermost wrapper.
	for i := len(config.Middleware) - 1; i >= 0; i-- {
		core = config.Middleware[i](core)
	}

	retry := config.Retry
	if retry.MaxAttempts == 0 {
		retry = DefaultRetryConfig()
	}

	estimator := config.TokenEstimator
	if estimator == nil {
		estimator = NewCharacterBasedTokenEstimator(0)
	}

	return NewResilientClient(core, retry, estimator), nil
}

// ProviderFactory builds a CoreLLM from configuration. Providers
// register themselves at init time.
type ProviderFactory func(ClientConfig) (CoreLLM, error)

var providerFactories = map[string]ProviderFactory{}

// RegisterProviderFactory registers a provider implementation under a
// type name, enabling custom providers without modifying this package.
func RegisterProviderFactory(providerType string, factory ProviderFactory) {
	providerFactories[providerType] = factory
}
