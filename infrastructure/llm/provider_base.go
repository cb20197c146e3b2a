package llm

import (
	"strings"
	"sync"
)

// Generation defaults shared by all providers.
const (
	// DefaultMaxTokens is the reference output token budget.
	DefaultMaxTokens = 2000

	// ResponseFormatJSON requests the provider's structured JSON
	// output mode via the "response_format" option.
	ResponseFormatJSON = "json"
)

// BaseProvider carries the model name with thread-safe access, shared
// by all provider implementations.
type BaseProvider struct {
	mu    sync.RWMutex
	model string
}

// GetModel returns the configured model name.
func (b *BaseProvider) GetModel() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.model
}

// SetModel updates the model name.
func (b *BaseProvider) SetModel(model string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.model = model
}

// RequestOptions is the standardized set of generation parameters
// extracted from the per-call options map.
type RequestOptions struct {
	// MaxTokens is the output token budget.
	MaxTokens int

	// Model overrides the provider's configured model when set.
	Model string

	// Temperature controls output randomness; nil means the provider
	// default.
	Temperature *float64

	// TopP is nucleus sampling; nil means the provider default.
	TopP *float64

	// System is an optional system prompt.
	System string

	// ResponseFormat requests a structured output mode, currently only
	// ResponseFormatJSON. Providers that lack a native JSON mode
	// ignore it; the prompt still instructs the model to emit JSON.
	ResponseFormat string

	// Extra holds provider-specific options not covered above.
	Extra map[string]any
}

// ParseRequestOptions extracts and validates generation parameters
// from an options map, falling back to defaults for missing or invalid
// entries. Unrecognized keys are collected into Extra.
func ParseRequestOptions(opts map[string]any, defaultModel string) RequestOptions {
	options := RequestOptions{
		MaxTokens:      ExtractOptionalInt(opts, "max_tokens", DefaultMaxTokens, IsPositiveInt),
		Model:          ExtractOptionalString(opts, "model", defaultModel, IsNonEmptyString),
		System:         ExtractOptionalString(opts, "system", "", nil),
		ResponseFormat: ExtractOptionalString(opts, "response_format", "", nil),
		Extra:          make(map[string]any),
	}

	if temp := ExtractOptionalFloat64(opts, "temperature", -1, IsValidTemperature); temp != -1 {
		options.Temperature = &temp
	}
	if topP := ExtractOptionalFloat64(opts, "top_p", -1, IsValidTopP); topP != -1 {
		options.TopP = &topP
	}

	for k, v := range opts {
		switch k {
		case "max_tokens", "model", "system", "temperature", "top_p", "response_format":
			// Standard options, already processed.
		default:
			options.Extra[k] = v
		}
	}

	return options
}

// TokenCounter estimates token counts when an exact tokenizer is not
// available for a model.
type TokenCounter struct {
	// CharactersPerToken is the average character count per token,
	// an approximation tuned for English text.
	CharactersPerToken float64
}

// NewTokenCounter returns a TokenCounter with the common 4-characters
// -per-token approximation.
func NewTokenCounter() *TokenCounter {
	return &TokenCounter{CharactersPerToken: 4.0}
}

// EstimateTokens estimates the token count of text.
func (tc *TokenCounter) EstimateTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	return int(float64(len(text)) / tc.CharactersPerToken)
}

// GetTokenCount prefers the actual count reported by the provider and
// falls back to estimation when it is missing.
func (tc *TokenCounter) GetTokenCount(actualCount int, text string) int {
	if actualCount > 0 {
		return actualCount
	}
	return tc.EstimateTokens(text)
}

// providerFromModel infers the provider name from a model identifier,
// used for labeling errors and metrics.
func providerFromModel(model string) string {
	lower := strings.ToLower(model)
	switch {
	case strings.Contains(lower, "gemini"):
		return "google"
	case strings.Contains(lower, "gpt") || strings.HasPrefix(lower, "o1") || strings.HasPrefix(lower, "o3"):
		return "openai"
	case strings.Contains(lower, "claude"):
		return "anthropic"
	default:
		return "unknown"
	}
}
