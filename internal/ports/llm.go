// Package ports defines the interfaces that decouple the analysis core
// from infrastructure concerns like LLM transport and metrics.
package ports

import "context"

// CompletionClient is the resilient outbound interface to a text
// completion endpoint. Implementations own retries, timeouts, and
// truncation detection; callers receive either complete raw text or a
// typed failure from the domain taxonomy.
type CompletionClient interface {
	// Generate sends a prompt and returns the complete generated text.
	//
	// The options map carries generation parameters:
	//   - "temperature": float64
	//   - "max_tokens": int (output token budget)
	//   - "response_format": "json" to request structured output where
	//     the provider supports it
	//
	// Generate never returns silently-partial text: a response cut off
	// by the output token budget surfaces as a Truncated failure, and
	// exhausted retries surface as a ServiceUnavailable failure
	// wrapping the last underlying error.
	Generate(ctx context.Context, prompt string, options map[string]any) (string, error)

	// EstimateTokens approximates the token count of the given text,
	// used for budget logging before a request is made.
	EstimateTokens(text string) (int, error)

	// GetModel returns the model identifier used by this client.
	GetModel() string
}

// HandleSource hands out the process-wide completion client. The
// lifecycle registry implements it; tests substitute fixed handles.
type HandleSource interface {
	// Lookup returns the bound client, or an Unconfigured-class error
	// when called before Init or after Cleanup.
	Lookup() (CompletionClient, error)
}
