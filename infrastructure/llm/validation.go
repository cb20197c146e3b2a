package llm

import (
	"fmt"
	"net/url"
	"time"
)

// Penalty bounds for providers that support frequency and presence
// penalties.
const (
	MinPenalty = -2.0
	MaxPenalty = 2.0
)

// Timeout bounds applied to per-request HTTP timeouts.
const (
	MinTimeout = 1 * time.Second
	MaxTimeout = 10 * time.Minute
)

// ValidateBaseURL checks that a base URL override is a well-formed
// http or https URL.
func ValidateBaseURL(baseURL string) (string, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("URL scheme must be http or https, got %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("URL must have a host")
	}
	return baseURL, nil
}

// ValidateTimeout clamps a timeout into the supported range.
func ValidateTimeout(timeout time.Duration) time.Duration {
	if timeout < MinTimeout {
		return MinTimeout
	}
	if timeout > MaxTimeout {
		return MaxTimeout
	}
	return timeout
}

// ClampFloat64 restricts a float64 value to the given range.
func ClampFloat64(val, min, max float64) float64 {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

// SafeFloat32 converts a loosely typed option value into a float32,
// reporting whether the conversion was possible.
func SafeFloat32(v any) (float32, bool) {
	switch value := v.(type) {
	case float32:
		return value, true
	case float64:
		return float32(value), true
	case int:
		return float32(value), true
	default:
		return 0, false
	}
}
