package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractOptionalInt(t *testing.T) {
	tests := []struct {
		name string
		opts map[string]any
		want int
	}{
		{"missing key", map[string]any{}, 100},
		{"int value", map[string]any{"max_tokens": 512}, 512},
		{"float64 value", map[string]any{"max_tokens": 512.0}, 512},
		{"int64 value", map[string]any{"max_tokens": int64(512)}, 512},
		{"invalid type", map[string]any{"max_tokens": "many"}, 100},
		{"fails validator", map[string]any{"max_tokens": -5}, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractOptionalInt(tt.opts, "max_tokens", 100, IsPositiveInt)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractOptionalString(t *testing.T) {
	assert.Equal(t, "fallback", ExtractOptionalString(map[string]any{}, "model", "fallback", IsNonEmptyString))
	assert.Equal(t, "gpt-4o-mini", ExtractOptionalString(map[string]any{"model": "gpt-4o-mini"}, "model", "fallback", IsNonEmptyString))
	assert.Equal(t, "fallback", ExtractOptionalString(map[string]any{"model": ""}, "model", "fallback", IsNonEmptyString))
	assert.Equal(t, "fallback", ExtractOptionalString(map[string]any{"model": 7}, "model", "fallback", nil))
}

func TestExtractOptionalFloat64(t *testing.T) {
	assert.Equal(t, 0.7, ExtractOptionalFloat64(map[string]any{}, "temperature", 0.7, IsValidTemperature))
	assert.Equal(t, 0.2, ExtractOptionalFloat64(map[string]any{"temperature": 0.2}, "temperature", 0.7, IsValidTemperature))
	assert.Equal(t, 1.0, ExtractOptionalFloat64(map[string]any{"temperature": 1}, "temperature", 0.7, IsValidTemperature))
	assert.Equal(t, 0.7, ExtractOptionalFloat64(map[string]any{"temperature": 5.0}, "temperature", 0.7, IsValidTemperature))
}

func TestOptionValidators(t *testing.T) {
	assert.True(t, IsPositiveInt(1))
	assert.False(t, IsPositiveInt(0))
	assert.True(t, IsNonEmptyString("x"))
	assert.False(t, IsNonEmptyString(""))
	assert.True(t, IsValidTemperature(2.0))
	assert.False(t, IsValidTemperature(2.1))
	assert.True(t, IsValidTopP(1.0))
	assert.False(t, IsValidTopP(-0.1))
}

func TestParseRequestOptions(t *testing.T) {
	opts := map[string]any{
		"max_tokens":      1024,
		"temperature":     0.7,
		"top_p":           0.9,
		"response_format": "json",
		"top_k":           20,
	}

	options := ParseRequestOptions(opts, "gemini-2.0-flash-lite")

	assert.Equal(t, 1024, options.MaxTokens)
	assert.Equal(t, "gemini-2.0-flash-lite", options.Model)
	assert.Equal(t, ResponseFormatJSON, options.ResponseFormat)
	if assert.NotNil(t, options.Temperature) {
		assert.Equal(t, 0.7, *options.Temperature)
	}
	if assert.NotNil(t, options.TopP) {
		assert.Equal(t, 0.9, *options.TopP)
	}
	assert.Equal(t, 20, options.Extra["top_k"])
}

func TestParseRequestOptions_Defaults(t *testing.T) {
	options := ParseRequestOptions(nil, "default-model")

	assert.Equal(t, DefaultMaxTokens, options.MaxTokens)
	assert.Equal(t, "default-model", options.Model)
	assert.Nil(t, options.Temperature)
	assert.Nil(t, options.TopP)
	assert.Empty(t, options.ResponseFormat)
}
