// Package config defines the configuration surface of the CLI: the
// provider selection, generation limits, and retry behavior, loaded
// from a YAML file with environment variable overrides for secrets.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Reference defaults for the completion client.
const (
	DefaultProvider        = "google"
	DefaultMaxOutputTokens = 2000
	DefaultTemperature     = 0.7
	DefaultMaxAttempts     = 3
	DefaultBaseDelay       = 1 * time.Second
	DefaultMaxDelay        = 8 * time.Second
	DefaultRequestTimeout  = 30 * time.Second
	DefaultMaxConcurrency  = 5
)

// Environment variables carrying provider credentials.
var apiKeyEnvVars = map[string]string{
	"google":    "GOOGLE_API_KEY",
	"openai":    "OPENAI_API_KEY",
	"anthropic": "ANTHROPIC_API_KEY",
}

// Config is the CLI configuration, unmarshaled from the config file
// and environment.
type Config struct {
	// Provider selects the completion backend: google, openai, or
	// anthropic.
	Provider string `mapstructure:"provider"`

	// Model overrides the provider's default model when set.
	Model string `mapstructure:"model"`

	// APIKey authenticates against the provider. Normally supplied
	// through the provider's environment variable rather than the file.
	APIKey string `mapstructure:"api-key"`

	// MaxOutputTokens is the output budget per completion request.
	MaxOutputTokens int `mapstructure:"max-output-tokens"`

	// Temperature for the generated reasoning.
	Temperature float64 `mapstructure:"temperature"`

	// MaxAttempts is the total attempts per request, first try included.
	MaxAttempts int `mapstructure:"max-attempts"`

	// BaseDelay is the backoff before the first retry.
	BaseDelay time.Duration `mapstructure:"base-delay"`

	// MaxDelay caps the backoff between retries.
	MaxDelay time.Duration `mapstructure:"max-delay"`

	// RequestTimeout bounds each individual network attempt.
	RequestTimeout time.Duration `mapstructure:"request-timeout"`

	// MaxConcurrency caps concurrent requests during pairwise analysis.
	MaxConcurrency int `mapstructure:"max-concurrency"`
}

// SetDefaults registers the reference defaults on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("provider", DefaultProvider)
	v.SetDefault("max-output-tokens", DefaultMaxOutputTokens)
	v.SetDefault("temperature", DefaultTemperature)
	v.SetDefault("max-attempts", DefaultMaxAttempts)
	v.SetDefault("base-delay", DefaultBaseDelay)
	v.SetDefault("max-delay", DefaultMaxDelay)
	v.SetDefault("request-timeout", DefaultRequestTimeout)
	v.SetDefault("max-concurrency", DefaultMaxConcurrency)
}

// ResolveAPIKey fills APIKey from the provider's environment variable
// when the config file does not carry one, so the key never has to
// live on disk.
func (c *Config) ResolveAPIKey() {
	if c.APIKey != "" {
		return
	}
	if env := APIKeyEnvVar(c.Provider); env != "" {
		c.APIKey = os.Getenv(env)
	}
}

// APIKeyEnvVar returns the environment variable name expected to carry
// the given provider's credential.
func APIKeyEnvVar(provider string) string {
	if env, ok := apiKeyEnvVars[provider]; ok {
		return env
	}
	return ""
}

// Validate checks the loaded configuration for usability.
func (c *Config) Validate() error {
	if _, ok := apiKeyEnvVars[c.Provider]; !ok {
		return fmt.Errorf("unsupported provider: %q", c.Provider)
	}
	if c.APIKey == "" {
		return fmt.Errorf("API key is not configured (set %s or the api-key config entry)", APIKeyEnvVar(c.Provider))
	}
	if c.MaxOutputTokens <= 0 {
		return fmt.Errorf("max-output-tokens must be positive, got %d", c.MaxOutputTokens)
	}
	if c.MaxAttempts <= 0 {
		return fmt.Errorf("max-attempts must be positive, got %d", c.MaxAttempts)
	}
	if c.BaseDelay <= 0 || c.MaxDelay < c.BaseDelay {
		return fmt.Errorf("invalid backoff window: base %s, cap %s", c.BaseDelay, c.MaxDelay)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request-timeout must be positive, got %s", c.RequestTimeout)
	}
	return nil
}
