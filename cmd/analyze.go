package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gopkg.in/yaml.v3"

	"github.com/gitmate/gitmate/infrastructure/llm"
	"github.com/gitmate/gitmate/infrastructure/middleware"
	"github.com/gitmate/gitmate/internal/compat"
	"github.com/gitmate/gitmate/internal/config"
	"github.com/gitmate/gitmate/internal/domain"
	"github.com/gitmate/gitmate/internal/logger"
)

// Outbound governance for the shared connection: the circuit breaker
// fails fast during a provider outage, the rate limiter keeps pairwise
// fan-out under the provider's own limits.
const (
	circuitMaxFailures = 5
	circuitCooldown    = 30 * time.Second

	requestsPerSecond = 2
	requestBurst      = 5
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze compatibility between developer profiles from a fixture file",
	Long: `Analyze loads aggregated developer profiles from a YAML or JSON file,
asks the configured LLM for a compatibility verdict, and prints the
structured result as JSON.`,
	Run: func(cmd *cobra.Command, _ []string) {
		analyze(cmd)
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringP("input", "i", "", "YAML or JSON file with the aggregated profiles (required)")
	analyzeCmd.Flags().Bool("pairs", false, "analyze every profile pair instead of the whole group at once")
	_ = analyzeCmd.MarkFlagRequired("input")
}

func analyze(cmd *cobra.Command) {
	ctx := context.Background()

	zlog, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer func() { _ = zlog.Sync() }()

	cfg, err := getConfig()
	if err != nil {
		zlog.Fatal("getting a config", zap.Error(err))
	}
	if err := cfg.Validate(); err != nil {
		zlog.Fatal("invalid configuration", zap.Error(err))
	}

	zlog.Info("starting gitmate",
		zap.String("version", version),
		zap.String("provider", cfg.Provider),
	)

	profiles, err := loadProfiles(cmd.Flag("input").Value.String())
	if err != nil {
		zlog.Fatal("loading profiles", zap.Error(err))
	}

	client, err := buildClient(cfg)
	if err != nil {
		zlog.Fatal("building completion client", zap.Error(err))
	}

	registry := llm.NewRegistry()
	if err := registry.Init(client); err != nil {
		zlog.Fatal("initializing client registry", zap.Error(err))
	}
	defer registry.Cleanup()
	zlog.Debug("client registry ready", zap.String("state", registry.State().String()))

	analyzer, err := compat.NewAnalyzer(registry, compat.AnalyzerConfig{
		Temperature:     &cfg.Temperature,
		MaxOutputTokens: cfg.MaxOutputTokens,
		MaxConcurrency:  cfg.MaxConcurrency,
	}, zlog)
	if err != nil {
		zlog.Fatal("building analyzer", zap.Error(err))
	}

	var output any
	if mustFlagBool(cmd, "pairs") {
		output, err = analyzer.AnalyzePairs(ctx, profiles)
	} else {
		output, err = analyzer.Analyze(ctx, profiles)
	}
	if err != nil {
		zlog.Fatal("analysis failed",
			zap.Error(err),
			zap.String("hint", domain.FailureMessage(err)),
		)
	}

	pretty, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		zlog.Fatal("encoding result", zap.Error(err))
	}
	fmt.Println(string(pretty))
}

// buildClient assembles the resilient client with the full middleware
// chain, outermost first: tracing, metrics, circuit breaker, rate
// limit, timeout.
func buildClient(cfg *config.Config) (*llm.ResilientClient, error) {
	return llm.NewClient(cfg.Provider, llm.ClientConfig{
		APIKey:  cfg.APIKey,
		Model:   modelOrDefault(cfg),
		Timeout: cfg.RequestTimeout,
		Retry: llm.RetryConfig{
			MaxAttempts:   cfg.MaxAttempts,
			BaseDelay:     cfg.BaseDelay,
			MaxDelay:      cfg.MaxDelay,
			JitterPercent: llm.DefaultJitterPercent,
		},
		Middleware: []llm.Middleware{
			llm.TracingMiddleware(app),
			llm.MetricsMiddleware(middleware.NewPrometheusMetrics()),
			llm.CircuitBreakerMiddlewareWithMetrics(
				circuitMaxFailures, circuitCooldown, middleware.NewCircuitBreakerMetrics()),
			llm.RateLimitMiddleware(rate.Limit(requestsPerSecond), requestBurst),
			llm.TimeoutMiddleware(cfg.RequestTimeout),
		},
	})
}

func modelOrDefault(cfg *config.Config) string {
	if cfg.Model != "" {
		return cfg.Model
	}
	switch cfg.Provider {
	case "openai":
		return llm.OpenAIDefaultModel
	case "anthropic":
		return llm.AnthropicDefaultModel
	default:
		return llm.GoogleDefaultModel
	}
}

// loadProfiles reads aggregated profiles from a YAML or JSON fixture.
// YAML is a superset of JSON, so one decoder covers both.
func loadProfiles(path string) ([]domain.AggregatedProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var profiles []domain.AggregatedProfile
	if err := yaml.Unmarshal(data, &profiles); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	if len(profiles) < compat.MinProfiles {
		return nil, fmt.Errorf("%s contains %d profiles, need at least %d", path, len(profiles), compat.MinProfiles)
	}
	return profiles, nil
}

func mustFlagBool(cmd *cobra.Command, name string) bool {
	v, err := cmd.Flags().GetBool(name)
	if err != nil {
		return false
	}
	return v
}
