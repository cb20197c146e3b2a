package compat

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gitmate/gitmate/internal/domain"
	"github.com/gitmate/gitmate/internal/logger"
	"github.com/gitmate/gitmate/internal/ports"
)

// Default generation settings for compatibility analysis.
const (
	// DefaultTemperature keeps some variation in the reasoning prose
	// while the schema stays fixed.
	DefaultTemperature = 0.7

	// DefaultMaxOutputTokens bounds the response size.
	DefaultMaxOutputTokens = 2000

	// DefaultMaxConcurrency limits concurrent completion calls during
	// pairwise batch analysis.
	DefaultMaxConcurrency = 5
)

// AnalyzerConfig holds the generation parameters the analyzer sends
// with each completion request.
type AnalyzerConfig struct {
	// Temperature controls randomness of the generated reasoning. Nil
	// selects DefaultTemperature; an explicit zero is honored as fully
	// deterministic sampling.
	Temperature *float64

	// MaxOutputTokens is the output token budget per request.
	MaxOutputTokens int

	// MaxConcurrency caps concurrent requests in AnalyzePairs.
	MaxConcurrency int
}

// DefaultAnalyzerConfig returns the reference analyzer settings.
func DefaultAnalyzerConfig() AnalyzerConfig {
	temp := DefaultTemperature
	return AnalyzerConfig{
		Temperature:     &temp,
		MaxOutputTokens: DefaultMaxOutputTokens,
		MaxConcurrency:  DefaultMaxConcurrency,
	}
}

// Analyzer is the single entry point of the scoring core. It wires
// prompt construction, the resilient completion call, and response
// validation into one request/response cycle. The client handle is
// borrowed per call through the HandleSource, never stored, so the
// analyzer observes lifecycle transitions immediately.
type Analyzer struct {
	handles ports.HandleSource
	prompts *PromptBuilder
	parser  *Parser
	config  AnalyzerConfig
	logger  *zap.Logger
}

// NewAnalyzer creates an analyzer that borrows its completion client
// from handles. A nil logger disables logging.
func NewAnalyzer(handles ports.HandleSource, config AnalyzerConfig, logger *zap.Logger) (*Analyzer, error) {
	if handles == nil {
		return nil, fmt.Errorf("handle source cannot be nil")
	}
	if config.Temperature == nil {
		temp := DefaultTemperature
		config.Temperature = &temp
	}
	if config.MaxOutputTokens <= 0 {
		config.MaxOutputTokens = DefaultMaxOutputTokens
	}
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = DefaultMaxConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	prompts, err := NewPromptBuilder()
	if err != nil {
		return nil, err
	}

	return &Analyzer{
		handles: handles,
		prompts: prompts,
		parser:  NewParser(),
		config:  config,
		logger:  logger,
	}, nil
}

// Analyze produces a compatibility verdict for two or more profiles.
// It returns either a complete result or one of the typed failures:
// Unconfigured, ServiceUnavailable, Truncated, or Malformed. Nothing
// in between; a partial result is never constructed.
func (a *Analyzer) Analyze(ctx context.Context, profiles []domain.AggregatedProfile) (domain.CompatibilityResult, error) {
	client, err := a.handles.Lookup()
	if err != nil {
		return domain.CompatibilityResult{}, err
	}

	prompt, err := a.prompts.BuildPrompt(profiles)
	if err != nil {
		return domain.CompatibilityResult{}, err
	}

	usernames := make([]string, len(profiles))
	for i, p := range profiles {
		usernames[i] = p.Username
	}
	log := a.logger.With(zap.Strings("usernames", usernames), zap.String("model", client.GetModel()))
	log.Debug("requesting compatibility analysis", zap.Int("prompt_length", len(prompt)))

	raw, err := client.Generate(ctx, prompt, map[string]any{
		"temperature":     *a.config.Temperature,
		"max_tokens":      a.config.MaxOutputTokens,
		"response_format": "json",
	})
	if err != nil {
		log.Warn("completion call failed", zap.Error(err))
		return domain.CompatibilityResult{}, err
	}

	result, err := a.parser.Parse(raw)
	if err != nil {
		log.Warn("response failed validation",
			zap.Int("response_length", len(raw)),
			zap.String("excerpt", logger.TruncateForLog(raw, 200)),
			zap.Error(err))
		return domain.CompatibilityResult{}, err
	}

	log.Info("compatibility analysis complete", zap.Int("score", result.Score))
	return result, nil
}

// AnalyzePairs analyzes every unordered pair among the given profiles
// concurrently, bounded by MaxConcurrency. The insights are returned
// in deterministic pair order regardless of completion order. The
// first failure cancels the remaining work.
func (a *Analyzer) AnalyzePairs(ctx context.Context, profiles []domain.AggregatedProfile) ([]domain.PairInsight, error) {
	if len(profiles) < MinProfiles {
		return nil, fmt.Errorf("at least %d profiles are required, got %d", MinProfiles, len(profiles))
	}

	type pair struct{ i, j int }
	var pairs []pair
	for i := 0; i < len(profiles); i++ {
		for j := i + 1; j < len(profiles); j++ {
			pairs = append(pairs, pair{i, j})
		}
	}

	insights := make([]domain.PairInsight, len(pairs))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.config.MaxConcurrency)

	for idx, pr := range pairs {
		g.Go(func() error {
			result, err := a.Analyze(gctx, []domain.AggregatedProfile{profiles[pr.i], profiles[pr.j]})
			if err != nil {
				return fmt.Errorf("pair %s/%s: %w", profiles[pr.i].Username, profiles[pr.j].Username, err)
			}

			mu.Lock()
			insights[idx] = domain.PairInsight{
				Usernames: [2]string{profiles[pr.i].Username, profiles[pr.j].Username},
				Result:    result,
			}
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return insights, nil
}
