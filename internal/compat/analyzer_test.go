package compat

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitmate/gitmate/internal/domain"
	"github.com/gitmate/gitmate/internal/ports"
)

// stubClient is a canned CompletionClient for analyzer tests.
type stubClient struct {
	mu        sync.Mutex
	response  string
	err       error
	model     string
	callCount int
	lastOpts  map[string]any
	prompts   []string
}

func newStubClient(response string) *stubClient {
	return &stubClient{response: response, model: "stub-model"}
}

func (s *stubClient) Generate(ctx context.Context, prompt string, options map[string]any) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callCount++
	s.lastOpts = options
	s.prompts = append(s.prompts, prompt)
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func (s *stubClient) EstimateTokens(text string) (int, error) { return len(text) / 4, nil }
func (s *stubClient) GetModel() string                        { return s.model }

// stubHandles is a fixed HandleSource.
type stubHandles struct {
	client ports.CompletionClient
	err    error
}

func (s *stubHandles) Lookup() (ports.CompletionClient, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.client, nil
}

func newTestAnalyzer(t *testing.T, client ports.CompletionClient) *Analyzer {
	t.Helper()
	analyzer, err := NewAnalyzer(&stubHandles{client: client}, DefaultAnalyzerConfig(), nil)
	require.NoError(t, err)
	return analyzer
}

func TestNewAnalyzer_RequiresHandleSource(t *testing.T) {
	_, err := NewAnalyzer(nil, DefaultAnalyzerConfig(), nil)
	assert.Error(t, err)
}

func TestNewAnalyzer_ZeroConfigGetsDefaults(t *testing.T) {
	analyzer, err := NewAnalyzer(&stubHandles{client: newStubClient(validResponse)}, AnalyzerConfig{}, nil)
	require.NoError(t, err)

	require.NotNil(t, analyzer.config.Temperature)
	assert.Equal(t, DefaultTemperature, *analyzer.config.Temperature)
	assert.Equal(t, DefaultMaxOutputTokens, analyzer.config.MaxOutputTokens)
	assert.Equal(t, DefaultMaxConcurrency, analyzer.config.MaxConcurrency)
}

func TestNewAnalyzer_ZeroTemperatureHonored(t *testing.T) {
	client := newStubClient(validResponse)
	temp := 0.0
	analyzer, err := NewAnalyzer(&stubHandles{client: client}, AnalyzerConfig{Temperature: &temp}, nil)
	require.NoError(t, err)

	_, err = analyzer.Analyze(context.Background(), sampleProfiles())
	require.NoError(t, err)

	assert.Equal(t, 0.0, client.lastOpts["temperature"],
		"an explicit zero temperature must not fall back to the default")
}

func TestAnalyze_Success(t *testing.T) {
	client := newStubClient(validResponse)
	analyzer := newTestAnalyzer(t, client)

	result, err := analyzer.Analyze(context.Background(), sampleProfiles())
	require.NoError(t, err)

	assert.Equal(t, 8, result.Score)
	assert.Equal(t, "Both are active Python contributors with overlapping interests.", result.Reasoning)
	require.Len(t, result.Factors, domain.NumFactors)
	assert.Equal(t, 1, client.callCount)
}

func TestAnalyze_SendsGenerationOptions(t *testing.T) {
	client := newStubClient(validResponse)
	analyzer := newTestAnalyzer(t, client)

	_, err := analyzer.Analyze(context.Background(), sampleProfiles())
	require.NoError(t, err)

	assert.Equal(t, DefaultTemperature, client.lastOpts["temperature"])
	assert.Equal(t, DefaultMaxOutputTokens, client.lastOpts["max_tokens"])
	assert.Equal(t, "json", client.lastOpts["response_format"])
}

func TestAnalyze_PromptContainsProfiles(t *testing.T) {
	client := newStubClient(validResponse)
	analyzer := newTestAnalyzer(t, client)

	_, err := analyzer.Analyze(context.Background(), sampleProfiles())
	require.NoError(t, err)

	require.Len(t, client.prompts, 1)
	assert.Contains(t, client.prompts[0], "octocat")
	assert.Contains(t, client.prompts[0], "hubot")
}

func TestAnalyze_UnconfiguredPropagates(t *testing.T) {
	analyzer, err := NewAnalyzer(&stubHandles{err: domain.ErrUnconfigured}, DefaultAnalyzerConfig(), nil)
	require.NoError(t, err)

	_, err = analyzer.Analyze(context.Background(), sampleProfiles())
	assert.ErrorIs(t, err, domain.ErrUnconfigured)
}

func TestAnalyze_ClientFailurePropagates(t *testing.T) {
	client := newStubClient("")
	client.err = domain.ErrTruncated
	analyzer := newTestAnalyzer(t, client)

	_, err := analyzer.Analyze(context.Background(), sampleProfiles())
	assert.ErrorIs(t, err, domain.ErrTruncated)
}

func TestAnalyze_MalformedResponse(t *testing.T) {
	client := newStubClient("no JSON at all here")
	analyzer := newTestAnalyzer(t, client)

	_, err := analyzer.Analyze(context.Background(), sampleProfiles())
	assert.ErrorIs(t, err, domain.ErrMalformed)
}

func TestAnalyze_RejectsSingleProfile(t *testing.T) {
	client := newStubClient(validResponse)
	analyzer := newTestAnalyzer(t, client)

	_, err := analyzer.Analyze(context.Background(), sampleProfiles()[:1])
	require.Error(t, err)
	assert.Equal(t, 0, client.callCount, "no request is made for invalid input")
}

func TestAnalyzePairs_ThreeProfiles(t *testing.T) {
	client := newStubClient(validResponse)
	analyzer := newTestAnalyzer(t, client)

	profiles := append(sampleProfiles(), domain.AggregatedProfile{
		Username: "mona",
		Languages: []domain.LanguageStat{
			{Name: "Go", Bytes: 5000},
		},
	})

	insights, err := analyzer.AnalyzePairs(context.Background(), profiles)
	require.NoError(t, err)

	require.Len(t, insights, 3)
	assert.Equal(t, [2]string{"octocat", "hubot"}, insights[0].Usernames)
	assert.Equal(t, [2]string{"octocat", "mona"}, insights[1].Usernames)
	assert.Equal(t, [2]string{"hubot", "mona"}, insights[2].Usernames)
	for _, insight := range insights {
		assert.Equal(t, 8, insight.Result.Score)
	}
	assert.Equal(t, 3, client.callCount)
}

func TestAnalyzePairs_FailureNamesPair(t *testing.T) {
	client := newStubClient("")
	client.err = domain.ErrServiceUnavailable
	analyzer := newTestAnalyzer(t, client)

	_, err := analyzer.AnalyzePairs(context.Background(), sampleProfiles())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrServiceUnavailable)
	assert.True(t, strings.Contains(err.Error(), "octocat/hubot"))
}

func TestAnalyzePairs_RequiresTwoProfiles(t *testing.T) {
	analyzer := newTestAnalyzer(t, newStubClient(validResponse))

	_, err := analyzer.AnalyzePairs(context.Background(), sampleProfiles()[:1])
	assert.Error(t, err)
}
