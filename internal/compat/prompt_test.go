package compat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitmate/gitmate/internal/domain"
)

func sampleProfiles() []domain.AggregatedProfile {
	return []domain.AggregatedProfile{
		{
			Username:    "octocat",
			PublicRepos: 12,
			Followers:   340,
			Following:   9,
			Bio:         "Building things on the internet",
			Company:     "GitHub",
			Location:    "San Francisco",
			Languages: []domain.LanguageStat{
				{Name: "Python", Bytes: 120000},
				{Name: "JavaScript", Bytes: 80000},
			},
			Topics: []domain.TopicStat{
				{Name: "web", RepoCount: 4},
				{Name: "cli", RepoCount: 2},
			},
			StarredRepos: []domain.StarredRepo{
				{Name: "requests", Language: "Python"},
				{Name: "react", Language: "JavaScript"},
			},
			RecentActivity: domain.ActivitySummary{Pushes: 15, PullRequests: 4, IssueEvents: 2},
			Repositories:   domain.RepoBreakdown{Original: 10, Forked: 2},
		},
		{
			Username:    "hubot",
			PublicRepos: 30,
			Followers:   120,
			Following:   50,
			Languages: []domain.LanguageStat{
				{Name: "Python", Bytes: 90000},
				{Name: "Go", Bytes: 45000},
			},
			Topics: []domain.TopicStat{
				{Name: "automation", RepoCount: 8},
			},
			RecentActivity: domain.ActivitySummary{Pushes: 40, PullRequests: 12, IssueEvents: 6},
			Repositories:   domain.RepoBreakdown{Original: 22, Forked: 8},
		},
	}
}

func TestBuildPrompt_Deterministic(t *testing.T) {
	builder, err := NewPromptBuilder()
	require.NoError(t, err)

	profiles := sampleProfiles()
	first, err := builder.BuildPrompt(profiles)
	require.NoError(t, err)
	second, err := builder.BuildPrompt(profiles)
	require.NoError(t, err)

	assert.Equal(t, first, second, "identical input must produce a byte-identical prompt")
}

func TestBuildPrompt_EmbedsProfileData(t *testing.T) {
	builder, err := NewPromptBuilder()
	require.NoError(t, err)

	prompt, err := builder.BuildPrompt(sampleProfiles())
	require.NoError(t, err)

	assert.Contains(t, prompt, "octocat")
	assert.Contains(t, prompt, "hubot")
	assert.Contains(t, prompt, "Python (120000 bytes)")
	assert.Contains(t, prompt, "web (4 repos)")
	assert.Contains(t, prompt, "requests (Python)")
	assert.Contains(t, prompt, "15 recent pushes")
	assert.Contains(t, prompt, "10 original repositories")

	// The response contract: all four factor labels and the score range.
	assert.Contains(t, prompt, `"Shared Languages"`)
	assert.Contains(t, prompt, `"Project Sizes"`)
	assert.Contains(t, prompt, `"Contribution Activity"`)
	assert.Contains(t, prompt, `"Activity Heat"`)
	assert.Contains(t, prompt, "1-10")
}

func TestBuildPrompt_HandlesSparseProfiles(t *testing.T) {
	builder, err := NewPromptBuilder()
	require.NoError(t, err)

	profiles := []domain.AggregatedProfile{
		{Username: "alpha"},
		{Username: "beta"},
	}
	prompt, err := builder.BuildPrompt(profiles)
	require.NoError(t, err)

	assert.Contains(t, prompt, "Bio: N/A")
	assert.Contains(t, prompt, "None reported")
}

func TestBuildPrompt_RequiresTwoProfiles(t *testing.T) {
	builder, err := NewPromptBuilder()
	require.NoError(t, err)

	tests := []struct {
		name     string
		profiles []domain.AggregatedProfile
	}{
		{"nil", nil},
		{"empty", []domain.AggregatedProfile{}},
		{"single", []domain.AggregatedProfile{{Username: "solo"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := builder.BuildPrompt(tt.profiles)
			assert.Error(t, err)
		})
	}
}

func TestBuildPrompt_RequiresUsernames(t *testing.T) {
	builder, err := NewPromptBuilder()
	require.NoError(t, err)

	_, err = builder.BuildPrompt([]domain.AggregatedProfile{
		{Username: "named"},
		{},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no username")
}

func TestBuildPrompt_TruncatesLongSections(t *testing.T) {
	builder, err := NewPromptBuilder()
	require.NoError(t, err)

	profiles := sampleProfiles()
	for i := range 10 {
		profiles[0].Languages = append(profiles[0].Languages, domain.LanguageStat{
			Name:  string(rune('A' + i)),
			Bytes: 100,
		})
	}

	prompt, err := builder.BuildPrompt(profiles)
	require.NoError(t, err)

	// Only the first five languages survive.
	assert.Contains(t, prompt, "Python (120000 bytes)")
	assert.NotContains(t, prompt, "H (100 bytes)")
}
