// Package compat turns aggregated developer profiles into a bounded
// compatibility verdict by delegating the reasoning to an LLM
// completion endpoint: deterministic prompt construction, structured
// response parsing with strict validation, and an orchestrating
// analyzer on top of the resilient client.
package compat

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/gitmate/gitmate/internal/domain"
)

// MinProfiles is the smallest number of profiles a comparison needs.
const MinProfiles = 2

// promptTemplate renders the analysis request. The factor labels here
// are the contract with the parser: the response must echo exactly
// these four factors.
const promptTemplate = `You are a GitHub collaboration analyzer. Analyze the following GitHub user profiles and assess how well these developers could work together.

Here are the user profiles:
{{range $i, $p := .Profiles}}
## User {{inc $i}}: {{$p.Username}}

**Basic Info:**
- Public Repos: {{$p.PublicRepos}}
- Followers: {{$p.Followers}}
- Following: {{$p.Following}}
- Bio: {{orNA $p.Bio}}
- Company: {{orNA $p.Company}}
- Location: {{orNA $p.Location}}

**Top Programming Languages:**
{{languages $p}}

**Top Topics/Technologies:**
{{topics $p}}

**Recent Activity Summary:**
{{$p.RecentActivity.Pushes}} recent pushes
{{$p.RecentActivity.PullRequests}} recent pull requests
{{$p.RecentActivity.IssueEvents}} recent issue activities

**Notable Starred Projects:**
{{starred $p}}

**Repository Types:**
{{$p.Repositories.Original}} original repositories
{{$p.Repositories.Forked}} forked repositories
{{end}}
IMPORTANT: Respond with a single JSON object in exactly this format and nothing else:
{"score": <integer 1-10>, "reasoning": "<detailed explanation of the compatibility assessment>", "factors": [{"label": "Shared Languages", "indicator": "<short summary>"}, {"label": "Project Sizes", "indicator": "<short summary>"}, {"label": "Contribution Activity", "indicator": "<short summary>"}, {"label": "Activity Heat", "indicator": "<short summary>"}]}

The score is the overall collaboration potential from 1 (incompatible) to 10 (excellent fit). The factors array must contain exactly those four entries, each with a non-empty indicator grounded in the profile data above.`

// Display limits for profile sections, matching what fits a prompt
// without flooding the token budget.
const (
	maxPromptLanguages = 5
	maxPromptTopics    = 10
	maxPromptStarred   = 5
)

// PromptBuilder renders aggregated profiles into one deterministic
// request string. It is pure: identical input always yields a
// byte-identical prompt, which is what makes golden-file testing of
// prompts possible. No network or disk I/O.
type PromptBuilder struct {
	tmpl *template.Template
}

// NewPromptBuilder compiles the prompt template.
func NewPromptBuilder() (*PromptBuilder, error) {
	tmpl, err := template.New("compatPrompt").Funcs(template.FuncMap{
		"inc":       func(i int) int { return i + 1 },
		"orNA":      orNA,
		"languages": formatLanguages,
		"topics":    formatTopics,
		"starred":   formatStarred,
	}).Parse(promptTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse prompt template: %w", err)
	}
	return &PromptBuilder{tmpl: tmpl}, nil
}

// BuildPrompt renders the profiles into the analysis prompt. It fails
// when fewer than two profiles are supplied; a comparison needs at
// least a pair.
func (b *PromptBuilder) BuildPrompt(profiles []domain.AggregatedProfile) (string, error) {
	if len(profiles) < MinProfiles {
		return "", fmt.Errorf("at least %d profiles are required, got %d", MinProfiles, len(profiles))
	}
	for i, p := range profiles {
		if p.Username == "" {
			return "", fmt.Errorf("profile %d has no username", i+1)
		}
	}

	var buf bytes.Buffer
	data := struct{ Profiles []domain.AggregatedProfile }{Profiles: profiles}
	if err := b.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute prompt template: %w", err)
	}
	return buf.String(), nil
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func formatLanguages(p domain.AggregatedProfile) string {
	if len(p.Languages) == 0 {
		return "None reported"
	}
	langs := p.Languages
	if len(langs) > maxPromptLanguages {
		langs = langs[:maxPromptLanguages]
	}
	parts := make([]string, 0, len(langs))
	for _, l := range langs {
		parts = append(parts, fmt.Sprintf("%s (%d bytes)", l.Name, l.Bytes))
	}
	return strings.Join(parts, ", ")
}

func formatTopics(p domain.AggregatedProfile) string {
	if len(p.Topics) == 0 {
		return "None reported"
	}
	topics := p.Topics
	if len(topics) > maxPromptTopics {
		topics = topics[:maxPromptTopics]
	}
	parts := make([]string, 0, len(topics))
	for _, t := range topics {
		parts = append(parts, fmt.Sprintf("%s (%d repos)", t.Name, t.RepoCount))
	}
	return strings.Join(parts, ", ")
}

func formatStarred(p domain.AggregatedProfile) string {
	parts := make([]string, 0, len(p.StarredRepos))
	for _, r := range p.StarredRepos {
		if r.Language == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s (%s)", r.Name, r.Language))
		if len(parts) == maxPromptStarred {
			break
		}
	}
	if len(parts) == 0 {
		return "None reported"
	}
	return strings.Join(parts, ", ")
}
