// Package domain defines the core types for compatibility analysis:
// aggregated account profiles on the input side and validated
// compatibility results on the output side, along with the error
// taxonomy shared across the analysis pipeline.
package domain

// LanguageStat summarizes one programming language across an account's
// repositories, measured in bytes of code as reported by the hosting API.
type LanguageStat struct {
	// Name is the language name, e.g. "Python".
	Name string `json:"name" yaml:"name"`

	// Bytes is the total byte count attributed to this language.
	Bytes int64 `json:"bytes" yaml:"bytes"`
}

// TopicStat summarizes one repository topic or technology tag.
type TopicStat struct {
	// Name is the topic name, e.g. "machine-learning".
	Name string `json:"name" yaml:"name"`

	// RepoCount is the number of repositories carrying this topic.
	RepoCount int `json:"repo_count" yaml:"repo_count"`
}

// StarredRepo identifies a notable repository the account has starred.
type StarredRepo struct {
	// Name is the repository name, typically "owner/repo".
	Name string `json:"name" yaml:"name"`

	// Language is the repository's primary language, empty when unknown.
	Language string `json:"language,omitempty" yaml:"language,omitempty"`
}

// ActivitySummary counts recent public events by category.
// The counts are precomputed by the aggregation stage from the raw
// event stream and are read-only here.
type ActivitySummary struct {
	// Pushes is the number of recent push events.
	Pushes int `json:"pushes" yaml:"pushes"`

	// PullRequests is the number of recent pull request events.
	PullRequests int `json:"pull_requests" yaml:"pull_requests"`

	// IssueEvents is the number of recent issue events.
	IssueEvents int `json:"issue_events" yaml:"issue_events"`
}

// RepoBreakdown splits an account's repositories into original work
// and forks.
type RepoBreakdown struct {
	// Original is the count of non-fork repositories.
	Original int `json:"original" yaml:"original"`

	// Forked is the count of forked repositories.
	Forked int `json:"forked" yaml:"forked"`
}

// AggregatedProfile is the precomputed comparison table for one developer
// account. It is produced by the external aggregation stage and treated
// as immutable input by the analysis core; nothing in this module
// mutates a profile after it is handed in.
type AggregatedProfile struct {
	// Username is the account login and the profile's identity.
	Username string `json:"username" yaml:"username"`

	// PublicRepos is the account's public repository count.
	PublicRepos int `json:"public_repos" yaml:"public_repos"`

	// Followers is the account's follower count.
	Followers int `json:"followers" yaml:"followers"`

	// Following is the number of accounts this account follows.
	Following int `json:"following" yaml:"following"`

	// Bio is the free-form profile description, may be empty.
	Bio string `json:"bio,omitempty" yaml:"bio,omitempty"`

	// Company is the self-reported affiliation, may be empty.
	Company string `json:"company,omitempty" yaml:"company,omitempty"`

	// Location is the self-reported location, may be empty.
	Location string `json:"location,omitempty" yaml:"location,omitempty"`

	// Languages lists the account's top languages, most-used first.
	Languages []LanguageStat `json:"languages" yaml:"languages"`

	// Topics lists the account's top repository topics, most-used first.
	Topics []TopicStat `json:"topics" yaml:"topics"`

	// StarredRepos lists notable starred repositories.
	StarredRepos []StarredRepo `json:"starred_repos,omitempty" yaml:"starred_repos,omitempty"`

	// RecentActivity summarizes recent public events.
	RecentActivity ActivitySummary `json:"recent_activity" yaml:"recent_activity"`

	// Repositories breaks repositories down into original work and forks.
	Repositories RepoBreakdown `json:"repositories" yaml:"repositories"`
}
