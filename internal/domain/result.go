package domain

// Bounds enforced on every CompatibilityResult. A result object that
// violates any of these is never constructed; the parser fails instead.
const (
	// MinScore is the lowest valid compatibility score.
	MinScore = 1

	// MaxScore is the highest valid compatibility score.
	MaxScore = 10

	// NumFactors is the exact number of factors a result must carry.
	NumFactors = 4

	// MinReasoningLength is the minimum length of the reasoning text.
	MinReasoningLength = 10
)

// CompatibilityFactor is one labeled dimension of a compatibility
// verdict, e.g. {Label: "Shared Languages", Indicator: "Python, Go"}.
// Both fields are guaranteed non-empty on a validated result.
type CompatibilityFactor struct {
	// Label names the dimension being reported.
	Label string `json:"label"`

	// Indicator is the short human-readable finding for the dimension.
	Indicator string `json:"indicator"`
}

// CompatibilityResult is the validated verdict for a set of profiles.
// It is constructed only by the response validator: once a value of
// this type exists, Score is within [MinScore, MaxScore], Reasoning
// meets the minimum length, and Factors holds exactly NumFactors
// entries with non-empty labels and indicators. Partially populated
// results are never produced.
type CompatibilityResult struct {
	// Score is the overall collaboration potential from 1 to 10.
	Score int `json:"score"`

	// Reasoning explains the score.
	Reasoning string `json:"reasoning"`

	// Factors holds exactly four labeled findings.
	Factors []CompatibilityFactor `json:"factors"`
}

// PairInsight couples a validated result with the pair of usernames it
// was computed for. Batch analysis produces one PairInsight per
// unordered pair of input profiles.
type PairInsight struct {
	// Usernames identifies the analyzed pair, in input order.
	Usernames [2]string `json:"usernames"`

	// Result is the validated verdict for the pair.
	Result CompatibilityResult `json:"result"`
}
