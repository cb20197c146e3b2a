package llm

import "strings"

// DefaultCharsPerToken is the average characters-per-token ratio for
// English text across current tokenizers.
const DefaultCharsPerToken = 4.0

// CharacterBasedEstimator approximates token counts from character
// length. It is deliberately model-agnostic; exact tokenizers differ
// per provider, and the estimate is only used for budgeting and
// metrics, never for billing.
type CharacterBasedEstimator struct {
	charsPerToken float64
}

// NewCharacterBasedTokenEstimator returns a character-ratio estimator.
// A non-positive ratio selects DefaultCharsPerToken.
func NewCharacterBasedTokenEstimator(charsPerToken float64) *CharacterBasedEstimator {
	if charsPerToken <= 0 {
		charsPerToken = DefaultCharsPerToken
	}
	return &CharacterBasedEstimator{charsPerToken: charsPerToken}
}

// EstimateTokens returns an approximate token count for text.
func (e *CharacterBasedEstimator) EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	estimate := int(float64(len(text)) / e.charsPerToken)
	if estimate == 0 {
		return 1
	}
	return estimate
}

// WordBasedEstimator approximates token counts from word boundaries,
// useful for prose-heavy prompts where whitespace splitting tracks
// tokenization more closely than raw length.
type WordBasedEstimator struct {
	tokensPerWord float64
}

// NewWordBasedTokenEstimator returns a word-ratio estimator. A
// non-positive ratio selects the common 1.3 tokens-per-word figure.
func NewWordBasedTokenEstimator(tokensPerWord float64) *WordBasedEstimator {
	if tokensPerWord <= 0 {
		tokensPerWord = 1.3
	}
	return &WordBasedEstimator{tokensPerWord: tokensPerWord}
}

// EstimateTokens returns an approximate token count for text.
func (e *WordBasedEstimator) EstimateTokens(text string) int {
	words := strings.Fields(text)
	if len(words) == 0 {
		return 0
	}
	estimate := int(float64(len(words)) * e.tokensPerWord)
	if estimate == 0 {
		return 1
	}
	return estimate
}
