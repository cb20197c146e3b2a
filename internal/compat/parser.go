package compat

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/gitmate/gitmate/internal/domain"
)

// analysisResponse is the expected JSON structure from the model. The
// score is decoded loosely because models return it as a number or a
// numeric string interchangeably; coercion happens in one place and is
// strict about range.
type analysisResponse struct {
	Score     any              `json:"score"`
	Reasoning string           `json:"reasoning" validate:"required,min=10"`
	Factors   []factorResponse `json:"factors" validate:"required,len=4,dive"`
}

type factorResponse struct {
	Label     string `json:"label" validate:"required"`
	Indicator string `json:"indicator" validate:"required"`
}

// Parser extracts a compatibility result from raw model output. It
// tolerates prose and code-fence wrapping around the JSON object but
// is strict about the object itself: a missing or invalid field aborts
// parsing with a field-specific error rather than producing a partial
// result. Silent defaults would hide prompt or model regressions
// behind plausible-looking output.
type Parser struct {
	validate *validator.Validate
}

// NewParser creates a response parser.
func NewParser() *Parser {
	return &Parser{validate: validator.New()}
}

// Parse extracts and validates a CompatibilityResult from raw text.
// The returned result is always complete; on any failure the error
// matches domain.ErrMalformed and no result is produced.
func (p *Parser) Parse(raw string) (domain.CompatibilityResult, error) {
	jsonStr := extractJSON(raw)
	if jsonStr == "" {
		return domain.CompatibilityResult{}, domain.NewValidationError(
			"body", fmt.Sprintf("no JSON object found in response (%d chars)", len(raw)))
	}

	var resp analysisResponse
	if err := json.Unmarshal([]byte(jsonStr), &resp); err != nil {
		return domain.CompatibilityResult{}, domain.NewValidationError(
			"body", fmt.Sprintf("invalid JSON: %v", err))
	}

	score, err := coerceScore(resp.Score)
	if err != nil {
		return domain.CompatibilityResult{}, err
	}

	if err := p.validate.Struct(resp); err != nil {
		return domain.CompatibilityResult{}, validationErrorFromValidator(err)
	}

	factors := make([]domain.CompatibilityFactor, len(resp.Factors))
	for i, f := range resp.Factors {
		factors[i] = domain.CompatibilityFactor{Label: f.Label, Indicator: f.Indicator}
	}

	return domain.CompatibilityResult{
		Score:     score,
		Reasoning: resp.Reasoning,
		Factors:   factors,
	}, nil
}

// coerceScore converts the loosely decoded score into a bounded
// integer. Integral floats and numeric strings coerce; fractional,
// non-numeric, or out-of-range values fail. The range check is strict:
// an out-of-range score is a model error to surface, never a value to
// clamp.
func coerceScore(raw any) (int, error) {
	var score int

	switch v := raw.(type) {
	case float64:
		if v != math.Trunc(v) {
			return 0, domain.NewValidationError("score",
				fmt.Sprintf("must be an integer, got %v", v))
		}
		score = int(v)
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, domain.NewValidationError("score",
				fmt.Sprintf("must be an integer, got %q", v))
		}
		score = parsed
	case json.Number:
		parsed, err := v.Int64()
		if err != nil {
			return 0, domain.NewValidationError("score",
				fmt.Sprintf("must be an integer, got %v", v))
		}
		score = int(parsed)
	case nil:
		return 0, domain.NewValidationError("score", "is required")
	default:
		return 0, domain.NewValidationError("score",
			fmt.Sprintf("must be an integer, got %T", raw))
	}

	if score < domain.MinScore || score > domain.MaxScore {
		return 0, domain.NewValidationError("score",
			fmt.Sprintf("must be between %d and %d, got %d", domain.MinScore, domain.MaxScore, score))
	}
	return score, nil
}

// validationErrorFromValidator maps the first struct validation
// failure to a field-specific domain error.
func validationErrorFromValidator(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return domain.NewValidationError("body", err.Error())
	}

	fe := fieldErrs[0]
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return domain.NewValidationError(field, "is required")
	case "min":
		return domain.NewValidationError(field,
			fmt.Sprintf("must be at least %s characters", fe.Param()))
	case "len":
		return domain.NewValidationError(field,
			fmt.Sprintf("must contain exactly %s entries", fe.Param()))
	default:
		return domain.NewValidationError(field,
			fmt.Sprintf("failed %s validation", fe.Tag()))
	}
}

// extractJSON pulls a JSON object out of raw model output. A raw text
// that already is a valid JSON object wins outright, so fence markers
// inside string values cannot derail extraction. Otherwise it tries a
// ```json fence, then a generic fence, then the first balanced {...}
// span, tracking strings and escapes so braces inside string values do
// not confuse the scan.
func extractJSON(response string) string {
	response = strings.TrimSpace(response)

	if strings.HasPrefix(response, "{") && json.Valid([]byte(response)) {
		return response
	}

	if strings.Contains(response, "```json") {
		start := strings.Index(response, "```json")
		if start != -1 {
			start += 7
			end := strings.Index(response[start:], "```")
			if end != -1 {
				return strings.TrimSpace(response[start : start+end])
			}
		}
	}

	if strings.Contains(response, "```") {
		start := strings.Index(response, "```")
		if start != -1 {
			start += 3
			// Skip a language identifier on the fence line.
			newlineIdx := strings.Index(response[start:], "\n")
			if newlineIdx != -1 {
				start += newlineIdx + 1
			}
			end := strings.Index(response[start:], "```")
			if end != -1 {
				candidate := strings.TrimSpace(response[start : start+end])
				if strings.HasPrefix(candidate, "{") {
					return candidate
				}
			}
		}
	}

	start := strings.Index(response, "{")
	if start == -1 {
		return ""
	}

	braceCount := 0
	inString := false
	escapeNext := false

	for i := start; i < len(response); i++ {
		char := response[i]

		if escapeNext {
			escapeNext = false
			continue
		}
		if char == '\\' {
			escapeNext = true
			continue
		}
		if char == '"' {
			inString = !inString
			continue
		}

		if !inString {
			switch char {
			case '{':
				braceCount++
			case '}':
				braceCount--
				if braceCount == 0 {
					return response[start : i+1]
				}
			}
		}
	}

	return ""
}
