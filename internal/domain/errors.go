package domain

import (
	"errors"
	"fmt"
)

// Failure kinds surfaced to the orchestrator boundary. Each kind is a
// distinct sentinel so callers can branch with errors.Is and react
// differently: retry shortly, raise the token budget, or fix
// configuration. None of them is ever swallowed or replaced by a
// default result.
var (
	// ErrUnconfigured indicates no completion client is bound: the
	// registry was asked for a handle before Init or after Cleanup,
	// or a credential is missing. Not user-actionable.
	ErrUnconfigured = errors.New("completion client not configured")

	// ErrAlreadyConfigured indicates a second Init while a client is
	// still bound. Double-init is a hard error, not a silent overwrite.
	ErrAlreadyConfigured = errors.New("completion client already configured")

	// ErrServiceUnavailable indicates the remote endpoint kept failing
	// with transient errors until retries were exhausted, or the
	// transport failed outright. Trying again shortly may succeed.
	ErrServiceUnavailable = errors.New("completion service unavailable")

	// ErrTruncated indicates the response was cut off by the output
	// token budget. Retrying the identical request cannot help; the
	// caller must raise the budget or shrink the input.
	ErrTruncated = errors.New("completion truncated by output token budget")

	// ErrMalformed indicates the response body was unparseable or
	// violated the result schema.
	ErrMalformed = errors.New("malformed completion response")
)

// ValidationError reports a single schema violation found while
// validating a parsed completion into a CompatibilityResult. It names
// the offending field so regressions in the upstream prompt or model
// surface immediately instead of hiding behind placeholder values.
type ValidationError struct {
	// Field is the schema field that failed, e.g. "score" or
	// "factors[2].label".
	Field string

	// Reason describes why the field is invalid.
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid field %q: %s", e.Field, e.Reason)
}

// Is reports schema violations as the Malformed failure kind.
func (e *ValidationError) Is(target error) bool {
	return target == ErrMalformed
}

// NewValidationError builds a ValidationError for the given field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// FailureMessage maps an error from the analysis pipeline to a
// distinct, actionable user-facing message. Unknown errors get a
// generic message rather than leaking internals.
func FailureMessage(err error) string {
	switch {
	case errors.Is(err, ErrUnconfigured):
		return "the analysis service is not configured; contact the operator"
	case errors.Is(err, ErrTruncated):
		return "the analysis was cut short; retry with fewer profiles or a larger output budget"
	case errors.Is(err, ErrServiceUnavailable):
		return "the analysis service is temporarily unavailable; try again shortly"
	case errors.Is(err, ErrMalformed):
		return "the analysis service returned unusable data; trying again may help"
	default:
		return "the analysis failed unexpectedly"
	}
}
