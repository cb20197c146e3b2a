package llm

// Option extraction helpers shared by the providers. Each extractor
// pulls a typed value out of the per-call options map, applies an
// optional validator, and falls back to the default on a missing,
// mistyped, or invalid entry. Invalid options degrade to defaults
// instead of failing the request.

// ExtractOptionalInt extracts an integer option. JSON-decoded maps
// carry numbers as float64, so both int and float64 entries are
// accepted.
func ExtractOptionalInt(opts map[string]any, key string, defaultValue int, validator func(int) bool) int {
	raw, ok := opts[key]
	if !ok {
		return defaultValue
	}

	var value int
	switch v := raw.(type) {
	case int:
		value = v
	case int32:
		value = int(v)
	case int64:
		value = int(v)
	case float64:
		value = int(v)
	default:
		return defaultValue
	}

	if validator != nil && !validator(value) {
		return defaultValue
	}
	return value
}

// ExtractOptionalString extracts a string option.
func ExtractOptionalString(opts map[string]any, key, defaultValue string, validator func(string) bool) string {
	raw, ok := opts[key]
	if !ok {
		return defaultValue
	}

	value, ok := raw.(string)
	if !ok {
		return defaultValue
	}
	if validator != nil && !validator(value) {
		return defaultValue
	}
	return value
}

// ExtractOptionalFloat64 extracts a float option, accepting int entries
// as well.
func ExtractOptionalFloat64(opts map[string]any, key string, defaultValue float64, validator func(float64) bool) float64 {
	raw, ok := opts[key]
	if !ok {
		return defaultValue
	}

	var value float64
	switch v := raw.(type) {
	case float64:
		value = v
	case float32:
		value = float64(v)
	case int:
		value = float64(v)
	default:
		return defaultValue
	}

	if validator != nil && !validator(value) {
		return defaultValue
	}
	return value
}

// IsPositiveInt validates that a value is greater than zero.
func IsPositiveInt(v int) bool { return v > 0 }

// IsNonEmptyString validates that a string is not empty.
func IsNonEmptyString(v string) bool { return v != "" }

// IsValidTemperature validates the common temperature range.
func IsValidTemperature(v float64) bool { return v >= 0.0 && v <= 2.0 }

// IsValidTopP validates the nucleus sampling range.
func IsValidTopP(v float64) bool { return v >= 0.0 && v <= 1.0 }
