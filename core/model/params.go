package model

import (
	"math"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/edaml/pkg/errors"
)

// Hyperparameter values arrive either from Go callers (typed) or from
// loosely-typed user input that was coerced to int, float64 or string.
// The helpers below accept both and report a ValidationError instead of
// panicking on a mismatch.

// ParamInt converts v to an int. Floats are accepted only when integral.
func ParamInt(name string, v interface{}) (int, error) {
	switch x := v.(type) {
	case int:
		return x, nil
	case int32:
		return int(x), nil
	case int64:
		return int(x), nil
	case float64:
		if x == math.Trunc(x) && !math.IsInf(x, 0) {
			return int(x), nil
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(x)); err == nil {
			return n, nil
		}
	}
	return 0, errors.NewValidationError(name, "expected an integer", v)
}

// ParamOptionalInt is ParamInt where "None" (or nil) means unset and maps to def.
func ParamOptionalInt(name string, v interface{}, def int) (int, error) {
	if v == nil {
		return def, nil
	}
	if s, ok := v.(string); ok && isNone(s) {
		return def, nil
	}
	return ParamInt(name, v)
}

// ParamFloat converts v to a float64.
func ParamFloat(name string, v interface{}) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(x), 64); err == nil {
			return f, nil
		}
	}
	return 0, errors.NewValidationError(name, "expected a number", v)
}

// ParamString converts v to a string. Numbers are rejected so that a typo
// such as weights=1 is reported rather than silently formatted.
func ParamString(name string, v interface{}) (string, error) {
	if s, ok := v.(string); ok {
		return s, nil
	}
	return "", errors.NewValidationError(name, "expected a string", v)
}

// ParamBool converts v to a bool, accepting "true"/"false" in any case and 0/1.
func ParamBool(name string, v interface{}) (bool, error) {
	switch x := v.(type) {
	case bool:
		return x, nil
	case int:
		if x == 0 || x == 1 {
			return x == 1, nil
		}
	case string:
		if b, err := strconv.ParseBool(strings.TrimSpace(x)); err == nil {
			return b, nil
		}
	}
	return false, errors.NewValidationError(name, "expected a boolean", v)
}

// ParamChoice converts v to a string and checks it against the allowed values.
func ParamChoice(name string, v interface{}, allowed ...string) (string, error) {
	s, err := ParamString(name, v)
	if err != nil {
		return "", err
	}
	for _, a := range allowed {
		if s == a {
			return s, nil
		}
	}
	return "", errors.NewValidationError(name, "must be one of "+strings.Join(allowed, ", "), v)
}

// UnknownParam reports a hyperparameter name the model does not define.
func UnknownParam(modelName, name string, v interface{}) error {
	return errors.NewValidationError(name, "unknown parameter for "+modelName, v)
}

func isNone(s string) bool {
	switch strings.TrimSpace(s) {
	case "None", "none", "null", "":
		return true
	}
	return false
}
