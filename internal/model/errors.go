package model

import (
	"errors"
	"fmt"
)

// ErrInvalidConfiguration is returned when statistics cannot be computed
// meaningfully, e.g. CAGR over a zero time span or a non-positive initial
// value. It replaces silently propagating NaN or Inf.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// ValidationError reports malformed input rejected before any computation
// runs.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

func NewValidationError(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
