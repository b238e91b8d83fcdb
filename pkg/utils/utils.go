package utils

import "math"

func ToPointer[T any](value T) *T {
	return &value
}

// IsFinite reports whether v is a usable number (not NaN, not ±Inf).
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
