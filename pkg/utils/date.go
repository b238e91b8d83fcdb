package utils

import "time"

const DateLayout = "2006-01-02"

// secondsPerYear uses the Julian year so leap days do not skew CAGR.
const secondsPerYear = 365.25 * 86400

func ParseDate(value string) (time.Time, error) {
	return time.Parse(DateLayout, value)
}

func FormatDate(date time.Time) string {
	return date.UTC().Format(DateLayout)
}

// YearsBetween converts an elapsed span between two unix timestamps into
// fractional years.
func YearsBetween(start, end int64) float64 {
	return float64(end-start) / secondsPerYear
}
