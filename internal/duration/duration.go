// Package duration provides parsing for human-readable duration strings.
package duration

import (
	"fmt"
	"strings"
	"time"
)

// ParseAt parses human-readable durations like "1w", "30d", "6mo" and
// returns the time that is the given duration before now.
func ParseAt(s string, now time.Time) (time.Time, error) {
	d, err := ParseDuration(s)
	if err != nil {
		return time.Time{}, err
	}
	return now.Add(-d), nil
}

// ParseDuration converts a human-readable duration into a time.Duration.
func ParseDuration(s string) (time.Duration, error) {
	var n int
	var unit string

	if _, err := fmt.Sscanf(strings.TrimSpace(s), "%d%s", &n, &unit); err != nil {
		return 0, fmt.Errorf("invalid duration format: %s (use e.g., 1w, 30d, 6mo)", s)
	}
	if n < 0 {
		return 0, fmt.Errorf("invalid duration: %s must not be negative", s)
	}

	switch unit {
	case "m", "min", "mins":
		return time.Duration(n) * time.Minute, nil
	case "h", "hr", "hrs", "hour", "hours":
		return time.Duration(n) * time.Hour, nil
	case "d", "day", "days":
		return time.Duration(n) * 24 * time.Hour, nil
	case "w", "wk", "wks", "week", "weeks":
		return time.Duration(n) * 7 * 24 * time.Hour, nil
	case "mo", "month", "months":
		return time.Duration(n) * 30 * 24 * time.Hour, nil
	case "y", "yr", "yrs", "year", "years":
		return time.Duration(n) * 365 * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("unknown duration unit: %s", unit)
	}
}

// Since resolves a "since" filter. It accepts either an RFC 3339 timestamp
// or a relative duration such as "2w", measured back from now.
func Since(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := ParseAt(s, now)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid since %q: want an RFC 3339 timestamp or a duration like 1w", s)
	}
	return t, nil
}
