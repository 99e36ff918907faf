package aggregation

import (
	"fmt"
	"time"
)

// ParseDuration parses a duration string.
// Supports Go duration syntax (e.g., "10s", "1m", "1h") plus "Xd" for days.
func ParseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, fmt.Errorf("duration must not be empty")
	}

	// Handle "d" suffix (days), not supported by time.ParseDuration.
	if len(s) > 1 && s[len(s)-1] == 'd' {
		var days int
		if _, err := fmt.Sscanf(s, "%dd", &days); err != nil {
			return 0, fmt.Errorf("invalid duration %q: %w", s, err)
		}
		if days <= 0 {
			return 0, fmt.Errorf("duration must be positive, got %q", s)
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive, got %q", s)
	}
	return d, nil
}

// DateLayout is the ISO calendar date used for daily buckets and snapshot keys.
const DateLayout = "2006-01-02"

// HourOf returns the hour of t in loc (0-23).
func HourOf(t time.Time, loc *time.Location) int {
	return t.In(loc).Hour()
}

// DateKey returns the ISO date of t in loc.
func DateKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DateLayout)
}

// LastNDates returns the n calendar dates ending with the date of now, oldest first.
func LastNDates(now time.Time, n int, loc *time.Location) []string {
	local := now.In(loc)
	out := make([]string, 0, n)
	for i := n - 1; i >= 0; i-- {
		out = append(out, local.AddDate(0, 0, -i).Format(DateLayout))
	}
	return out
}
