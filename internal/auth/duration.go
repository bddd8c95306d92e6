package auth

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"
)

var durationUnits = map[string]time.Duration{
	"s":       time.Second,
	"sec":     time.Second,
	"secs":    time.Second,
	"second":  time.Second,
	"seconds": time.Second,
	"min":     time.Minute,
	"mins":    time.Minute,
	"minute":  time.Minute,
	"minutes": time.Minute,
	"h":       time.Hour,
	"hr":      time.Hour,
	"hrs":     time.Hour,
	"hour":    time.Hour,
	"hours":   time.Hour,
	"d":       24 * time.Hour,
	"day":     24 * time.Hour,
	"days":    24 * time.Hour,
	"w":       7 * 24 * time.Hour,
	"week":    7 * 24 * time.Hour,
	"weeks":   7 * 24 * time.Hour,
}

// minSessionDuration is the shortest lifetime a token can express, since exp has
// second precision.
const minSessionDuration = time.Second

// ParseDuration parses session lifetimes such as "1d", "30 days", "12h" or "90m".
// Anything time.ParseDuration understands is accepted as is. Lifetimes under one
// second and values that overflow time.Duration are rejected.
func ParseDuration(s string) (time.Duration, error) {
	value := strings.ToLower(strings.TrimSpace(s))
	if value == "" {
		return 0, fmt.Errorf("empty duration")
	}
	if d, err := time.ParseDuration(value); err == nil {
		return checkSessionDuration(s, d)
	}

	split := strings.IndexFunc(value, func(r rune) bool { return !unicode.IsDigit(r) })
	if split <= 0 {
		return 0, fmt.Errorf("invalid duration %q: missing unit", s)
	}

	amount, err := strconv.Atoi(value[:split])
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	unit, ok := durationUnits[strings.TrimSpace(value[split:])]
	if !ok {
		return 0, fmt.Errorf("invalid duration %q: unknown unit", s)
	}
	if int64(amount) > math.MaxInt64/int64(unit) {
		return 0, fmt.Errorf("invalid duration %q: out of range", s)
	}
	return checkSessionDuration(s, time.Duration(amount)*unit)
}

func checkSessionDuration(s string, d time.Duration) (time.Duration, error) {
	if d < 0 {
		return 0, fmt.Errorf("negative duration %q", s)
	}
	if d < minSessionDuration {
		return 0, fmt.Errorf("duration %q is shorter than %s", s, minSessionDuration)
	}
	return d, nil
}
