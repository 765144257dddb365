package config

import (
	"fmt"
	"strings"
	"time"
)

// Duration parses a duration-valued config field ("10s", "1m"). Empty means
// unset and reads as zero. Negative values are rejected outright so a stray
// minus sign surfaces at validation time instead of as a busy loop.
func Duration(field, raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: %q is negative", field, raw)
	}
	return d, nil
}

// DurationOr is Duration with a fallback for unset (or zero) fields.
func DurationOr(field, raw string, fallback time.Duration) (time.Duration, error) {
	d, err := Duration(field, raw)
	if err != nil {
		return 0, err
	}
	if d == 0 {
		return fallback, nil
	}
	return d, nil
}
