// Package dtutil renders durations for humans.
package dtutil

import (
	"fmt"
	"strings"
	"time"
)

type unit struct {
	name    string
	seconds int64
}

var units = []unit{
	{"year", 60 * 60 * 24 * 365},
	{"week", 60 * 60 * 24 * 7},
	{"day", 60 * 60 * 24},
	{"hour", 60 * 60},
	{"minute", 60},
	{"second", 1},
}

// DisplayTime renders d as its largest granularity non-zero units,
// for example "2 hours, 30 minutes" at granularity 2. Zero and negative
// durations render as "0 seconds".
func DisplayTime(d time.Duration, granularity int) string {
	if granularity <= 0 {
		granularity = 1
	}
	secs := int64(d.Round(time.Second) / time.Second)
	if secs <= 0 {
		return "0 seconds"
	}

	var parts []string
	for _, u := range units {
		n := secs / u.seconds
		if n == 0 {
			continue
		}
		secs -= n * u.seconds
		label := u.name
		if n != 1 {
			label += "s"
		}
		parts = append(parts, fmt.Sprintf("%d %s", n, label))
	}
	if len(parts) > granularity {
		parts = parts[:granularity]
	}
	return strings.Join(parts, ", ")
}
