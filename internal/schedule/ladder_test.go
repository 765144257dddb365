package schedule

import (
	"testing"
	"time"
)

func tournamentStyleLadder() Ladder {
	return Ladder{Rungs: []Rung{
		{Upper: 300 * time.Second, Delay: Fixed(301 * time.Second)},
		{Upper: 1800 * time.Second, Delay: UntilMinus(300 * time.Second)},
		{Upper: 3600 * time.Second, Delay: UntilMinus(1800 * time.Second)},
		{Upper: -1, Delay: PeriodRemainder(3600 * time.Second)},
	}}
}

func TestNextDelayBands(t *testing.T) {
	l := tournamentStyleLadder()
	tests := []struct {
		name  string
		until time.Duration
		want  time.Duration
	}{
		{"imminent", 10 * time.Second, 301 * time.Second},
		{"at first bound", 300 * time.Second, 301 * time.Second},
		{"just past first bound", 301 * time.Second, 300 * time.Second}, // 301-300=1, clamped to floor
		{"mid second band", 1000 * time.Second, 700 * time.Second},
		{"at second bound", 1800 * time.Second, 1500 * time.Second},
		{"mid third band", 3000 * time.Second, 1200 * time.Second},
		{"at third bound", 3600 * time.Second, 1800 * time.Second},
		{"far future on the hour", 7200 * time.Second, 3600 * time.Second},
		{"far future off the hour", 7300 * time.Second, 3700 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := l.NextDelay(tt.until); got != tt.want {
				t.Fatalf("NextDelay(%v) = %v, want %v", tt.until, got, tt.want)
			}
		})
	}
}

func TestNextDelayNeverBelowFloor(t *testing.T) {
	l := tournamentStyleLadder()
	for _, until := range []time.Duration{
		0,
		time.Second,
		299 * time.Second,
		301 * time.Second, // formula yields 1s
		1801 * time.Second,
		3601 * time.Second,
		24 * time.Hour,
	} {
		if got := l.NextDelay(until); got < FloorDelay {
			t.Fatalf("NextDelay(%v) = %v, below floor %v", until, got, FloorDelay)
		}
	}
}

func TestNextDelayCustomFloor(t *testing.T) {
	l := Ladder{
		Floor: 60 * time.Second,
		Rungs: []Rung{{Upper: -1, Delay: Fixed(time.Second)}},
	}
	if got := l.NextDelay(time.Hour); got != 60*time.Second {
		t.Fatalf("NextDelay = %v, want 60s", got)
	}
}

func TestPeriodRemainder(t *testing.T) {
	f := PeriodRemainder(86400 * time.Second)
	// 2.5 days out lands the next wakeup one-and-a-half days later,
	// on a day boundary relative to the event.
	until := 216000 * time.Second
	if got := f(until); got != 129600*time.Second {
		t.Fatalf("PeriodRemainder = %v, want 36h", got)
	}
}
