package schedule

import "time"

// FloorDelay is the minimum sleep between iterations. Even when an event is
// imminent the loop never polls faster than this.
const FloorDelay = 300 * time.Second

// Rung maps a band of time-until-event to a delay formula. Rungs are ordered
// by Upper ascending; the first rung whose Upper is >= the remaining time
// wins. A final catch-all rung uses Upper < 0.
type Rung struct {
	Upper time.Duration // inclusive upper bound of the band, <0 means unbounded
	Delay func(until time.Duration) time.Duration
}

// Ladder computes how long to sleep given how far away the next event is.
type Ladder struct {
	Floor time.Duration // defaults to FloorDelay when zero
	Rungs []Rung
}

// NextDelay resolves until against the rungs and clamps the result to the
// floor. The result is always positive so the loop cannot spin.
func (l Ladder) NextDelay(until time.Duration) time.Duration {
	floor := l.Floor
	if floor <= 0 {
		floor = FloorDelay
	}
	var d time.Duration
	for _, r := range l.Rungs {
		if r.Upper < 0 || until <= r.Upper {
			d = r.Delay(until)
			break
		}
	}
	if d < floor {
		d = floor
	}
	return d
}

// RungIndex reports which rung until falls into. Useful as a stable key
// for once-per-band behavior.
func (l Ladder) RungIndex(until time.Duration) int {
	for i, r := range l.Rungs {
		if r.Upper < 0 || until <= r.Upper {
			return i
		}
	}
	return len(l.Rungs) - 1
}

// Fixed returns a delay formula that ignores the remaining time.
func Fixed(d time.Duration) func(time.Duration) time.Duration {
	return func(time.Duration) time.Duration { return d }
}

// UntilMinus returns a delay formula that sleeps until the remaining time
// drops to offset. Used to wake up exactly at the next interesting rung.
func UntilMinus(offset time.Duration) func(time.Duration) time.Duration {
	return func(until time.Duration) time.Duration { return until - offset }
}

// PeriodRemainder returns a delay formula for events far in the future: it
// sleeps period plus the remainder of until modulo period, landing the next
// wakeup on a period boundary relative to the event.
func PeriodRemainder(period time.Duration) func(time.Duration) time.Duration {
	return func(until time.Duration) time.Duration {
		if period <= 0 {
			return until
		}
		return period + until%period
	}
}
