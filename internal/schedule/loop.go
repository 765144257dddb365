package schedule

import (
	"context"
	"errors"
	"time"

	logx "pdbot/pkg/logx"
)

// ErrDisable tells the loop to stop permanently. Fetch or React return it
// when the task can never succeed again, for example when the channel it
// posts to does not exist.
var ErrDisable = errors.New("task disabled")

// DefaultBackoff is the sleep after a failed fetch.
const DefaultBackoff = 300 * time.Second

// Task is one adaptive background loop: fetch the upcoming event, react to
// it, then sleep an amount picked from the ladder based on how far away the
// event is.
type Task[S any] struct {
	Name string

	// Fetch loads the current state of the upcoming event.
	Fetch func(ctx context.Context) (S, error)

	// TimeUntil extracts the remaining time to the event from the state.
	TimeUntil func(s S) time.Duration

	// React acts on the fetched state (sends notifications and so on).
	// Errors are logged and do not stop the loop unless they wrap
	// ErrDisable.
	React func(ctx context.Context, s S) error

	Ladder  Ladder
	Backoff time.Duration // after a failed fetch; DefaultBackoff when zero

	// OnError receives non-terminal fetch and react failures in addition to
	// the log line. Terminal errors reach the caller of Run instead.
	OnError func(name string, err error)

	Log logx.Logger

	// Sleep overrides the cancellable sleep, for tests.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Run executes the loop until ctx is cancelled or the task disables itself.
// Returns nil on cancellation and ErrDisable on permanent stop.
func (t Task[S]) Run(ctx context.Context) error {
	log := t.Log
	if log.IsZero() {
		log = logx.Nop()
	}
	backoff := t.Backoff
	if backoff <= 0 {
		backoff = DefaultBackoff
	}
	sleep := t.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		state, err := t.Fetch(ctx)
		if err != nil {
			if errors.Is(err, ErrDisable) {
				log.Warn("task disabled", logx.String("task", t.Name), logx.Err(err))
				return ErrDisable
			}
			log.Warn("fetch failed, backing off",
				logx.String("task", t.Name),
				logx.Duration("backoff", backoff),
				logx.Err(err))
			if t.OnError != nil {
				t.OnError(t.Name, err)
			}
			if serr := sleep(ctx, backoff); serr != nil {
				return nil
			}
			continue
		}

		if t.React != nil {
			if err := t.React(ctx, state); err != nil {
				if errors.Is(err, ErrDisable) {
					log.Warn("task disabled", logx.String("task", t.Name), logx.Err(err))
					return ErrDisable
				}
				log.Error("react failed", logx.String("task", t.Name), logx.Err(err))
				if t.OnError != nil {
					t.OnError(t.Name, err)
				}
			}
		}

		delay := t.Ladder.NextDelay(t.TimeUntil(state))
		log.Debug("sleeping",
			logx.String("task", t.Name),
			logx.Duration("delay", delay))
		if err := sleep(ctx, delay); err != nil {
			return nil
		}
	}
}

// sleepCtx sleeps for d, returning early with ctx.Err() on cancellation.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
