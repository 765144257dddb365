package notifier

import (
	"context"
	"time"

	logx "pdbot/pkg/logx"
	"pdbot/internal/decksite"
	"pdbot/internal/rotation"
	"pdbot/internal/schedule"
)

const (
	rotationHypeWindow   = 7 * 24 * time.Hour
	rotationRunFreshness = 5 * time.Minute
)

// RotationHype announces rotation-run results while a rotation is imminent.
// Outside the seven day window it sleeps until the window opens; inside it
// re-checks the local progress file every five minutes and posts when a run
// finished within the freshness window.
type RotationHype struct {
	Client       *decksite.Client
	Send         Sender
	ChannelID    string
	SiteURL      string
	ProgressPath string
	TotalRuns    int
	Log          logx.Logger
	OnError      func(name string, err error)

	// Now is swappable for tests.
	Now func() time.Time
}

type rotationState struct {
	untilRotation time.Duration
	lastRun       time.Time
}

func (n *RotationHype) Run(ctx context.Context) error {
	if err := n.Send.ResolveTextChannel(ctx, n.ChannelID); err != nil {
		n.Log.Warn("rotation hype channel unusable, hype disabled", logx.Err(err))
		return nil
	}
	task := schedule.Task[rotationState]{
		Name:      "rotation-hype",
		Fetch:     n.fetch,
		TimeUntil: func(s rotationState) time.Duration { return s.untilRotation },
		React:     n.react,
		Ladder: schedule.Ladder{Rungs: []schedule.Rung{
			// Inside the hype window, re-check at the floor pace.
			{Upper: rotationHypeWindow, Delay: schedule.Fixed(5 * time.Minute)},
			// Otherwise sleep until the window opens.
			{Upper: -1, Delay: schedule.UntilMinus(rotationHypeWindow)},
		}},
		OnError: n.OnError,
		Log:     n.Log,
	}
	return task.Run(ctx)
}

func (n *RotationHype) fetch(ctx context.Context) (rotationState, error) {
	next, err := n.Client.NextRotation(ctx)
	if err != nil {
		return rotationState{}, err
	}
	lastRun, err := rotation.LastRunTime(n.ProgressPath)
	if err != nil {
		return rotationState{}, err
	}
	return rotationState{untilRotation: next.Sub(n.now()), lastRun: lastRun}, nil
}

func (n *RotationHype) react(ctx context.Context, s rotationState) error {
	if s.untilRotation >= rotationHypeWindow {
		return nil
	}
	if s.lastRun.IsZero() || n.now().Sub(s.lastRun) >= rotationRunFreshness {
		return nil
	}
	progress, err := rotation.ReadProgress(n.ProgressPath)
	if err != nil {
		return err
	}
	msg, ok := rotation.HypeMessage(progress, n.TotalRuns, n.SiteURL)
	if !ok {
		return nil
	}
	return n.Send.SendText(ctx, n.ChannelID, msg)
}

func (n *RotationHype) now() time.Time {
	if n.Now != nil {
		return n.Now()
	}
	return time.Now()
}
