package notifier

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"

	logx "pdbot/pkg/logx"
	"pdbot/internal/decksite"
	"pdbot/internal/dtutil"
	"pdbot/internal/schedule"
	"pdbot/internal/storage"
)

const leagueNotifyWindow = 86400 * time.Second

// League warns that the current league is about to close.
type League struct {
	Client    *decksite.Client
	Send      Sender
	Store     storage.Store
	ChannelID string
	SiteURL   string
	Log       logx.Logger

	OnError func(name string, err error)

	ladder schedule.Ladder
}

func leagueLadder() schedule.Ladder {
	return schedule.Ladder{Rungs: []schedule.Rung{
		{Upper: 300 * time.Second, Delay: schedule.Fixed(301 * time.Second)},
		// An hour out; sleep until the five minute warning.
		{Upper: 3600 * time.Second, Delay: schedule.UntilMinus(300 * time.Second)},
		// A day out; sleep until the one hour warning.
		{Upper: 86400 * time.Second, Delay: schedule.UntilMinus(1800 * time.Second)},
		// Sleep a day plus enough to leave a whole number of days.
		{Upper: -1, Delay: schedule.PeriodRemainder(86400 * time.Second)},
	}}
}

func (n *League) Run(ctx context.Context) error {
	if err := n.Send.ResolveTextChannel(ctx, n.ChannelID); err != nil {
		n.Log.Warn("league channel unusable, reminders disabled", logx.Err(err))
		return nil
	}
	n.ladder = leagueLadder()
	task := schedule.Task[*decksite.League]{
		Name:  "league-reminders",
		Fetch: n.fetch,
		TimeUntil: func(l *decksite.League) time.Duration {
			if l == nil {
				// No league running; the ladder lands this on the floor.
				return 0
			}
			return l.EndsIn(time.Now())
		},
		React:   n.react,
		Ladder:  n.ladder,
		OnError: n.OnError,
		Log:     n.Log,
	}
	return task.Run(ctx)
}

// fetch distinguishes "no league" (nil, benign, re-check at the floor pace)
// from a fetch failure (backoff, never tighter than the floor).
func (n *League) fetch(ctx context.Context) (*decksite.League, error) {
	return n.Client.CurrentLeague(ctx)
}

func (n *League) react(ctx context.Context, l *decksite.League) error {
	if l == nil {
		return nil
	}
	diff := l.EndsIn(time.Now())
	if diff > leagueNotifyWindow {
		return nil
	}
	end := time.Unix(l.EndDate, 0)
	if !dedup(ctx, n.Store, n.Log, "league", end, n.ladder.RungIndex(diff)) {
		return nil
	}

	embed := &discordgo.MessageEmbed{
		Title:       l.Name,
		Description: "League ending soon - any active runs will be cut short.",
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Ending in:", Value: dtutil.DisplayTime(diff, 2)},
		},
		Image: &discordgo.MessageEmbedImage{URL: faviconURL(n.SiteURL)},
	}
	return n.Send.SendEmbed(ctx, n.ChannelID, embed)
}
