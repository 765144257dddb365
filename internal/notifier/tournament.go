package notifier

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	logx "pdbot/pkg/logx"
	"pdbot/internal/decksite"
	"pdbot/internal/dtutil"
	"pdbot/internal/schedule"
	"pdbot/internal/storage"
)

const tournamentNotifyWindow = 14400 * time.Second

// Tournament reminds the tournament channel as the next event approaches.
type Tournament struct {
	Client        *decksite.Client
	Send          Sender
	Store         storage.Store
	ChannelID     string
	SiteURL       string
	GatherlingURL string
	Log           logx.Logger

	// OnError forwards per-iteration failures to the error funnel.
	OnError func(name string, err error)

	ladder schedule.Ladder
}

func tournamentLadder() schedule.Ladder {
	return schedule.Ladder{Rungs: []schedule.Rung{
		// Five minutes out, final warning; sleep until it has started.
		{Upper: 300 * time.Second, Delay: schedule.Fixed(301 * time.Second)},
		// Half an hour out; sleep until the five minute warning.
		{Upper: 1800 * time.Second, Delay: schedule.UntilMinus(300 * time.Second)},
		// An hour out; sleep until the half-hour warning.
		{Upper: 3600 * time.Second, Delay: schedule.UntilMinus(1800 * time.Second)},
		// Sleep an hour plus enough to leave a whole number of hours.
		{Upper: -1, Delay: schedule.PeriodRemainder(3600 * time.Second)},
	}}
}

// Run resolves the channel and then loops until cancelled. A channel that
// does not resolve disables the notifier for the process lifetime.
func (n *Tournament) Run(ctx context.Context) error {
	if err := n.Send.ResolveTextChannel(ctx, n.ChannelID); err != nil {
		n.Log.Warn("tournament channel unusable, reminders disabled", logx.Err(err))
		return nil
	}
	n.ladder = tournamentLadder()
	task := schedule.Task[decksite.Tournament]{
		Name:      "tournament-reminders",
		Fetch:     n.Client.NextTournament,
		TimeUntil: decksite.Tournament.StartsIn,
		React:     n.react,
		Ladder:    n.ladder,
		OnError:   n.OnError,
		Log:       n.Log,
	}
	return task.Run(ctx)
}

func (n *Tournament) react(ctx context.Context, t decksite.Tournament) error {
	diff := t.StartsIn()
	if diff > tournamentNotifyWindow {
		return nil
	}
	start := time.Now().Add(diff)
	if !dedup(ctx, n.Store, n.Log, "tournament", start, n.ladder.RungIndex(diff)) {
		return nil
	}

	desc := "A free tournament"
	if t.SponsorName != "" {
		desc = fmt.Sprintf("A %s sponsored tournament", t.SponsorName)
	}
	embed := &discordgo.MessageEmbed{
		Title:       t.Name,
		Description: desc,
		Image:       &discordgo.MessageEmbedImage{URL: faviconURL(n.SiteURL)},
	}
	if diff <= time.Second {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Starting now",
			Value: "Check the tournament channel for further announcements",
		})
	} else {
		gatherling := n.GatherlingURL
		if gatherling == "" {
			gatherling = "https://gatherling.com"
		}
		embed.Fields = append(embed.Fields,
			&discordgo.MessageEmbedField{Name: "Starting in:", Value: dtutil.DisplayTime(diff, 2)},
			&discordgo.MessageEmbedField{Name: "Pre-register now:", Value: gatherling},
		)
	}
	return n.Send.SendEmbed(ctx, n.ChannelID, embed)
}

func faviconURL(siteURL string) string {
	return strings.TrimRight(siteURL, "/") + "/favicon-152.png"
}
