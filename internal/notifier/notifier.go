// Package notifier holds the concrete adaptive loops: tournament start,
// league end, rotation hype, and the reboot watch.
package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	logx "pdbot/pkg/logx"
	"pdbot/internal/storage"
)

// Sender is the outbound slice of the platform the notifiers need.
type Sender interface {
	SendText(ctx context.Context, channelID, text string) error
	SendEmbed(ctx context.Context, channelID string, embed *discordgo.MessageEmbed) error
	ResolveTextChannel(ctx context.Context, channelID string) error
}

// dedup guards one emission per (notifier, event, urgency band). The key
// expires when the event happens so the next countdown starts clean. Event
// times are rounded to the minute so second-level jitter between fetches
// does not fork keys. With no store configured every emission goes through,
// matching the ladder's natural pacing.
func dedup(ctx context.Context, store storage.Store, log logx.Logger, name string, eventTime time.Time, rung int) bool {
	if store == nil {
		return true
	}
	key := fmt.Sprintf("notify:%s:%d:%d", name, eventTime.Round(time.Minute).Unix(), rung)
	if _, seen, err := store.GetDedup(ctx, key); err != nil {
		log.Warn("dedup read failed, emitting anyway", logx.String("key", key), logx.Err(err))
		return true
	} else if seen {
		return false
	}
	if err := store.PutDedup(ctx, key, eventTime); err != nil {
		log.Warn("dedup write failed", logx.String("key", key), logx.Err(err))
	}
	return true
}
