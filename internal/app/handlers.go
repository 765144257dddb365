package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"pdbot/internal/command"
	"pdbot/internal/replay"
	logx "pdbot/pkg/logx"
)

const handlerTimeout = 30 * time.Second

// handlerCtx bounds one gateway event's work and ties it to shutdown.
func (a *App) handlerCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(a.sup.Context(), handlerTimeout)
}

func (a *App) onReady(s *discordgo.Session, r *discordgo.Ready) {
	names := make([]string, 0, len(r.Guilds))
	for _, g := range r.Guilds {
		names = append(names, g.Name)
	}
	a.log.Info("logged in",
		logx.String("user", r.User.Username),
		logx.String("guilds", strings.Join(names, ", ")))
	if err := s.UpdateGameStatus(0, "pennydreadfulmagic.com"); err != nil {
		a.log.Debug("setting presence failed", logx.Err(err))
	}
}

func (a *App) onMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.ID == s.State.User.ID || m.Author.Bot {
		return
	}
	ctx, cancel := a.handlerCtx()
	defer cancel()
	a.router.Dispatch(ctx, command.Message{
		Content:   m.Content,
		ChannelID: m.ChannelID,
		AuthorID:  m.Author.ID,
		AuthorBot: m.Author.Bot,
	})
}

func (a *App) onReactionAdd(s *discordgo.Session, r *discordgo.MessageReactionAdd) {
	if r.UserID == s.State.User.ID {
		return
	}
	ctx, cancel := a.handlerCtx()
	defer cancel()

	msg, err := a.gw.Message(ctx, r.ChannelID, r.MessageID)
	if err != nil {
		a.log.Debug("fetching reacted message failed", logx.Err(err))
		return
	}
	if msg.Author == nil || msg.Author.ID != s.State.User.ID {
		return
	}

	if a.handleCancelReaction(ctx, s, r, msg) {
		return
	}
	a.handleDisambiguation(ctx, r, msg)
}

func (a *App) handleCancelReaction(ctx context.Context, s *discordgo.Session, r *discordgo.MessageReactionAdd, msg *discordgo.Message) bool {
	if r.Emoji.Name != replay.CancelEmoji {
		return false
	}
	count, botReacted := 0, false
	for _, reaction := range msg.Reactions {
		if reaction.Emoji != nil && reaction.Emoji.Name == replay.CancelEmoji {
			count, botReacted = reaction.Count, reaction.Me
			break
		}
	}
	if !replay.ShouldDelete(msg.Author.ID, s.State.User.ID, r.Emoji.Name, count, botReacted) {
		return false
	}
	if err := a.gw.DeleteMessage(ctx, r.ChannelID, r.MessageID); err != nil {
		a.log.Warn("deleting cancelled message failed", logx.Err(err))
		a.reportErr("reaction.cancel", err)
	}
	return true
}

// handleDisambiguation turns a keycap reaction on an ambiguity prompt back
// into a command from the reacting user, then removes the prompt.
func (a *App) handleDisambiguation(ctx context.Context, r *discordgo.MessageReactionAdd, msg *discordgo.Message) {
	d, ok := replay.Parse(msg.Content)
	if !ok {
		return
	}
	cmd, ok := d.Resolve(r.Emoji.Name)
	if !ok {
		// Out-of-bounds or unrelated emoji: silently do nothing.
		return
	}
	a.router.Dispatch(ctx, command.Message{
		Content:   cmd,
		ChannelID: r.ChannelID,
		AuthorID:  r.UserID,
	})
	if err := a.gw.DeleteMessage(ctx, r.ChannelID, r.MessageID); err != nil {
		a.log.Warn("deleting ambiguity prompt failed", logx.Err(err))
		a.reportErr("reaction.disambiguate", err)
	}
}

const (
	streamingRoleName = "Currently Streaming"
	linkedRoleName    = "Linked Magic Online"
)

// onPresenceUpdate keeps the streaming role current and reconciles trophy
// roles on an offline to online edge; edge triggering bounds the call
// volume against the platform rate limits.
func (a *App) onPresenceUpdate(s *discordgo.Session, p *discordgo.PresenceUpdate) {
	if p.User == nil || p.User.ID == s.State.User.ID {
		return
	}
	cfg := a.cfgm.Get()
	if p.GuildID != cfg.Discord.GuildID {
		return
	}

	streaming := false
	for _, act := range p.Activities {
		if act != nil && act.Type == discordgo.ActivityTypeStreaming {
			streaming = true
			break
		}
	}

	a.presenceMu.Lock()
	prev, seen := a.presence[p.User.ID]
	a.presence[p.User.ID] = presenceState{status: p.Status, streaming: streaming}
	a.presenceMu.Unlock()

	streamingFlipped := !seen || prev.streaming != streaming
	cameOnline := seen && prev.status == discordgo.StatusOffline && p.Status == discordgo.StatusOnline
	if !streamingFlipped && !cameOnline {
		return
	}

	userID := p.User.ID
	go func() {
		ctx, cancel := a.handlerCtx()
		defer cancel()

		if streamingFlipped {
			if err := a.reconciler.SyncNamedRole(ctx, userID, streamingRoleName, streaming); err != nil {
				a.log.Debug("streaming role sync failed", logx.String("user", userID), logx.Err(err))
			}
		}
		if !cameOnline {
			return
		}

		person, err := a.client.PersonByDiscordID(ctx, userID)
		if err != nil {
			a.log.Debug("person lookup failed", logx.String("user", userID), logx.Err(err))
			return
		}
		if person == nil {
			return
		}
		if err := a.reconciler.SyncNamedRole(ctx, userID, linkedRoleName, true); err != nil {
			a.log.Debug("linked role sync failed", logx.String("user", userID), logx.Err(err))
		}
		if _, _, err := a.reconciler.Reconcile(ctx, userID, person.Achievements); err != nil {
			a.log.Warn("role reconciliation failed", logx.String("user", userID), logx.Err(err))
			a.reportErr("roles.reconcile", err)
		}
	}()
}

func (a *App) onMemberJoin(s *discordgo.Session, m *discordgo.GuildMemberAdd) {
	if m.User == nil || m.User.Bot {
		return
	}
	cfg := a.cfgm.Get()
	if m.GuildID != cfg.Discord.GuildID || cfg.Discord.GeneralChannelID == "" {
		return
	}
	ctx, cancel := a.handlerCtx()
	defer cancel()
	greeting := fmt.Sprintf(
		"Hey there %s, welcome to the Penny Dreadful community! Be sure to set your nickname to your MTGO username, and check out <%s> if you haven't already.",
		m.User.Mention(), cfg.Decksite.BaseURL)
	if err := a.gw.SendText(ctx, cfg.Discord.GeneralChannelID, greeting); err != nil {
		a.log.Warn("welcome message failed", logx.Err(err))
		a.reportErr("member.welcome", err)
	}
}

func (a *App) onGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	cfg := a.cfgm.Get()
	if g.ID == cfg.Discord.GuildID {
		return
	}
	// GuildCreate also fires for every known guild on (re)connect; only
	// greet guilds we actually just joined.
	if time.Since(g.JoinedAt) > time.Minute {
		return
	}
	ctx, cancel := a.handlerCtx()
	defer cancel()
	channelID, err := a.gw.FirstWritableChannel(ctx, g.ID)
	if err != nil {
		a.log.Debug("no writable channel for intro", logx.String("guild", g.ID), logx.Err(err))
		return
	}
	intro := "Hi, I'm the Penny Dreadful bot. To look up cards, just mention them in square brackets (eg `[Llanowar Elves] is better than [Elvish Mystic]`)."
	if err := a.gw.SendText(ctx, channelID, intro); err != nil {
		a.log.Debug("intro message failed", logx.Err(err))
	}
}
