package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/bwmarrin/discordgo"

	logx "pdbot/pkg/logx"
)

// ResolutionError means a configured id does not resolve to a usable
// entity. It is permanent for the process lifetime; callers disable
// themselves rather than retry.
type ResolutionError struct {
	Kind string // "channel", "guild"
	ID   string
	Why  string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("cannot resolve %s %s: %s", e.Kind, e.ID, e.Why)
}

// Gateway is the outbound half of the platform boundary, bound to one guild.
type Gateway struct {
	s       Session
	guildID string
	log     logx.Logger
}

func NewGateway(s Session, guildID string, log logx.Logger) *Gateway {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Gateway{s: s, guildID: guildID, log: log}
}

// SendText satisfies both the command replier and the log sink.
func (g *Gateway) SendText(ctx context.Context, channelID, text string) error {
	_, err := g.s.ChannelMessageSend(channelID, text, discordgo.WithContext(ctx))
	return err
}

// SendEmbed posts a rich embed.
func (g *Gateway) SendEmbed(ctx context.Context, channelID string, embed *discordgo.MessageEmbed) error {
	_, err := g.s.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{Embeds: []*discordgo.MessageEmbed{embed}}, discordgo.WithContext(ctx))
	return err
}

// DeleteMessage removes a message. An already-gone message is not an error.
func (g *Gateway) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	err := g.s.ChannelMessageDelete(channelID, messageID, discordgo.WithContext(ctx))
	if IsNotFound(err) {
		return nil
	}
	return err
}

// Message fetches a single message.
func (g *Gateway) Message(ctx context.Context, channelID, messageID string) (*discordgo.Message, error) {
	return g.s.ChannelMessage(channelID, messageID, discordgo.WithContext(ctx))
}

// ResolveTextChannel verifies the id names a text-capable channel.
func (g *Gateway) ResolveTextChannel(ctx context.Context, channelID string) error {
	if channelID == "" {
		return &ResolutionError{Kind: "channel", ID: channelID, Why: "not configured"}
	}
	ch, err := g.s.Channel(channelID, discordgo.WithContext(ctx))
	if err != nil {
		return &ResolutionError{Kind: "channel", ID: channelID, Why: err.Error()}
	}
	switch ch.Type {
	case discordgo.ChannelTypeGuildText, discordgo.ChannelTypeGuildNews, discordgo.ChannelTypeDM:
		return nil
	}
	return &ResolutionError{Kind: "channel", ID: channelID, Why: "not a text channel"}
}

// FirstWritableChannel returns the first guild text channel, used for the
// introduction message when the bot joins a new guild.
func (g *Gateway) FirstWritableChannel(ctx context.Context, guildID string) (string, error) {
	chans, err := g.s.GuildChannels(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return "", err
	}
	for _, ch := range chans {
		if ch.Type == discordgo.ChannelTypeGuildText {
			return ch.ID, nil
		}
	}
	return "", &ResolutionError{Kind: "guild", ID: guildID, Why: "no text channels"}
}

// Roles implements roles.GuildRoleOps.
func (g *Gateway) Roles(ctx context.Context) (map[string]string, error) {
	all, err := g.s.GuildRoles(g.guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(all))
	for _, r := range all {
		out[r.Name] = r.ID
	}
	return out, nil
}

func (g *Gateway) CreateRole(ctx context.Context, name string) (string, error) {
	r, err := g.s.GuildRoleCreate(g.guildID, &discordgo.RoleParams{Name: name}, discordgo.WithContext(ctx))
	if err != nil {
		return "", err
	}
	return r.ID, nil
}

func (g *Gateway) MemberRoleIDs(ctx context.Context, userID string) ([]string, error) {
	m, err := g.s.GuildMember(g.guildID, userID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	return m.Roles, nil
}

func (g *Gateway) SetMemberRoles(ctx context.Context, userID string, roleIDs []string) error {
	_, err := g.s.GuildMemberEdit(g.guildID, userID, &discordgo.GuildMemberParams{Roles: &roleIDs}, discordgo.WithContext(ctx))
	return err
}

// IsNotFound reports whether err is the platform's 404.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	var rerr *discordgo.RESTError
	if errors.As(err, &rerr) && rerr.Response != nil {
		return rerr.Response.StatusCode == http.StatusNotFound
	}
	return false
}
