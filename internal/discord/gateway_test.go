package discord

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/bwmarrin/discordgo"

	logx "pdbot/pkg/logx"
)

type fakeSession struct {
	Session

	channels map[string]*discordgo.Channel
	deleted  []string
	delErr   error
}

func (f *fakeSession) Channel(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error) {
	ch, ok := f.channels[channelID]
	if !ok {
		return nil, errors.New("unknown channel")
	}
	return ch, nil
}

func (f *fakeSession) ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error {
	if f.delErr != nil {
		return f.delErr
	}
	f.deleted = append(f.deleted, messageID)
	return nil
}

func TestResolveTextChannel(t *testing.T) {
	g := NewGateway(&fakeSession{channels: map[string]*discordgo.Channel{
		"text":  {ID: "text", Type: discordgo.ChannelTypeGuildText},
		"voice": {ID: "voice", Type: discordgo.ChannelTypeGuildVoice},
	}}, "guild", logx.Nop())

	ctx := context.Background()
	if err := g.ResolveTextChannel(ctx, "text"); err != nil {
		t.Fatalf("text channel: %v", err)
	}

	var rerr *ResolutionError
	if err := g.ResolveTextChannel(ctx, "voice"); !errors.As(err, &rerr) {
		t.Fatalf("voice channel err = %v, want ResolutionError", err)
	}
	if err := g.ResolveTextChannel(ctx, "missing"); !errors.As(err, &rerr) {
		t.Fatalf("missing channel err = %v, want ResolutionError", err)
	}
	if err := g.ResolveTextChannel(ctx, ""); !errors.As(err, &rerr) {
		t.Fatalf("empty id err = %v, want ResolutionError", err)
	}
}

func TestDeleteMessageNotFoundIsBenign(t *testing.T) {
	fs := &fakeSession{delErr: &discordgo.RESTError{
		Response: &http.Response{StatusCode: http.StatusNotFound},
	}}
	g := NewGateway(fs, "guild", logx.Nop())
	if err := g.DeleteMessage(context.Background(), "c", "m"); err != nil {
		t.Fatalf("DeleteMessage on gone message: %v", err)
	}
}

func TestDeleteMessageOtherErrorsSurface(t *testing.T) {
	fs := &fakeSession{delErr: &discordgo.RESTError{
		Response: &http.Response{StatusCode: http.StatusForbidden},
	}}
	g := NewGateway(fs, "guild", logx.Nop())
	if err := g.DeleteMessage(context.Background(), "c", "m"); err == nil {
		t.Fatal("expected error for non-404 failure")
	}
}
