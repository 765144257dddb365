// Package command routes prefixed chat messages to handlers.
package command

import (
	"context"
	"strings"

	logx "pdbot/pkg/logx"
)

// Prefix starts every command invocation.
const Prefix = "!"

// Message is the platform-independent shape of an inbound chat message,
// carrying exactly what dispatch needs. Replay synthesizes these directly.
type Message struct {
	Content   string
	ChannelID string
	AuthorID  string
	AuthorBot bool
}

// Replier sends the command's response back to the channel.
type Replier interface {
	SendText(ctx context.Context, channelID, text string) error
}

// HandlerFunc handles one invocation. args is the remainder after the
// command word, unsplit.
type HandlerFunc func(ctx context.Context, msg Message, args string, reply Replier) error

// Router dispatches !-prefixed messages. Lookup is case-insensitive and
// unknown commands are ignored. Not safe for concurrent registration;
// register everything before serving.
type Router struct {
	handlers map[string]HandlerFunc
	reply    Replier
	log      logx.Logger
}

func NewRouter(reply Replier, log logx.Logger) *Router {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Router{handlers: map[string]HandlerFunc{}, reply: reply, log: log}
}

func (r *Router) Register(name string, h HandlerFunc) {
	r.handlers[strings.ToLower(name)] = h
}

// Dispatch routes msg if it is a command. Bot-authored messages and
// non-command text are ignored. Handler errors are logged, never returned
// upward: a broken command must not take the gateway handler down.
func (r *Router) Dispatch(ctx context.Context, msg Message) {
	if msg.AuthorBot {
		return
	}
	if !strings.HasPrefix(msg.Content, Prefix) {
		return
	}
	rest := strings.TrimPrefix(msg.Content, Prefix)
	name, args, _ := strings.Cut(rest, " ")
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return
	}
	h, ok := r.handlers[name]
	if !ok {
		return
	}
	if err := h(ctx, msg, strings.TrimSpace(args), r.reply); err != nil {
		r.log.Error("command failed",
			logx.String("command", name),
			logx.String("channel", msg.ChannelID),
			logx.Err(err))
	}
}
