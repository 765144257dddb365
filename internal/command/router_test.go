package command

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	logx "pdbot/pkg/logx"
	"pdbot/internal/runtime/supervisor"
	"pdbot/internal/storage"
)

type recordingReplier struct {
	sent []string
}

func (r *recordingReplier) SendText(ctx context.Context, channelID, text string) error {
	r.sent = append(r.sent, channelID+": "+text)
	return nil
}

func TestDispatchRoutesCommand(t *testing.T) {
	reply := &recordingReplier{}
	r := NewRouter(reply, logx.Nop())

	var gotArgs string
	r.Register("bolt", func(ctx context.Context, msg Message, args string, rep Replier) error {
		gotArgs = args
		return rep.SendText(ctx, msg.ChannelID, "Lightning Bolt")
	})

	r.Dispatch(context.Background(), Message{Content: "!bolt Chain Bolt", ChannelID: "c1", AuthorID: "u1"})
	if gotArgs != "Chain Bolt" {
		t.Fatalf("args = %q, want %q", gotArgs, "Chain Bolt")
	}
	if len(reply.sent) != 1 || reply.sent[0] != "c1: Lightning Bolt" {
		t.Fatalf("sent = %v", reply.sent)
	}
}

func TestDispatchIsCaseInsensitive(t *testing.T) {
	r := NewRouter(&recordingReplier{}, logx.Nop())
	called := false
	r.Register("Version", func(context.Context, Message, string, Replier) error {
		called = true
		return nil
	})
	r.Dispatch(context.Background(), Message{Content: "!VERSION"})
	if !called {
		t.Fatal("mixed-case command not routed")
	}
}

func TestDispatchIgnores(t *testing.T) {
	r := NewRouter(&recordingReplier{}, logx.Nop())
	r.Register("bolt", func(context.Context, Message, string, Replier) error {
		t.Fatal("should not be called")
		return nil
	})
	r.Dispatch(context.Background(), Message{Content: "!bolt", AuthorBot: true})
	r.Dispatch(context.Background(), Message{Content: "bolt"})
	r.Dispatch(context.Background(), Message{Content: "!unknown"})
	r.Dispatch(context.Background(), Message{Content: "!"})
}

func TestRebootCommandOwnerGated(t *testing.T) {
	st, err := storage.Open(storage.Config{Driver: "file", Path: filepath.Join(t.TempDir(), "bot.db")}, logx.Nop())
	if err != nil {
		t.Fatalf("storage: %v", err)
	}
	defer st.Close()

	reply := &recordingReplier{}
	r := NewRouter(reply, logx.Nop())
	sup := supervisor.NewSupervisor(context.Background(), supervisor.WithLogger(logx.Nop()))
	RegisterBuiltins(r, st, sup, "pdbot:do_reboot", []string{"owner1"})

	ctx := context.Background()
	r.Dispatch(ctx, Message{Content: "!reboot", AuthorID: "rando", ChannelID: "c1"})
	if on, _ := st.GetFlag(ctx, "pdbot:do_reboot"); on {
		t.Fatal("non-owner set the reboot flag")
	}
	if len(reply.sent) != 0 {
		t.Fatalf("non-owner got a reply: %v", reply.sent)
	}

	r.Dispatch(ctx, Message{Content: "!reboot", AuthorID: "owner1", ChannelID: "c1"})
	if on, _ := st.GetFlag(ctx, "pdbot:do_reboot"); !on {
		t.Fatal("owner reboot did not set the flag")
	}
	if len(reply.sent) != 1 {
		t.Fatalf("sent = %v", reply.sent)
	}
}

func TestVersionCommand(t *testing.T) {
	reply := &recordingReplier{}
	r := NewRouter(reply, logx.Nop())
	sup := supervisor.NewSupervisor(context.Background(), supervisor.WithLogger(logx.Nop()))
	RegisterBuiltins(r, nil, sup, "pdbot:do_reboot", nil)

	r.Dispatch(context.Background(), Message{Content: "!version", AuthorID: "anyone", ChannelID: "c1"})
	if len(reply.sent) != 1 || !strings.HasPrefix(reply.sent[0], "c1: pdbot ") {
		t.Fatalf("sent = %v", reply.sent)
	}
}
