package command

import (
	"context"
	"fmt"
	"strings"

	"pdbot/internal/runtime/supervisor"
	"pdbot/internal/storage"
)

// Version is stamped by the build (-ldflags "-X pdbot/internal/command.Version=...").
var Version = "dev"

// RegisterBuiltins wires the operational commands.
func RegisterBuiltins(r *Router, st storage.Store, sup *supervisor.Supervisor, rebootFlagKey string, ownerIDs []string) {
	owners := make(map[string]bool, len(ownerIDs))
	for _, id := range ownerIDs {
		owners[id] = true
	}

	r.Register("version", func(ctx context.Context, msg Message, _ string, reply Replier) error {
		return reply.SendText(ctx, msg.ChannelID, "pdbot "+Version)
	})

	r.Register("reboot", func(ctx context.Context, msg Message, _ string, reply Replier) error {
		if !owners[msg.AuthorID] {
			return nil
		}
		if st == nil {
			return reply.SendText(ctx, msg.ChannelID, "Storage is disabled, cannot schedule a reboot.")
		}
		if err := st.SetFlag(ctx, rebootFlagKey, true); err != nil {
			return fmt.Errorf("setting reboot flag: %w", err)
		}
		return reply.SendText(ctx, msg.ChannelID, "Rebooting when the watcher next polls (up to a minute).")
	})

	r.Register("status", func(ctx context.Context, msg Message, _ string, reply Replier) error {
		if !owners[msg.AuthorID] {
			return nil
		}
		snap := sup.Snapshot()
		if len(snap.Goroutines) == 0 {
			return reply.SendText(ctx, msg.ChannelID, "No background tasks registered.")
		}
		var b strings.Builder
		fmt.Fprintf(&b, "active=%d started=%d\n", snap.Counters.Active, snap.Counters.Started)
		for _, g := range snap.Goroutines {
			fmt.Fprintf(&b, "%s: started=%d panics=%d restarts=%d", g.Name, g.Started, g.Panics, g.Restarts)
			if g.LastErr != "" {
				fmt.Fprintf(&b, " last_err=%s", g.LastErr)
			}
			b.WriteString("\n")
		}
		return reply.SendText(ctx, msg.ChannelID, strings.TrimRight(b.String(), "\n"))
	})
}
