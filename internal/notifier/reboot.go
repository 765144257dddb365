package notifier

import (
	"context"
	"time"

	logx "pdbot/pkg/logx"
	"pdbot/internal/storage"
)

// RebootWatch polls a storage flag an operator can set to request a
// restart. The one genuinely fixed-interval loop here: its trigger is an
// external signal, not a countdown.
type RebootWatch struct {
	Store   storage.Store
	FlagKey string
	Poll    time.Duration // default one minute

	// Trigger requests a graceful shutdown of the process.
	Trigger func()

	Log logx.Logger
}

func (w *RebootWatch) Run(ctx context.Context) error {
	if w.Store == nil {
		w.Log.Warn("storage disabled, reboot watch not running")
		return nil
	}
	poll := w.Poll
	if poll <= 0 {
		poll = time.Minute
	}
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		on, err := w.Store.GetFlag(ctx, w.FlagKey)
		if err != nil {
			w.Log.Warn("reading reboot flag failed", logx.Err(err))
			continue
		}
		if !on {
			continue
		}
		// Clear first so the next process boot does not loop.
		if err := w.Store.SetFlag(ctx, w.FlagKey, false); err != nil {
			w.Log.Error("clearing reboot flag failed, not rebooting", logx.Err(err))
			continue
		}
		w.Log.Info("reboot requested, shutting down", logx.String("flag", w.FlagKey))
		w.Trigger()
		return nil
	}
}
