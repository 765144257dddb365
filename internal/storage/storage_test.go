package storage

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	logx "pdbot/pkg/logx"
)

func drivers(t *testing.T) map[string]Config {
	t.Helper()
	dir := t.TempDir()
	return map[string]Config{
		"file":   {Driver: "file", Path: filepath.Join(dir, "bot.db")},
		"sqlite": {Driver: "sqlite", Path: filepath.Join(dir, "bot.sqlite"), BusyTimeout: time.Second},
	}
}

func TestOpenDisabled(t *testing.T) {
	st, err := Open(Config{}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if st != nil {
		t.Fatalf("expected nil store when disabled")
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	if _, err := Open(Config{Driver: "redis"}, logx.Nop()); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}

func TestDedupRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, cfg := range drivers(t) {
		t.Run(name, func(t *testing.T) {
			st, err := Open(cfg, logx.Nop())
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			defer st.Close()

			if _, ok, err := st.GetDedup(ctx, "notify:t:100"); err != nil || ok {
				t.Fatalf("GetDedup before put: ok=%v err=%v", ok, err)
			}
			until := time.Now().Add(time.Hour).Truncate(time.Millisecond)
			if err := st.PutDedup(ctx, "notify:t:100", until); err != nil {
				t.Fatalf("PutDedup: %v", err)
			}
			got, ok, err := st.GetDedup(ctx, "notify:t:100")
			if err != nil || !ok {
				t.Fatalf("GetDedup after put: ok=%v err=%v", ok, err)
			}
			if !got.Equal(until) {
				t.Fatalf("until = %v, want %v", got, until)
			}
		})
	}
}

func TestDedupExpiredKeyReadsAbsent(t *testing.T) {
	ctx := context.Background()
	for name, cfg := range drivers(t) {
		t.Run(name, func(t *testing.T) {
			st, err := Open(cfg, logx.Nop())
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			defer st.Close()

			if err := st.PutDedup(ctx, "notify:t:done", time.Now().Add(-time.Second)); err != nil {
				t.Fatalf("PutDedup: %v", err)
			}
			if _, ok, err := st.GetDedup(ctx, "notify:t:done"); err != nil || ok {
				t.Fatalf("expired key should read as absent: ok=%v err=%v", ok, err)
			}

			// A key crossing its expiry between writes behaves the same.
			if err := st.PutDedup(ctx, "notify:t:soon", time.Now().Add(30*time.Millisecond)); err != nil {
				t.Fatalf("PutDedup: %v", err)
			}
			if _, ok, err := st.GetDedup(ctx, "notify:t:soon"); err != nil || !ok {
				t.Fatalf("live key should read as present: ok=%v err=%v", ok, err)
			}
			time.Sleep(50 * time.Millisecond)
			if _, ok, err := st.GetDedup(ctx, "notify:t:soon"); err != nil || ok {
				t.Fatalf("key past expiry should read as absent: ok=%v err=%v", ok, err)
			}
		})
	}
}

func TestFlagSetClear(t *testing.T) {
	ctx := context.Background()
	for name, cfg := range drivers(t) {
		t.Run(name, func(t *testing.T) {
			st, err := Open(cfg, logx.Nop())
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			defer st.Close()

			if on, err := st.GetFlag(ctx, "pdbot:do_reboot"); err != nil || on {
				t.Fatalf("GetFlag initial: on=%v err=%v", on, err)
			}
			if err := st.SetFlag(ctx, "pdbot:do_reboot", true); err != nil {
				t.Fatalf("SetFlag: %v", err)
			}
			if on, err := st.GetFlag(ctx, "pdbot:do_reboot"); err != nil || !on {
				t.Fatalf("GetFlag after set: on=%v err=%v", on, err)
			}
			if err := st.SetFlag(ctx, "pdbot:do_reboot", false); err != nil {
				t.Fatalf("SetFlag clear: %v", err)
			}
			if on, err := st.GetFlag(ctx, "pdbot:do_reboot"); err != nil || on {
				t.Fatalf("GetFlag after clear: on=%v err=%v", on, err)
			}
		})
	}
}

func TestBlobRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, cfg := range drivers(t) {
		t.Run(name, func(t *testing.T) {
			st, err := Open(cfg, logx.Nop())
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			defer st.Close()

			if _, ok, err := st.GetBlob(ctx, "titles"); err != nil || ok {
				t.Fatalf("GetBlob before put: ok=%v err=%v", ok, err)
			}
			want := []byte(`{"tournament_winner":"Tournament Winner"}`)
			if err := st.PutBlob(ctx, "titles", want); err != nil {
				t.Fatalf("PutBlob: %v", err)
			}
			got, ok, err := st.GetBlob(ctx, "titles")
			if err != nil || !ok {
				t.Fatalf("GetBlob after put: ok=%v err=%v", ok, err)
			}
			if !bytes.Equal(got, want) {
				t.Fatalf("blob = %q, want %q", got, want)
			}
		})
	}
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	cfg := Config{Driver: "file", Path: filepath.Join(t.TempDir(), "bot.db")}

	st, err := Open(cfg, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	until := time.Now().Add(2 * time.Hour).Truncate(time.Millisecond)
	if err := st.PutDedup(ctx, "notify:league:42", until); err != nil {
		t.Fatalf("PutDedup: %v", err)
	}
	if err := st.SetFlag(ctx, "pdbot:do_reboot", true); err != nil {
		t.Fatalf("SetFlag: %v", err)
	}
	if err := st.PutBlob(ctx, "bugged", []byte("cards")); err != nil {
		t.Fatalf("PutBlob: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	st, err = Open(cfg, logx.Nop())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer st.Close()

	got, ok, err := st.GetDedup(ctx, "notify:league:42")
	if err != nil || !ok || !got.Equal(until) {
		t.Fatalf("dedup after reopen: %v ok=%v err=%v", got, ok, err)
	}
	if on, err := st.GetFlag(ctx, "pdbot:do_reboot"); err != nil || !on {
		t.Fatalf("flag after reopen: on=%v err=%v", on, err)
	}
	if b, ok, err := st.GetBlob(ctx, "bugged"); err != nil || !ok || string(b) != "cards" {
		t.Fatalf("blob after reopen: %q ok=%v err=%v", b, ok, err)
	}
}

func TestFileStoreDropsExpiredDedupOnReopen(t *testing.T) {
	ctx := context.Background()
	cfg := Config{Driver: "file", Path: filepath.Join(t.TempDir(), "bot.db")}

	st, err := Open(cfg, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := st.PutDedup(ctx, "notify:t:old", time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("PutDedup: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	st, err = Open(cfg, logx.Nop())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer st.Close()
	if _, ok, err := st.GetDedup(ctx, "notify:t:old"); err != nil || ok {
		t.Fatalf("expired key survived reopen: ok=%v err=%v", ok, err)
	}
}
