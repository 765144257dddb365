package issues

import (
	"context"
	"errors"
	"testing"

	logx "pdbot/pkg/logx"
)

func TestNewDisabled(t *testing.T) {
	for _, cfg := range []Config{
		{},
		{Enabled: true},
		{Enabled: true, Token: "x"},
		{Token: "x", Repo: "a/b"},
	} {
		r, err := New(cfg, logx.Nop())
		if err != nil {
			t.Fatalf("New(%+v): %v", cfg, err)
		}
		if r != nil {
			t.Fatalf("New(%+v) should be disabled", cfg)
		}
	}
}

func TestNewRejectsBadRepo(t *testing.T) {
	if _, err := New(Config{Enabled: true, Token: "x", Repo: "nodash"}, logx.Nop()); err == nil {
		t.Fatal("expected error for repo without owner")
	}
}

func TestNilReporterIsSafe(t *testing.T) {
	var r *Reporter
	r.ReportError(context.Background(), "notifier", errors.New("boom"))
}
