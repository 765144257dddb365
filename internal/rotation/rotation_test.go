package rotation

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestHypeMessageSuppressed(t *testing.T) {
	p := Progress{Runs: 3, Cards: []Card{
		{Name: "Counterspell", Hits: 3, Status: "Undecided", HitsNeeded: 47},
	}}
	if msg, ok := HypeMessage(p, 100, "https://pennydreadfulmagic.com"); ok {
		t.Fatalf("expected suppression, got %q", msg)
	}
}

func TestHypeMessageEmittedOnMultipleOfFive(t *testing.T) {
	p := Progress{Runs: 5, Cards: []Card{
		{Name: "Counterspell", Hits: 5, Status: "Undecided", HitsNeeded: 45},
		{Name: "Dark Ritual", Hits: 0, Status: "Undecided", HitsNeeded: 50},
	}}
	msg, ok := HypeMessage(p, 100, "https://pennydreadfulmagic.com")
	if !ok {
		t.Fatal("expected emission on run 5")
	}
	if !strings.Contains(msg, "Rotation run number 5 completed. Rotation is 5% complete. 0 cards confirmed.") {
		t.Fatalf("missing base line: %q", msg)
	}
	if !strings.Contains(msg, "Undecided: 2.") {
		t.Fatalf("missing undecided count: %q", msg)
	}
	if strings.Contains(msg, "/rotation/") {
		t.Fatalf("link should be absent below 50%%: %q", msg)
	}
}

func TestHypeMessageFirstRun(t *testing.T) {
	p := Progress{Runs: 1}
	if _, ok := HypeMessage(p, 100, ""); !ok {
		t.Fatal("run 1 is always announced")
	}
}

func TestHypeMessageNewlyLegal(t *testing.T) {
	p := Progress{Runs: 50, Cards: []Card{
		{Name: "Lava Spike", HitInLastRun: true, Hits: 50, Status: "Legal"},
	}}
	msg, ok := HypeMessage(p, 100, "https://pennydreadfulmagic.com")
	if !ok {
		t.Fatal("expected emission")
	}
	if !strings.Contains(msg, "Confirmed legal: Lava Spike.") {
		t.Fatalf("missing confirmed legal line: %q", msg)
	}
	if !strings.Contains(msg, "<https://pennydreadfulmagic.com/rotation/>") {
		t.Fatalf("missing link at 50%%: %q", msg)
	}
}

func TestHypeMessageNewlyEliminated(t *testing.T) {
	// 100 total, 40 done, 60 remaining: a card needing 61 more hits is out.
	p := Progress{Runs: 40, Cards: []Card{
		{Name: "Gush", Status: "Not Legal", Hits: 0, HitsNeeded: 61},
	}}
	msg, ok := HypeMessage(p, 100, "")
	if !ok {
		t.Fatal("expected emission")
	}
	if !strings.Contains(msg, "Eliminated: Gush.") {
		t.Fatalf("missing eliminated line: %q", msg)
	}
}

func TestHypeMessageFirstHitOnlyEarly(t *testing.T) {
	// Past the halfway point first hits are no longer worth a line.
	p := Progress{Runs: 60, Cards: []Card{
		{Name: "Ponder", HitInLastRun: true, Hits: 1, Status: "Undecided", HitsNeeded: 49},
	}}
	msg, ok := HypeMessage(p, 100, "")
	if !ok {
		t.Fatal("expected emission")
	}
	if strings.Contains(msg, "First hit for:") {
		t.Fatalf("first-hit line should be dropped late in the rotation: %q", msg)
	}

	p.Runs = 10
	p.Cards[0].HitsNeeded = 49
	msg, _ = HypeMessage(p, 100, "")
	if !strings.Contains(msg, "First hit for: Ponder.") {
		t.Fatalf("missing first-hit line early in the rotation: %q", msg)
	}
}

func TestListOfMostInteresting(t *testing.T) {
	tests := []struct {
		in   []string
		want string
	}{
		{nil, ""},
		{[]string{"A"}, "A"},
		{[]string{"A", "B", "C", "D"}, "A, B, C, D"},
		{[]string{"A", "B", "C", "D", "E"}, "A, B, C, D and 1 more"},
		{[]string{"A", "B", "C", "D", "E", "F", "G"}, "A, B, C, D and 3 more"},
	}
	for _, tt := range tests {
		if got := ListOfMostInteresting(tt.in); got != tt.want {
			t.Errorf("ListOfMostInteresting(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPercent(t *testing.T) {
	if got := Percent(84, 168); got != 50 {
		t.Fatalf("Percent(84,168) = %d, want 50", got)
	}
	if got := Percent(1, 3); got != 33 {
		t.Fatalf("Percent(1,3) = %d, want 33", got)
	}
	if got := Percent(5, 0); got != 0 {
		t.Fatalf("Percent(5,0) = %d, want 0", got)
	}
}

func TestReadProgressAndLastRunTime(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.json")

	if ts, err := LastRunTime(path); err != nil || !ts.IsZero() {
		t.Fatalf("LastRunTime missing file: %v %v", ts, err)
	}

	data := `{"runs":7,"cards":[{"name":"Gush","hit_in_last_run":true,"hits":3,"status":"Undecided","hits_needed":47}]}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	p, err := ReadProgress(path)
	if err != nil {
		t.Fatalf("ReadProgress: %v", err)
	}
	if p.Runs != 7 || len(p.Cards) != 1 || p.Cards[0].Name != "Gush" {
		t.Fatalf("unexpected progress: %+v", p)
	}

	ts, err := LastRunTime(path)
	if err != nil {
		t.Fatalf("LastRunTime: %v", err)
	}
	if time.Since(ts) > time.Minute {
		t.Fatalf("mtime too old: %v", ts)
	}
}
