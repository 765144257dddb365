package replay

import (
	"reflect"
	"testing"
)

func TestParseDisambiguation(t *testing.T) {
	d, ok := Parse("Ambiguous name for bolt. Suggestions: :a: Lightning Bolt :b: Chain Bolt ")
	if !ok {
		t.Fatal("expected a parse")
	}
	if d.Command != "bolt" {
		t.Fatalf("command = %q, want bolt", d.Command)
	}
	if !reflect.DeepEqual(d.Candidates, []string{"Lightning Bolt", "Chain Bolt"}) {
		t.Fatalf("candidates = %v", d.Candidates)
	}
}

func TestParseRejectsOtherMessages(t *testing.T) {
	for _, content := range []string{
		"",
		"Lightning Bolt deals 3 damage.",
		"Ambiguous name for bolt. Suggestions: ", // no candidates
	} {
		if _, ok := Parse(content); ok {
			t.Errorf("Parse(%q) unexpectedly matched", content)
		}
	}
}

func TestResolve(t *testing.T) {
	d, ok := Parse("Ambiguous name for bolt. Suggestions: :a: Lightning Bolt :b: Chain Bolt ")
	if !ok {
		t.Fatal("expected a parse")
	}
	tests := []struct {
		emoji string
		want  string
		ok    bool
	}{
		{"1️⃣", "!bolt Lightning Bolt", true},
		{"2️⃣", "!bolt Chain Bolt", true},
		{"2⃣", "!bolt Chain Bolt", true}, // no variation selector
		{"3️⃣", "", false},          // out of bounds, silent no-op
		{"❎", "", false},
		{"👍", "", false},
	}
	for _, tt := range tests {
		got, ok := d.Resolve(tt.emoji)
		if ok != tt.ok || got != tt.want {
			t.Errorf("Resolve(%q) = %q, %v; want %q, %v", tt.emoji, got, ok, tt.want, tt.ok)
		}
	}
}

func TestShouldDelete(t *testing.T) {
	tests := []struct {
		name       string
		authorID   string
		emoji      string
		count      int
		botReacted bool
		want       bool
	}{
		{"human cancel on bot message", "bot", CancelEmoji, 1, false, true},
		{"only the bot's own seed reaction", "bot", CancelEmoji, 1, true, false},
		{"human plus bot seed", "bot", CancelEmoji, 2, true, true},
		{"not our message", "someone", CancelEmoji, 3, false, false},
		{"wrong emoji", "bot", "👍", 3, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ShouldDelete(tt.authorID, "bot", tt.emoji, tt.count, tt.botReacted)
			if got != tt.want {
				t.Fatalf("ShouldDelete = %v, want %v", got, tt.want)
			}
		})
	}
}
