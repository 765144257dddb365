// Package replay turns reactions on bot messages back into commands.
package replay

import (
	"regexp"
	"strings"
)

// CancelEmoji marks a bot message for self-service deletion.
const CancelEmoji = "❎"

var (
	ambiguousPattern = regexp.MustCompile(`Ambiguous name for ([^.]*)\. Suggestions: (.*)`)
	candidatePattern = regexp.MustCompile(`:[^:]*?: ([^:]*) `)
)

// numberIndex maps the keycap glyphs to 1-based candidate positions. Clients
// report keycaps with or without the variation selector so both spellings
// appear.
var numberIndex = map[string]int{
	"1️⃣": 1, "1⃣": 1,
	"2️⃣": 2, "2⃣": 2,
	"3️⃣": 3, "3⃣": 3,
	"4️⃣": 4, "4⃣": 4,
	"5️⃣": 5, "5⃣": 5,
}

// ShouldDelete reports whether a cancel reaction warrants deleting one of
// our own messages. count is the total number of cancel reactions on the
// message and botReacted whether we seeded the reaction ourselves; the net
// non-bot count has to be positive.
func ShouldDelete(authorID, botUserID, emoji string, count int, botReacted bool) bool {
	if authorID != botUserID || emoji != CancelEmoji {
		return false
	}
	if botReacted {
		count--
	}
	return count > 0
}

// Disambiguation is the choice context recovered from an ambiguous-name
// prompt. It lives only for the duration of one reaction event.
type Disambiguation struct {
	Command    string
	Candidates []string
}

// Parse recovers the command and ordered candidates from a bot prompt like
//
//	Ambiguous name for bolt. Suggestions: :one: Lightning Bolt :two: Chain Bolt
//
// Returns false when the message is not an ambiguity prompt.
func Parse(content string) (Disambiguation, bool) {
	m := ambiguousPattern.FindStringSubmatch(content)
	if m == nil {
		return Disambiguation{}, false
	}
	var candidates []string
	for _, cm := range candidatePattern.FindAllStringSubmatch(m[2]+" ", -1) {
		name := strings.TrimSpace(cm[1])
		if name != "" {
			candidates = append(candidates, name)
		}
	}
	if len(candidates) == 0 {
		return Disambiguation{}, false
	}
	return Disambiguation{Command: m[1], Candidates: candidates}, true
}

// Resolve maps a reaction emoji to the synthesized command for the chosen
// candidate. Emojis outside the keycap set or past the candidate list
// resolve to nothing, by design a silent no-op.
func (d Disambiguation) Resolve(emoji string) (string, bool) {
	idx, ok := numberIndex[emoji]
	if !ok {
		return "", false
	}
	if idx > len(d.Candidates) {
		return "", false
	}
	return "!" + d.Command + " " + d.Candidates[idx-1], true
}
