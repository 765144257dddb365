// Package rotation reads rotation-run progress and composes hype messages.
package rotation

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"
	"time"
)

// Card is one card's standing partway through a rotation.
type Card struct {
	Name         string `json:"name"`
	HitInLastRun bool   `json:"hit_in_last_run"`
	Hits         int    `json:"hits"`
	Status       string `json:"status"` // "Legal" | "Not Legal" | "Undecided"
	HitsNeeded   int    `json:"hits_needed"`
}

// Progress is the state written out by the rotation script after each run.
type Progress struct {
	Runs  int    `json:"runs"`
	Cards []Card `json:"cards"`
}

// ReadProgress loads the progress summary file.
func ReadProgress(path string) (Progress, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Progress{}, err
	}
	var p Progress
	if err := json.Unmarshal(b, &p); err != nil {
		return Progress{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return p, nil
}

// LastRunTime reports when the progress file was last written, or zero time
// when the file does not exist yet.
func LastRunTime(path string) (time.Time, error) {
	fi, err := os.Stat(path)
	if os.IsNotExist(err) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return fi.ModTime(), nil
}

// Percent is the completion percentage of the rotation, rounded to nearest.
func Percent(runs, totalRuns int) int {
	if totalRuns <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(runs) / float64(totalRuns)))
}

// HypeMessage composes the post-run announcement. Returns ("", false) when
// the run is too uninteresting to announce.
//
// A run is announced when any card newly hit for the first time, newly
// confirmed legal, or was newly eliminated, or when the run number is 1, a
// multiple of 5, or past the halfway point.
func HypeMessage(p Progress, totalRuns int, siteURL string) (string, bool) {
	runs := p.Runs
	runsRemaining := totalRuns - runs
	percent := Percent(runs, totalRuns)

	var newlyLegal, newlyEliminated, newlyHit []string
	undecided, legal := 0, 0
	for _, c := range p.Cards {
		switch c.Status {
		case "Undecided":
			undecided++
		case "Legal":
			legal++
		}
		if c.HitInLastRun && c.Hits*2 == totalRuns {
			newlyLegal = append(newlyLegal, c.Name)
		}
		if !c.HitInLastRun && c.Status == "Not Legal" && c.HitsNeeded == runsRemaining+1 {
			newlyEliminated = append(newlyEliminated, c.Name)
		}
		if c.HitInLastRun && c.Hits == 1 {
			newlyHit = append(newlyHit, c.Name)
		}
	}

	nothingNotable := len(newlyHit)+len(newlyLegal)+len(newlyEliminated) == 0
	if nothingNotable && runs != 1 && runs%5 != 0 && runs*2 < totalRuns {
		return "", false
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Rotation run number %d completed. Rotation is %d%% complete. %d cards confirmed.", runs, percent, legal)
	if len(newlyHit) > 0 && runsRemaining > runs {
		fmt.Fprintf(&b, "\nFirst hit for: %s.", ListOfMostInteresting(newlyHit))
	}
	if len(newlyLegal) > 0 {
		fmt.Fprintf(&b, "\nConfirmed legal: %s.", ListOfMostInteresting(newlyLegal))
	}
	if len(newlyEliminated) > 0 {
		fmt.Fprintf(&b, "\nEliminated: %s.", ListOfMostInteresting(newlyEliminated))
	}
	fmt.Fprintf(&b, "\nUndecided: %d.\n", undecided)
	if percent >= 50 {
		fmt.Fprintf(&b, "<%s/rotation/>", strings.TrimRight(siteURL, "/"))
	}
	return b.String(), true
}

// ListOfMostInteresting renders up to four names, then a count of the rest.
func ListOfMostInteresting(names []string) string {
	const maxShown = 4
	if len(names) > maxShown {
		return strings.Join(names[:maxShown], ", ") + fmt.Sprintf(" and %d more", len(names)-maxShown)
	}
	return strings.Join(names, ", ")
}
