// Package roles keeps members' trophy roles in line with their site
// achievements.
package roles

import (
	"sort"
	"strings"
)

// TrophyPrefix marks roles owned by the reconciler. Roles without this
// prefix are never touched.
const TrophyPrefix = "🏆 "

// Diff computes the minimal change from held role names to expected role
// names. Only trophy-prefixed held roles are candidates for removal;
// everything else is out of our namespace and left alone.
func Diff(held []string, expected []string) (add, remove []string) {
	want := make(map[string]bool, len(expected))
	for _, name := range expected {
		want[name] = true
	}
	have := make(map[string]bool, len(held))
	for _, name := range held {
		have[name] = true
		if strings.HasPrefix(name, TrophyPrefix) && !want[name] {
			remove = append(remove, name)
		}
	}
	for _, name := range expected {
		if !have[name] {
			add = append(add, name)
		}
	}
	sort.Strings(add)
	sort.Strings(remove)
	return add, remove
}
