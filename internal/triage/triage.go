// Package triage groups and filters scan log entries by triage level.
//
// Triage levels are an open set discovered at parse time ("Red", "Yellow",
// "Green", ...). Comparison is exact and case-sensitive: "Red" and "red"
// are distinct levels. All functions here are pure; they may be called
// repeatedly with different selections against the same entries without
// re-parsing.
package triage

import "github.com/snaffler-consolidator/backend/internal/models"

// Aggregate counts entries grouped by their exact triage level. Levels with
// no entries do not appear in the result; the known set of levels is derived
// entirely from the entries themselves.
func Aggregate(entries []models.LogEntry) map[string]int {
	counts := make(map[string]int)
	for _, e := range entries {
		counts[e.TriageLevel]++
	}
	return counts
}

// Levels returns the distinct triage levels in first-seen order, which is
// the order used for stable dashboard display.
func Levels(entries []models.LogEntry) []string {
	seen := make(map[string]struct{})
	levels := make([]string, 0)
	for _, e := range entries {
		if _, ok := seen[e.TriageLevel]; ok {
			continue
		}
		seen[e.TriageLevel] = struct{}{}
		levels = append(levels, e.TriageLevel)
	}
	return levels
}

// Filter returns the entries whose triage level is in selected, preserving
// input order. An empty selection means "no filter applied" and returns all
// entries unchanged; it does NOT mean "exclude everything". This is the
// documented policy of the format's original consolidator and is relied on
// by the export flow.
func Filter(entries []models.LogEntry, selected []string) []models.LogEntry {
	if len(selected) == 0 {
		return entries
	}

	want := make(map[string]struct{}, len(selected))
	for _, lvl := range selected {
		want[lvl] = struct{}{}
	}

	out := make([]models.LogEntry, 0)
	for _, e := range entries {
		if _, ok := want[e.TriageLevel]; ok {
			out = append(out, e)
		}
	}
	return out
}
