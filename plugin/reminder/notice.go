package reminder

import (
	"sort"
	"strings"
)

// Advance-notice policy: maps importance, category and detected keywords to
// a ranked list of advance-warning offsets in hours, most-advance-first.

const maxAdvanceOffsets = 5

// importanceOffsets is the base table keyed by importance breakpoints.
var importanceOffsets = []struct {
	min, max int
	offsets  []float64
	priority Priority
}{
	{9, 10, []float64{24, 12, 6, 2, 1}, PriorityCritical},
	{7, 8, []float64{12, 6, 2, 1}, PriorityHigh},
	{5, 6, []float64{6, 2, 1}, PriorityMedium},
	{1, 4, []float64{2, 1}, PriorityLow},
}

// categoryOffsets are additive adjustments by subject category.
var categoryOffsets = map[string][]float64{
	"work":     {48, 24},
	"reminder": {0.5, 0.25},
}

// keywordOffsets are additive adjustments by detected keyword groups.
var keywordOffsets = []struct {
	words   []string
	offsets []float64
}{
	{[]string{"meeting", "appointment", "interview"}, []float64{1, 0.5}},
	{[]string{"deadline", "due", "submit"}, []float64{24, 12}},
	{[]string{"call", "phone"}, []float64{0.25, 0.083}},
}

// AdvanceOffsets returns the candidate advance-notice offsets in hours for
// the given importance, category and content, de-duplicated, sorted
// descending and capped at five entries.
func AdvanceOffsets(importance int, category, content string) []float64 {
	offsets := baseOffsets(importance)

	if extra, ok := categoryOffsets[strings.ToLower(category)]; ok {
		offsets = append(offsets, extra...)
	}

	lower := strings.ToLower(content)
	for _, group := range keywordOffsets {
		for _, w := range group.words {
			if strings.Contains(lower, w) {
				offsets = append(offsets, group.offsets...)
				break
			}
		}
	}

	seen := make(map[float64]bool, len(offsets))
	out := offsets[:0]
	for _, o := range offsets {
		if !seen[o] {
			seen[o] = true
			out = append(out, o)
		}
	}

	sort.Sort(sort.Reverse(sort.Float64Slice(out)))
	if len(out) > maxAdvanceOffsets {
		out = out[:maxAdvanceOffsets]
	}
	return out
}

// PriorityFor derives the priority label from importance alone, using the
// same breakpoints as the base offset table.
func PriorityFor(importance int) Priority {
	for _, row := range importanceOffsets {
		if importance >= row.min && importance <= row.max {
			return row.priority
		}
	}
	return PriorityLow
}

func baseOffsets(importance int) []float64 {
	for _, row := range importanceOffsets {
		if importance >= row.min && importance <= row.max {
			out := make([]float64, len(row.offsets))
			copy(out, row.offsets)
			return out
		}
	}
	// Out-of-range importance clamps to the lowest band.
	return []float64{2, 1}
}
