package matching

import (
	"sort"

	"github.com/RishiKendai/textmatch/internal/models"
)

// Merge coalesces overlapping or touching matches into the minimal set of
// disjoint spans, sorted by index. The input slice is left untouched.
func Merge(matches []models.Match) []models.Match {
	if len(matches) == 0 {
		return []models.Match{}
	}

	sorted := make([]models.Match, len(matches))
	copy(sorted, matches)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Index < sorted[j].Index
	})

	merged := make([]models.Match, 0, len(sorted))
	current := sorted[0]
	for _, next := range sorted[1:] {
		if next.Index > current.End() {
			merged = append(merged, current)
			current = next
			continue
		}
		current = extend(current, next)
	}
	merged = append(merged, current)

	return merged
}

// extend grows current so it also covers next; next must start at or before current's end
func extend(current, next models.Match) models.Match {
	if next.End() <= current.End() {
		return current
	}

	tail := []rune(next.Text)
	overlap := current.End() - next.Index
	if overlap >= 0 && overlap <= len(tail) {
		current.Text += string(tail[overlap:])
	}
	current.Length = next.End() - current.Index

	return current
}

// CoveredLength returns the total number of runes covered by merged spans
func CoveredLength(merged []models.Match) int {
	total := 0
	for _, m := range merged {
		total += m.Length
	}
	return total
}
