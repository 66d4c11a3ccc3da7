package matching

import (
	"github.com/RishiKendai/textmatch/internal/models"
)

// Aggregate searches target for every pattern with the selected algorithm
// and concatenates the hits in pattern order. Overlapping and repeated hits
// are kept; Merge removes them. Every hit carries its own Text, so this is
// only for small inputs; Analyze folds hits with Sweep instead.
func Aggregate(target []rune, patterns [][]rune, algorithm Algorithm) []models.Match {
	searcher := algorithm.Searcher()

	var all []models.Match
	for _, pattern := range patterns {
		offsets := searcher.Find(target, pattern)
		all = append(all, toMatches(target, len(pattern), offsets)...)
	}

	return all
}
