package matching

import (
	"github.com/RishiKendai/textmatch/internal/models"
)

// Coverage folds raw hits into the furthest end reached from each target
// offset. Memory is one int per target rune however many hits arrive, and
// Spans yields exactly what Merge would over the same hits.
type Coverage struct {
	target []rune
	reach  []int // reach[i] is the furthest hit end starting at i, 0 for none
	hits   int
}

func NewCoverage(target []rune) *Coverage {
	return &Coverage{
		target: target,
		reach:  make([]int, len(target)),
	}
}

// Add records a hit of length runes at each offset
func (c *Coverage) Add(offsets []int, length int) {
	if length <= 0 {
		return
	}
	for _, idx := range offsets {
		if idx < 0 || idx+length > len(c.target) {
			continue
		}
		if end := idx + length; end > c.reach[idx] {
			c.reach[idx] = end
		}
		c.hits++
	}
}

// Hits returns how many raw hits were added
func (c *Coverage) Hits() int {
	return c.hits
}

// Spans returns the disjoint merged spans sorted by index, with Text taken
// from the target. Overlapping and touching hits coalesce.
func (c *Coverage) Spans() []models.Match {
	spans := []models.Match{}

	start, end := -1, -1
	for i, reach := range c.reach {
		if reach == 0 {
			continue
		}
		if start >= 0 && i > end {
			spans = append(spans, c.span(start, end))
			start = -1
		}
		if start < 0 {
			start, end = i, reach
			continue
		}
		end = max(end, reach)
	}
	if start >= 0 {
		spans = append(spans, c.span(start, end))
	}

	return spans
}

func (c *Coverage) span(start, end int) models.Match {
	return models.Match{
		Index:  start,
		Length: end - start,
		Text:   string(c.target[start:end]),
	}
}

// Sweep searches target for every pattern and folds the hits into a
// Coverage, reusing one offset buffer across patterns.
func Sweep(target []rune, patterns [][]rune, algorithm Algorithm) *Coverage {
	searcher := algorithm.Searcher()
	coverage := NewCoverage(target)

	var offsets []int
	for _, pattern := range patterns {
		offsets = searcher.AppendFind(offsets[:0], target, pattern)
		coverage.Add(offsets, len(pattern))
	}

	return coverage
}
