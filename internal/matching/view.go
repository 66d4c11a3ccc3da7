package matching

import (
	"strings"

	"github.com/RishiKendai/textmatch/internal/models"
)

const (
	PreviewLength    = 100
	MaxListedMatches = 10
	MaxHighlighted   = 20
)

// Preview truncates text to limit runes for display, marking the cut with "..."
func Preview(text string, limit int) string {
	runes := []rune(text)
	if limit <= 0 || len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}

// LocateInSource returns, for each match, the rune offset of the first
// occurrence of its text in the normalized source, or -1.
func LocateInSource(source string, matches []models.Match) []int {
	offsets := make([]int, len(matches))
	for i, m := range matches {
		offsets[i] = runeIndex(source, m.Text)
	}
	return offsets
}

// BuildMatchViews prepares the first limit merged matches for rendering
func BuildMatchViews(source string, matches []models.Match, limit int) []models.MatchView {
	if limit <= 0 || limit > len(matches) {
		limit = len(matches)
	}

	listed := matches[:limit]
	sourceOffsets := LocateInSource(source, listed)

	views := make([]models.MatchView, 0, limit)
	for i, m := range listed {
		views = append(views, models.MatchView{
			Index:       m.Index,
			SourceIndex: sourceOffsets[i],
			Length:      m.Length,
			Preview:     Preview(m.Text, PreviewLength),
		})
	}
	return views
}

// Segments splits a normalized document into alternating unmatched and
// matched pieces for highlighting. spans must be sorted and disjoint, their
// indexes pointing into text; at most limit spans are highlighted and spans
// with a negative index are skipped.
func Segments(text string, spans []models.Match, limit int) []models.Segment {
	runes := []rune(text)
	if len(spans) == 0 {
		if len(runes) == 0 {
			return nil
		}
		return []models.Segment{{Text: text}}
	}
	if limit > 0 && limit < len(spans) {
		spans = spans[:limit]
	}

	var segments []models.Segment
	last := 0
	for id, span := range spans {
		if span.Index < last || span.End() > len(runes) {
			continue
		}
		if span.Index > last {
			segments = append(segments, models.Segment{Text: string(runes[last:span.Index])})
		}
		segments = append(segments, models.Segment{
			Text:    string(runes[span.Index:span.End()]),
			IsMatch: true,
			MatchID: id,
		})
		last = span.End()
	}
	if last < len(runes) {
		segments = append(segments, models.Segment{Text: string(runes[last:])})
	}

	return segments
}

// SourceSpans re-anchors merged target matches onto the normalized source
// using LocateInSource. Matches not found are dropped and overlapping spans
// are merged, so the result is ready for Segments.
func SourceSpans(source string, matches []models.Match) []models.Match {
	offsets := LocateInSource(source, matches)

	spans := make([]models.Match, 0, len(matches))
	for i, m := range matches {
		if offsets[i] < 0 {
			continue
		}
		spans = append(spans, models.Match{Index: offsets[i], Length: m.Length, Text: m.Text})
	}

	return Merge(spans)
}

// runeIndex is strings.Index reporting a rune offset instead of a byte offset
func runeIndex(s, substr string) int {
	if substr == "" {
		return -1
	}
	idx := strings.Index(s, substr)
	if idx < 0 {
		return -1
	}
	return len([]rune(s[:idx]))
}
