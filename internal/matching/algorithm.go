package matching

import (
	"errors"
	"fmt"
	"strings"

	"github.com/RishiKendai/textmatch/internal/models"
)

var (
	ErrUnknownAlgorithm   = errors.New("unknown algorithm")
	ErrInvalidMatchLength = errors.New("minimum match length must be greater than 0")
)

// Searcher finds every occurrence of a single pattern inside a text.
// Find returns start offsets in ascending order, overlapping occurrences
// included, and nothing when either input is empty. AppendFind does the same
// but appends to dst, so a caller scanning many patterns can reuse one buffer.
type Searcher interface {
	Find(text, pattern []rune) []int
	AppendFind(dst []int, text, pattern []rune) []int
	String() string
}

// Algorithm selects one of the exact-match searchers
type Algorithm int

const (
	KMPAlgorithm Algorithm = iota
	BoyerMooreAlgorithm
	RabinKarpAlgorithm
)

// Algorithms lists every supported algorithm in display order
var Algorithms = []Algorithm{KMPAlgorithm, BoyerMooreAlgorithm, RabinKarpAlgorithm}

// ParseAlgorithm maps a request tag (kmp, boyer-moore, rabin-karp) to an Algorithm.
// An empty tag selects KMP.
func ParseAlgorithm(tag string) (Algorithm, error) {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "", "kmp":
		return KMPAlgorithm, nil
	case "boyer-moore", "boyermoore", "bm":
		return BoyerMooreAlgorithm, nil
	case "rabin-karp", "rabinkarp", "rk":
		return RabinKarpAlgorithm, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, tag)
	}
}

// Tag returns the request tag for the algorithm
func (a Algorithm) Tag() string {
	switch a {
	case KMPAlgorithm:
		return "kmp"
	case BoyerMooreAlgorithm:
		return "boyer-moore"
	case RabinKarpAlgorithm:
		return "rabin-karp"
	default:
		return "unknown"
	}
}

// Label returns the display name reported in AnalysisResult.Algorithm
func (a Algorithm) Label() string {
	switch a {
	case KMPAlgorithm:
		return "KMP"
	case BoyerMooreAlgorithm:
		return "Boyer-Moore"
	case RabinKarpAlgorithm:
		return "Rabin-Karp"
	default:
		return "Unknown"
	}
}

func (a Algorithm) String() string {
	return a.Label()
}

// Searcher returns the search implementation for the algorithm
func (a Algorithm) Searcher() Searcher {
	switch a {
	case BoyerMooreAlgorithm:
		return BoyerMoore{}
	case RabinKarpAlgorithm:
		return RabinKarp{}
	default:
		return KMP{}
	}
}

// Search runs s over string inputs and returns the located matches.
// Offsets and lengths are counted in runes.
func Search(s Searcher, haystack, needle string) []models.Match {
	text := []rune(haystack)
	pattern := []rune(needle)
	return toMatches(text, len(pattern), s.Find(text, pattern))
}

func toMatches(text []rune, length int, offsets []int) []models.Match {
	if len(offsets) == 0 {
		return nil
	}
	matches := make([]models.Match, 0, len(offsets))
	for _, idx := range offsets {
		matches = append(matches, models.Match{
			Index:  idx,
			Length: length,
			Text:   string(text[idx : idx+length]),
		})
	}
	return matches
}
