package matching

import (
	"fmt"
	"time"

	"github.com/RishiKendai/textmatch/internal/models"
	"github.com/rs/zerolog/log"
)

// Analyze compares doc1 (the source) against doc2 (the target).
// Both documents are normalized, every minMatchLength-rune window of the
// source is searched in the target, the hits are merged and scored against
// the source length.
//
// The work is O(n) windows times an O(n) search each, so time grows with the
// square of the input; callers bound the input size and the wall time.
// Memory stays linear because hits are folded into a Coverage as they
// arrive. There is no cancellation point inside.
func Analyze(doc1, doc2 string, algorithm Algorithm, minMatchLength int) (*models.AnalysisResult, error) {
	if minMatchLength <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidMatchLength, minMatchLength)
	}
	if algorithm < KMPAlgorithm || algorithm > RabinKarpAlgorithm {
		return nil, fmt.Errorf("%w: %d", ErrUnknownAlgorithm, int(algorithm))
	}

	start := time.Now()

	source := []rune(Normalize(doc1))
	target := []rune(Normalize(doc2))

	patterns := GeneratePatterns(source, minMatchLength)
	coverage := Sweep(target, patterns, algorithm)
	merged := coverage.Spans()
	percentage := Score(merged, len(source))

	elapsed := time.Since(start)

	log.Trace().
		Str("algorithm", algorithm.Label()).
		Int("sourceRunes", len(source)).
		Int("targetRunes", len(target)).
		Int("patterns", len(patterns)).
		Int("rawMatches", coverage.Hits()).
		Int("mergedMatches", len(merged)).
		Float64("percentage", percentage).
		Dur("elapsed", elapsed).
		Msg("Analysis completed")

	return &models.AnalysisResult{
		Matches:              merged,
		TimeTaken:            float64(elapsed) / float64(time.Millisecond),
		Algorithm:            algorithm.Label(),
		PlagiarismPercentage: percentage,
	}, nil
}

// AnalyzeTag is Analyze with the algorithm given as a request tag
func AnalyzeTag(doc1, doc2, tag string, minMatchLength int) (*models.AnalysisResult, error) {
	algorithm, err := ParseAlgorithm(tag)
	if err != nil {
		return nil, err
	}
	return Analyze(doc1, doc2, algorithm, minMatchLength)
}

// CompareAlgorithms runs every algorithm over the same document pair.
// Results follow the order of Algorithms.
func CompareAlgorithms(doc1, doc2 string, minMatchLength int) ([]*models.AnalysisResult, error) {
	results := make([]*models.AnalysisResult, 0, len(Algorithms))
	for _, algorithm := range Algorithms {
		result, err := Analyze(doc1, doc2, algorithm, minMatchLength)
		if err != nil {
			return nil, fmt.Errorf("failed to run %s: %w", algorithm.Label(), err)
		}
		results = append(results, result)
	}
	return results, nil
}
