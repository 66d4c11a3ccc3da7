package matching

import (
	"strings"
	"testing"

	"github.com/RishiKendai/textmatch/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratePatterns(t *testing.T) {
	source := []rune("abcdef")

	patterns := GeneratePatterns(source, 3)
	got := make([]string, 0, len(patterns))
	for _, p := range patterns {
		got = append(got, string(p))
	}
	assert.Equal(t, []string{"abc", "bcd", "cde", "def"}, got)

	assert.Len(t, GeneratePatterns(source, 6), 1)
	assert.Empty(t, GeneratePatterns(source, 7))
	assert.Empty(t, GeneratePatterns(nil, 1))
	assert.Empty(t, GeneratePatterns(source, 0))
}

func TestGeneratePatterns_WindowsAreCapped(t *testing.T) {
	source := []rune("abcdef")
	patterns := GeneratePatterns(source, 2)

	// appending to a window must not overwrite the source
	_ = append(patterns[0], 'z')
	assert.Equal(t, "abcdef", string(source))
}

func TestAggregate_KeepsDuplicatesInPatternOrder(t *testing.T) {
	target := []rune("abab")
	patterns := [][]rune{[]rune("ab"), []rune("ba"), []rune("ab")}

	got := Aggregate(target, patterns, KMPAlgorithm)

	assert.Equal(t, []models.Match{
		{Index: 0, Length: 2, Text: "ab"},
		{Index: 2, Length: 2, Text: "ab"},
		{Index: 1, Length: 2, Text: "ba"},
		{Index: 0, Length: 2, Text: "ab"},
		{Index: 2, Length: 2, Text: "ab"},
	}, got)
}

func TestScore(t *testing.T) {
	tests := []struct {
		name     string
		merged   []models.Match
		source   int
		expected float64
	}{
		{"empty source", []models.Match{{Index: 0, Length: 5}}, 0, 0},
		{"no matches", nil, 10, 0},
		{"half", []models.Match{{Index: 0, Length: 5}}, 10, 50},
		{"rounded to two places", []models.Match{{Index: 1, Length: 28}}, 54, 51.85},
		{"thirds", []models.Match{{Index: 0, Length: 1}}, 3, 33.33},
		{"clamped", []models.Match{{Index: 2, Length: 27}}, 24, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Score(tt.merged, tt.source))
		})
	}
}

func TestGetVerdict(t *testing.T) {
	assert.Equal(t, "pass", GetVerdict(0).Action)
	assert.Equal(t, "pass", GetVerdict(19.99).Action)
	assert.Equal(t, "review", GetVerdict(20).Action)
	assert.Equal(t, "Moderate Similarity", GetVerdict(49.99).Label)
	assert.Equal(t, "flag", GetVerdict(50).Action)
	assert.Equal(t, "high", GetVerdict(100).Level)
}

func TestAnalyze_PartialOverlap(t *testing.T) {
	doc1 := "The quick brown fox jumps over the lazy dog repeatedly"
	doc2 := "A quick brown fox jumps over a lazy dog in the park"

	result, err := Analyze(doc1, doc2, KMPAlgorithm, 20)
	require.NoError(t, err)

	require.Len(t, result.Matches, 1)
	assert.Equal(t, models.Match{Index: 1, Length: 28, Text: " quick brown fox jumps over "}, result.Matches[0])
	assert.Contains(t, result.Matches[0].Text, "quick brown fox jumps")
	assert.Equal(t, 51.85, result.PlagiarismPercentage)
	assert.Equal(t, "KMP", result.Algorithm)
	assert.GreaterOrEqual(t, result.TimeTaken, 0.0)
}

func TestAnalyze_IdenticalDocuments(t *testing.T) {
	doc := "identical text content here for testing purposes and more"

	for _, algorithm := range Algorithms {
		t.Run(algorithm.Label(), func(t *testing.T) {
			result, err := Analyze(doc, doc, algorithm, DefaultMinMatchLength)
			require.NoError(t, err)

			assert.Equal(t, 100.0, result.PlagiarismPercentage)
			require.Len(t, result.Matches, 1)
			assert.Equal(t, Normalize(doc), result.Matches[0].Text)
			assert.Equal(t, algorithm.Label(), result.Algorithm)
		})
	}
}

func TestAnalyze_SourceShorterThanWindow(t *testing.T) {
	result, err := Analyze("abc", "abc and more text that is long enough", KMPAlgorithm, 20)
	require.NoError(t, err)

	assert.Empty(t, result.Matches)
	assert.NotNil(t, result.Matches)
	assert.Equal(t, 0.0, result.PlagiarismPercentage)
}

func TestAnalyze_EmptyDocuments(t *testing.T) {
	result, err := Analyze("", "anything at all goes here for sure", RabinKarpAlgorithm, 5)
	require.NoError(t, err)
	assert.Equal(t, 0.0, result.PlagiarismPercentage)

	result, err = Analyze("a reasonably long source document", "", BoyerMooreAlgorithm, 5)
	require.NoError(t, err)
	assert.Empty(t, result.Matches)
	assert.Equal(t, 0.0, result.PlagiarismPercentage)
}

func TestAnalyze_NoSharedWindow(t *testing.T) {
	result, err := Analyze(
		"completely different words appear in this first document",
		"nothing here resembles the other one whatsoever my friend",
		BoyerMooreAlgorithm, 20)
	require.NoError(t, err)

	assert.Empty(t, result.Matches)
	assert.Equal(t, 0.0, result.PlagiarismPercentage)
}

func TestAnalyze_OffsetsReferToNormalizedTarget(t *testing.T) {
	doc1 := "Hello, World! This is a test of the emergency broadcast system."
	doc2 := "Breaking: this is a test of the emergency broadcast system, repeated."

	result, err := Analyze(doc1, doc2, RabinKarpAlgorithm, 20)
	require.NoError(t, err)

	target := []rune(Normalize(doc2))
	require.Len(t, result.Matches, 1)
	m := result.Matches[0]
	assert.Equal(t, 8, m.Index)
	assert.Equal(t, 49, m.Length)
	assert.Equal(t, string(target[m.Index:m.End()]), m.Text)
	assert.Equal(t, 81.67, result.PlagiarismPercentage)
}

func TestAnalyze_CoverageAboveSourceIsClamped(t *testing.T) {
	result, err := Analyze("abcabcabcabcabcabcabcabc", "xx abcabcabcabcabcabcabcabcabc yy", KMPAlgorithm, 6)
	require.NoError(t, err)

	assert.Equal(t, 100.0, result.PlagiarismPercentage)
}

func TestAnalyze_InvalidArguments(t *testing.T) {
	_, err := Analyze("a", "b", KMPAlgorithm, 0)
	assert.ErrorIs(t, err, ErrInvalidMatchLength)

	_, err = Analyze("a", "b", KMPAlgorithm, -3)
	assert.ErrorIs(t, err, ErrInvalidMatchLength)

	_, err = Analyze("a", "b", Algorithm(99), 20)
	assert.ErrorIs(t, err, ErrUnknownAlgorithm)

	_, err = AnalyzeTag("a", "b", "soundex", 20)
	assert.ErrorIs(t, err, ErrUnknownAlgorithm)
}

func TestAnalyze_AlgorithmsConverge(t *testing.T) {
	pairs := []struct {
		doc1, doc2 string
		window     int
	}{
		{
			"The quick brown fox jumps over the lazy dog repeatedly",
			"A quick brown fox jumps over a lazy dog in the park",
			20,
		},
		{
			strings.Repeat("to be or not to be that is the question ", 5),
			"whether tis nobler in the mind to suffer, to be or not to be that is the question indeed",
			12,
		},
		{
			"aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
			"baaaaaaaaaaaaaaaaaaab aaaaaaaaaaaaaaaaaaaaaaaaa",
			8,
		},
		{
			"Ünïcödé text survives normalisation, très bien, with accents intact",
			"we said: ünïcödé text survives normalisation très bien with accents intact!",
			10,
		},
	}

	for _, p := range pairs {
		results, err := CompareAlgorithms(p.doc1, p.doc2, p.window)
		require.NoError(t, err)
		require.Len(t, results, len(Algorithms))

		reference := results[0]
		for _, r := range results[1:] {
			assert.Equal(t, reference.Matches, r.Matches, "%s vs %s", reference.Algorithm, r.Algorithm)
			assert.Equal(t, CoveredLength(reference.Matches), CoveredLength(r.Matches))
			assert.Equal(t, reference.PlagiarismPercentage, r.PlagiarismPercentage)
		}
		for _, r := range results {
			assert.GreaterOrEqual(t, r.PlagiarismPercentage, 0.0)
			assert.LessOrEqual(t, r.PlagiarismPercentage, 100.0)
		}
	}
}
