package matching

import (
	"math/rand"
	"testing"

	"github.com/RishiKendai/textmatch/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// span builds a match whose text is the corresponding slice of target
func span(target string, index, length int) models.Match {
	runes := []rune(target)
	return models.Match{Index: index, Length: length, Text: string(runes[index : index+length])}
}

func TestMerge(t *testing.T) {
	const target = "abcdefghijklmnopqrstuvwxyz"

	tests := []struct {
		name     string
		input    []models.Match
		expected []models.Match
	}{
		{
			name:     "empty",
			input:    nil,
			expected: []models.Match{},
		},
		{
			name:     "single",
			input:    []models.Match{span(target, 3, 4)},
			expected: []models.Match{span(target, 3, 4)},
		},
		{
			name:     "disjoint stay apart and get sorted",
			input:    []models.Match{span(target, 10, 3), span(target, 0, 3)},
			expected: []models.Match{span(target, 0, 3), span(target, 10, 3)},
		},
		{
			name:     "overlapping merge",
			input:    []models.Match{span(target, 0, 5), span(target, 3, 5)},
			expected: []models.Match{span(target, 0, 8)},
		},
		{
			name:     "touching merge",
			input:    []models.Match{span(target, 0, 5), span(target, 5, 5)},
			expected: []models.Match{span(target, 0, 10)},
		},
		{
			name:     "contained span is absorbed",
			input:    []models.Match{span(target, 2, 10), span(target, 4, 3)},
			expected: []models.Match{span(target, 2, 10)},
		},
		{
			name:     "duplicates collapse",
			input:    []models.Match{span(target, 4, 6), span(target, 4, 6), span(target, 4, 6)},
			expected: []models.Match{span(target, 4, 6)},
		},
		{
			name: "sliding window chain",
			input: []models.Match{
				span(target, 1, 4), span(target, 2, 4), span(target, 3, 4), span(target, 20, 4),
			},
			expected: []models.Match{span(target, 1, 6), span(target, 20, 4)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Merge(tt.input))
		})
	}
}

func TestMerge_DoesNotMutateInput(t *testing.T) {
	const target = "abcdefghij"
	input := []models.Match{span(target, 5, 3), span(target, 0, 6)}
	snapshot := append([]models.Match{}, input...)

	Merge(input)

	assert.Equal(t, snapshot, input)
}

func TestMerge_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	target := "the quick brown fox jumps over the lazy dog and keeps running far away"
	n := len([]rune(target))

	for round := 0; round < 300; round++ {
		var input []models.Match
		covered := make([]bool, n)
		for k := rng.Intn(12); k >= 0; k-- {
			length := 1 + rng.Intn(10)
			index := rng.Intn(n - length + 1)
			input = append(input, span(target, index, length))
			for i := index; i < index+length; i++ {
				covered[i] = true
			}
		}

		merged := Merge(input)

		// idempotent
		require.Equal(t, merged, Merge(merged))

		// sorted, disjoint and not touching
		for i := 1; i < len(merged); i++ {
			require.Less(t, merged[i-1].End(), merged[i].Index)
		}

		// text always equals the target slice
		for _, m := range merged {
			require.Equal(t, span(target, m.Index, m.Length), m)
		}

		// covers exactly the same runes as the input
		coveredCount := 0
		for _, c := range covered {
			if c {
				coveredCount++
			}
		}
		require.Equal(t, coveredCount, CoveredLength(merged))
	}
}
