package matching

import (
	"math/rand"
	"os"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/RishiKendai/textmatch/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	os.Exit(m.Run())
}

func TestCoverage_Spans(t *testing.T) {
	target := []rune("abcdefghijklmnopqrstuvwxyz")
	c := NewCoverage(target)

	c.Add([]int{2, 4}, 3) // 2..5 and 4..7
	c.Add([]int{7}, 2)    // touches 7, coalesces
	c.Add([]int{12}, 2)
	c.Add([]int{12}, 1) // shorter hit at the same start
	c.Add([]int{-1, 25}, 3)

	assert.Equal(t, 5, c.Hits())
	assert.Equal(t, []models.Match{
		{Index: 2, Length: 7, Text: "cdefghi"},
		{Index: 12, Length: 2, Text: "mn"},
	}, c.Spans())
}

func TestCoverage_Empty(t *testing.T) {
	c := NewCoverage(nil)
	c.Add([]int{0}, 1)

	spans := c.Spans()
	assert.NotNil(t, spans)
	assert.Empty(t, spans)
}

func TestSweep_AgreesWithMergedAggregate(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	alphabet := []rune("ab c")

	randomText := func(n int) []rune {
		out := make([]rune, n)
		for i := range out {
			out[i] = alphabet[rng.Intn(len(alphabet))]
		}
		return out
	}

	for round := 0; round < 200; round++ {
		source := randomText(1 + rng.Intn(60))
		target := randomText(rng.Intn(80))
		window := 1 + rng.Intn(6)
		patterns := GeneratePatterns(source, window)

		for _, algorithm := range Algorithms {
			want := Merge(Aggregate(target, patterns, algorithm))
			got := Sweep(target, patterns, algorithm)

			require.Equal(t, want, got.Spans(), "round %d %s", round, algorithm)
		}
	}
}

func TestAnalyze_RepetitiveInputStaysLinearInMemory(t *testing.T) {
	doc := strings.Repeat("ab ", 2000)

	var before, after runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&before)
	start := time.Now()

	result, err := Analyze(doc, doc, KMPAlgorithm, DefaultMinMatchLength)

	elapsed := time.Since(start)
	runtime.ReadMemStats(&after)
	require.NoError(t, err)

	// millions of raw hits, one merged span
	require.Len(t, result.Matches, 1)
	assert.Equal(t, 100.0, result.PlagiarismPercentage)
	assert.Equal(t, Normalize(doc), result.Matches[0].Text)

	allocated := after.TotalAlloc - before.TotalAlloc
	assert.Less(t, allocated, uint64(32<<20), "allocated %d bytes", allocated)
	assert.Less(t, elapsed, 20*time.Second)
}
