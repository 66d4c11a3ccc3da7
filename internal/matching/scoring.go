package matching

import (
	"math"

	"github.com/RishiKendai/textmatch/internal/models"
)

// Score calculates the plagiarism percentage of a source document.
// PlagiarismPercentage = covered_runes / source_runes * 100, clamped to
// [0, 100] and rounded to two decimals. An empty source scores 0.
func Score(merged []models.Match, sourceLength int) float64 {
	if sourceLength <= 0 {
		return 0.0
	}

	percentage := float64(CoveredLength(merged)) / float64(sourceLength) * 100

	// Clamp to [0, 100]
	if percentage > 100.0 {
		percentage = 100.0
	}
	if percentage < 0.0 {
		percentage = 0.0
	}

	return roundTo(percentage, 2)
}

// GetVerdict returns the display verdict for a plagiarism percentage
func GetVerdict(percentage float64) models.Verdict {
	if percentage < 20 {
		return models.Verdict{Level: "low", Label: "Low Similarity", Action: "pass"}
	} else if percentage < 50 {
		return models.Verdict{Level: "moderate", Label: "Moderate Similarity", Action: "review"}
	}
	return models.Verdict{Level: "high", Label: "High Similarity", Action: "flag"}
}

func roundTo(value float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(value*scale) / scale
}
