package matching

// DefaultMinMatchLength is the window length used when the caller gives none
const DefaultMinMatchLength = 20

// GeneratePatterns slices source into every window of exactly windowLength
// runes, stride 1, in ascending offset order. The windows share the backing
// array of source and must not be modified.
func GeneratePatterns(source []rune, windowLength int) [][]rune {
	if windowLength <= 0 || len(source) < windowLength {
		return nil
	}

	count := len(source) - windowLength + 1
	patterns := make([][]rune, 0, count)
	for i := 0; i < count; i++ {
		patterns = append(patterns, source[i:i+windowLength:i+windowLength])
	}

	return patterns
}
