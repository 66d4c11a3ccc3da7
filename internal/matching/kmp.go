package matching

// KMP is the Knuth-Morris-Pratt searcher. It precomputes the longest proper
// prefix-suffix table of the pattern and never re-reads a text rune, so a
// search is linear in len(text)+len(pattern).
type KMP struct{}

func (KMP) String() string {
	return "KNUTH-MORRIS-PRATT"
}

func (k KMP) Find(text, pattern []rune) []int {
	return k.AppendFind(nil, text, pattern)
}

func (KMP) AppendFind(ret []int, text, pattern []rune) []int {
	m, n := len(pattern), len(text)

	// got zero text or pattern, or pattern bigger than text
	if m == 0 || n == 0 || m > n {
		return ret
	}

	lps := ComputeLPS(pattern)

	i, j := 0, 0 // text cursor, pattern cursor
	for i < n {
		if pattern[j] == text[i] {
			i++
			j++
			if j == m {
				ret = append(ret, i-j)
				// keep the matched border so overlapping occurrences are found
				j = lps[j-1]
			}
			continue
		}
		if j != 0 {
			j = lps[j-1]
		} else {
			i++
		}
	}

	return ret
}

// ComputeLPS builds the KMP failure table: lps[i] is the length of the
// longest proper prefix of pattern[:i+1] that is also its suffix.
func ComputeLPS(pattern []rune) []int {
	lps := make([]int, len(pattern))

	length := 0
	for i := 1; i < len(pattern); {
		if pattern[i] == pattern[length] {
			length++
			lps[i] = length
			i++
			continue
		}
		if length != 0 {
			length = lps[length-1]
		} else {
			lps[i] = 0
			i++
		}
	}

	return lps
}
