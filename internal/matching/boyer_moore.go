package matching

// BoyerMoore is the Boyer-Moore searcher using the bad-character heuristic.
// The pattern is compared right to left; on a mismatch the shift lines up
// the offending text rune with its last occurrence in the pattern.
// Sub-linear on average, quadratic in the worst case.
type BoyerMoore struct{}

func (BoyerMoore) String() string {
	return "BOYER-MOORE"
}

func (b BoyerMoore) Find(text, pattern []rune) []int {
	return b.AppendFind(nil, text, pattern)
}

func (BoyerMoore) AppendFind(ret []int, text, pattern []rune) []int {
	m, n := len(pattern), len(text)
	if m == 0 || n == 0 || m > n {
		return ret
	}

	badChar := newBadCharTable(pattern)

	for s := 0; s <= n-m; {
		j := m - 1
		for j >= 0 && pattern[j] == text[s+j] {
			j--
		}

		if j < 0 {
			ret = append(ret, s)
			// text[s+m] does not exist when the match ends at the text boundary
			if s+m < n {
				s += max(1, m-badChar.last(text[s+m]))
			} else {
				s++
			}
			continue
		}

		s += max(1, j-badChar.last(text[s+j]))
	}

	return ret
}

// badCharTable maps each rune of the pattern to the index of its last occurrence
type badCharTable map[rune]int

func newBadCharTable(pattern []rune) badCharTable {
	table := make(badCharTable, len(pattern))
	for i, r := range pattern {
		table[r] = i
	}
	return table
}

// last returns the last index of r in the pattern, or -1 when r is absent
func (t badCharTable) last(r rune) int {
	if idx, ok := t[r]; ok {
		return idx
	}
	return -1
}
