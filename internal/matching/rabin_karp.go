package matching

const (
	// RabinKarpBase is the polynomial base of the rolling hash.
	RabinKarpBase uint64 = 101
	// RabinKarpModulus keeps the rolling hash exact in uint64 arithmetic.
	RabinKarpModulus uint64 = 1_000_000_007
)

// RabinKarp compares a rolling hash of each text window with the pattern
// hash and verifies every hash hit rune by rune, so collisions never
// surface as matches.
type RabinKarp struct{}

func (RabinKarp) String() string {
	return "RABIN-KARP"
}

func (r RabinKarp) Find(text, pattern []rune) []int {
	return r.AppendFind(nil, text, pattern)
}

func (RabinKarp) AppendFind(ret []int, text, pattern []rune) []int {
	m, n := len(pattern), len(text)
	if m == 0 || n == 0 || m > n {
		return ret
	}

	patternHash, pow := hashRunes(pattern)
	windowHash, _ := hashRunes(text[:m])

	for i := 0; ; i++ {
		if windowHash == patternHash && equalRunes(text[i:i+m], pattern) {
			ret = append(ret, i)
		}
		if i+m >= n {
			break
		}
		windowHash = rollHash(windowHash, text[i], text[i+m], pow)
	}

	return ret
}

// hashRunes returns the hash of s and Base^(len(s)-1), the weight of the
// leading rune, both reduced modulo RabinKarpModulus.
func hashRunes(s []rune) (hash, pow uint64) {
	pow = 1
	for i, r := range s {
		hash = (hash*RabinKarpBase + runeValue(r)) % RabinKarpModulus
		if i > 0 {
			pow = pow * RabinKarpBase % RabinKarpModulus
		}
	}
	return hash, pow
}

// rollHash drops the leaving rune from the window hash and appends the entering one
func rollHash(hash uint64, leaving, entering rune, pow uint64) uint64 {
	hash = (hash + RabinKarpModulus - runeValue(leaving)*pow%RabinKarpModulus) % RabinKarpModulus
	return (hash*RabinKarpBase + runeValue(entering)) % RabinKarpModulus
}

func runeValue(r rune) uint64 {
	return uint64(uint32(r)) % RabinKarpModulus
}

func equalRunes(a, b []rune) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
