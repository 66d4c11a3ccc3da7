package matching

import (
	"strings"
	"unicode"
)

// Normalize canonicalizes raw document text before matching.
// Text is lowercased, every rune that is not a letter, digit or whitespace
// becomes a space, and whitespace runs collapse to a single space with the
// ends trimmed. All match offsets refer to this form of the text.
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(text))

	pendingSpace := false
	for _, r := range strings.ToLower(text) {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			// Punctuation and whitespace both separate words
			pendingSpace = true
			continue
		}
		if pendingSpace && b.Len() > 0 {
			b.WriteByte(' ')
		}
		pendingSpace = false
		b.WriteRune(r)
	}

	return b.String()
}
