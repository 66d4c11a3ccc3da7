package extract

import (
	"regexp"
	"strings"
)

const maxFallbackWords = 5000

var (
	pdfStreamRe     = regexp.MustCompile(`(?s)stream\s*(.*?)\s*endstream`)
	pdfShowTextRe   = regexp.MustCompile(`\(([^)]+)\)\s*Tj|\[([^\]]+)\]\s*TJ`)
	pdfShowStripRe  = regexp.MustCompile(`\(|\)|Tj|TJ|\[|\]`)
	pdfTextBlockRe  = regexp.MustCompile(`(?s)BT\s*(.*?)\s*ET`)
	pdfLiteralRe    = regexp.MustCompile(`\(([^)]+)\)`)
	numericOnlyRe   = regexp.MustCompile(`^[\d\s.-]+$`)
	nonPrintableRe  = regexp.MustCompile(`[^\x20-\x7E\n]`)
	whitespaceRunRe = regexp.MustCompile(`\s+`)
	twoLettersRe    = regexp.MustCompile(`[a-zA-Z]{2,}`)
	digitsOnlyRe    = regexp.MustCompile(`^\d+$`)
)

// extractPDF scans content streams for text-showing operators (Tj, TJ) and
// string literals inside BT/ET text objects. Compressed streams yield
// nothing, in which case readable ASCII words of the raw file are used.
func extractPDF(data []byte) (string, error) {
	raw := strings.ToValidUTF8(string(data), " ")

	var parts []string

	for _, stream := range pdfStreamRe.FindAllStringSubmatch(raw, -1) {
		for _, shown := range pdfShowTextRe.FindAllString(stream[1], -1) {
			text := strings.TrimSpace(pdfShowStripRe.ReplaceAllString(shown, " "))
			if keepPDFText(text) {
				parts = append(parts, text)
			}
		}
	}

	for _, block := range pdfTextBlockRe.FindAllStringSubmatch(raw, -1) {
		for _, literal := range pdfLiteralRe.FindAllString(block[1], -1) {
			text := strings.TrimSpace(strings.NewReplacer("(", "", ")", "").Replace(literal))
			if keepPDFText(text) {
				parts = append(parts, text)
			}
		}
	}

	result := collapseWhitespace(strings.Join(parts, " "))
	if result != "" {
		return result, nil
	}

	return readableWords(raw), nil
}

func keepPDFText(text string) bool {
	return len(text) > 1 && !numericOnlyRe.MatchString(text)
}

// readableWords keeps printable ASCII words that look like language
func readableWords(raw string) string {
	readable := collapseWhitespace(nonPrintableRe.ReplaceAllString(raw, " "))

	words := make([]string, 0, 256)
	for _, word := range strings.Split(readable, " ") {
		if len(word) > 2 && twoLettersRe.MatchString(word) && !digitsOnlyRe.MatchString(word) {
			words = append(words, word)
			if len(words) == maxFallbackWords {
				break
			}
		}
	}

	return strings.Join(words, " ")
}

func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRunRe.ReplaceAllString(s, " "))
}
