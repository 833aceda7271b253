package flashquiz

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Default length band for learning points, in characters
const (
	DefaultMinLength = 30
	DefaultMaxLength = 300
)

var (
	hyphenBreak = regexp.MustCompile(`(\p{L})-[ \t]*\r?\n[ \t]*(\p{L})`)
	pageNumber  = regexp.MustCompile(`(?i)^(page\s+)?\d+(\s*(of|/)\s*\d+)?$`)
)

const bulletRunes = "•◦▪▫■□●○‣⁃-–—*·>"

// Segment cleans extracted text and splits it into learning points whose
// length lies within [minLength, maxLength]. It never fails: when nothing
// qualifies the result is empty and the caller decides what that means.
func Segment(text string, minLength, maxLength int) []LearningPoint {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = hyphenBreak.ReplaceAllString(text, "$1$2")

	var points []LearningPoint
	for _, line := range strings.Split(text, "\n") {
		for _, sentence := range splitSentences(line) {
			cleaned := cleanFragment(sentence)
			length := utf8.RuneCountInString(cleaned)
			if length < minLength || length > maxLength {
				continue
			}
			if isNoise(cleaned) {
				continue
			}
			points = append(points, LearningPoint{Text: cleaned, Length: length})
		}
	}
	return points
}

// splitSentences cuts a line after '.', '!' or '?' when followed by whitespace.
func splitSentences(line string) []string {
	var (
		out   []string
		start int
	)
	runes := []rune(line)
	for i, r := range runes {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
			out = append(out, string(runes[start:i+1]))
			start = i + 1
		}
	}
	if start < len(runes) {
		out = append(out, string(runes[start:]))
	}
	return out
}

// cleanFragment collapses whitespace and strips leading bullet glyphs.
func cleanFragment(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	s = strings.TrimLeft(s, bulletRunes+" ")
	return strings.TrimSpace(s)
}

func isNoise(s string) bool {
	if pageNumber.MatchString(s) {
		return true
	}

	var letters, special, upper, lower int
	for _, r := range s {
		switch {
		case unicode.IsLetter(r):
			letters++
			if unicode.IsUpper(r) {
				upper++
			} else if unicode.IsLower(r) {
				lower++
			}
		case unicode.IsDigit(r), unicode.IsSpace(r):
		default:
			special++
		}
	}

	if letters == 0 {
		return true
	}

	// headers and footers
	if upper > 0 && lower == 0 && utf8.RuneCountInString(s) < 50 {
		return true
	}

	return float64(special)/float64(utf8.RuneCountInString(s)) > 0.3
}
