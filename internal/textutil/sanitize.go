package textutil

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ExcerptLimit is the maximum length, in runes, of a stored response excerpt.
const ExcerptLimit = 200

var (
	htmlTagPattern    = regexp.MustCompile(`<[^>]*>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// Sanitize strips markup and control characters and collapses runs of
// whitespace into single spaces.
func Sanitize(s string) string {
	s = htmlTagPattern.ReplaceAllString(s, " ")
	s = strings.Map(func(r rune) rune {
		if r == utf8.RuneError {
			return -1
		}
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	s = whitespacePattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Excerpt sanitizes s and truncates it to at most limit runes. Truncated
// excerpts end with "..." and still fit within limit.
func Excerpt(s string, limit int) string {
	s = Sanitize(s)
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	if limit <= 3 {
		return string(runes[:limit])
	}
	cut := strings.TrimRightFunc(string(runes[:limit-3]), unicode.IsSpace)
	return cut + "..."
}

// Words lowercases s and splits it into words made of letters, digits and
// inner apostrophes.
func Words(s string) []string {
	s = strings.ToLower(s)
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}

// Normalize lowercases s, drops punctuation and collapses whitespace. It is
// used for phrase matching where punctuation carries no meaning.
func Normalize(s string) string {
	return strings.Join(Words(s), " ")
}
