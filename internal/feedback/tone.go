package feedback

import (
	"regexp"
	"strings"
)

// harshWord matches the inflections of fail, wrong and bad listed in softer.
// Longer words that merely contain them ("badge", "badminton") are left alone.
var harshWord = regexp.MustCompile(`(?i)\b(fail(s|ed|ing|ure)?|wrong(ly)?|bad(ly)?)\b`)

var softer = map[string]string{
	"fail":    "miss",
	"fails":   "misses",
	"failed":  "missed",
	"failing": "missing",
	"failure": "miss",
	"wrong":   "not quite right",
	"wrongly": "not quite right",
	"bad":     "shaky",
	"badly":   "shakily",
}

// SoftenTone replaces the harsh words fail, wrong and bad and their common
// inflections with gentler ones.
func SoftenTone(s string) string {
	return harshWord.ReplaceAllStringFunc(s, func(w string) string {
		return softer[strings.ToLower(w)]
	})
}

// HasHarshWords reports whether s would be changed by SoftenTone.
func HasHarshWords(s string) bool {
	return harshWord.MatchString(s)
}
