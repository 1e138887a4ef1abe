package prompt

import (
	"strings"

	"github.com/abhisek/proofloop/internal/textutil"
)

// closedOpeners start questions that can be answered yes or no.
var closedOpeners = map[string]bool{
	"is": true, "are": true, "do": true, "does": true, "did": true,
	"can": true, "could": true, "would": true, "will": true,
}

// IsOpenEnded reports whether p cannot be answered with a bare yes or no.
func IsOpenEnded(p string) bool {
	words := textutil.Words(p)
	if len(words) == 0 {
		return false
	}
	return !closedOpeners[words[0]]
}

// HasOwnWords reports whether p contains the own-words phrase, ignoring case
// and spacing.
func HasOwnWords(p string) bool {
	return strings.Contains(textutil.Normalize(p), OwnWordsPhrase)
}

// Acceptable reports whether p satisfies the prompt contract for concept.
func Acceptable(p, concept string) bool {
	if !IsOpenEnded(p) || !HasOwnWords(p) {
		return false
	}
	if concept == "" || concept == FallbackConcept {
		return true
	}
	return strings.Contains(textutil.Normalize(p), textutil.Normalize(concept))
}
