package validation

import (
	"fmt"
	"regexp"
	"slices"
	"sort"
	"strings"

	"github.com/abhisek/proofloop/internal/conversation"
	"github.com/abhisek/proofloop/internal/textutil"
)

// stopwords are skipped when picking salient terms.
var stopwords = map[string]bool{
	"about": true, "after": true, "again": true, "also": true, "because": true,
	"before": true, "being": true, "between": true, "could": true, "does": true,
	"doing": true, "each": true, "example": true, "explain": true, "first": true,
	"from": true, "have": true, "here": true, "into": true, "just": true,
	"kind": true, "know": true, "learn": true, "let's": true, "like": true,
	"little": true, "make": true, "makes": true, "many": true, "means": true,
	"more": true, "most": true, "much": true, "other": true, "over": true,
	"own": true, "really": true, "same": true, "should": true, "some": true,
	"something": true, "such": true, "than": true, "that": true, "their": true,
	"them": true, "then": true, "there": true, "these": true, "they": true,
	"thing": true, "things": true, "think": true, "this": true, "those": true,
	"through": true, "very": true, "want": true, "what": true, "when": true,
	"where": true, "which": true, "while": true, "will": true, "with": true,
	"words": true, "would": true, "your": true, "you're": true, "it's": true,
	"called": true, "other's": true, "idea": true, "main": true, "covered": true,
}

// salientLimit caps how many context terms are considered key.
const salientLimit = 15

// relationPatterns are causal or relational connectives, in reporting order.
var relationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bbecause\b`),
	regexp.MustCompile(`\bso\b`),
	regexp.MustCompile(`\btherefore\b`),
	regexp.MustCompile(`\bas a result\b`),
	regexp.MustCompile(`\bleads? to\b`),
	regexp.MustCompile(`\bresults? in\b`),
	regexp.MustCompile(`\bcauses?\b`),
	regexp.MustCompile(`\bin order to\b`),
	regexp.MustCompile(`\bto (make|create|produce|form|get|build)\b`),
	regexp.MustCompile(`\b(turns?|converts?|changes?) (\w+ )?into\b`),
	regexp.MustCompile(`\bwhich (is|are|means|lets|helps|makes)\b`),
	regexp.MustCompile(`\bwhen\b`),
	regexp.MustCompile(`\bif\b.*\bthen\b`),
	regexp.MustCompile(`\bby (\w+ing)\b`),
	regexp.MustCompile(`\bdepends? on\b`),
	regexp.MustCompile(`\b(produces?|releases?|absorbs?)\b`),
}

var absolutePattern = regexp.MustCompile(`\b(always|never|everything|nothing|impossible)\b`)

var negatedVerbPattern = regexp.MustCompile(
	`\b(?:do not|don't|does not|doesn't|did not|didn't|cannot|can't|never)\s+(need|needs|use|uses|make|makes|produce|produces|require|requires|release|releases|absorb|absorbs|take|takes|create|creates|contain|contains|involve|involves|depend|depends)\b`)

// assessment is the heuristic comprehension reading of a response.
type assessment struct {
	concepts       []string
	relationships  []string
	misconceptions []string
	words          int
}

func assess(response, concept string, teaching []string) assessment {
	norm := textutil.Normalize(response)
	words := textutil.Words(response)
	present := make(map[string]bool, len(words))
	for _, w := range words {
		present[w] = true
	}

	// Key concepts: concept-name terms plus salient teaching terms, in the
	// order they appear in the response.
	candidates := map[string]bool{}
	for _, w := range textutil.Words(concept) {
		if len(w) >= 4 && !stopwords[w] {
			candidates[stem(w)] = true
		}
	}
	for _, w := range salientTerms(teaching, salientLimit) {
		candidates[w] = true
	}
	var concepts []string
	for _, w := range words {
		if candidates[stem(w)] {
			if !slices.Contains(concepts, w) {
				concepts = append(concepts, w)
			}
		}
	}

	var relationships []string
	for _, p := range relationPatterns {
		if m := p.FindString(norm); m != "" && !slices.Contains(relationships, m) {
			relationships = append(relationships, m)
		}
	}

	var misconceptions []string
	if m := absolutePattern.FindString(norm); m != "" {
		misconceptions = append(misconceptions, fmt.Sprintf("possible overgeneralization: %q", m))
	}
	if len(teaching) > 0 {
		teachNorm := " " + textutil.Normalize(strings.Join(teaching, " ")) + " "
		for _, m := range negatedVerbPattern.FindAllStringSubmatch(norm, -1) {
			verb := stem(m[1])
			if strings.Contains(teachNorm, " "+m[0]+" ") {
				continue
			}
			if strings.Contains(teachNorm, " "+verb+" ") || strings.Contains(teachNorm, " "+verb+"s ") {
				misconceptions = append(misconceptions, fmt.Sprintf("contradicts the lesson: %q", m[0]))
			}
		}
	}

	return assessment{
		concepts:       nonNil(concepts),
		relationships:  nonNil(relationships),
		misconceptions: nonNil(misconceptions),
		words:          len(words),
	}
}

// salientTerms returns the most frequent content words of the teaching
// messages, ties broken alphabetically.
func salientTerms(teaching []string, limit int) []string {
	freq := map[string]int{}
	for _, t := range teaching {
		for _, w := range textutil.Words(t) {
			if len(w) < 5 || stopwords[w] {
				continue
			}
			freq[stem(w)]++
		}
	}
	terms := make([]string, 0, len(freq))
	for w := range freq {
		terms = append(terms, w)
	}
	sort.Slice(terms, func(i, j int) bool {
		if freq[terms[i]] != freq[terms[j]] {
			return freq[terms[i]] > freq[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if len(terms) > limit {
		terms = terms[:limit]
	}
	return terms
}

// stem strips a plural "s" so "plants" and "plant" match.
func stem(w string) string {
	if len(w) > 4 && strings.HasSuffix(w, "s") &&
		!strings.HasSuffix(w, "ss") && !strings.HasSuffix(w, "is") && !strings.HasSuffix(w, "us") {
		return w[:len(w)-1]
	}
	return w
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// decide classifies an assessment.
func decide(cfg Config, a assessment, concept string, grade int) Result {
	res := Result{
		KeyConcepts:    a.concepts,
		Relationships:  a.relationships,
		Misconceptions: a.misconceptions,
		Source:         SourceHeuristic,
	}
	name := concept
	if name == "" {
		name = "the idea"
	}
	nc, nr, nm := len(a.concepts), len(a.relationships), len(a.misconceptions)
	reasoning := grade >= 9

	deepEnough := nr >= 1
	if reasoning {
		deepEnough = nr >= 2 || (nr == 1 && nc >= 3)
	}

	switch {
	case nm > 0 && (nm >= 2 || nc < 2):
		res.Classification = conversation.ClassificationRetry
		res.DepthAssessment = "misconceptions outweigh the correct ideas"
		res.Guidance = fmt.Sprintf("Some of that doesn't match how %s works (%s). Let's revisit that part, "+
			"then explain it again in your own words.", name, strings.Join(a.misconceptions, "; "))
	case nm > 0:
		res.Classification = conversation.ClassificationPartial
		res.DepthAssessment = "mostly accurate with a gap"
		res.Guidance = fmt.Sprintf("You've got a lot of %s right. One part needs another look: %s. "+
			"How would you put that piece more carefully?", name, strings.Join(a.misconceptions, "; "))
	case nc >= 2 && deepEnough && a.words >= cfg.PassMinWords:
		res.Classification = conversation.ClassificationPass
		if reasoning {
			res.DepthAssessment = "explains the causes and connections"
		} else {
			res.DepthAssessment = "captures the main idea and how it connects"
		}
		res.Guidance = fmt.Sprintf("Clear explanation that connects %s.", joinTerms(a.concepts, 3))
	case nc >= 1:
		res.Classification = conversation.ClassificationPartial
		res.DepthAssessment = "names the right ideas but the connections are thin"
		missing := "how those parts connect to each other"
		if reasoning {
			missing = "why it happens and how each part causes the next"
		}
		res.Guidance = fmt.Sprintf("You mentioned %s. What's still missing is %s.", joinTerms(a.concepts, 3), missing)
	default:
		res.Classification = conversation.ClassificationRetry
		res.DepthAssessment = "does not yet cover the concept"
		res.Guidance = fmt.Sprintf("Let's try again. Focus on %s: say what it is, what its main parts are, "+
			"and how they work together.", name)
	}
	return res
}

func joinTerms(terms []string, limit int) string {
	if len(terms) > limit {
		terms = terms[:limit]
	}
	switch len(terms) {
	case 0:
		return "some ideas"
	case 1:
		return terms[0]
	default:
		return strings.Join(terms[:len(terms)-1], ", ") + " and " + terms[len(terms)-1]
	}
}
