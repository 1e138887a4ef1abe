package validation

import (
	"fmt"
	"regexp"
	"slices"
	"sort"
	"strings"

	"github.com/abhisek/proofloop/internal/textutil"
)

// vaguePhrases are empty affirmations, matched longest first. A response
// made only of these, filler words and the concept's own name says nothing
// about the concept.
var vaguePhrases = sortedByLength([]string{
	"i understand",
	"i get it",
	"i get that",
	"i got it",
	"got it",
	"gotcha",
	"that makes sense",
	"makes sense",
	"it makes sense",
	"sounds good",
	"all good",
	"i think so",
	"i know",
	"i see",
	"understood",
	"ok",
	"okay",
	"sure",
	"yes",
	"yeah",
	"yep",
	"yup",
	"cool",
	"i don't know",
	"i'm not sure",
	"not sure",
	"idk",
	"no idea",
})

// fillerWords carry no content on their own.
var fillerWords = map[string]bool{
	"a": true, "all": true, "alright": true, "also": true, "and": true,
	"basically": true, "clear": true, "completely": true, "definitely": true,
	"fully": true, "get": true, "got": true, "great": true, "good": true,
	"guess": true, "hmm": true, "i": true, "i'm": true, "it": true,
	"it's": true, "just": true, "know": true, "lol": true, "makes": true,
	"me": true, "much": true, "nice": true, "now": true, "oh": true,
	"perfectly": true, "pretty": true, "really": true, "right": true,
	"see": true, "sense": true, "so": true, "thank": true, "thanks": true,
	"that": true, "that's": true, "the": true, "think": true, "this": true,
	"too": true, "totally": true, "uh": true, "um": true, "understand": true,
	"very": true, "well": true, "you": true,
}

func sortedByLength(phrases []string) [][]string {
	out := make([][]string, 0, len(phrases))
	for _, p := range phrases {
		out = append(out, strings.Fields(p))
	}
	sort.SliceStable(out, func(i, j int) bool { return len(out[i]) > len(out[j]) })
	return out
}

// listSeparators split enumerations.
var listSeparators = regexp.MustCompile(`[,;/\n•]|(^|\s)[-*](\s|$)`)

// connectives is language that links terms into an explanation.
var connectives = map[string]bool{
	"because": true, "so": true, "which": true, "that": true, "when": true,
	"then": true, "to": true, "by": true, "into": true, "makes": true,
	"make": true, "causes": true, "cause": true, "means": true, "is": true,
	"are": true, "uses": true, "use": true, "gives": true, "turns": true,
	"produces": true, "if": true, "since": true, "therefore": true,
}

// listJoiners may appear inside a bare term list.
var listJoiners = map[string]bool{"and": true, "or": true, "also": true}

// functionWords mark a sentence rather than a list of terms.
var functionWords = map[string]bool{
	"a": true, "an": true, "the": true, "in": true, "on": true, "of": true,
	"at": true, "for": true, "from": true, "with": true, "it": true,
	"they": true, "them": true, "their": true, "its": true, "this": true,
	"these": true, "those": true, "i": true, "we": true, "you": true,
	"he": true, "she": true, "not": true, "no": true, "but": true,
	"was": true, "were": true, "be": true, "been": true, "has": true,
	"have": true, "had": true, "do": true, "does": true, "did": true,
	"can": true, "will": true, "would": true, "could": true, "should": true,
}

// listVerbs are common explanation verbs not already counted as connectives.
var listVerbs = map[string]bool{
	"absorb": true, "absorbs": true, "take": true, "takes": true, "need": true,
	"needs": true, "get": true, "gets": true, "give": true, "come": true,
	"comes": true, "go": true, "goes": true, "help": true, "helps": true,
	"grow": true, "grows": true, "become": true, "becomes": true, "happen": true,
	"happens": true, "work": true, "works": true, "move": true, "moves": true,
	"store": true, "stores": true, "create": true, "creates": true, "form": true,
	"forms": true, "change": true, "changes": true, "release": true,
	"releases": true, "produce": true, "let": true, "lets": true, "keep": true,
	"keeps": true, "eat": true, "eats": true, "breathe": true, "breathes": true,
	"carry": true, "carries": true, "break": true, "breaks": true,
}

type screenResult struct {
	vague    bool
	parrot   bool
	stuffing bool
}

func (s screenResult) any() bool { return s.vague || s.parrot || s.stuffing }

// screen runs the insufficient-response checks.
func screen(cfg Config, response, concept string, sources []string) screenResult {
	words := textutil.Words(response)
	return screenResult{
		vague:    isVague(words, concept),
		parrot:   isParroting(words, sources, cfg.ParrotThreshold, cfg.ParrotMinWords),
		stuffing: isKeywordStuffing(response, words),
	}
}

// isVague reports whether nothing is left of the response once affirmations,
// filler words and the concept's own name are removed.
func isVague(words []string, concept string) bool {
	own := make(map[string]bool)
	for _, w := range textutil.Words(concept) {
		own[w] = true
		own[stem(w)] = true
	}
	for i := 0; i < len(words); {
		if n := matchPhrase(words[i:]); n > 0 {
			i += n
			continue
		}
		if fillerWords[words[i]] || own[words[i]] || own[stem(words[i])] {
			i++
			continue
		}
		return false
	}
	return true
}

// matchPhrase returns the length of the longest vague phrase at the start of
// words, or 0.
func matchPhrase(words []string) int {
	for _, phrase := range vaguePhrases {
		if len(phrase) <= len(words) && slices.Equal(words[:len(phrase)], phrase) {
			return len(phrase)
		}
	}
	return 0
}

// isParroting reports whether most of the response's word 4-grams are lifted
// from the sources.
func isParroting(words []string, sources []string, threshold float64, minWords int) bool {
	if len(words) < minWords || len(words) < 4 {
		return false
	}
	known := make(map[string]bool)
	for _, src := range sources {
		sw := textutil.Words(src)
		for i := 0; i+4 <= len(sw); i++ {
			known[strings.Join(sw[i:i+4], " ")] = true
		}
	}
	if len(known) == 0 {
		return false
	}

	total, hits := 0, 0
	for i := 0; i+4 <= len(words); i++ {
		total++
		if known[strings.Join(words[i:i+4], " ")] {
			hits++
		}
	}
	return float64(hits)/float64(total) >= threshold
}

// isKeywordStuffing reports whether the response is a bare list of terms
// with no linking language. Separated lists need at least three short
// segments; unseparated ones need at least three terms and no verb or
// function word at all.
func isKeywordStuffing(response string, words []string) bool {
	if len(words) == 0 {
		return false
	}
	for _, w := range words {
		if connectives[w] {
			return false
		}
	}

	segments := 0
	for _, seg := range listSeparators.Split(response, -1) {
		segWords := textutil.Words(seg)
		if len(segWords) == 0 {
			continue
		}
		if len(segWords) > 3 {
			segments = 0
			break
		}
		segments++
	}
	if segments >= 3 {
		return true
	}
	return isBareTermList(words)
}

func isBareTermList(words []string) bool {
	terms := 0
	for _, w := range words {
		switch {
		case listJoiners[w]:
			continue
		case functionWords[w], listVerbs[w], looksInflected(w):
			return false
		}
		terms++
	}
	return terms >= 3
}

// looksInflected catches past tenses and gerunds such as "released" or
// "making".
func looksInflected(w string) bool {
	return len(w) > 4 && (strings.HasSuffix(w, "ed") || strings.HasSuffix(w, "ing"))
}

// screenGuidance explains what the flagged response was missing.
func screenGuidance(s screenResult, concept string) string {
	name := concept
	if name == "" {
		name = "the idea"
	}
	switch {
	case s.vague:
		return fmt.Sprintf("It's great that it feels clear! To show it, explain %s as if teaching a friend: "+
			"say what it is, what happens step by step, and give one example.", name)
	case s.parrot:
		return fmt.Sprintf("That closely repeats the explanation we just went through. Let's try again with your own "+
			"phrasing: describe %s using different words, and add an example or comparison of your own.", name)
	default:
		return fmt.Sprintf("You've listed some key terms, which is a good start. Now connect them: explain how "+
			"those parts of %s relate to each other, using words like \"because\" or \"so\" to show what causes what.", name)
	}
}
