package exchange

import "regexp"

// rule is one entry of an ordered pattern table.
type rule struct {
	name    string
	pattern *regexp.Regexp
}

func r(name, expr string) rule {
	return rule{name: name, pattern: regexp.MustCompile(`(?im)` + expr)}
}

// exclusionRules mark checkpoint asks, feedback and celebration. Any match
// is a high-confidence non-teaching verdict.
var exclusionRules = []rule{
	r("own-words", `in your own words`),
	r("explain-back", `\b(can you|could you|try to) (explain|describe|tell me)\b`),
	r("great-job", `\bgreat (job|work)\b`),
	r("well-done", `\bwell done\b`),
	r("nice-work", `\bnice (job|work)\b`),
	r("try-again", `\blet'?s try (that |this )?again\b`),
	r("not-quite", `\bnot quite\b`),
	r("you-got-it", `\byou('ve)? got it\b`),
	r("congrats", `\bcongratulations\b`),
}

// inclusionRules mark explanatory language.
var inclusionRules = []rule{
	r("let-me-explain", `\blet me explain\b`),
	r("for-example", `\bfor (example|instance)\b`),
	r("this-means", `\bthis means( that)?\b`),
	r("in-other-words", `\bin other words\b`),
	r("think-of-it", `\bthink of (it|this) (like|as)\b`),
	r("imagine", `\bimagine\b`),
	r("heres-how", `\bhere'?s how\b`),
	r("the-reason", `\bthe reason\b`),
	r("because", `\bbecause\b`),
	r("which-is-why", `\bwhich is why\b`),
	r("works-by", `\bworks by\b`),
	r("defined-as", `\b(is|are) (called|defined as)\b`),
	r("step-label", `\bstep \d+\b`),
	r("numbered-step", `^\s*\d+[.)]\s+\S`),
	r("first-then", `\bfirst\b.*\bthen\b`),
}

// matchRules returns the names of rules in table order that match text.
func matchRules(rules []rule, text string) []string {
	var names []string
	for _, rl := range rules {
		if rl.pattern.MatchString(text) {
			names = append(names, rl.name)
		}
	}
	return names
}
