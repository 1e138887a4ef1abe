// Package validation classifies a student's explain-back response as pass,
// partial or retry. A deterministic screen for low-effort answers always runs
// first; comprehension is then assessed by the evaluation model when one is
// configured, or by a heuristic otherwise.
package validation

import (
	"errors"

	"github.com/abhisek/proofloop/internal/conversation"
)

// ErrMalformedEvaluation marks evaluation model output that failed schema or
// struct validation.
var ErrMalformedEvaluation = errors.New("malformed evaluation")

// Source names the stage that decided a Result.
type Source string

const (
	SourceScreen    Source = "screen"
	SourceHeuristic Source = "heuristic"
	SourceModel     Source = "model"
	SourceFallback  Source = "fallback"
)

// Request is the input to Validate.
type Request struct {
	Response string
	Concept  string

	// TeachingContext holds the recent teaching messages the response is
	// checked against, oldest first.
	TeachingContext []string

	Prompt     string
	GradeLevel int
}

// Result is an immutable validation verdict. Slices are never nil.
type Result struct {
	Classification        conversation.Classification `json:"classification"`
	KeyConcepts           []string                    `json:"keyConcepts"`
	Relationships         []string                    `json:"relationships"`
	Misconceptions        []string                    `json:"misconceptions"`
	DepthAssessment       string                      `json:"depthAssessment"`
	Guidance              string                      `json:"guidance"`
	IsParroting           bool                        `json:"isParroting"`
	IsKeywordStuffing     bool                        `json:"isKeywordStuffing"`
	IsVagueAcknowledgment bool                        `json:"isVagueAcknowledgment"`
	Source                Source                      `json:"source"`
}

// Insufficient reports whether the screen flagged the response.
func (r Result) Insufficient() bool {
	return r.IsParroting || r.IsKeywordStuffing || r.IsVagueAcknowledgment
}

// FallbackGuidance is the guidance carried by Fallback.
const FallbackGuidance = "Thanks for sharing your explanation. Let's take it one step further: " +
	"describe the main parts of the idea and explain how they connect, using words like " +
	"\"because\" or \"so\" to link cause and effect."

// Fallback is the safe result used when assessment cannot complete.
func Fallback() Result {
	return Result{
		Classification:  conversation.ClassificationPartial,
		KeyConcepts:     []string{},
		Relationships:   []string{},
		Misconceptions:  []string{},
		DepthAssessment: "not assessed",
		Guidance:        FallbackGuidance,
		Source:          SourceFallback,
	}
}

// complete fills nil slices and empty strings so every Result is fully
// populated.
func complete(r Result) Result {
	if r.KeyConcepts == nil {
		r.KeyConcepts = []string{}
	}
	if r.Relationships == nil {
		r.Relationships = []string{}
	}
	if r.Misconceptions == nil {
		r.Misconceptions = []string{}
	}
	if !r.Classification.Valid() {
		r.Classification = conversation.ClassificationPartial
	}
	if r.DepthAssessment == "" {
		r.DepthAssessment = "not assessed"
	}
	if r.Guidance == "" {
		r.Guidance = FallbackGuidance
	}
	return r
}
