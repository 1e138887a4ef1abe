// Package prompt builds explain-back prompts that ask the student to restate
// a concept in their own words.
package prompt

import "github.com/abhisek/proofloop/internal/conversation"

// FallbackConcept is used when no concept can be found in the conversation.
const FallbackConcept = "the main idea we just covered"

// OwnWordsPhrase must appear in every generated prompt.
const OwnWordsPhrase = "in your own words"

// Source names where a prompt came from.
type Source string

const (
	SourceTemplate Source = "template"
	SourceModel    Source = "model"
)

// Request is the input to Generate.
type Request struct {
	// Concept overrides extraction from Recent when non-empty.
	Concept string

	// Recent is the conversation history, oldest first.
	Recent []conversation.Message

	GradeLevel int
}

// Result is a generated prompt.
type Result struct {
	Prompt  string
	Concept string
	Source  Source
}
