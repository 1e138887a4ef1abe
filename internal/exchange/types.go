// Package exchange decides whether an assistant turn counts as a teaching
// exchange for checkpoint scheduling. Tiers run cheapest-first: metadata
// hints, then ordered pattern rules, then an optional model call.
package exchange

import "github.com/abhisek/proofloop/internal/conversation"

// Confidence is how sure a tier is of its verdict.
type Confidence string

const (
	ConfidenceHigh Confidence = "high"
	ConfidenceLow  Confidence = "low"
)

// Tier names the stage that produced a verdict.
type Tier string

const (
	TierMetadata Tier = "metadata"
	TierRules    Tier = "rules"
	TierModel    Tier = "model"
)

// Request is the input to Classify.
type Request struct {
	// Message is the assistant turn being classified.
	Message conversation.Message

	// Recent is the surrounding conversation, oldest first. Only the model
	// tier reads it.
	Recent []conversation.Message
}

// Result is the classifier verdict.
type Result struct {
	IsTeaching bool
	Confidence Confidence
	Tier       Tier

	// Reason is a short machine-readable explanation, e.g. the matched rule.
	Reason string

	// ModelCalls is the number of model calls spent on this request (0 or 1).
	ModelCalls int
}
