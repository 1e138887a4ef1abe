// Package prooflog records explain-back attempts as proof events. Writes are
// idempotent per (chat, response hash); transient storage failures park the
// event in a retry buffer that a background sweep drains.
package prooflog

import (
	"time"

	"github.com/abhisek/proofloop/internal/conversation"
	"github.com/abhisek/proofloop/internal/store"
	"github.com/abhisek/proofloop/internal/validation"
)

// Abandonment reasons.
const (
	ReasonTTL         = "ttl"
	ReasonMaxAttempts = "max_attempts"
)

// Attempt is one validated explain-back response.
type Attempt struct {
	ChatID    string
	StudentID string
	Concept   string
	Prompt    string
	Response  string
	Result    validation.Result
}

// Stats aggregates a student's proof events.
type Stats struct {
	StudentID        string
	TotalAttempts    int
	ByClassification map[conversation.Classification]int
	PassRate         float64
	ConceptsProven   []string
}

// pending is a retry buffer entry.
type pending struct {
	event         store.ProofEvent
	attempts      int
	firstQueuedAt time.Time
	lastAttemptAt time.Time
}
