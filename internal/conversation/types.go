// Package conversation defines the per-chat state carried between turns and
// the message shapes exchanged with the chat transport.
package conversation

// Mode is the checkpoint state machine's current state.
type Mode string

const (
	ModeTeaching   Mode = "teaching"
	ModeCheckpoint Mode = "checkpoint"
)

// Classification is the verdict produced for a checkpoint attempt.
type Classification string

const (
	ClassificationPass    Classification = "pass"
	ClassificationPartial Classification = "partial"
	ClassificationRetry   Classification = "retry"
)

// Valid reports whether c is one of the three known verdicts.
func (c Classification) Valid() bool {
	switch c {
	case ClassificationPass, ClassificationPartial, ClassificationRetry:
		return true
	}
	return false
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Metadata carries classifier hints attached by upstream layers. Hints take
// precedence over inferred classification.
type Metadata struct {
	// IsTeachingExchange is tri-state: nil means "not annotated".
	IsTeachingExchange   *bool          `json:"isTeachingExchange,omitempty"`
	IsProofCheckpoint    bool           `json:"isProofCheckpoint,omitempty"`
	IsValidationFeedback bool           `json:"isValidationFeedback,omitempty"`
	IsCelebration        bool           `json:"isCelebration,omitempty"`
	Concept              string         `json:"concept,omitempty"`
	Classification       Classification `json:"classification,omitempty"`
	ShouldReteach        bool           `json:"shouldReteach,omitempty"`
}

// Message is a single chat turn.
type Message struct {
	Role     Role      `json:"role"`
	Content  string    `json:"content"`
	Metadata *Metadata `json:"metadata,omitempty"`
}

// Meta returns the message metadata, or an empty value when absent.
func (m Message) Meta() Metadata {
	if m.Metadata == nil {
		return Metadata{}
	}
	return *m.Metadata
}

// Bool returns a pointer to b, for setting tri-state metadata fields.
func Bool(b bool) *bool { return &b }
