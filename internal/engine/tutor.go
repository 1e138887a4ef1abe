package engine

import (
	"context"

	"github.com/abhisek/proofloop/internal/conversation"
)

// TutorRequest is what the engine sends to the teaching text source.
type TutorRequest struct {
	StudentText string

	// Recent is the conversation so far, oldest first, without StudentText.
	Recent []conversation.Message

	GradeLevel int

	// LastProvenConcept is the concept proven most recently, so the tutor can
	// move on from it.
	LastProvenConcept string
}

// Tutor produces the next teaching message. The engine never writes
// teaching content itself.
type Tutor interface {
	Reply(ctx context.Context, req TutorRequest) (*conversation.Message, error)
}

// TutorFunc adapts a function to Tutor.
type TutorFunc func(ctx context.Context, req TutorRequest) (*conversation.Message, error)

func (f TutorFunc) Reply(ctx context.Context, req TutorRequest) (*conversation.Message, error) {
	return f(ctx, req)
}
