// Package tutor produces teaching replies from a model provider.
package tutor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/abhisek/proofloop/internal/conversation"
	"github.com/abhisek/proofloop/internal/engine"
	"github.com/abhisek/proofloop/internal/llm"
	"github.com/abhisek/proofloop/internal/textutil"
)

// ErrNoProvider is returned when the service has no model to call.
var ErrNoProvider = errors.New("tutor: no model provider configured")

// Service generates teaching replies. It implements engine.Tutor.
type Service struct {
	provider llm.Provider
	cfg      Config
}

var _ engine.Tutor = (*Service)(nil)

// NewService creates a tutor service.
func NewService(provider llm.Provider, cfg Config) *Service {
	if cfg.HistoryMessages <= 0 {
		cfg.HistoryMessages = DefaultConfig().HistoryMessages
	}
	return &Service{provider: provider, cfg: cfg}
}

// Reply asks the model for the next tutoring message. The returned message
// carries the concept and teaching hint the model reported.
func (s *Service) Reply(ctx context.Context, req engine.TutorRequest) (*conversation.Message, error) {
	if s.provider == nil {
		return nil, ErrNoProvider
	}
	ctx = llm.WithPurpose(ctx, llm.PurposeTeach)

	var out replyOutput
	err := llm.GenerateInto(ctx, s.provider, llm.Request{
		System:      buildSystemPrompt(req),
		Messages:    buildMessages(req, s.cfg.HistoryMessages),
		Schema:      ReplySchema,
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("generate tutor reply: %w", err)
	}

	text := textutil.Sanitize(out.Message)
	if text == "" {
		return nil, fmt.Errorf("generate tutor reply: empty message")
	}
	return &conversation.Message{
		Role:    conversation.RoleAssistant,
		Content: text,
		Metadata: &conversation.Metadata{
			IsTeachingExchange: conversation.Bool(*out.IsTeaching),
			Concept:            strings.TrimSpace(out.Concept),
		},
	}, nil
}

func buildSystemPrompt(req engine.TutorRequest) string {
	var b strings.Builder
	b.WriteString(systemPrompt)
	fmt.Fprintf(&b, "\n\nThe student is in grade %d. Pitch vocabulary and examples at that level.", req.GradeLevel)
	if req.LastProvenConcept != "" {
		fmt.Fprintf(&b, "\nThe student just showed they understand %s. Build on it when it helps.", req.LastProvenConcept)
	}
	return b.String()
}

// buildMessages maps recent history onto model messages and appends the
// student's new message. Leading assistant messages are dropped so the
// conversation starts with the student.
func buildMessages(req engine.TutorRequest, limit int) []llm.Message {
	recent := req.Recent
	if len(recent) > limit {
		recent = recent[len(recent)-limit:]
	}
	msgs := make([]llm.Message, 0, len(recent)+1)
	for _, m := range recent {
		var role llm.Role
		switch m.Role {
		case conversation.RoleUser:
			role = llm.RoleUser
		case conversation.RoleAssistant:
			role = llm.RoleAssistant
		default:
			continue
		}
		if len(msgs) == 0 && role == llm.RoleAssistant {
			continue
		}
		msgs = append(msgs, llm.Message{Role: role, Content: m.Content})
	}
	msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: req.StudentText})
	return msgs
}

const systemPrompt = `You are a patient tutor. Teach one idea at a time in two to five short sentences, with a concrete example when it helps. Do not quiz the student; the application asks its own check-in questions. Report the concept you are teaching as a short noun phrase, and set is_teaching to false for greetings, small talk or logistics. Respond with JSON only.`
