package prompt

import (
	"context"
	"fmt"
	"strings"

	"github.com/abhisek/proofloop/internal/conversation"
	"github.com/abhisek/proofloop/internal/llm"
	"github.com/abhisek/proofloop/internal/textutil"
)

// Generator produces explain-back prompts. The deterministic templates always
// satisfy the contract, so Generate never fails.
type Generator struct {
	provider llm.Provider
	cfg      Config
}

// NewGenerator creates a generator. provider may be nil.
func NewGenerator(provider llm.Provider, cfg Config) *Generator {
	if cfg.LookbackMessages <= 0 {
		cfg.LookbackMessages = DefaultConfig().LookbackMessages
	}
	return &Generator{provider: provider, cfg: cfg}
}

// Generate returns a prompt for req. A model candidate is used only if it
// passes Acceptable; anything else falls back to the grade template.
func (g *Generator) Generate(ctx context.Context, req Request) Result {
	concept := strings.TrimSpace(req.Concept)
	if concept == "" {
		concept = ExtractConcept(req.Recent, g.cfg.LookbackMessages)
	}
	grade := req.GradeLevel
	if grade <= 0 {
		grade = conversation.DefaultGradeLevel
	}

	if g.cfg.UseModel && g.provider != nil {
		if candidate, err := g.askModel(ctx, concept, grade, req.Recent); err == nil && Acceptable(candidate, concept) {
			return Result{Prompt: candidate, Concept: concept, Source: SourceModel}
		}
	}

	p, err := renderTemplate(concept, grade)
	if err != nil {
		// The templates are static; this only trips on a broken build.
		p = fmt.Sprintf("In your own words, how would you explain %s to a friend?", concept)
	}
	return Result{Prompt: p, Concept: concept, Source: SourceTemplate}
}

// ExtractConcept returns the most recent concept named in the metadata of
// the last lookback assistant messages, or FallbackConcept.
func ExtractConcept(recent []conversation.Message, lookback int) string {
	seen := 0
	for i := len(recent) - 1; i >= 0 && seen < lookback; i-- {
		m := recent[i]
		if m.Role != conversation.RoleAssistant {
			continue
		}
		seen++
		if c := strings.TrimSpace(m.Meta().Concept); c != "" {
			return c
		}
	}
	return FallbackConcept
}

func (g *Generator) askModel(ctx context.Context, concept string, grade int, recent []conversation.Message) (string, error) {
	ctx = llm.WithPurpose(ctx, llm.PurposePrompt)
	if g.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.Timeout)
		defer cancel()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Concept: %s\nStudent grade: %d\n\nRecent teaching:\n", concept, grade)
	for _, m := range recent {
		if m.Role == conversation.RoleAssistant {
			fmt.Fprintf(&b, "- %s\n", textutil.Excerpt(m.Content, 300))
		}
	}

	var out promptOutput
	err := llm.GenerateInto(ctx, g.provider, llm.Request{
		System:      promptSystemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: b.String()}},
		Schema:      PromptSchema,
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: g.cfg.Temperature,
	}, &out)
	if err != nil {
		return "", err
	}
	return textutil.Sanitize(out.Prompt), nil
}

const promptSystemPrompt = `You write one short question for a tutor to ask a student. The question must ask the student to explain the concept "in your own words", must name the concept, and must be open-ended: it cannot be answered with yes or no and must not start with is, are, do, does, did, can, could, would or will. Respond with JSON only.`
