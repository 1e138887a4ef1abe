package validation

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/abhisek/proofloop/internal/conversation"
	"github.com/abhisek/proofloop/internal/llm"
	"github.com/abhisek/proofloop/internal/textutil"
)

// Validator scores explain-back responses. It is safe for concurrent use.
type Validator struct {
	provider llm.Provider
	cfg      Config
	log      *zap.Logger
}

// NewValidator creates a validator. A nil provider selects the heuristic
// assessment; a nil logger discards logs.
func NewValidator(provider llm.Provider, cfg Config, log *zap.Logger) *Validator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Validator{provider: provider, cfg: cfg, log: log}
}

// Validate classifies req.Response. It never fails: any internal error,
// timeout or panic yields Fallback.
func (v *Validator) Validate(ctx context.Context, req Request) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			v.log.Error("validator panic recovered", zap.Any("panic", r))
			res = Fallback()
		}
	}()

	response := truncateRunes(textutil.Sanitize(req.Response), v.cfg.MaxResponseRunes)
	grade := req.GradeLevel
	if grade <= 0 {
		grade = conversation.DefaultGradeLevel
	}

	// Step 1: insufficient-response screen.
	sources := append(append([]string{}, req.TeachingContext...), req.Prompt)
	if s := screen(v.cfg, response, req.Concept, sources); s.any() {
		a := assess(response, req.Concept, req.TeachingContext)
		return complete(Result{
			Classification:        conversation.ClassificationRetry,
			KeyConcepts:           a.concepts,
			Relationships:         a.relationships,
			Misconceptions:        a.misconceptions,
			DepthAssessment:       "insufficient response",
			Guidance:              screenGuidance(s, req.Concept),
			IsParroting:           s.parrot,
			IsKeywordStuffing:     s.stuffing,
			IsVagueAcknowledgment: s.vague,
			Source:                SourceScreen,
		})
	}

	// Steps 2 and 3: comprehension assessment and decision.
	if v.provider == nil {
		a := assess(response, req.Concept, req.TeachingContext)
		return complete(decide(v.cfg, a, req.Concept, grade))
	}

	out, err := v.evaluate(ctx, req, response, grade)
	if err != nil {
		v.log.Warn("evaluation fell back",
			zap.String("concept", req.Concept),
			zap.Error(err))
		return Fallback()
	}
	return complete(out)
}

// evaluate asks the model for an assessment and checks it strictly.
func (v *Validator) evaluate(ctx context.Context, req Request, response string, grade int) (Result, error) {
	ctx = llm.WithPurpose(ctx, llm.PurposeEvaluate)
	if v.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.cfg.Timeout)
		defer cancel()
	}

	var out evaluationOutput
	err := llm.GenerateInto(ctx, v.provider, llm.Request{
		System:      evaluationSystemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: buildEvaluationMessage(req, response, grade)}},
		Schema:      EvaluationSchema,
		MaxTokens:   v.cfg.MaxTokens,
		Temperature: v.cfg.Temperature,
	}, &out)
	if err != nil {
		if llm.IsInvalidResponse(err) {
			return Result{}, fmt.Errorf("%w: %w", ErrMalformedEvaluation, err)
		}
		return Result{}, fmt.Errorf("evaluate response: %w", err)
	}

	class := conversation.Classification(out.Classification)
	// A pass that lists misconceptions is inconsistent; treat it as partial.
	if class == conversation.ClassificationPass && len(out.Misconceptions) > 0 {
		class = conversation.ClassificationPartial
	}
	return Result{
		Classification:  class,
		KeyConcepts:     out.KeyConcepts,
		Relationships:   out.Relationships,
		Misconceptions:  out.Misconceptions,
		DepthAssessment: out.DepthAssessment,
		Guidance:        textutil.Sanitize(out.Guidance),
		Source:          SourceModel,
	}, nil
}

func buildEvaluationMessage(req Request, response string, grade int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Concept: %s\nStudent grade: %d\n", req.Concept, grade)
	if req.Prompt != "" {
		fmt.Fprintf(&b, "Question asked: %s\n", req.Prompt)
	}
	b.WriteString("\nWhat was taught:\n")
	for _, t := range req.TeachingContext {
		fmt.Fprintf(&b, "- %s\n", textutil.Excerpt(t, 600))
	}
	fmt.Fprintf(&b, "\nStudent's explanation:\n%s\n", response)
	return b.String()
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}

const evaluationSystemPrompt = `You check whether a student understood a concept from their own explanation.

Classify as:
- "pass": the key ideas are present, they are connected with cause-and-effect or relational language, and there are no misconceptions.
- "partial": the key ideas are present but connections or depth are thin, or there is a small gap.
- "retry": misconceptions dominate or the explanation barely covers the concept.

Expect more causal reasoning from grade 9 and up. List key concepts the student mentioned, the relationships they expressed, and any misconceptions. The guidance is addressed to the student: warm, specific, and it says what to add next. Never use the words fail, wrong or bad. Respond with JSON only.`
