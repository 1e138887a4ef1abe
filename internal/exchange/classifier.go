package exchange

import (
	"context"
	"fmt"
	"strings"

	"github.com/abhisek/proofloop/internal/conversation"
	"github.com/abhisek/proofloop/internal/llm"
)

// Classifier labels assistant turns. It holds no per-request state and is
// safe for concurrent use.
type Classifier struct {
	provider llm.Provider
	cfg      Config
}

// NewClassifier creates a classifier. provider may be nil, which disables
// the model tier regardless of cfg.
func NewClassifier(provider llm.Provider, cfg Config) *Classifier {
	if cfg.ModelBudget < 0 {
		cfg.ModelBudget = 0
	}
	return &Classifier{provider: provider, cfg: cfg}
}

// budget counts model calls remaining for a single Classify call.
type budget struct {
	remaining int
}

func (b *budget) take() bool {
	if b.remaining <= 0 {
		return false
	}
	b.remaining--
	return true
}

// Classify decides whether req.Message is a teaching exchange.
func (c *Classifier) Classify(ctx context.Context, req Request) Result {
	msg := req.Message
	if msg.Role != conversation.RoleAssistant {
		return Result{IsTeaching: false, Confidence: ConfidenceHigh, Tier: TierMetadata, Reason: "not-assistant"}
	}

	// Tier 1: metadata hints.
	if res, ok := classifyMetadata(msg.Meta()); ok {
		return res
	}

	// Tier 2: pattern rules.
	res := classifyRules(msg.Content)
	if res.Confidence == ConfidenceHigh {
		return res
	}

	// Tier 3: model, only for low-confidence rule verdicts.
	if !c.cfg.ModelAssisted || c.provider == nil {
		return res
	}
	b := &budget{remaining: c.cfg.ModelBudget}
	if !b.take() {
		return res
	}
	res.ModelCalls = 1

	out, err := c.askModel(ctx, req)
	if err != nil {
		// Rule verdict stands.
		res.Reason += "; model: " + err.Error()
		return res
	}
	return Result{
		IsTeaching: *out.IsTeaching,
		Confidence: ConfidenceHigh,
		Tier:       TierModel,
		Reason:     fmt.Sprintf("model confidence %.2f", out.Confidence),
		ModelCalls: 1,
	}
}

func classifyMetadata(meta conversation.Metadata) (Result, bool) {
	switch {
	case meta.IsProofCheckpoint:
		return Result{IsTeaching: false, Confidence: ConfidenceHigh, Tier: TierMetadata, Reason: "proof-checkpoint"}, true
	case meta.IsValidationFeedback:
		return Result{IsTeaching: false, Confidence: ConfidenceHigh, Tier: TierMetadata, Reason: "validation-feedback"}, true
	case meta.IsCelebration:
		return Result{IsTeaching: false, Confidence: ConfidenceHigh, Tier: TierMetadata, Reason: "celebration"}, true
	case meta.IsTeachingExchange != nil:
		return Result{IsTeaching: *meta.IsTeachingExchange, Confidence: ConfidenceHigh, Tier: TierMetadata, Reason: "explicit"}, true
	}
	return Result{}, false
}

func classifyRules(content string) Result {
	if ex := matchRules(exclusionRules, content); len(ex) > 0 {
		return Result{IsTeaching: false, Confidence: ConfidenceHigh, Tier: TierRules, Reason: "exclude:" + ex[0]}
	}
	inc := matchRules(inclusionRules, content)
	switch len(inc) {
	case 0:
		return Result{IsTeaching: false, Confidence: ConfidenceLow, Tier: TierRules, Reason: "no-match"}
	case 1:
		return Result{IsTeaching: true, Confidence: ConfidenceLow, Tier: TierRules, Reason: "include:" + inc[0]}
	default:
		return Result{IsTeaching: true, Confidence: ConfidenceHigh, Tier: TierRules, Reason: "include:" + strings.Join(inc, ",")}
	}
}

func (c *Classifier) askModel(ctx context.Context, req Request) (*classifyOutput, error) {
	ctx = llm.WithPurpose(ctx, llm.PurposeClassify)

	var b strings.Builder
	for _, m := range req.Recent {
		fmt.Fprintf(&b, "[%s] %s\n", m.Role, m.Content)
	}
	fmt.Fprintf(&b, "\nMessage to classify:\n%s", req.Message.Content)

	var out classifyOutput
	err := llm.GenerateInto(ctx, c.provider, llm.Request{
		System:      classifySystemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: b.String()}},
		Schema:      ClassifySchema,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

const classifySystemPrompt = `You label tutor messages. A teaching message explains, demonstrates or gives an example of a concept. Questions that ask the student to restate material, praise, and feedback on a student's answer are not teaching. Respond with JSON only.`
