// Package engine is the checkpoint state machine. Each ProcessMessage call
// applies one student turn to a conversation: teaching turns call the tutor
// and may open a checkpoint; checkpoint turns validate the student's
// explain-back, respond, and record a proof event.
package engine

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/proofloop/internal/conversation"
	"github.com/abhisek/proofloop/internal/exchange"
	"github.com/abhisek/proofloop/internal/feedback"
	"github.com/abhisek/proofloop/internal/frequency"
	"github.com/abhisek/proofloop/internal/llm"
	"github.com/abhisek/proofloop/internal/metrics"
	"github.com/abhisek/proofloop/internal/prompt"
	"github.com/abhisek/proofloop/internal/prooflog"
	"github.com/abhisek/proofloop/internal/store"
	"github.com/abhisek/proofloop/internal/textutil"
	"github.com/abhisek/proofloop/internal/validation"
)

// ErrNoProofLog is returned by the query methods when the engine was built
// without a proof logger.
var ErrNoProofLog = errors.New("proof logging is not configured")

// Input is one student turn.
type Input struct {
	StudentText string
	State       conversation.State

	// Recent is the conversation history before this turn, oldest first.
	Recent []conversation.Message

	ChatID    string
	StudentID string
}

// Result is the outcome of a turn.
type Result struct {
	AssistantText string
	State         conversation.State
	Metadata      conversation.Metadata

	// Exchange is set on teaching turns.
	Exchange *exchange.Result

	// Validation is set on checkpoint turns.
	Validation *validation.Result

	// Logged reports whether the proof event was stored on this turn.
	Logged bool
}

// Engine wires the pipeline together. It keeps no per-conversation state and
// is safe for concurrent use across conversations.
type Engine struct {
	tutor      Tutor
	classifier *exchange.Classifier
	frequency  *frequency.Calculator
	prompts    *prompt.Generator
	validator  *validation.Validator
	proofs     *prooflog.Logger
	cfg        Config

	log     *zap.Logger
	metrics *metrics.Metrics
	random  textutil.IntSource
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the zap logger.
func WithLogger(log *zap.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithRandom sets the random source used for checkpoint targets.
func WithRandom(src textutil.IntSource) Option {
	return func(e *Engine) { e.random = src }
}

// New creates an engine. provider is the evaluation model and may be nil;
// proofs may be nil to disable proof logging.
func New(tutor Tutor, provider llm.Provider, proofs *prooflog.Logger, cfg Config, opts ...Option) *Engine {
	e := &Engine{
		tutor:  tutor,
		proofs: proofs,
		cfg:    cfg,
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.cfg.RecentLimit <= 0 {
		e.cfg.RecentLimit = DefaultConfig().RecentLimit
	}
	if e.cfg.TeachingContextSize <= 0 {
		e.cfg.TeachingContextSize = DefaultConfig().TeachingContextSize
	}

	e.classifier = exchange.NewClassifier(provider, cfg.Classifier)
	e.frequency = frequency.NewCalculator(e.random)
	e.prompts = prompt.NewGenerator(provider, cfg.Prompt)
	e.validator = validation.NewValidator(provider, cfg.Validation, e.log.Named("validation"))
	return e
}

// ProcessMessage applies one student turn. The only error it returns is the
// context error when ctx ends mid-turn; the caller then keeps its prior
// state. Every other failure degrades to a well-formed Result.
func (e *Engine) ProcessMessage(ctx context.Context, in Input) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	state := conversation.Normalize(in.State)

	e.log.Debug("processing turn",
		zap.String("chat_id", in.ChatID),
		zap.String("mode", string(state.Mode)),
		zap.Int("count", state.TeachingExchangeCount))

	var res *Result
	var err error
	if state.InCheckpoint() {
		res, err = e.checkpointTurn(ctx, in, state)
	} else {
		res, err = e.teachingTurn(ctx, in, state)
	}
	if err != nil {
		return nil, err
	}
	e.metrics.ObserveTurn(string(state.Mode), time.Since(start))
	return res, nil
}

func (e *Engine) teachingTurn(ctx context.Context, in Input, state conversation.State) (*Result, error) {
	recent := lastN(in.Recent, e.cfg.RecentLimit)

	reply, err := e.tutor.Reply(ctx, TutorRequest{
		StudentText:       in.StudentText,
		Recent:            recent,
		GradeLevel:        state.GradeLevel,
		LastProvenConcept: lastOf(state.ConceptsProvenThisSession),
	})
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err != nil || reply == nil || strings.TrimSpace(reply.Content) == "" {
		e.log.Warn("tutor call failed, using fallback reply",
			zap.String("chat_id", in.ChatID),
			zap.Error(err))
		reply = fallbackReply()
	}
	reply.Role = conversation.RoleAssistant

	cls := e.classifier.Classify(ctx, exchange.Request{Message: *reply, Recent: recent})
	e.metrics.Exchange(cls.IsTeaching)
	if cls.IsTeaching {
		state.TeachingExchangeCount++
	}

	meta := reply.Meta()
	meta.IsTeachingExchange = conversation.Bool(cls.IsTeaching)

	res := &Result{
		AssistantText: reply.Content,
		State:         state,
		Metadata:      meta,
		Exchange:      &cls,
	}
	// Only a teaching exchange can advance the schedule; other turns keep
	// the stored target.
	if !cls.IsTeaching {
		return res, nil
	}

	decision := e.frequency.ShouldTrigger(state)
	state.NextCheckpointTarget = decision.NextTarget
	res.State = state
	if !decision.Trigger {
		return res, nil
	}

	history := append(append([]conversation.Message{}, recent...), *reply)
	p := e.prompts.Generate(ctx, prompt.Request{
		Concept:    meta.Concept,
		Recent:     history,
		GradeLevel: state.GradeLevel,
	})
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	res.State = state.EnterCheckpoint(p.Concept, p.Prompt)
	res.AssistantText = reply.Content + "\n\n" + p.Prompt
	res.Metadata.IsProofCheckpoint = true
	res.Metadata.Concept = p.Concept

	e.metrics.CheckpointTriggered()
	e.log.Info("checkpoint triggered",
		zap.String("chat_id", in.ChatID),
		zap.String("concept", p.Concept),
		zap.Int("count", state.TeachingExchangeCount),
		zap.Int("target", decision.NextTarget),
		zap.String("prompt_source", string(p.Source)))
	return res, nil
}

func (e *Engine) checkpointTurn(ctx context.Context, in Input, state conversation.State) (*Result, error) {
	concept := state.CurrentCheckpointConcept
	if concept == "" {
		concept = prompt.FallbackConcept
	}
	// The placeholder names no real concept, so it is never recorded as proven.
	proven := concept
	if proven == prompt.FallbackConcept {
		proven = ""
	}
	teaching := teachingContext(in.Recent, state.LastCheckpointPrompt, e.cfg.TeachingContextSize)

	vr := e.validator.Validate(ctx, validation.Request{
		Response:        in.StudentText,
		Concept:         concept,
		TeachingContext: teaching,
		Prompt:          state.LastCheckpointPrompt,
		GradeLevel:      state.GradeLevel,
	})
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	e.metrics.Validation(string(vr.Classification))

	fb := feedback.Generate(feedback.Request{
		Result:          vr,
		State:           state,
		Concept:         concept,
		TeachingContext: teaching,
	})

	next := state.RecordResult(vr.Classification)
	next.CheckpointAttempts++

	logged := false
	if e.proofs != nil {
		logged = e.proofs.LogEvent(ctx, prooflog.Attempt{
			ChatID:    in.ChatID,
			StudentID: in.StudentID,
			Concept:   proven,
			Prompt:    state.LastCheckpointPrompt,
			Response:  in.StudentText,
			Result:    vr,
		})
	}

	if fb.ShouldAdvance {
		next = next.MarkProven(proven).ExitCheckpoint()
		next.NextCheckpointTarget = e.frequency.CalculateTarget(next.LastThreeValidationResults)
	}

	return &Result{
		AssistantText: fb.Content,
		State:         next,
		Metadata:      fb.Metadata,
		Validation:    &vr,
		Logged:        logged,
	}, nil
}

// StudentProofHistory returns a student's proof events, newest first.
func (e *Engine) StudentProofHistory(ctx context.Context, studentID string, limit int) ([]store.ProofEvent, error) {
	if e.proofs == nil {
		return nil, ErrNoProofLog
	}
	return e.proofs.StudentHistory(ctx, studentID, limit)
}

// ChatProofEvents returns a chat's proof events, oldest first.
func (e *Engine) ChatProofEvents(ctx context.Context, chatID string) ([]store.ProofEvent, error) {
	if e.proofs == nil {
		return nil, ErrNoProofLog
	}
	return e.proofs.ChatEvents(ctx, chatID)
}

// ProofStats aggregates a student's proof events across sessions.
func (e *Engine) ProofStats(ctx context.Context, studentID string) (*prooflog.Stats, error) {
	if e.proofs == nil {
		return nil, ErrNoProofLog
	}
	return e.proofs.Stats(ctx, studentID)
}

func fallbackReply() *conversation.Message {
	return &conversation.Message{
		Role: conversation.RoleAssistant,
		Content: "I'm having trouble putting my next explanation together right now. " +
			"Tell me which part you'd like to go over and we'll pick it up from there.",
		Metadata: &conversation.Metadata{IsTeachingExchange: conversation.Bool(false)},
	}
}

// teachingContext returns up to n recent teaching message bodies, oldest
// first. Feedback messages are skipped and the checkpoint prompt is removed
// from the message that carried it.
func teachingContext(recent []conversation.Message, checkpointPrompt string, n int) []string {
	var out []string
	for i := len(recent) - 1; i >= 0 && len(out) < n; i-- {
		m := recent[i]
		if m.Role != conversation.RoleAssistant {
			continue
		}
		meta := m.Meta()
		if meta.IsValidationFeedback || meta.IsCelebration {
			continue
		}
		content := m.Content
		if checkpointPrompt != "" {
			content = strings.ReplaceAll(content, checkpointPrompt, "")
		}
		if content = strings.TrimSpace(content); content != "" {
			out = append(out, content)
		}
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

func lastN[T any](s []T, n int) []T {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

func lastOf(s []string) string {
	if len(s) == 0 {
		return ""
	}
	return s[len(s)-1]
}
