package prooflog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/abhisek/proofloop/internal/conversation"
	"github.com/abhisek/proofloop/internal/metrics"
	"github.com/abhisek/proofloop/internal/store"
	"github.com/abhisek/proofloop/internal/textutil"
)

// Logger persists proof events. It is safe for concurrent use; the retry
// buffer is the only state shared across conversations.
type Logger struct {
	repo    store.ProofEventRepo
	cfg     Config
	log     *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	mu     sync.Mutex
	buffer map[string]*pending

	sweeping atomic.Bool

	lifecycle sync.Mutex
	cancel    context.CancelFunc
	done      chan struct{}
}

// Option configures a Logger.
type Option func(*Logger)

// WithLogger sets the zap logger.
func WithLogger(log *zap.Logger) Option {
	return func(l *Logger) {
		if log != nil {
			l.log = log
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Logger) { l.metrics = m }
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Logger) {
		if now != nil {
			l.now = now
		}
	}
}

// New creates a Logger writing to repo. Call Start to run the retry sweep.
func New(repo store.ProofEventRepo, cfg Config, opts ...Option) *Logger {
	def := DefaultConfig()
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}
	if cfg.RetryTTL <= 0 {
		cfg.RetryTTL = def.RetryTTL
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = def.SweepInterval
	}
	l := &Logger{
		repo:   repo,
		cfg:    cfg,
		log:    zap.NewNop(),
		now:    time.Now,
		buffer: make(map[string]*pending),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LogEvent records a. It reports true when the event is stored, including
// when an identical event already was. On any other failure the event is
// buffered for retry and LogEvent reports false.
func (l *Logger) LogEvent(ctx context.Context, a Attempt) bool {
	at := l.now()
	hash := textutil.ResponseHash(a.ChatID, a.Response, at)

	result, err := json.Marshal(a.Result)
	if err != nil {
		// Result holds only strings, slices and bools.
		result = []byte("{}")
	}
	class := a.Result.Classification
	if !class.Valid() {
		class = conversation.ClassificationPartial
	}

	ev := store.ProofEvent{
		ID:                     uuid.NewString(),
		ChatID:                 a.ChatID,
		StudentID:              a.StudentID,
		Concept:                a.Concept,
		Prompt:                 a.Prompt,
		StudentResponse:        a.Response,
		StudentResponseExcerpt: textutil.Excerpt(a.Response, textutil.ExcerptLimit),
		ResponseHash:           hash,
		ValidationResult:       result,
		Classification:         string(class),
		CreatedAt:              at,
	}

	err = l.write(ctx, ev)
	switch {
	case err == nil:
		l.metrics.ProofEvent(metrics.OutcomeStored)
		return true
	case errors.Is(err, store.ErrDuplicate):
		l.metrics.ProofEvent(metrics.OutcomeDuplicate)
		return true
	}

	l.enqueue(ev, at)
	l.log.Warn("proof event buffered for retry",
		zap.String("chat_id", a.ChatID),
		zap.String("hash", hash),
		zap.Bool("transient", store.IsBusy(err)),
		zap.Error(err))
	l.metrics.ProofEvent(metrics.OutcomeBuffered)
	return false
}

func (l *Logger) write(ctx context.Context, ev store.ProofEvent) error {
	ctx, cancel := context.WithTimeout(ctx, l.cfg.WriteTimeout)
	defer cancel()
	return l.repo.Insert(ctx, ev)
}

func (l *Logger) enqueue(ev store.ProofEvent, at time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.buffer[ev.ResponseHash]; !ok {
		l.buffer[ev.ResponseHash] = &pending{
			event:         ev,
			attempts:      1,
			firstQueuedAt: at,
			lastAttemptAt: at,
		}
	}
	l.metrics.RetryBufferSize(len(l.buffer))
}

// Pending returns the number of buffered events.
func (l *Logger) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buffer)
}

// Sweep runs one retry pass: expired or exhausted entries are dropped, the
// rest are written again. A sweep that overlaps a running one is skipped;
// Sweep reports whether it ran.
func (l *Logger) Sweep(ctx context.Context) bool {
	if !l.sweeping.CompareAndSwap(false, true) {
		return false
	}
	defer l.sweeping.Store(false)

	now := l.now()
	var retry []*pending

	l.mu.Lock()
	for hash, p := range l.buffer {
		reason := ""
		switch {
		case now.Sub(p.firstQueuedAt) > l.cfg.RetryTTL:
			reason = ReasonTTL
		case p.attempts >= l.cfg.MaxAttempts:
			reason = ReasonMaxAttempts
		}
		if reason != "" {
			delete(l.buffer, hash)
			l.log.Warn("proof event abandoned",
				zap.String("hash", hash),
				zap.String("chat_id", p.event.ChatID),
				zap.Int("attempts", p.attempts),
				zap.String("reason", reason))
			l.metrics.ProofEvent(metrics.OutcomeAbandoned)
			continue
		}
		retry = append(retry, p)
	}
	l.mu.Unlock()

	for _, p := range retry {
		if ctx.Err() != nil {
			break
		}
		err := l.write(ctx, p.event)

		l.mu.Lock()
		p.attempts++
		p.lastAttemptAt = now
		if err == nil || errors.Is(err, store.ErrDuplicate) {
			delete(l.buffer, p.event.ResponseHash)
		}
		l.mu.Unlock()

		if err == nil || errors.Is(err, store.ErrDuplicate) {
			l.log.Debug("proof event retry succeeded",
				zap.String("hash", p.event.ResponseHash),
				zap.Int("attempts", p.attempts))
			l.metrics.ProofEvent(metrics.OutcomeStored)
		}
	}

	l.metrics.RetryBufferSize(l.Pending())
	return true
}

// Start launches the background sweep. It stops when ctx is done or Close
// is called. Calling Start twice is a no-op.
func (l *Logger) Start(ctx context.Context) {
	l.lifecycle.Lock()
	defer l.lifecycle.Unlock()
	if l.done != nil {
		return
	}

	ctx, l.cancel = context.WithCancel(ctx)
	l.done = make(chan struct{})
	done := l.done

	go func() {
		defer close(done)
		ticker := time.NewTicker(l.cfg.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				l.Sweep(ctx)
			}
		}
	}()
}

// Close stops the sweep and waits for it to exit. Events still buffered are
// reported in a warning.
func (l *Logger) Close() error {
	l.lifecycle.Lock()
	cancel, done := l.cancel, l.done
	l.cancel, l.done = nil, nil
	l.lifecycle.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if n := len(l.buffer); n > 0 {
		l.log.Warn("proof events dropped on shutdown", zap.Int("count", n))
	}
	return nil
}

// StudentHistory returns a student's proof events, newest first.
func (l *Logger) StudentHistory(ctx context.Context, studentID string, limit int) ([]store.ProofEvent, error) {
	events, err := l.repo.ByStudent(ctx, studentID, limit)
	if err != nil {
		return nil, fmt.Errorf("student history: %w", err)
	}
	return events, nil
}

// ChatEvents returns a chat's proof events, oldest first.
func (l *Logger) ChatEvents(ctx context.Context, chatID string) ([]store.ProofEvent, error) {
	events, err := l.repo.ByChat(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("chat events: %w", err)
	}
	return events, nil
}

// Stats aggregates a student's proof events.
func (l *Logger) Stats(ctx context.Context, studentID string) (*Stats, error) {
	raw, err := l.repo.StudentStats(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("proof stats: %w", err)
	}
	stats := &Stats{
		StudentID:        studentID,
		TotalAttempts:    raw.Total,
		ByClassification: make(map[conversation.Classification]int, len(raw.ByClassification)),
		ConceptsProven:   raw.ConceptsProven,
	}
	for k, v := range raw.ByClassification {
		stats.ByClassification[conversation.Classification(k)] = v
	}
	if raw.Total > 0 {
		stats.PassRate = float64(stats.ByClassification[conversation.ClassificationPass]) / float64(raw.Total)
	}
	if stats.ConceptsProven == nil {
		stats.ConceptsProven = []string{}
	}
	return stats, nil
}
