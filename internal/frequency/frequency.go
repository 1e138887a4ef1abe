// Package frequency schedules checkpoints from recent validation history.
// Confident students are checked more often; struggling students get a
// longer teaching runway before the next check.
package frequency

import (
	"github.com/abhisek/proofloop/internal/conversation"
	"github.com/abhisek/proofloop/internal/textutil"
)

// MinTeachingExchanges is the introductory phase length. No checkpoint
// fires before this many teaching exchanges.
const MinTeachingExchanges = 2

// Reason explains a ShouldTrigger decision.
type Reason string

const (
	ReasonIntroductory  Reason = "introductory phase"
	ReasonInCheckpoint  Reason = "already in checkpoint mode"
	ReasonGuard         Reason = "guard"
	ReasonBelowTarget   Reason = "below target"
	ReasonTargetReached Reason = "target reached"
)

// Decision is the result of ShouldTrigger.
type Decision struct {
	Trigger    bool
	NextTarget int
	Reason     Reason

	// Since is the number of teaching exchanges since the last checkpoint
	// watermark (or since the start of the session).
	Since int
}

// Calculator derives checkpoint targets. It is safe for concurrent use when
// its IntSource is.
type Calculator struct {
	src textutil.IntSource
}

// NewCalculator creates a calculator. A nil src uses the process-wide
// random source.
func NewCalculator(src textutil.IntSource) *Calculator {
	if src == nil {
		src = textutil.DefaultSource()
	}
	return &Calculator{src: src}
}

// CalculateTarget returns the number of teaching exchanges to run before the
// next checkpoint, in [conversation.MinTarget, conversation.MaxTarget].
// Only the most recent HistorySize results count.
func (c *Calculator) CalculateTarget(history []conversation.Classification) int {
	lo, hi := TargetRange(history)
	return textutil.RandomInt(c.src, lo, hi)
}

// TargetRange returns the inclusive bounds CalculateTarget draws from.
func TargetRange(history []conversation.Classification) (lo, hi int) {
	if n := len(history); n > conversation.HistorySize {
		history = history[n-conversation.HistorySize:]
	}

	var passes, retries int
	for _, c := range history {
		switch c {
		case conversation.ClassificationPass:
			passes++
		case conversation.ClassificationRetry:
			retries++
		}
	}

	switch {
	case passes >= 2:
		return 2, 3
	case retries >= 1:
		return 4, 5
	default:
		return 3, 4
	}
}

// ShouldTrigger decides whether s has reached its next checkpoint. The
// introductory, checkpoint-mode and watermark guards return s's existing
// target unchanged; otherwise a fresh target is drawn from s's history.
//
// The target is measured from the watermark, so each checkpoint needs a
// full new run of teaching exchanges.
func (c *Calculator) ShouldTrigger(s conversation.State) Decision {
	count := s.TeachingExchangeCount
	keep := s.NextCheckpointTarget
	if keep < conversation.MinTarget || keep > conversation.MaxTarget {
		keep = conversation.DefaultTarget
	}

	since := count
	if s.LastCheckpointAtExchange != nil {
		since = count - *s.LastCheckpointAtExchange
	}

	if count < MinTeachingExchanges {
		return Decision{Trigger: false, NextTarget: keep, Reason: ReasonIntroductory, Since: since}
	}
	if s.InCheckpoint() {
		return Decision{Trigger: false, NextTarget: keep, Reason: ReasonInCheckpoint, Since: since}
	}
	if s.LastCheckpointAtExchange != nil && count <= *s.LastCheckpointAtExchange {
		return Decision{Trigger: false, NextTarget: keep, Reason: ReasonGuard, Since: since}
	}

	target := c.CalculateTarget(s.LastThreeValidationResults)
	if since >= target {
		return Decision{Trigger: true, NextTarget: target, Reason: ReasonTargetReached, Since: since}
	}
	return Decision{Trigger: false, NextTarget: target, Reason: ReasonBelowTarget, Since: since}
}
