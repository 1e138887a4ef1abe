package conversation

import "slices"

// HistorySize is the number of recent validation results that drive the
// adaptive checkpoint frequency.
const HistorySize = 3

// Checkpoint target bounds.
const (
	MinTarget     = 2
	MaxTarget     = 5
	DefaultTarget = 3
)

// DefaultGradeLevel is assumed when upstream state carries no grade.
const DefaultGradeLevel = 8

// State is owned by one chat session and is read-modify-written each turn.
// Methods on State never mutate the receiver's slices in place; callers get
// a fresh State back from Clone or Normalize.
type State struct {
	Mode                  Mode `json:"mode"`
	TeachingExchangeCount int  `json:"teachingExchangeCount"`
	IsInCheckpointMode    bool `json:"isInCheckpointMode"`

	// LastCheckpointAtExchange is the watermark guard; nil until the first
	// checkpoint fires.
	LastCheckpointAtExchange *int `json:"lastCheckpointAtExchange,omitempty"`

	CurrentCheckpointConcept string `json:"currentCheckpointConcept,omitempty"`
	LastCheckpointPrompt     string `json:"lastCheckpointPrompt,omitempty"`

	// LastThreeValidationResults is ordered oldest first.
	LastThreeValidationResults []Classification `json:"lastThreeValidationResults"`

	NextCheckpointTarget int `json:"nextCheckpointTarget"`

	// ConceptsProvenThisSession is a deduplicated list in proof order.
	ConceptsProvenThisSession []string `json:"conceptsProvenThisSession"`
	ConceptsProven            []string `json:"conceptsProven"`
	ConceptsProvenCount       int      `json:"conceptsProvenCount"`

	// CheckpointAttempts counts validations against the active checkpoint.
	CheckpointAttempts int `json:"checkpointAttempts,omitempty"`

	GradeLevel int `json:"gradeLevel"`
}

// NewState returns the initial state: teaching mode, no watermark.
func NewState() State {
	return Normalize(State{})
}

// Normalize returns a deep copy of s with missing or out-of-range fields
// replaced by safe defaults, so partially persisted state never breaks the
// pipeline.
func Normalize(s State) State {
	out := s.Clone()

	switch out.Mode {
	case ModeTeaching, ModeCheckpoint:
	default:
		if out.IsInCheckpointMode {
			out.Mode = ModeCheckpoint
		} else {
			out.Mode = ModeTeaching
		}
	}
	out.IsInCheckpointMode = out.Mode == ModeCheckpoint

	if out.TeachingExchangeCount < 0 {
		out.TeachingExchangeCount = 0
	}
	if out.LastCheckpointAtExchange != nil && *out.LastCheckpointAtExchange < 0 {
		out.LastCheckpointAtExchange = nil
	}

	history := out.LastThreeValidationResults[:0:0]
	for _, c := range out.LastThreeValidationResults {
		if c.Valid() {
			history = append(history, c)
		}
	}
	if len(history) > HistorySize {
		history = history[len(history)-HistorySize:]
	}
	out.LastThreeValidationResults = history

	if out.NextCheckpointTarget < MinTarget || out.NextCheckpointTarget > MaxTarget {
		out.NextCheckpointTarget = DefaultTarget
	}

	out.ConceptsProvenThisSession = dedupe(out.ConceptsProvenThisSession)
	out.ConceptsProven = dedupe(out.ConceptsProven)
	if out.ConceptsProvenCount < len(out.ConceptsProven) {
		out.ConceptsProvenCount = len(out.ConceptsProven)
	}

	if out.CheckpointAttempts < 0 {
		out.CheckpointAttempts = 0
	}
	if out.GradeLevel <= 0 {
		out.GradeLevel = DefaultGradeLevel
	}
	return out
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	out := s
	if s.LastCheckpointAtExchange != nil {
		v := *s.LastCheckpointAtExchange
		out.LastCheckpointAtExchange = &v
	}
	out.LastThreeValidationResults = cloneOrEmpty(s.LastThreeValidationResults)
	out.ConceptsProvenThisSession = cloneOrEmpty(s.ConceptsProvenThisSession)
	out.ConceptsProven = cloneOrEmpty(s.ConceptsProven)
	return out
}

// RecordResult appends c to the validation history, evicting the oldest
// entry once HistorySize is exceeded.
func (s State) RecordResult(c Classification) State {
	out := s.Clone()
	out.LastThreeValidationResults = append(out.LastThreeValidationResults, c)
	if n := len(out.LastThreeValidationResults); n > HistorySize {
		out.LastThreeValidationResults = out.LastThreeValidationResults[n-HistorySize:]
	}
	return out
}

// MarkProven records concept as proven for this session. Proving the same
// concept twice is a no-op.
func (s State) MarkProven(concept string) State {
	out := s.Clone()
	if concept == "" {
		return out
	}
	if !slices.Contains(out.ConceptsProvenThisSession, concept) {
		out.ConceptsProvenThisSession = append(out.ConceptsProvenThisSession, concept)
	}
	if !slices.Contains(out.ConceptsProven, concept) {
		out.ConceptsProven = append(out.ConceptsProven, concept)
		out.ConceptsProvenCount++
	}
	return out
}

// EnterCheckpoint moves s into checkpoint mode for concept, setting the
// watermark at the current teaching exchange count. The count itself is not
// reset.
func (s State) EnterCheckpoint(concept, prompt string) State {
	out := s.Clone()
	at := out.TeachingExchangeCount
	out.Mode = ModeCheckpoint
	out.IsInCheckpointMode = true
	out.LastCheckpointAtExchange = &at
	out.CurrentCheckpointConcept = concept
	out.LastCheckpointPrompt = prompt
	out.CheckpointAttempts = 0
	return out
}

// ExitCheckpoint returns s to teaching mode and clears the active checkpoint.
func (s State) ExitCheckpoint() State {
	out := s.Clone()
	out.Mode = ModeTeaching
	out.IsInCheckpointMode = false
	out.CurrentCheckpointConcept = ""
	out.LastCheckpointPrompt = ""
	out.CheckpointAttempts = 0
	return out
}

// InCheckpoint reports whether a checkpoint is active.
func (s State) InCheckpoint() bool {
	return s.Mode == ModeCheckpoint || s.IsInCheckpointMode
}

func cloneOrEmpty[T any](in []T) []T {
	out := make([]T, len(in))
	copy(out, in)
	return out
}

func dedupe(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v == "" || slices.Contains(out, v) {
			continue
		}
		out = append(out, v)
	}
	return out
}
