package store

import (
	"context"
	"encoding/json"
	"time"
)

// ProofEvent is one validated explain-back attempt.
type ProofEvent struct {
	ID                     string
	ChatID                 string
	StudentID              string
	Concept                string
	Prompt                 string
	StudentResponse        string
	StudentResponseExcerpt string
	ResponseHash           string
	ValidationResult       json.RawMessage
	Classification         string
	CreatedAt              time.Time
}

// ProofStats summarizes a student's proof events.
type ProofStats struct {
	StudentID        string
	Total            int
	ByClassification map[string]int
	ConceptsProven   []string
}

// ProofEventRepo persists proof events.
type ProofEventRepo interface {
	// Insert writes the event. It returns ErrDuplicate when an event with the
	// same chat and response hash already exists.
	Insert(ctx context.Context, ev ProofEvent) error
	// ByStudent returns the student's events, newest first. limit <= 0 means all.
	ByStudent(ctx context.Context, studentID string, limit int) ([]ProofEvent, error)
	// ByChat returns a chat's events, oldest first.
	ByChat(ctx context.Context, chatID string) ([]ProofEvent, error)
	// StudentStats aggregates a student's events by classification.
	StudentStats(ctx context.Context, studentID string) (*ProofStats, error)
}

// LLMRequestEventData records a single model call.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMRequestEventRecord is a stored model call.
type LLMRequestEventRecord struct {
	ID        int64
	Timestamp time.Time
	LLMRequestEventData
}

// QueryOpts filters event queries.
type QueryOpts struct {
	Limit   int
	Purpose string
}

// LLMUsageStats aggregates calls for one purpose or model.
type LLMUsageStats struct {
	Key          string
	Calls        int
	Failures     int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs float64
}

// EventRepo persists model request events.
type EventRepo interface {
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEventRecord, error)
	// GetLLMEvent returns nil, nil when id does not exist.
	GetLLMEvent(ctx context.Context, id int64) (*LLMRequestEventRecord, error)
	LLMUsageByPurpose(ctx context.Context) ([]LLMUsageStats, error)
	LLMUsageByModel(ctx context.Context) ([]LLMUsageStats, error)
}
