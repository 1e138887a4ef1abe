package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
)

const proofEventsTable = "proof_events"

var proofEventColumns = []string{
	"id", "chat_id", "student_id", "concept", "prompt",
	"student_response", "student_response_excerpt", "response_hash",
	"validation_result", "classification", "created_at",
}

type proofEventRepo struct {
	db *sql.DB
}

func (r *proofEventRepo) Insert(ctx context.Context, ev ProofEvent) error {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now()
	}
	result := string(ev.ValidationResult)
	if result == "" {
		result = "{}"
	}

	query, args := builder().Insert(proofEventsTable).
		Columns(proofEventColumns...).
		Values(ev.ID, ev.ChatID, ev.StudentID, ev.Concept, ev.Prompt,
			ev.StudentResponse, ev.StudentResponseExcerpt, ev.ResponseHash,
			result, ev.Classification, ev.CreatedAt.UnixMilli()).
		Query()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert proof event: %w", err)
	}
	return nil
}

func (r *proofEventRepo) ByStudent(ctx context.Context, studentID string, limit int) ([]ProofEvent, error) {
	sel := builder().Select(proofEventColumns...).
		From(entsql.Table(proofEventsTable)).
		Where(entsql.EQ("student_id", studentID)).
		OrderBy(entsql.Desc("created_at"))
	if limit > 0 {
		sel.Limit(limit)
	}
	return r.query(ctx, sel)
}

func (r *proofEventRepo) ByChat(ctx context.Context, chatID string) ([]ProofEvent, error) {
	sel := builder().Select(proofEventColumns...).
		From(entsql.Table(proofEventsTable)).
		Where(entsql.EQ("chat_id", chatID)).
		OrderBy(entsql.Asc("created_at"))
	return r.query(ctx, sel)
}

func (r *proofEventRepo) StudentStats(ctx context.Context, studentID string) (*ProofStats, error) {
	stats := &ProofStats{
		StudentID:        studentID,
		ByClassification: map[string]int{},
		ConceptsProven:   []string{},
	}

	query, args := builder().Select("classification", entsql.As(entsql.Count("*"), "n")).
		From(entsql.Table(proofEventsTable)).
		Where(entsql.EQ("student_id", studentID)).
		GroupBy("classification").
		Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query proof stats: %w", err)
	}
	for rows.Next() {
		var class string
		var n int
		if err := rows.Scan(&class, &n); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan proof stats: %w", err)
		}
		stats.ByClassification[class] = n
		stats.Total += n
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate proof stats: %w", err)
	}

	query, args = builder().Select("concept").
		Distinct().
		From(entsql.Table(proofEventsTable)).
		Where(entsql.And(
			entsql.EQ("student_id", studentID),
			entsql.EQ("classification", "pass"),
			entsql.NEQ("concept", ""),
		)).
		OrderBy("concept").
		Query()
	rows, err = r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query proven concepts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var concept string
		if err := rows.Scan(&concept); err != nil {
			return nil, fmt.Errorf("scan proven concept: %w", err)
		}
		stats.ConceptsProven = append(stats.ConceptsProven, concept)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate proven concepts: %w", err)
	}
	return stats, nil
}

func (r *proofEventRepo) query(ctx context.Context, sel *entsql.Selector) ([]ProofEvent, error) {
	query, args := sel.Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query proof events: %w", err)
	}
	defer rows.Close()

	events := []ProofEvent{}
	for rows.Next() {
		var ev ProofEvent
		var result string
		var createdAt int64
		if err := rows.Scan(&ev.ID, &ev.ChatID, &ev.StudentID, &ev.Concept, &ev.Prompt,
			&ev.StudentResponse, &ev.StudentResponseExcerpt, &ev.ResponseHash,
			&result, &ev.Classification, &createdAt); err != nil {
			return nil, fmt.Errorf("scan proof event: %w", err)
		}
		ev.ValidationResult = []byte(result)
		ev.CreatedAt = time.UnixMilli(createdAt)
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate proof events: %w", err)
	}
	return events, nil
}
