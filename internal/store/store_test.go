package store

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleEvent(chat, hash, class string, at time.Time) ProofEvent {
	return ProofEvent{
		ChatID:                 chat,
		StudentID:              "student-1",
		Concept:                "photosynthesis",
		Prompt:                 "Explain photosynthesis in your own words.",
		StudentResponse:        "Plants use sunlight to make sugar.",
		StudentResponseExcerpt: "Plants use sunlight to make sugar.",
		ResponseHash:           hash,
		ValidationResult:       json.RawMessage(`{"classification":"` + class + `"}`),
		Classification:         class,
		CreatedAt:              at,
	}
}

func TestProofEventInsertAndQuery(t *testing.T) {
	s := openTestStore(t)
	repo := s.ProofEventRepo()
	ctx := context.Background()
	base := time.UnixMilli(1_700_000_000_000)

	require.NoError(t, repo.Insert(ctx, sampleEvent("chat-1", "h1", "retry", base)))
	require.NoError(t, repo.Insert(ctx, sampleEvent("chat-1", "h2", "pass", base.Add(time.Second))))

	events, err := repo.ByChat(ctx, "chat-1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "h1", events[0].ResponseHash)
	assert.Equal(t, "h2", events[1].ResponseHash)
	assert.NotEmpty(t, events[0].ID)
	assert.Equal(t, base.UnixMilli(), events[0].CreatedAt.UnixMilli())
	assert.JSONEq(t, `{"classification":"retry"}`, string(events[0].ValidationResult))

	newest, err := repo.ByStudent(ctx, "student-1", 1)
	require.NoError(t, err)
	require.Len(t, newest, 1)
	assert.Equal(t, "h2", newest[0].ResponseHash)
}

func TestProofEventDuplicate(t *testing.T) {
	s := openTestStore(t)
	repo := s.ProofEventRepo()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, repo.Insert(ctx, sampleEvent("chat-1", "same", "pass", now)))
	err := repo.Insert(ctx, sampleEvent("chat-1", "same", "pass", now))
	assert.ErrorIs(t, err, ErrDuplicate)

	// Same hash in another chat is a different event.
	require.NoError(t, repo.Insert(ctx, sampleEvent("chat-2", "same", "pass", now)))

	all, err := repo.ByStudent(ctx, "student-1", 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestProofEventInvalidClassification(t *testing.T) {
	s := openTestStore(t)
	err := s.ProofEventRepo().Insert(context.Background(), sampleEvent("chat-1", "h", "great", time.Now()))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDuplicate)
}

func TestStudentStats(t *testing.T) {
	s := openTestStore(t)
	repo := s.ProofEventRepo()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, repo.Insert(ctx, sampleEvent("c", "1", "retry", now)))
	require.NoError(t, repo.Insert(ctx, sampleEvent("c", "2", "partial", now)))
	require.NoError(t, repo.Insert(ctx, sampleEvent("c", "3", "pass", now)))
	ev := sampleEvent("c", "4", "pass", now)
	ev.Concept = "cellular respiration"
	require.NoError(t, repo.Insert(ctx, ev))
	untagged := sampleEvent("c", "5", "pass", now)
	untagged.Concept = ""
	require.NoError(t, repo.Insert(ctx, untagged))

	stats, err := repo.StudentStats(ctx, "student-1")
	require.NoError(t, err)
	assert.Equal(t, 5, stats.Total)
	assert.Equal(t, map[string]int{"retry": 1, "partial": 1, "pass": 3}, stats.ByClassification)
	assert.Equal(t, []string{"cellular respiration", "photosynthesis"}, stats.ConceptsProven)

	empty, err := repo.StudentStats(ctx, "nobody")
	require.NoError(t, err)
	assert.Zero(t, empty.Total)
	assert.Empty(t, empty.ConceptsProven)
}

func TestLLMEvents(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	require.NoError(t, repo.AppendLLMRequest(ctx, LLMRequestEventData{
		Provider: "mock", Model: "m1", Purpose: "teach",
		InputTokens: 10, OutputTokens: 20, LatencyMs: 100, Success: true,
	}))
	require.NoError(t, repo.AppendLLMRequest(ctx, LLMRequestEventData{
		Provider: "mock", Model: "m1", Purpose: "understanding-eval",
		InputTokens: 5, OutputTokens: 5, LatencyMs: 300, Success: false,
		ErrorMessage: "boom",
	}))
	require.NoError(t, repo.AppendLLMRequest(ctx, LLMRequestEventData{
		Provider: "mock", Model: "m2", Purpose: "teach",
		InputTokens: 1, OutputTokens: 2, LatencyMs: 200, Success: true,
	}))

	all, err := repo.QueryLLMEvents(ctx, QueryOpts{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "m2", all[0].Model, "newest first")

	teach, err := repo.QueryLLMEvents(ctx, QueryOpts{Purpose: "teach", Limit: 1})
	require.NoError(t, err)
	require.Len(t, teach, 1)
	assert.Equal(t, "teach", teach[0].Purpose)

	got, err := repo.GetLLMEvent(ctx, all[1].ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.False(t, got.Success)
	assert.Equal(t, "boom", got.ErrorMessage)

	missing, err := repo.GetLLMEvent(ctx, 9999)
	require.NoError(t, err)
	assert.Nil(t, missing)

	byPurpose, err := repo.LLMUsageByPurpose(ctx)
	require.NoError(t, err)
	require.Len(t, byPurpose, 2)
	assert.Equal(t, "teach", byPurpose[0].Key)
	assert.Equal(t, 2, byPurpose[0].Calls)
	assert.Equal(t, 11, byPurpose[0].InputTokens)
	assert.InDelta(t, 150.0, byPurpose[0].AvgLatencyMs, 0.01)
	assert.Equal(t, "understanding-eval", byPurpose[1].Key)
	assert.Equal(t, 1, byPurpose[1].Failures)

	byModel, err := repo.LLMUsageByModel(ctx)
	require.NoError(t, err)
	require.Len(t, byModel, 2)
	assert.Equal(t, "m1", byModel[0].Key)
	assert.Equal(t, 2, byModel[0].Calls)
}

func TestIsBusy(t *testing.T) {
	assert.False(t, IsBusy(nil))
	assert.False(t, IsBusy(assert.AnError))
	assert.True(t, IsBusy(errors.New("database is locked (5) (SQLITE_BUSY)")))
}
