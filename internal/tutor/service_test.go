package tutor

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/proofloop/internal/conversation"
	"github.com/abhisek/proofloop/internal/engine"
	"github.com/abhisek/proofloop/internal/llm"
)

func reply(message, concept string, teaching bool) map[string]any {
	return map[string]any{"message": message, "concept": concept, "is_teaching": teaching}
}

func TestReply_MapsStructuredOutput(t *testing.T) {
	mock := llm.NewMockProvider()
	mock.AddJSON(reply("  Fractions describe parts of a whole.\n\nFor example, 1/2 is one of two equal parts. ", "fractions", true))
	rec := &llm.PurposeRecorder{Provider: mock}
	svc := NewService(rec, DefaultConfig())

	msg, err := svc.Reply(context.Background(), engine.TutorRequest{StudentText: "what is a fraction?", GradeLevel: 4})
	require.NoError(t, err)
	assert.Equal(t, conversation.RoleAssistant, msg.Role)
	assert.Equal(t, "Fractions describe parts of a whole. For example, 1/2 is one of two equal parts.", msg.Content)
	require.NotNil(t, msg.Metadata)
	assert.Equal(t, "fractions", msg.Metadata.Concept)
	assert.True(t, *msg.Metadata.IsTeachingExchange)
	assert.Equal(t, []string{llm.PurposeTeach}, rec.Purposes())

	req := mock.Calls[0]
	assert.Equal(t, ReplySchema, req.Schema)
	assert.Contains(t, req.System, "grade 4")
}

func TestReply_SmallTalkIsNotTeaching(t *testing.T) {
	mock := llm.NewMockProvider()
	mock.AddJSON(reply("Hi! What would you like to learn today?", "", false))
	svc := NewService(mock, DefaultConfig())

	msg, err := svc.Reply(context.Background(), engine.TutorRequest{StudentText: "hello"})
	require.NoError(t, err)
	assert.False(t, *msg.Metadata.IsTeachingExchange)
	assert.Empty(t, msg.Metadata.Concept)
}

func TestReply_MentionsLastProvenConcept(t *testing.T) {
	mock := llm.NewMockProvider()
	mock.AddJSON(reply("Decimals are another way to write fractions.", "decimals", true))
	svc := NewService(mock, DefaultConfig())

	_, err := svc.Reply(context.Background(), engine.TutorRequest{StudentText: "next", LastProvenConcept: "fractions"})
	require.NoError(t, err)
	assert.Contains(t, mock.Calls[0].System, "understand fractions")
}

func TestReply_Errors(t *testing.T) {
	t.Run("no provider", func(t *testing.T) {
		_, err := NewService(nil, DefaultConfig()).Reply(context.Background(), engine.TutorRequest{StudentText: "hi"})
		assert.ErrorIs(t, err, ErrNoProvider)
	})

	t.Run("provider error", func(t *testing.T) {
		mock := llm.NewMockProvider(llm.MockResponse{Err: &llm.ErrRateLimit{}})
		_, err := NewService(mock, DefaultConfig()).Reply(context.Background(), engine.TutorRequest{StudentText: "hi"})
		var rl *llm.ErrRateLimit
		assert.True(t, errors.As(err, &rl))
	})

	t.Run("missing teaching flag", func(t *testing.T) {
		mock := llm.NewMockProvider(llm.MockResponse{Content: []byte(`{"message":"hi","concept":""}`)})
		_, err := NewService(mock, DefaultConfig()).Reply(context.Background(), engine.TutorRequest{StudentText: "hi"})
		assert.Error(t, err)
	})
}

func TestBuildMessages(t *testing.T) {
	recent := []conversation.Message{
		{Role: conversation.RoleAssistant, Content: "Welcome!"},
		{Role: conversation.RoleUser, Content: "teach me fractions"},
		{Role: conversation.RoleSystem, Content: "ignored"},
		{Role: conversation.RoleAssistant, Content: "A fraction is a part of a whole."},
	}
	msgs := buildMessages(engine.TutorRequest{StudentText: "more please", Recent: recent}, 10)

	require.Len(t, msgs, 3)
	assert.Equal(t, llm.RoleUser, msgs[0].Role)
	assert.Equal(t, "teach me fractions", msgs[0].Content)
	assert.Equal(t, llm.RoleAssistant, msgs[1].Role)
	assert.Equal(t, "more please", msgs[2].Content)
}

func TestBuildMessages_Limit(t *testing.T) {
	var recent []conversation.Message
	for i := 0; i < 20; i++ {
		recent = append(recent,
			conversation.Message{Role: conversation.RoleUser, Content: strings.Repeat("q", i+1)},
			conversation.Message{Role: conversation.RoleAssistant, Content: strings.Repeat("a", i+1)},
		)
	}
	msgs := buildMessages(engine.TutorRequest{StudentText: "last", Recent: recent}, 4)
	assert.Len(t, msgs, 5)
	assert.Equal(t, llm.RoleUser, msgs[0].Role)
}

func TestService_DrivesEngine(t *testing.T) {
	mock := llm.NewMockProvider()
	mock.AddJSON(reply("Plants make food from sunlight.", "photosynthesis", true))
	eng := engine.New(NewService(mock, DefaultConfig()), nil, nil, engine.DefaultConfig())

	res, err := eng.ProcessMessage(context.Background(), engine.Input{StudentText: "how do plants eat?", State: conversation.NewState()})
	require.NoError(t, err)
	assert.Equal(t, 1, res.State.TeachingExchangeCount)
	assert.Equal(t, "photosynthesis", res.Metadata.Concept)
}
