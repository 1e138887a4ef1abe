package prompt

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/abhisek/proofloop/internal/conversation"
	"github.com/abhisek/proofloop/internal/llm"
)

func teach(content, concept string) conversation.Message {
	return conversation.Message{
		Role:     conversation.RoleAssistant,
		Content:  content,
		Metadata: &conversation.Metadata{Concept: concept},
	}
}

func TestIsOpenEnded(t *testing.T) {
	tests := []struct {
		prompt string
		want   bool
	}{
		{"In your own words, how does it work?", true},
		{"Explain in your own words.", true},
		{"Is photosynthesis important?", false},
		{"Can you explain it in your own words?", false},
		{"Do you understand?", false},
		{"  Would you say that's right?", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsOpenEnded(tt.prompt); got != tt.want {
			t.Errorf("IsOpenEnded(%q) = %v, want %v", tt.prompt, got, tt.want)
		}
	}
}

func TestAcceptable(t *testing.T) {
	assert.True(t, Acceptable("In your own words, what does photosynthesis do?", "photosynthesis"))
	assert.False(t, Acceptable("In your own words, what does it do?", "photosynthesis"), "concept not named")
	assert.True(t, Acceptable("Tell me in your own words what we covered.", FallbackConcept))
	assert.False(t, Acceptable("Tell me what photosynthesis does.", "photosynthesis"), "missing own-words phrase")
}

func TestExtractConcept(t *testing.T) {
	recent := []conversation.Message{
		teach("old stuff", "cell walls"),
		{Role: conversation.RoleUser, Content: "ok"},
		teach("Let me explain photosynthesis.", "photosynthesis"),
		teach("More detail.", ""),
	}
	assert.Equal(t, "photosynthesis", ExtractConcept(recent, 4))
	assert.Equal(t, FallbackConcept, ExtractConcept(recent, 1))
	assert.Equal(t, FallbackConcept, ExtractConcept(nil, 4))
}

func TestGenerate_TemplatesByGrade(t *testing.T) {
	g := NewGenerator(nil, DefaultConfig())

	for _, grade := range []int{0, 3, 8, 9, 12} {
		res := g.Generate(context.Background(), Request{Concept: "photosynthesis", GradeLevel: grade})
		assert.Equal(t, SourceTemplate, res.Source)
		assert.True(t, Acceptable(res.Prompt, "photosynthesis"), "grade %d: %q", grade, res.Prompt)
		if grade >= ReasoningGrade {
			assert.Contains(t, res.Prompt, "why")
		} else {
			assert.Contains(t, res.Prompt, "example")
		}
	}
}

func TestGenerate_FallbackConcept(t *testing.T) {
	g := NewGenerator(nil, DefaultConfig())
	res := g.Generate(context.Background(), Request{})
	assert.Equal(t, FallbackConcept, res.Concept)
	assert.Contains(t, res.Prompt, FallbackConcept)
	assert.True(t, HasOwnWords(res.Prompt))
}

func TestGenerate_ModelCandidateAccepted(t *testing.T) {
	mock := llm.NewMockProvider()
	mock.AddJSON(map[string]any{"prompt": "In your own words, describe what a plant does with sunlight during photosynthesis."})
	rec := &llm.PurposeRecorder{Provider: mock}

	g := NewGenerator(rec, DefaultConfig())
	res := g.Generate(context.Background(), Request{Concept: "photosynthesis"})
	assert.Equal(t, SourceModel, res.Source)
	assert.Equal(t, []string{llm.PurposePrompt}, rec.Purposes())
}

func TestGenerate_ModelCandidateRejected(t *testing.T) {
	candidates := []llm.MockResponse{
		{Content: []byte(`{"prompt":"Is photosynthesis how plants eat, in your own words?"}`)},
		{Content: []byte(`{"prompt":"Describe photosynthesis to me."}`)},
		{Content: []byte(`{"prompt":"In your own words, describe what plants do."}`)},
		{Content: []byte(`{"text":"In your own words, explain photosynthesis."}`)},
		{Err: errors.New("model down")},
	}
	for _, c := range candidates {
		g := NewGenerator(llm.NewMockProvider(c), DefaultConfig())
		res := g.Generate(context.Background(), Request{Concept: "photosynthesis", GradeLevel: 6})
		assert.Equal(t, SourceTemplate, res.Source, "candidate %s", c.Content)
		assert.True(t, Acceptable(res.Prompt, "photosynthesis"))
	}
}

func TestGenerate_ModelDisabled(t *testing.T) {
	mock := llm.NewMockProvider()
	cfg := DefaultConfig()
	cfg.UseModel = false
	res := NewGenerator(mock, cfg).Generate(context.Background(), Request{Concept: "osmosis"})
	assert.Equal(t, SourceTemplate, res.Source)
	assert.Equal(t, 0, mock.CallCount())
}
