package cmd

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/proofloop/internal/conversation"
	"github.com/abhisek/proofloop/internal/engine"
	"github.com/abhisek/proofloop/internal/prooflog"
	"github.com/abhisek/proofloop/internal/store"
	"github.com/abhisek/proofloop/internal/textutil"
)

func echoTutor() engine.Tutor {
	return engine.TutorFunc(func(ctx context.Context, req engine.TutorRequest) (*conversation.Message, error) {
		return &conversation.Message{
			Role:    conversation.RoleAssistant,
			Content: "Let me explain fractions. A fraction names equal parts of a whole.",
			Metadata: &conversation.Metadata{
				IsTeachingExchange: conversation.Bool(true),
				Concept:            "fractions",
			},
		}, nil
	})
}

func TestChatLoop_ReachesCheckpoint(t *testing.T) {
	eng := engine.New(echoTutor(), nil, nil, engine.DefaultConfig(), engine.WithRandom(textutil.FixedSource(0)))
	in := strings.NewReader("hi\n\nmore\n/state\nand more\n/quit\nnever read\n")
	var out bytes.Buffer

	err := chatLoop(context.Background(), eng, in, &out, "chat-1", "student-1", conversation.NewState())
	require.NoError(t, err)

	text := out.String()
	assert.Equal(t, 3, strings.Count(text, "tutor> "))
	assert.Contains(t, text, `"teachingExchangeCount": 2`)
	assert.Contains(t, text, "In your own words, what is fractions?")
	assert.NotContains(t, text, "never read")
}

func TestChatLoop_EOFEnds(t *testing.T) {
	eng := engine.New(echoTutor(), nil, nil, engine.DefaultConfig())
	var out bytes.Buffer
	err := chatLoop(context.Background(), eng, strings.NewReader("hello"), &out, "c", "s", conversation.NewState())
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out.String(), "tutor> "))
}

func TestChatLoop_CanceledContextStops(t *testing.T) {
	eng := engine.New(echoTutor(), nil, nil, engine.DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out bytes.Buffer
	err := chatLoop(ctx, eng, strings.NewReader("hello\n"), &out, "c", "s", conversation.NewState())
	require.NoError(t, err)
	assert.NotContains(t, out.String(), "tutor> ")
}

func TestPrintEvents(t *testing.T) {
	var out bytes.Buffer
	printEvents(&out, nil, "nothing here")
	assert.Equal(t, "nothing here\n", out.String())

	out.Reset()
	printEvents(&out, []store.ProofEvent{{
		Concept:                "fractions",
		Classification:         "pass",
		StudentResponseExcerpt: "A fraction is part of a whole.",
		CreatedAt:              time.Now(),
	}}, "")
	assert.Contains(t, out.String(), "fractions")
	assert.Contains(t, out.String(), "A fraction is part of a whole.")
}

func TestPrintStats(t *testing.T) {
	var out bytes.Buffer
	printStats(&out, &prooflog.Stats{
		StudentID:     "s1",
		TotalAttempts: 4,
		ByClassification: map[conversation.Classification]int{
			conversation.ClassificationPass:  2,
			conversation.ClassificationRetry: 2,
		},
		PassRate:       0.5,
		ConceptsProven: []string{"photosynthesis", "fractions"},
	})
	text := out.String()
	assert.Contains(t, text, "Attempts:  4")
	assert.Contains(t, text, "Pass rate: 50%")
	assert.Less(t, strings.Index(text, "- fractions"), strings.Index(text, "- photosynthesis"))
}

func TestFormatCost(t *testing.T) {
	assert.Equal(t, "$0.0050", formatCost(0.005))
	assert.Equal(t, "$1.25", formatCost(1.25))
}
