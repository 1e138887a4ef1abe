package llm

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSchema = &Schema{
	Name: "test-verdict",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"verdict": map[string]any{"type": "string", "enum": []string{"yes", "no"}},
			"score":   map[string]any{"type": "integer", "minimum": 0, "maximum": 10},
		},
		"required":             []string{"verdict", "score"},
		"additionalProperties": false,
	},
}

type verdict struct {
	Verdict string `json:"verdict" validate:"required,oneof=yes no"`
	Score   int    `json:"score" validate:"gte=0,lte=10"`
}

func TestGenerateInto(t *testing.T) {
	mock := NewMockProvider()
	mock.AddJSON(map[string]any{"verdict": "yes", "score": 7})

	var out verdict
	err := GenerateInto(context.Background(), mock, Request{Schema: testSchema}, &out)
	require.NoError(t, err)
	assert.Equal(t, verdict{Verdict: "yes", Score: 7}, out)
}

func TestGenerateIntoNilProvider(t *testing.T) {
	var out verdict
	err := GenerateInto(context.Background(), nil, Request{}, &out)
	var unavailable *ErrProviderUnavailable
	assert.ErrorAs(t, err, &unavailable)
}

func TestMockRejectsSchemaViolation(t *testing.T) {
	mock := NewMockProvider()
	mock.AddJSON(map[string]any{"verdict": "maybe", "score": 7})

	_, err := mock.Generate(context.Background(), Request{Schema: testSchema})
	assert.True(t, IsInvalidResponse(err))
}

func TestDecodeStrict(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"valid", `{"verdict":"no","score":0}`, false},
		{"unknown field", `{"verdict":"no","score":0,"extra":1}`, true},
		{"bad enum", `{"verdict":"perhaps","score":1}`, true},
		{"out of range", `{"verdict":"yes","score":11}`, true},
		{"not json", `verdict: yes`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out verdict
			err := DecodeStrict(json.RawMessage(tt.raw), &out)
			if tt.wantErr {
				assert.True(t, IsInvalidResponse(err), "got %v", err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidateResponseNilSchema(t *testing.T) {
	assert.NoError(t, validateResponse(nil, json.RawMessage(`anything`)))
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`{"a":1}`, `{"a":1}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}\n```", `{"a":1}`},
		{"  {\"a\":1}  ", `{"a":1}`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, stripCodeFence(tt.in))
	}
}

func TestFinishContent(t *testing.T) {
	got, err := finishContent(nil, "hello", "end")
	require.NoError(t, err)
	assert.JSONEq(t, `"hello"`, string(got))

	_, err = finishContent(testSchema, `{"verdict":"ye`, "max_tokens")
	var mt *ErrMaxTokensExceeded
	assert.ErrorAs(t, err, &mt)

	_, err = finishContent(testSchema, `{"verdict":"x","score":1}`, "end")
	assert.True(t, IsInvalidResponse(err))
}

func TestPurposeContext(t *testing.T) {
	assert.Equal(t, "unknown", PurposeFrom(context.Background()))
	ctx := WithPurpose(context.Background(), PurposeEvaluate)
	assert.Equal(t, PurposeEvaluate, PurposeFrom(ctx))

	rec := &PurposeRecorder{Provider: NewMockProvider(MockResponse{Content: json.RawMessage(`"x"`)})}
	_, err := rec.Generate(ctx, Request{})
	require.NoError(t, err)
	assert.Equal(t, []string{PurposeEvaluate}, rec.Purposes())
}
