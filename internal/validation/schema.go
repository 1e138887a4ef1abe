package validation

import "github.com/abhisek/proofloop/internal/llm"

// EvaluationSchema is the structured output of the evaluation model.
var EvaluationSchema = &llm.Schema{
	Name:        "understanding-eval",
	Description: "Assessment of a student's explain-back response",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"classification": map[string]any{
				"type": "string",
				"enum": []string{"pass", "partial", "retry"},
			},
			"key_concepts": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
			"relationships": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
			"misconceptions": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
			"depth_assessment": map[string]any{"type": "string"},
			"guidance": map[string]any{
				"type":      "string",
				"minLength": 1,
			},
		},
		"required": []string{
			"classification", "key_concepts", "relationships",
			"misconceptions", "depth_assessment", "guidance",
		},
		"additionalProperties": false,
	},
}

type evaluationOutput struct {
	Classification  string   `json:"classification" validate:"required,oneof=pass partial retry"`
	KeyConcepts     []string `json:"key_concepts" validate:"required,dive,required"`
	Relationships   []string `json:"relationships" validate:"required,dive,required"`
	Misconceptions  []string `json:"misconceptions" validate:"required,dive,required"`
	DepthAssessment string   `json:"depth_assessment" validate:"required"`
	Guidance        string   `json:"guidance" validate:"required"`
}
