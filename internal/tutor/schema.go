package tutor

import "github.com/abhisek/proofloop/internal/llm"

// ReplySchema is the structured output of a tutor turn.
var ReplySchema = &llm.Schema{
	Name:        "tutor-reply",
	Description: "A tutoring reply and the concept it teaches",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"message": map[string]any{
				"type":        "string",
				"description": "The reply shown to the student",
				"minLength":   1,
			},
			"concept": map[string]any{
				"type":        "string",
				"description": "Short name of the concept being taught, empty for small talk",
				"maxLength":   80,
			},
			"is_teaching": map[string]any{
				"type":        "boolean",
				"description": "True when the reply explains a concept",
			},
		},
		"required":             []string{"message", "concept", "is_teaching"},
		"additionalProperties": false,
	},
}

type replyOutput struct {
	Message    string `json:"message" validate:"required"`
	Concept    string `json:"concept" validate:"max=80"`
	IsTeaching *bool  `json:"is_teaching" validate:"required"`
}
