package prompt

import "github.com/abhisek/proofloop/internal/llm"

// PromptSchema is the structured output of the model candidate call.
var PromptSchema = &llm.Schema{
	Name:        "explain-back-prompt",
	Description: "An open-ended explain-back question",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"prompt": map[string]any{
				"type":      "string",
				"minLength": 10,
				"maxLength": 400,
			},
		},
		"required":             []string{"prompt"},
		"additionalProperties": false,
	},
}

type promptOutput struct {
	Prompt string `json:"prompt" validate:"required"`
}
