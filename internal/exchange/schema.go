package exchange

import "github.com/abhisek/proofloop/internal/llm"

// ClassifySchema is the structured output of the model tier.
var ClassifySchema = &llm.Schema{
	Name:        "exchange-classify",
	Description: "Whether a tutor message teaches new material",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"is_teaching": map[string]any{
				"type":        "boolean",
				"description": "True if the message explains or demonstrates a concept",
			},
			"confidence": map[string]any{
				"type":    "number",
				"minimum": 0,
				"maximum": 1,
			},
		},
		"required":             []string{"is_teaching", "confidence"},
		"additionalProperties": false,
	},
}

type classifyOutput struct {
	IsTeaching *bool   `json:"is_teaching" validate:"required"`
	Confidence float64 `json:"confidence" validate:"gte=0,lte=1"`
}
