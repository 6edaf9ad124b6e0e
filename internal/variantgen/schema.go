package variantgen

import "github.com/abhisek/lessonplay/internal/llm"

// VariantSchema is the JSON schema of one LLM-authored variant.
var VariantSchema = &llm.Schema{
	Name:        "question-variant",
	Description: "An alternate wording of a multiple choice quiz question testing the same idea",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"body": map[string]any{
				"type":        "string",
				"description": "The reworded question shown to the student, in plain text",
			},
			"options": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"minItems":    4,
				"maxItems":    4,
				"description": "Exactly 4 answer options",
			},
			"correct": map[string]any{
				"type":        "integer",
				"minimum":     0,
				"maximum":     3,
				"description": "Zero-based index of the correct option",
			},
		},
		"required":             []any{"body", "options", "correct"},
		"additionalProperties": false,
	},
}
