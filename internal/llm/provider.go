// Package llm talks to hosted language models for catalog authoring.
// Every request is single-turn and, when a Schema is given, must come
// back as a JSON object that validates against it.
package llm

import (
	"context"
	"encoding/json"
)

// Provider completes prompts against one configured model.
type Provider interface {
	Complete(ctx context.Context, p Prompt) (*Completion, error)

	// Model is the model id requests are sent to.
	Model() string
}

// Prompt is a single-turn request.
type Prompt struct {
	System string
	User   string

	// Schema, when set, switches the provider to its structured output
	// mode and the reply is validated before it is returned.
	Schema *Schema

	MaxTokens   int
	Temperature float64
}

// Completion is a model reply.
type Completion struct {
	// JSON is the validated object when the prompt carried a schema,
	// otherwise the raw reply text.
	JSON json.RawMessage

	// Model is the model that actually served the request.
	Model string

	InputTokens  int
	OutputTokens int
}
