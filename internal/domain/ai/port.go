package ai

import "context"

// Message is one turn of prior conversation passed to the model.
type Message struct {
	Role    string
	Content string
}

// Completion is a model response with its usage metadata.
type Completion struct {
	Text   string
	Model  string
	Tokens int
}

// Client port (interface for the external LLM collaborator).
type Client interface {
	Generate(ctx context.Context, systemPrompt, userMessage string, history []Message) (Completion, error)
}
