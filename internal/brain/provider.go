package brain

import "context"

// Provider abstracts the AI API (Claude, Gemini, OpenAI, etc.).
// Complete sends one system prompt + user prompt pair and returns the
// raw text of the model's reply.
type Provider interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}
