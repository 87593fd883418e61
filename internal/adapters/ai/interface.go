package ai

import "context"

// Provider is an LLM routing service that can answer chat completions.
type Provider interface {
	Name() string
}

// ChatProvider extends Provider with chat completion.
type ChatProvider interface {
	Provider

	// Chat sends a single, non-streaming chat completion request.
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}
