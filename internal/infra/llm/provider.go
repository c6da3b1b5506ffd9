// Package llm: LLMProvider interface.
// Adapters (Gemini, OpenAI, Ollama) implement this interface so the
// recommendation pipeline is never coupled to a specific vendor.
package llm

import "context"

// LLMProvider is the model-agnostic interface for generative-text calls.
type LLMProvider interface {
	// ChatCompletion performs a non-streaming chat completion.
	ChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error)

	// ModelInfo returns static metadata about the provider/model.
	ModelInfo() ModelMeta

	// HealthCheck returns nil if the provider is reachable and operational.
	HealthCheck(ctx context.Context) error
}

var (
	_ LLMProvider = (*OllamaProvider)(nil)
	_ LLMProvider = (*OpenAIProvider)(nil)
	_ LLMProvider = (*GeminiProvider)(nil)
)
