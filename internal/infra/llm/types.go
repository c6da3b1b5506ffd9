// Package llm defines the model-agnostic generative-text abstraction.
// All types here are shared between the provider interface and adapters.
package llm

// Message represents a single turn in a conversation (role + content).
type Message struct {
	Role    string // "system" | "user" | "assistant"
	Content string
}

// ChatRequest is the input for a non-streaming chat completion.
type ChatRequest struct {
	// Model overrides the provider default when non-empty.
	Model       string
	Messages    []Message
	// Temperature is nil to use the provider's default; 0 is a valid setting.
	Temperature *float32
	MaxTokens   int
}

// Float32 returns a pointer to v, for ChatRequest.Temperature.
func Float32(v float32) *float32 { return &v }

// ChatResponse is the output from a non-streaming chat completion.
type ChatResponse struct {
	Content    string // The assistant message text.
	StopReason string // "stop" | "length" | provider-specific
	Tokens     int    // Total tokens consumed (prompt + completion), 0 if unknown.
}

// ModelMeta describes the model / provider identity.
type ModelMeta struct {
	ID        string // e.g. "gpt-4o-mini", "gemini-1.5-pro-latest"
	Provider  string // e.g. "openai", "gemini", "ollama"
	Version   string
	MaxTokens int // Maximum context window size.
}
