// Package llm: Ollama HTTP adapter.
// OllamaProvider calls a local Ollama REST API.
// Endpoints used:
//   - POST /api/chat  (non-streaming chat completion)
//   - GET  /api/tags  (health check, lists available models)
package llm

import (
	"context"
	"net/http"
)

// OllamaProvider implements LLMProvider against a running Ollama instance.
type OllamaProvider struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewOllamaProvider creates an OllamaProvider. Call deadlines come from the
// caller's context.
func NewOllamaProvider(baseURL, model string) *OllamaProvider {
	return &OllamaProvider{
		baseURL: baseURL,
		model:   model,
		httpClient: &http.Client{},
	}
}

type ollamaChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatRequest struct {
	Model    string              `json:"model"`
	Messages []ollamaChatMessage `json:"messages"`
	Stream   bool                `json:"stream"`
	Options  map[string]any      `json:"options,omitempty"`
}

type ollamaChatResponse struct {
	Message         ollamaChatMessage `json:"message"`
	DoneReason      string            `json:"done_reason"`
	Done            bool              `json:"done"`
	PromptEvalCount int               `json:"prompt_eval_count"`
	EvalCount       int               `json:"eval_count"`
}

// ChatCompletion performs a non-streaming chat via POST /api/chat.
func (p *OllamaProvider) ChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	msgs := make([]ollamaChatMessage, len(req.Messages))
	for i, m := range req.Messages {
		msgs[i] = ollamaChatMessage(m)
	}

	var out ollamaChatResponse
	err := postJSON(ctx, p.httpClient, "ollama", p.baseURL+"/api/chat", nil, ollamaChatRequest{
		Model:    model,
		Messages: msgs,
		Stream:   false,
		Options:  buildChatOptions(req),
	}, &out)
	if err != nil {
		return nil, err
	}
	return &ChatResponse{
		Content:    out.Message.Content,
		StopReason: out.DoneReason,
		Tokens:     out.PromptEvalCount + out.EvalCount,
	}, nil
}

// buildChatOptions converts ChatRequest fields into Ollama options map.
func buildChatOptions(req ChatRequest) map[string]any {
	opts := map[string]any{}
	if req.Temperature != nil {
		opts["temperature"] = *req.Temperature
	}
	if req.MaxTokens != 0 {
		opts["num_predict"] = req.MaxTokens
	}
	if len(opts) == 0 {
		return nil
	}
	return opts
}

// ModelInfo returns static metadata for this provider/model.
func (p *OllamaProvider) ModelInfo() ModelMeta {
	return ModelMeta{
		ID:        p.model,
		Provider:  "ollama",
		Version:   "v1",
		MaxTokens: 4096,
	}
}

// HealthCheck calls GET /api/tags.
func (p *OllamaProvider) HealthCheck(ctx context.Context) error {
	return getOK(ctx, p.httpClient, "ollama", p.baseURL+"/api/tags", nil)
}
