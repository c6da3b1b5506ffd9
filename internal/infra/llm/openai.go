package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// OpenAIProvider implements LLMProvider against the OpenAI chat completions
// API (or any compatible endpoint).
type OpenAIProvider struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewOpenAIProvider creates an OpenAIProvider. baseURL is usually
// https://api.openai.com/v1.
func NewOpenAIProvider(baseURL, apiKey, model string) *OpenAIProvider {
	return &OpenAIProvider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{},
	}
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIChatRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Temperature *float32        `json:"temperature,omitempty"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message      openAIMessage `json:"message"`
		FinishReason string        `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

func (p *OpenAIProvider) headers() map[string]string {
	return map[string]string{"Authorization": "Bearer " + p.apiKey}
}

// ChatCompletion performs a non-streaming chat via POST /chat/completions.
func (p *OpenAIProvider) ChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	msgs := make([]openAIMessage, len(req.Messages))
	for i, m := range req.Messages {
		msgs[i] = openAIMessage(m)
	}

	var out openAIChatResponse
	err := postJSON(ctx, p.httpClient, "openai", p.baseURL+"/chat/completions", p.headers(), openAIChatRequest{
		Model:       model,
		Messages:    msgs,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}, &out)
	if err != nil {
		return nil, err
	}
	if len(out.Choices) == 0 {
		return nil, errors.New("openai: response has no choices")
	}
	return &ChatResponse{
		Content:    out.Choices[0].Message.Content,
		StopReason: out.Choices[0].FinishReason,
		Tokens:     out.Usage.TotalTokens,
	}, nil
}

// ModelInfo returns static metadata for this provider/model.
func (p *OpenAIProvider) ModelInfo() ModelMeta {
	return ModelMeta{
		ID:        p.model,
		Provider:  "openai",
		Version:   "v1",
		MaxTokens: 128000,
	}
}

// HealthCheck calls GET /models with the configured key.
func (p *OpenAIProvider) HealthCheck(ctx context.Context) error {
	return getOK(ctx, p.httpClient, "openai", p.baseURL+"/models", p.headers())
}
