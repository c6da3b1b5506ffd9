package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// GeminiProvider implements LLMProvider against the Google Generative
// Language REST API (generateContent).
type GeminiProvider struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewGeminiProvider creates a GeminiProvider. baseURL is usually
// https://generativelanguage.googleapis.com/v1beta.
func NewGeminiProvider(baseURL, apiKey, model string) *GeminiProvider {
	return &GeminiProvider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{},
	}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature     *float32 `json:"temperature,omitempty"`
	MaxOutputTokens int      `json:"maxOutputTokens,omitempty"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent         `json:"systemInstruction,omitempty"`
	Contents          []geminiContent        `json:"contents"`
	GenerationConfig  geminiGenerationConfig `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata struct {
		TotalTokenCount int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

func (p *GeminiProvider) headers() map[string]string {
	return map[string]string{"x-goog-api-key": p.apiKey}
}

// toGeminiContents splits system messages into the system instruction and
// maps assistant turns to Gemini's "model" role.
func toGeminiContents(msgs []Message) (*geminiContent, []geminiContent) {
	var system []geminiPart
	contents := make([]geminiContent, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case "system":
			system = append(system, geminiPart{Text: m.Content})
		case "assistant":
			contents = append(contents, geminiContent{Role: "model", Parts: []geminiPart{{Text: m.Content}}})
		default:
			contents = append(contents, geminiContent{Role: "user", Parts: []geminiPart{{Text: m.Content}}})
		}
	}
	if len(system) == 0 {
		return nil, contents
	}
	return &geminiContent{Parts: system}, contents
}

// ChatCompletion performs POST /models/{model}:generateContent.
func (p *GeminiProvider) ChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	system, contents := toGeminiContents(req.Messages)
	var out geminiResponse
	url := p.baseURL + "/models/" + model + ":generateContent"
	err := postJSON(ctx, p.httpClient, "gemini", url, p.headers(), geminiRequest{
		SystemInstruction: system,
		Contents:          contents,
		GenerationConfig: geminiGenerationConfig{
			Temperature:     req.Temperature,
			MaxOutputTokens: req.MaxTokens,
		},
	}, &out)
	if err != nil {
		return nil, err
	}
	if len(out.Candidates) == 0 {
		if out.PromptFeedback.BlockReason != "" {
			return nil, errors.New("gemini: prompt blocked: " + out.PromptFeedback.BlockReason)
		}
		return nil, errors.New("gemini: response has no candidates")
	}

	var sb strings.Builder
	for _, part := range out.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return &ChatResponse{
		Content:    sb.String(),
		StopReason: strings.ToLower(out.Candidates[0].FinishReason),
		Tokens:     out.UsageMetadata.TotalTokenCount,
	}, nil
}

// ModelInfo returns static metadata for this provider/model.
func (p *GeminiProvider) ModelInfo() ModelMeta {
	return ModelMeta{
		ID:        p.model,
		Provider:  "gemini",
		Version:   "v1beta",
		MaxTokens: 1048576,
	}
}

// HealthCheck calls GET /models/{model}.
func (p *GeminiProvider) HealthCheck(ctx context.Context) error {
	return getOK(ctx, p.httpClient, "gemini", p.baseURL+"/models/"+p.model, p.headers())
}
