package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// OllamaProvider implements Provider using direct HTTP calls to an Ollama
// chat endpoint, either a self-hosted instance or the local service.
type OllamaProvider struct {
	name    string
	baseURL string
	model   string
	apiKey  string
	client  *http.Client
}

// NewOllamaProvider creates an Ollama provider. apiKey is optional and sent
// as a bearer token when present.
func NewOllamaProvider(name, baseURL, model, apiKey string, client *http.Client) *OllamaProvider {
	if client == nil {
		client = &http.Client{}
	}
	return &OllamaProvider{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		apiKey:  apiKey,
		client:  client,
	}
}

func (p *OllamaProvider) Name() string {
	return p.name
}

type ollamaChatRequest struct {
	Model    string        `json:"model"`
	Messages []Message     `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  ollamaOptions `json:"options"`
}

type ollamaOptions struct {
	Temperature   float64 `json:"temperature"`
	TopP          float64 `json:"top_p"`
	RepeatPenalty float64 `json:"repeat_penalty"`
}

type ollamaChatResponse struct {
	Message *struct {
		Content string `json:"content"`
	} `json:"message"`
	Response        *string `json:"response"`
	Model           string  `json:"model"`
	DoneReason      string  `json:"done_reason"`
	PromptEvalCount int     `json:"prompt_eval_count"`
	EvalCount       int     `json:"eval_count"`
}

func (p *OllamaProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	ollamaReq := ollamaChatRequest{
		Model:    model,
		Messages: req.Messages,
		Stream:   false,
		Options: ollamaOptions{
			Temperature:   0.8,
			TopP:          0.9,
			RepeatPenalty: 1.1,
		},
	}

	var headers map[string]string
	if p.apiKey != "" {
		headers = map[string]string{"Authorization": "Bearer " + p.apiKey}
	}

	var ollamaResp ollamaChatResponse
	if err := doJSON(ctx, p.client, p.name, http.MethodPost, p.baseURL+"/api/chat", headers, ollamaReq, &ollamaResp); err != nil {
		return nil, err
	}

	var content string
	switch {
	case ollamaResp.Message != nil && strings.TrimSpace(ollamaResp.Message.Content) != "":
		content = ollamaResp.Message.Content
	case ollamaResp.Response != nil:
		content = *ollamaResp.Response
	case ollamaResp.Message != nil:
		content = ollamaResp.Message.Content
	default:
		return nil, fmt.Errorf("%w: %s response has neither message.content nor response", ErrInvalidResponse, p.name)
	}

	if ollamaResp.Model != "" {
		model = ollamaResp.Model
	}
	return &CompletionResponse{
		Content:      strings.TrimSpace(content),
		InputTokens:  ollamaResp.PromptEvalCount,
		OutputTokens: ollamaResp.EvalCount,
		Model:        model,
		FinishReason: ollamaResp.DoneReason,
	}, nil
}
