package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const (
	chatTemperature = 0.8
	chatMaxTokens   = 1000
)

// OpenAICompatProvider implements Provider for any endpoint speaking the
// OpenAI chat-completions protocol (OpenAI itself, Groq).
type OpenAICompatProvider struct {
	name   string
	client *openai.Client
	model  string
}

// NewOpenAICompatProvider creates a provider posting to {baseURL}/chat/completions.
func NewOpenAICompatProvider(name, apiKey, baseURL, model string, httpClient *http.Client) *OpenAICompatProvider {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	if httpClient != nil {
		cfg.HTTPClient = httpClient
	}
	return &OpenAICompatProvider{
		name:   name,
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

func (p *OpenAICompatProvider) Name() string {
	return p.name
}

func (p *OpenAICompatProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, msg := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   chatMaxTokens,
		Temperature: chatTemperature,
	})
	if err != nil {
		return nil, p.translateError(err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: %s returned no choices", ErrInvalidResponse, p.name)
	}

	return &CompletionResponse{
		Content:      strings.TrimSpace(resp.Choices[0].Message.Content),
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
		Model:        resp.Model,
		FinishReason: string(resp.Choices[0].FinishReason),
	}, nil
}

// translateError maps go-openai errors onto the chain's error classes.
func (p *OpenAICompatProvider) translateError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		errType := apiErr.Type
		if code, ok := apiErr.Code.(string); ok && code != "" && errType == "" {
			errType = code
		}
		return &HTTPError{
			Provider:   p.name,
			StatusCode: apiErr.HTTPStatusCode,
			Type:       errType,
			Body:       preview(apiErr.Message),
		}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &HTTPError{
			Provider:   p.name,
			StatusCode: reqErr.HTTPStatusCode,
			Type:       errorType(reqErr.Body),
			Body:       preview(string(reqErr.Body)),
		}
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return fmt.Errorf("%w: decoding %s response: %v", ErrInvalidResponse, p.name, err)
	}

	return fmt.Errorf("%s request failed: %w", p.name, err)
}
