package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// GeminiProvider implements Provider using the Gemini generateContent API
// via direct HTTP. The conversation is flattened into a single prompt.
type GeminiProvider struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

// NewGeminiProvider creates a Gemini provider. baseURL is the API root,
// e.g. https://generativelanguage.googleapis.com/v1beta.
func NewGeminiProvider(apiKey, baseURL, model string, client *http.Client) *GeminiProvider {
	if client == nil {
		client = &http.Client{}
	}
	return &GeminiProvider{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  client,
	}
}

func (p *GeminiProvider) Name() string {
	return "gemini"
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      *geminiContent `json:"content"`
		FinishReason string         `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata *struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
}

// GenerateURL returns the generateContent endpoint for model.
func (p *GeminiProvider) GenerateURL(model string) string {
	return fmt.Sprintf("%s/models/%s:generateContent?key=%s", p.baseURL, model, url.QueryEscape(p.apiKey))
}

func (p *GeminiProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	apiReq := geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: singlePrompt(req.Messages)}}}},
	}

	var apiResp geminiResponse
	if err := doJSON(ctx, p.client, p.Name(), http.MethodPost, p.GenerateURL(model), nil, apiReq, &apiResp); err != nil {
		return nil, err
	}

	if len(apiResp.Candidates) == 0 || apiResp.Candidates[0].Content == nil || len(apiResp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("%w: gemini response has no candidates[0].content.parts[0].text", ErrInvalidResponse)
	}

	out := &CompletionResponse{
		Content:      strings.TrimSpace(apiResp.Candidates[0].Content.Parts[0].Text),
		Model:        model,
		FinishReason: apiResp.Candidates[0].FinishReason,
	}
	if apiResp.UsageMetadata != nil {
		out.InputTokens = apiResp.UsageMetadata.PromptTokenCount
		out.OutputTokens = apiResp.UsageMetadata.CandidatesTokenCount
	}
	return out, nil
}
