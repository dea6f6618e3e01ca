package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"
)

// hfMinAnswerRunes is the length a stripped generation must exceed.
const hfMinAnswerRunes = 5

// HuggingFaceProvider implements Provider over the free inference API. It
// walks its model list in order inside a single attempt; a 503 means the
// model is still loading and the next model is tried.
type HuggingFaceProvider struct {
	baseURL string
	models  []string
	apiKey  string
	client  *http.Client
}

// NewHuggingFaceProvider creates the provider. apiKey is optional.
func NewHuggingFaceProvider(apiKey, baseURL string, models []string, client *http.Client) *HuggingFaceProvider {
	if client == nil {
		client = &http.Client{}
	}
	return &HuggingFaceProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		models:  models,
		apiKey:  apiKey,
		client:  client,
	}
}

func (p *HuggingFaceProvider) Name() string {
	return "huggingface"
}

type hfRequest struct {
	Inputs     string       `json:"inputs"`
	Parameters hfParameters `json:"parameters"`
}

type hfParameters struct {
	MaxLength         int     `json:"max_length"`
	Temperature       float64 `json:"temperature"`
	DoSample          bool    `json:"do_sample"`
	TopP              float64 `json:"top_p"`
	RepetitionPenalty float64 `json:"repetition_penalty"`
}

type hfGeneration struct {
	GeneratedText string `json:"generated_text"`
}

func (p *HuggingFaceProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	models := p.models
	if req.Model != "" {
		models = []string{req.Model}
	}
	if len(models) == 0 {
		return nil, fmt.Errorf("%w: huggingface has no models configured", ErrInvalidResponse)
	}

	prompt := historyPrompt(req.Messages)
	body := hfRequest{
		Inputs: prompt,
		Parameters: hfParameters{
			MaxLength:         200,
			Temperature:       0.7,
			DoSample:          true,
			TopP:              0.9,
			RepetitionPenalty: 1.2,
		},
	}

	var headers map[string]string
	if p.apiKey != "" {
		headers = map[string]string{"Authorization": "Bearer " + p.apiKey}
	}

	var lastErr error
	for _, model := range models {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("huggingface request failed: %w", err)
		}

		var raw json.RawMessage
		err := doJSON(ctx, p.client, p.Name(), http.MethodPost, p.baseURL+"/"+model, headers, body, &raw)
		if err != nil {
			var httpErr *HTTPError
			if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusServiceUnavailable {
				httpErr.Type = "model_loading"
			}
			lastErr = err
			continue
		}

		answer, err := extractGeneration(raw, prompt)
		if err != nil {
			lastErr = fmt.Errorf("%s: %w", model, err)
			continue
		}
		return &CompletionResponse{Content: answer, Model: model}, nil
	}
	return nil, lastErr
}

// extractGeneration reads [0].generated_text and strips the echoed prompt.
func extractGeneration(raw json.RawMessage, prompt string) (string, error) {
	var gens []hfGeneration
	if err := json.Unmarshal(raw, &gens); err != nil || len(gens) == 0 {
		return "", fmt.Errorf("%w: huggingface response has no [0].generated_text", ErrInvalidResponse)
	}
	answer := strings.TrimSpace(strings.ReplaceAll(gens[0].GeneratedText, prompt, ""))
	if utf8.RuneCountInString(answer) <= hfMinAnswerRunes {
		return "", fmt.Errorf("%w: huggingface generation too short", ErrInvalidResponse)
	}
	return answer, nil
}
