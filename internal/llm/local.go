package llm

import (
	"context"
	"net/http"
	"strings"
)

// Names of the local-mode links.
const (
	LocalProviderName       = "ollama-local"
	LocalSimpleProviderName = "ollama-local-simple"
)

// LocalService is the Ollama service on the operator's own machine. It is
// probed before use so an installed model can be chosen.
type LocalService struct {
	BaseURL string
	// Preference lists substrings matched in order against installed model names.
	Preference []string
	// FallbackModel is used when the probe lists no models.
	FallbackModel string
	ProbeClient   *http.Client
	ChatClient    *http.Client
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// Models lists the models installed on the local service.
func (s *LocalService) Models(ctx context.Context) ([]string, error) {
	client := s.ProbeClient
	if client == nil {
		client = http.DefaultClient
	}
	var tags tagsResponse
	url := strings.TrimRight(s.BaseURL, "/") + "/api/tags"
	if err := doJSON(ctx, client, LocalProviderName, http.MethodGet, url, nil, nil, &tags); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		if m.Name != "" {
			names = append(names, m.Name)
		}
	}
	return names, nil
}

// Probe checks the service and selects a model.
func (s *LocalService) Probe(ctx context.Context) (string, error) {
	installed, err := s.Models(ctx)
	if err != nil {
		return "", err
	}
	return PickModel(installed, s.Preference, s.FallbackModel), nil
}

// Links returns the local links for model: a full-conversation attempt and
// a retry carrying only the user's message.
func (s *LocalService) Links(model string) []Link {
	p := NewOllamaProvider(LocalProviderName, s.BaseURL, model, "", s.ChatClient)
	enabled := Gate{Enabled: true}
	return []Link{
		{Provider: p, Gate: enabled},
		{Provider: UserOnly(p, LocalSimpleProviderName), Gate: enabled},
	}
}

// PickModel returns the first installed model containing a preferred
// substring, else the first installed model, else fallback.
func PickModel(installed, preference []string, fallback string) string {
	for _, pref := range preference {
		for _, name := range installed {
			if strings.Contains(name, pref) {
				return name
			}
		}
	}
	if len(installed) > 0 {
		return installed[0]
	}
	return fallback
}

type userOnlyProvider struct {
	Provider
	name string
}

// UserOnly wraps p so that only the final user message is sent, under a
// different attempt name.
func UserOnly(p Provider, name string) Provider {
	return &userOnlyProvider{Provider: p, name: name}
}

func (u *userOnlyProvider) Name() string { return u.name }

func (u *userOnlyProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	req.Messages = lastUserOnly(req.Messages)
	return u.Provider.Complete(ctx, req)
}
