package llm

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/ziadkadry99/cafeteria-ai/internal/config"
)

// NewProvider creates the adapter for a configured provider. Each adapter
// gets its own HTTP client bounded by the provider's timeouts.
func NewProvider(name config.ProviderName, pc config.ProviderConfig) (Provider, error) {
	client := NewHTTPClient(Seconds(pc.ConnectTimeoutSeconds), Seconds(pc.TimeoutSeconds))

	switch name {
	case config.ProviderOpenAI, config.ProviderGroq:
		return NewOpenAICompatProvider(string(name), pc.APIKey, pc.BaseURL, pc.Model, client), nil
	case config.ProviderGemini:
		return NewGeminiProvider(pc.APIKey, pc.BaseURL, pc.Model, client), nil
	case config.ProviderHuggingFace:
		return NewHuggingFaceProvider(pc.APIKey, pc.BaseURL, pc.Models, client), nil
	case config.ProviderOllama:
		return NewOllamaProvider(string(name), pc.BaseURL, pc.Model, pc.APIKey, client), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", name)
	}
}

// RequiresKey reports whether a provider cannot be called without an API key.
func RequiresKey(name config.ProviderName) bool {
	switch name {
	case config.ProviderOpenAI, config.ProviderGemini, config.ProviderGroq:
		return true
	default:
		return false
	}
}

// GateFor derives a provider's gate from its configuration.
func GateFor(name config.ProviderName, pc config.ProviderConfig) Gate {
	return Gate{
		Enabled:     pc.Enabled,
		RequiresKey: RequiresKey(name),
		HasKey:      pc.APIKey != "",
	}
}

// BuildChain assembles the hosted chain in configured order.
func BuildChain(cfg config.ProvidersConfig, logger *zap.Logger) (*Chain, error) {
	order := cfg.Order
	if len(order) == 0 {
		order = config.DefaultOrder
	}

	links := make([]Link, 0, len(order))
	for _, name := range order {
		pc, ok := cfg.Get(name)
		if !ok {
			return nil, fmt.Errorf("unsupported provider: %s", name)
		}
		p, err := NewProvider(name, pc)
		if err != nil {
			return nil, err
		}
		links = append(links, Link{Provider: p, Gate: GateFor(name, pc)})
	}
	return NewChain(logger, links...), nil
}

// NewLocalService builds the local service from configuration. Chat calls
// use the default provider timeouts.
func NewLocalService(lc config.LocalConfig, chat config.ProviderConfig) *LocalService {
	probe := Seconds(lc.ProbeTimeoutSeconds)
	return &LocalService{
		BaseURL:       lc.URL,
		Preference:    lc.ModelPreference,
		FallbackModel: lc.FallbackModel,
		ProbeClient:   NewHTTPClient(probe, probe),
		ChatClient:    NewHTTPClient(Seconds(chat.ConnectTimeoutSeconds), Seconds(chat.TimeoutSeconds)),
	}
}
