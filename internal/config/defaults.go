package config

import "path/filepath"

// DefaultOrder is the provider order used when none is configured.
var DefaultOrder = []ProviderName{
	ProviderOpenAI,
	ProviderGemini,
	ProviderGroq,
	ProviderHuggingFace,
	ProviderOllama,
}

// DefaultLocalModelPreference lists the substrings matched, in order, against
// the models installed on the local service.
var DefaultLocalModelPreference = []string{"llama3", "llama2", "llama", "mistral", "phi"}

// DefaultHuggingFaceModels are tried in order by the huggingface adapter.
var DefaultHuggingFaceModels = []string{
	"microsoft/DialoGPT-medium",
	"gpt2",
	"distilgpt2",
	"facebook/blenderbot-400M-distill",
}

const (
	defaultTimeoutSeconds        = 120
	defaultConnectTimeoutSeconds = 15
)

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		DataDir:               "data",
		Mode:                  ModeHosted,
		RequestTimeoutSeconds: 0,
		Providers: ProvidersConfig{
			Order: append([]ProviderName(nil), DefaultOrder...),
			OpenAI: ProviderConfig{
				BaseURL:               "https://api.openai.com/v1",
				Model:                 "gpt-3.5-turbo",
				TimeoutSeconds:        defaultTimeoutSeconds,
				ConnectTimeoutSeconds: defaultConnectTimeoutSeconds,
			},
			Gemini: ProviderConfig{
				BaseURL:               "https://generativelanguage.googleapis.com/v1beta",
				Model:                 "gemini-1.5-flash",
				TimeoutSeconds:        defaultTimeoutSeconds,
				ConnectTimeoutSeconds: defaultConnectTimeoutSeconds,
			},
			Groq: ProviderConfig{
				BaseURL:               "https://api.groq.com/openai/v1",
				Model:                 "llama-3.1-8b-instant",
				TimeoutSeconds:        defaultTimeoutSeconds,
				ConnectTimeoutSeconds: defaultConnectTimeoutSeconds,
			},
			HuggingFace: ProviderConfig{
				Enabled:               true,
				BaseURL:               "https://api-inference.huggingface.co/models",
				Models:                append([]string(nil), DefaultHuggingFaceModels...),
				TimeoutSeconds:        60,
				ConnectTimeoutSeconds: defaultConnectTimeoutSeconds,
			},
			Ollama: ProviderConfig{
				Model:                 "llama3",
				TimeoutSeconds:        defaultTimeoutSeconds,
				ConnectTimeoutSeconds: defaultConnectTimeoutSeconds,
			},
		},
		Local: LocalConfig{
			URL:                 "http://localhost:11434",
			ProbeTimeoutSeconds: 3,
			ModelPreference:     append([]string(nil), DefaultLocalModelPreference...),
			FallbackModel:       "llama3",
		},
		Matcher: MatcherConfig{
			CongestionModerate: 15,
			CongestionHeavy:    30,
		},
		Ledger: LedgerConfig{
			Backend: LedgerJSON,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Server: ServerConfig{
			Port: 8080,
		},
	}
}

// LedgerPath returns the configured ledger location, or the backend's
// default file inside DataDir.
func (c *Config) LedgerPath() string {
	if c.Ledger.Path != "" {
		return c.Ledger.Path
	}
	if c.Ledger.Backend == LedgerSQLite {
		return filepath.Join(c.DataDir, "cafeteria.db")
	}
	return filepath.Join(c.DataDir, "sales-data.json")
}
