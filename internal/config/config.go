package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of environment overrides. A double underscore
// separates nesting levels: CAFETERIA_PROVIDERS__OPENAI__ENABLED=true.
const EnvPrefix = "CAFETERIA_"

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (CAFETERIA_*) and conventional API key
// variables for providers whose key is not set in the file.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	cfg := DefaultConfig()

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	cfg.ResolveAPIKeys()
	return cfg, nil
}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// ResolveAPIKeys fills empty provider keys from their conventional
// environment variables.
func (c *Config) ResolveAPIKeys() {
	for _, name := range DefaultOrder {
		pc := c.Providers.Ref(name)
		if pc == nil || pc.APIKey != "" {
			continue
		}
		if v := os.Getenv(APIKeyEnvVar(name)); v != "" {
			pc.APIKey = v
		}
	}
}

// Get returns a copy of the named provider's configuration.
func (p ProvidersConfig) Get(name ProviderName) (ProviderConfig, bool) {
	ref := p.Ref(name)
	if ref == nil {
		return ProviderConfig{}, false
	}
	return *ref, true
}

// Ref returns a pointer to the named provider's configuration, or nil.
func (p *ProvidersConfig) Ref(name ProviderName) *ProviderConfig {
	switch name {
	case ProviderOpenAI:
		return &p.OpenAI
	case ProviderGemini:
		return &p.Gemini
	case ProviderGroq:
		return &p.Groq
	case ProviderHuggingFace:
		return &p.HuggingFace
	case ProviderOllama:
		return &p.Ollama
	default:
		return nil
	}
}

var validModes = map[Mode]bool{
	ModeHosted: true,
	ModeLocal:  true,
}

var validBackends = map[LedgerBackend]bool{
	LedgerJSON:   true,
	LedgerSQLite: true,
}

var validLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	if !validModes[c.Mode] {
		return fmt.Errorf("invalid mode %q: must be one of hosted, local", c.Mode)
	}
	if c.RequestTimeoutSeconds < 0 {
		return fmt.Errorf("request_timeout_seconds must be non-negative")
	}

	seen := make(map[ProviderName]bool)
	for _, name := range c.Providers.Order {
		pc := c.Providers.Ref(name)
		if pc == nil {
			return fmt.Errorf("invalid provider %q in providers.order", name)
		}
		if seen[name] {
			return fmt.Errorf("provider %q listed twice in providers.order", name)
		}
		seen[name] = true
		if pc.TimeoutSeconds < 0 || pc.ConnectTimeoutSeconds < 0 {
			return fmt.Errorf("provider %s: timeouts must be non-negative", name)
		}
		if pc.Enabled && pc.BaseURL == "" {
			return fmt.Errorf("provider %s: base_url is required when enabled", name)
		}
	}

	if c.Matcher.CongestionModerate <= 0 {
		return fmt.Errorf("matcher.congestion_moderate must be positive")
	}
	if c.Matcher.CongestionHeavy < c.Matcher.CongestionModerate {
		return fmt.Errorf("matcher.congestion_heavy must be >= congestion_moderate")
	}

	if !validBackends[c.Ledger.Backend] {
		return fmt.Errorf("invalid ledger.backend %q: must be one of json, sqlite", c.Ledger.Backend)
	}

	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid logging.level %q", c.Logging.Level)
	}

	return nil
}

// APIKeyEnvVar returns the conventional environment variable name for
// the API key of the given provider.
func APIKeyEnvVar(provider ProviderName) string {
	switch provider {
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderGemini:
		return "GEMINI_API_KEY"
	case ProviderGroq:
		return "GROQ_API_KEY"
	case ProviderHuggingFace:
		return "HF_API_TOKEN"
	case ProviderOllama:
		return "OLLAMA_API_KEY"
	default:
		return ""
	}
}
