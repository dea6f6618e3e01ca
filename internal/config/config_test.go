package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Mode != ModeHosted {
		t.Errorf("expected default mode %q, got %q", ModeHosted, cfg.Mode)
	}
	if cfg.Matcher.CongestionModerate != 15 || cfg.Matcher.CongestionHeavy != 30 {
		t.Errorf("unexpected congestion thresholds: %+v", cfg.Matcher)
	}
	if len(cfg.Providers.Order) != 5 || cfg.Providers.Order[0] != ProviderOpenAI || cfg.Providers.Order[4] != ProviderOllama {
		t.Errorf("unexpected default order: %v", cfg.Providers.Order)
	}
	if !cfg.Providers.HuggingFace.Enabled {
		t.Error("expected huggingface enabled by default")
	}
	if cfg.Providers.OpenAI.TimeoutSeconds != 120 || cfg.Providers.OpenAI.ConnectTimeoutSeconds != 15 {
		t.Errorf("unexpected openai timeouts: %+v", cfg.Providers.OpenAI)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestSaveAndLoad(t *testing.T) {
	clearKeyEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "test.cafeteria.yml")

	original := DefaultConfig()
	original.Mode = ModeLocal
	original.DataDir = "/srv/cafeteria"
	original.Providers.Gemini.Enabled = true
	original.Providers.Gemini.Model = "gemini-pro"
	original.Matcher.CongestionModerate = 10
	original.Matcher.CongestionHeavy = 20
	original.Ledger.Backend = LedgerSQLite
	original.Local.ModelPreference = []string{"mistral", "phi"}

	if err := original.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.Mode != original.Mode {
		t.Errorf("mode: got %q, want %q", loaded.Mode, original.Mode)
	}
	if loaded.DataDir != original.DataDir {
		t.Errorf("data_dir: got %q, want %q", loaded.DataDir, original.DataDir)
	}
	if !loaded.Providers.Gemini.Enabled || loaded.Providers.Gemini.Model != "gemini-pro" {
		t.Errorf("gemini: got %+v", loaded.Providers.Gemini)
	}
	if loaded.Matcher != original.Matcher {
		t.Errorf("matcher: got %+v, want %+v", loaded.Matcher, original.Matcher)
	}
	if loaded.Ledger.Backend != LedgerSQLite {
		t.Errorf("ledger backend: got %q", loaded.Ledger.Backend)
	}
	if len(loaded.Local.ModelPreference) != 2 || loaded.Local.ModelPreference[0] != "mistral" {
		t.Errorf("model preference: got %v", loaded.Local.ModelPreference)
	}
}

func TestLoadMissingFile(t *testing.T) {
	clearKeyEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "nonexistent.yml"))
	if err != nil {
		t.Fatalf("Load of missing file should return defaults, got: %v", err)
	}
	if cfg.DataDir != "data" {
		t.Errorf("expected default data_dir, got %q", cfg.DataDir)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yml")
	if err := os.WriteFile(path, []byte("mode: [unterminated"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestEnvOverride(t *testing.T) {
	clearKeyEnv(t)
	t.Setenv("CAFETERIA_DATA_DIR", "/tmp/cafe")
	t.Setenv("CAFETERIA_PROVIDERS__OPENAI__ENABLED", "true")
	t.Setenv("CAFETERIA_MATCHER__CONGESTION_HEAVY", "40")

	cfg, err := Load(filepath.Join(t.TempDir(), "none.yml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.DataDir != "/tmp/cafe" {
		t.Errorf("data_dir: got %q", cfg.DataDir)
	}
	if !cfg.Providers.OpenAI.Enabled {
		t.Error("expected openai enabled via env")
	}
	if cfg.Matcher.CongestionHeavy != 40 {
		t.Errorf("congestion_heavy: got %d", cfg.Matcher.CongestionHeavy)
	}
}

func TestAPIKeyFallbackFromEnv(t *testing.T) {
	clearKeyEnv(t)
	t.Setenv("GROQ_API_KEY", "gsk-test")

	cfg, err := Load(filepath.Join(t.TempDir(), "none.yml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Providers.Groq.APIKey != "gsk-test" {
		t.Errorf("groq key: got %q", cfg.Providers.Groq.APIKey)
	}
	if cfg.Providers.OpenAI.APIKey != "" {
		t.Errorf("openai key should stay empty, got %q", cfg.Providers.OpenAI.APIKey)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"valid default", func(c *Config) {}, false},
		{"empty data dir", func(c *Config) { c.DataDir = "" }, true},
		{"bad mode", func(c *Config) { c.Mode = "cloud" }, true},
		{"unknown provider", func(c *Config) { c.Providers.Order = []ProviderName{"anthropic"} }, true},
		{"duplicate provider", func(c *Config) { c.Providers.Order = []ProviderName{ProviderGroq, ProviderGroq} }, true},
		{"enabled without url", func(c *Config) { c.Providers.Ollama.Enabled = true }, true},
		{"negative timeout", func(c *Config) { c.Providers.Gemini.TimeoutSeconds = -1 }, true},
		{"heavy below moderate", func(c *Config) { c.Matcher.CongestionHeavy = 5 }, true},
		{"zero moderate", func(c *Config) { c.Matcher.CongestionModerate = 0 }, true},
		{"bad backend", func(c *Config) { c.Ledger.Backend = "postgres" }, true},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, true},
		{"sqlite backend", func(c *Config) { c.Ledger.Backend = LedgerSQLite }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLedgerPath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = "d"
	if got := cfg.LedgerPath(); got != filepath.Join("d", "sales-data.json") {
		t.Errorf("json path: got %q", got)
	}
	cfg.Ledger.Backend = LedgerSQLite
	if got := cfg.LedgerPath(); got != filepath.Join("d", "cafeteria.db") {
		t.Errorf("sqlite path: got %q", got)
	}
	cfg.Ledger.Path = "/var/ledger.db"
	if got := cfg.LedgerPath(); got != "/var/ledger.db" {
		t.Errorf("explicit path: got %q", got)
	}
}

func TestAPIKeyEnvVar(t *testing.T) {
	tests := map[ProviderName]string{
		ProviderOpenAI:      "OPENAI_API_KEY",
		ProviderGemini:      "GEMINI_API_KEY",
		ProviderGroq:        "GROQ_API_KEY",
		ProviderHuggingFace: "HF_API_TOKEN",
		ProviderOllama:      "OLLAMA_API_KEY",
		"unknown":           "",
	}
	for p, want := range tests {
		if got := APIKeyEnvVar(p); got != want {
			t.Errorf("APIKeyEnvVar(%q) = %q, want %q", p, got, want)
		}
	}
}

func clearKeyEnv(t *testing.T) {
	t.Helper()
	for _, name := range DefaultOrder {
		t.Setenv(APIKeyEnvVar(name), "")
	}
}
