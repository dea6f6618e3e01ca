package config

// ProviderName identifies a generative-AI backend in the fallback chain.
type ProviderName string

const (
	ProviderOpenAI      ProviderName = "openai"
	ProviderGemini      ProviderName = "gemini"
	ProviderGroq        ProviderName = "groq"
	ProviderHuggingFace ProviderName = "huggingface"
	ProviderOllama      ProviderName = "ollama"
)

// Mode selects the execution context. Local mode adds the localhost model
// service in front of the hosted chain.
type Mode string

const (
	ModeHosted Mode = "hosted"
	ModeLocal  Mode = "local"
)

// LedgerBackend selects the persistence substrate for the sales ledger.
type LedgerBackend string

const (
	LedgerJSON   LedgerBackend = "json"
	LedgerSQLite LedgerBackend = "sqlite"
)

// Config is the top-level cafeteria configuration, corresponding to .cafeteria.yml.
type Config struct {
	DataDir               string          `yaml:"data_dir" koanf:"data_dir"`
	Mode                  Mode            `yaml:"mode" koanf:"mode"`
	RequestTimeoutSeconds int             `yaml:"request_timeout_seconds" koanf:"request_timeout_seconds"`
	Providers             ProvidersConfig `yaml:"providers" koanf:"providers"`
	Local                 LocalConfig     `yaml:"local" koanf:"local"`
	Matcher               MatcherConfig   `yaml:"matcher" koanf:"matcher"`
	Ledger                LedgerConfig    `yaml:"ledger" koanf:"ledger"`
	Logging               LoggingConfig   `yaml:"logging" koanf:"logging"`
	Server                ServerConfig    `yaml:"server" koanf:"server"`
}

// ProvidersConfig holds per-provider settings plus the order they are tried in.
type ProvidersConfig struct {
	Order       []ProviderName `yaml:"order" koanf:"order"`
	OpenAI      ProviderConfig `yaml:"openai" koanf:"openai"`
	Gemini      ProviderConfig `yaml:"gemini" koanf:"gemini"`
	Groq        ProviderConfig `yaml:"groq" koanf:"groq"`
	HuggingFace ProviderConfig `yaml:"huggingface" koanf:"huggingface"`
	Ollama      ProviderConfig `yaml:"ollama" koanf:"ollama"`
}

// ProviderConfig is the static configuration of one provider.
type ProviderConfig struct {
	Enabled               bool     `yaml:"enabled" koanf:"enabled"`
	APIKey                string   `yaml:"api_key,omitempty" koanf:"api_key"`
	BaseURL               string   `yaml:"base_url" koanf:"base_url"`
	Model                 string   `yaml:"model,omitempty" koanf:"model"`
	Models                []string `yaml:"models,omitempty" koanf:"models"`
	TimeoutSeconds        int      `yaml:"timeout_seconds" koanf:"timeout_seconds"`
	ConnectTimeoutSeconds int      `yaml:"connect_timeout_seconds" koanf:"connect_timeout_seconds"`
}

// LocalConfig configures the localhost model service used in local mode.
type LocalConfig struct {
	URL                 string   `yaml:"url" koanf:"url"`
	ProbeTimeoutSeconds int      `yaml:"probe_timeout_seconds" koanf:"probe_timeout_seconds"`
	ModelPreference     []string `yaml:"model_preference" koanf:"model_preference"`
	FallbackModel       string   `yaml:"fallback_model" koanf:"fallback_model"`
}

// MatcherConfig holds the congestion thresholds used by the deterministic matcher.
type MatcherConfig struct {
	CongestionModerate int `yaml:"congestion_moderate" koanf:"congestion_moderate"`
	CongestionHeavy    int `yaml:"congestion_heavy" koanf:"congestion_heavy"`
}

// LedgerConfig selects where the sales ledger lives.
type LedgerConfig struct {
	Backend LedgerBackend `yaml:"backend" koanf:"backend"`
	Path    string        `yaml:"path,omitempty" koanf:"path"`
}

type LoggingConfig struct {
	Level       string `yaml:"level" koanf:"level"`
	Development bool   `yaml:"development" koanf:"development"`
}

type ServerConfig struct {
	Port            int  `yaml:"port" koanf:"port"`
	AllowAllOrigins bool `yaml:"allow_all_origins" koanf:"allow_all_origins"`
}
