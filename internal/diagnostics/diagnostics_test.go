package diagnostics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ziadkadry99/cafeteria-ai/internal/config"
	"github.com/ziadkadry99/cafeteria-ai/internal/llm"
)

func testConfig(base string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Providers.OpenAI.Enabled = true
	cfg.Providers.OpenAI.APIKey = "sk-test"
	cfg.Providers.OpenAI.BaseURL = base + "/openai"
	cfg.Providers.Gemini.Enabled = true
	cfg.Providers.Gemini.APIKey = "AIza-test"
	cfg.Providers.Gemini.BaseURL = base + "/gemini"
	cfg.Providers.Gemini.Model = "gemini-test"
	return cfg
}

func TestStatusProbesOpenAIAndGemini(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		switch r.URL.Path {
		case "/openai/models":
			if r.Method != http.MethodGet || r.Header.Get("Authorization") != "Bearer sk-test" {
				t.Errorf("openai probe: %s auth=%q", r.Method, r.Header.Get("Authorization"))
			}
			w.WriteHeader(http.StatusOK)
		case "/gemini/models/gemini-test:generateContent":
			body, _ := io.ReadAll(r.Body)
			if !strings.Contains(string(body), `"text":"test"`) || r.URL.Query().Get("key") != "AIza-test" {
				t.Errorf("gemini probe: body=%s key=%q", body, r.URL.Query().Get("key"))
			}
			w.WriteHeader(http.StatusBadRequest)
		default:
			t.Errorf("unexpected probe path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	rep := NewReporter(testConfig(srv.URL), nil).WithClient(srv.Client())
	statuses := rep.Status(context.Background())

	if len(statuses) != len(config.DefaultOrder) {
		t.Fatalf("expected %d providers, got %d", len(config.DefaultOrder), len(statuses))
	}
	byName := map[config.ProviderName]ProviderStatus{}
	for _, s := range statuses {
		byName[s.Name] = s
	}
	if p := byName[config.ProviderOpenAI].Probe; p.Status != ProbeSuccess {
		t.Errorf("openai probe: %+v", p)
	}
	if p := byName[config.ProviderGemini].Probe; p.Status != ProbeHTTPStatus || p.StatusCode != 400 {
		t.Errorf("gemini probe: %+v", p)
	}
	if p := byName[config.ProviderHuggingFace].Probe; p.Status != ProbeNotTested {
		t.Errorf("huggingface should not be probed: %+v", p)
	}
	if hits.Load() != 2 {
		t.Errorf("expected 2 probe requests, got %d", hits.Load())
	}
}

func TestStatusFuncReportsEachProbe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	rep := NewReporter(testConfig(srv.URL), nil).WithClient(srv.Client())
	if n := rep.ProbeCount(); n != 2 {
		t.Fatalf("ProbeCount: got %d, want 2", n)
	}

	var calls atomic.Int32
	rep.StatusFunc(context.Background(), func(st ProviderStatus) {
		calls.Add(1)
		if st.Probe.Status != ProbeSuccess {
			t.Errorf("%s: %+v", st.Name, st.Probe)
		}
	})
	if calls.Load() != 2 {
		t.Errorf("callback calls: got %d, want 2", calls.Load())
	}
}

func TestStatusSkipsProbeWithoutKey(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Providers.OpenAI.Enabled = true
	cfg.Providers.OpenAI.APIKey = ""
	cfg.Providers.OpenAI.BaseURL = "http://127.0.0.1:1"

	statuses := NewReporter(cfg, nil).Status(context.Background())
	for _, s := range statuses {
		if s.Probe.Status != ProbeNotTested {
			t.Errorf("%s: expected not-tested, got %+v", s.Name, s.Probe)
		}
	}
}

func TestProbeConnectError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := srv.URL
	srv.Close()

	cfg := testConfig(base)
	cfg.Providers.Gemini.Enabled = false
	statuses := NewReporter(cfg, nil).Status(context.Background())
	if statuses[0].Name != config.ProviderOpenAI || statuses[0].Probe.Status != ProbeConnectError {
		t.Errorf("expected connect-error, got %+v", statuses[0])
	}
	if len([]rune(statuses[0].Probe.Detail)) > 50 {
		t.Errorf("detail not truncated: %q", statuses[0].Probe.Detail)
	}
}

func TestProbeTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.Providers.Gemini.Enabled = false
	rep := NewReporter(cfg, nil).WithClient(llm.NewHTTPClient(time.Second, 50*time.Millisecond))
	statuses := rep.Status(context.Background())
	if statuses[0].Probe.Status != ProbeTimedOut {
		t.Errorf("expected timeout, got %+v", statuses[0].Probe)
	}
}

func TestQuotaExceeded(t *testing.T) {
	tests := []struct {
		name     string
		attempts []llm.Attempt
		want     bool
	}{
		{"none", nil, false},
		{"type", []llm.Attempt{{Provider: "openai", ErrorType: "insufficient_quota"}}, true},
		{"body", []llm.Attempt{{Provider: "groq", Error: `429: {"error":{"code":"insufficient_quota"}}`}}, true},
		{"other", []llm.Attempt{{Provider: "openai", ErrorType: "invalid_api_key"}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := QuotaExceeded(tt.attempts); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReportVariants(t *testing.T) {
	cfg := config.DefaultConfig()
	rep := NewReporter(cfg, nil)

	exhausted := rep.Report(context.Background(), []llm.Attempt{
		{Provider: "openai", Outcome: llm.OutcomeSkippedNoCredential},
		{Provider: "huggingface", Outcome: llm.OutcomeHTTPError, StatusCode: 503, ErrorType: "model_loading"},
	})
	if exhausted.Kind != KindExhausted {
		t.Fatalf("kind: got %q", exhausted.Kind)
	}
	text := exhausted.Markdown()
	for _, want := range []string{
		"AI API呼び出しが失敗しました",
		"Hugging Face (有効: はい, APIキー: 未設定, テスト: 未テスト)",
		"OpenAI (有効: いいえ",
		"huggingface: http-error (HTTP 503, model_loading)",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("exhausted report missing %q:\n%s", want, text)
		}
	}

	quota := rep.Report(context.Background(), []llm.Attempt{
		{Provider: "openai", Outcome: llm.OutcomeHTTPError, StatusCode: 429, ErrorType: "insufficient_quota"},
	})
	if quota.Kind != KindQuota || !strings.Contains(quota.Markdown(), "クォータが超過しました") {
		t.Errorf("expected quota variant, got %q", quota.Kind)
	}

	disabled := rep.Disabled(false, true)
	text = disabled.Markdown()
	if !strings.Contains(text, "AI API使用: ❌ 無効") || !strings.Contains(text, "AI API利用可能: ✅ はい") {
		t.Errorf("unexpected disabled report:\n%s", text)
	}
}

func TestReportHTML(t *testing.T) {
	html, err := NewReporter(config.DefaultConfig(), nil).Disabled(true, false).HTML()
	if err != nil {
		t.Fatalf("HTML: %v", err)
	}
	if !strings.Contains(html, "<strong>AI APIが利用できません</strong>") {
		t.Errorf("unexpected html: %s", html)
	}
}

func TestProbeString(t *testing.T) {
	tests := []struct {
		probe Probe
		want  string
	}{
		{Probe{Status: ProbeSuccess}, "✅ 接続成功"},
		{Probe{Status: ProbeTimedOut}, "❌ 接続タイムアウト"},
		{Probe{Status: ProbeConnectError, Detail: "refused"}, "❌ 接続エラー: refused"},
		{Probe{Status: ProbeHTTPStatus, StatusCode: 401}, "⚠️ HTTP 401"},
		{Probe{Status: ProbeNotTested}, "未テスト"},
	}
	for _, tt := range tests {
		if got := tt.probe.String(); got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.probe.Status, got, tt.want)
		}
	}
}
