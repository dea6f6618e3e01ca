// Package diagnostics explains why no provider produced an answer. The
// report is returned to the chat user as the answer text itself.
package diagnostics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ziadkadry99/cafeteria-ai/internal/config"
	"github.com/ziadkadry99/cafeteria-ai/internal/llm"
	"github.com/ziadkadry99/cafeteria-ai/internal/logging"
)

// ProbeTimeout bounds each connectivity probe.
const ProbeTimeout = 5 * time.Second

// quotaSignature marks an exhausted-credit error in provider payloads.
const quotaSignature = "insufficient_quota"

// ProbeStatus classifies a connectivity probe.
type ProbeStatus string

const (
	ProbeNotTested    ProbeStatus = "not-tested"
	ProbeConnectError ProbeStatus = "connect-error"
	ProbeTimedOut     ProbeStatus = "timeout"
	ProbeHTTPStatus   ProbeStatus = "http-status"
	ProbeSuccess      ProbeStatus = "success"
)

// Probe is the result of one live connectivity check.
type Probe struct {
	Status     ProbeStatus `json:"status"`
	StatusCode int         `json:"statusCode,omitempty"`
	Detail     string      `json:"detail,omitempty"`
}

// ProviderStatus is the configuration and probe state of one provider.
type ProviderStatus struct {
	Name    config.ProviderName `json:"name"`
	Enabled bool                `json:"enabled"`
	HasKey  bool                `json:"hasKey"`
	Probe   Probe               `json:"probe"`
}

// Kind selects the report variant.
type Kind string

const (
	// KindExhausted means every provider was tried or skipped without an answer.
	KindExhausted Kind = "exhausted"
	// KindQuota means a provider reported exhausted credit.
	KindQuota Kind = "quota"
	// KindAIDisabled means the caller turned AI off or no AI path was available.
	KindAIDisabled Kind = "ai-disabled"
)

// Report is the structured failure report.
type Report struct {
	Kind        Kind             `json:"kind"`
	Mode        config.Mode      `json:"mode"`
	UseAI       bool             `json:"useAI"`
	AIAvailable bool             `json:"aiAvailable"`
	Providers   []ProviderStatus `json:"providers,omitempty"`
	Attempts    []llm.Attempt    `json:"attempts,omitempty"`
}

// Reporter builds failure reports from the provider configuration.
type Reporter struct {
	providers config.ProvidersConfig
	mode      config.Mode
	client    *http.Client
	logger    *zap.Logger
}

// NewReporter creates a Reporter. Probes use their own short-lived client.
func NewReporter(cfg *config.Config, logger *zap.Logger) *Reporter {
	return &Reporter{
		providers: cfg.Providers,
		mode:      cfg.Mode,
		client:    llm.NewHTTPClient(ProbeTimeout, ProbeTimeout),
		logger:    logging.OrNop(logger),
	}
}

// WithClient replaces the probe client.
func (r *Reporter) WithClient(c *http.Client) *Reporter {
	r.client = c
	return r
}

// Disabled returns the report used when the AI path is off or unavailable.
func (r *Reporter) Disabled(useAI, available bool) Report {
	return Report{Kind: KindAIDisabled, Mode: r.mode, UseAI: useAI, AIAvailable: available}
}

// Report runs the connectivity probes and assembles the report for a chain
// that ended without an answer.
func (r *Reporter) Report(ctx context.Context, attempts []llm.Attempt) Report {
	rep := Report{
		Kind:        KindExhausted,
		Mode:        r.mode,
		UseAI:       true,
		AIAvailable: true,
		Attempts:    attempts,
		Providers:   r.Status(ctx),
	}
	if QuotaExceeded(attempts) {
		rep.Kind = KindQuota
	}
	return rep
}

// Status reports every configured provider, probing those that support it
// in parallel.
func (r *Reporter) Status(ctx context.Context) []ProviderStatus {
	return r.StatusFunc(ctx, nil)
}

// StatusFunc is Status with a callback invoked as each probe finishes.
// The callback may run concurrently from several goroutines.
func (r *Reporter) StatusFunc(ctx context.Context, onProbe func(ProviderStatus)) []ProviderStatus {
	statuses := r.baseStatuses()

	g, gctx := errgroup.WithContext(ctx)
	for i := range statuses {
		st := statuses[i]
		if !st.probed() {
			continue
		}
		pc, _ := r.providers.Get(st.Name)
		g.Go(func() error {
			st.Probe = r.probe(gctx, st.Name, pc)
			statuses[i] = st
			r.logger.Debug("provider probe",
				zap.String("provider", string(st.Name)),
				zap.String("status", string(st.Probe.Status)),
				zap.Int("code", st.Probe.StatusCode),
			)
			if onProbe != nil {
				onProbe(st)
			}
			return nil
		})
	}
	_ = g.Wait()
	return statuses
}

// ProbeCount is the number of live probes Status will run.
func (r *Reporter) ProbeCount() int {
	n := 0
	for _, st := range r.baseStatuses() {
		if st.probed() {
			n++
		}
	}
	return n
}

func (r *Reporter) baseStatuses() []ProviderStatus {
	order := r.providers.Order
	if len(order) == 0 {
		order = config.DefaultOrder
	}

	statuses := make([]ProviderStatus, 0, len(order))
	for _, name := range order {
		pc, _ := r.providers.Get(name)
		statuses = append(statuses, ProviderStatus{
			Name:    name,
			Enabled: pc.Enabled,
			HasKey:  pc.APIKey != "",
			Probe:   Probe{Status: ProbeNotTested},
		})
	}
	return statuses
}

func (st ProviderStatus) probed() bool {
	return st.Enabled && st.HasKey && Probeable(st.Name)
}

// Probeable reports whether a live probe exists for the provider.
func Probeable(name config.ProviderName) bool {
	return name == config.ProviderOpenAI || name == config.ProviderGemini
}

func (r *Reporter) probe(ctx context.Context, name config.ProviderName, pc config.ProviderConfig) Probe {
	ctx, cancel := context.WithTimeout(ctx, ProbeTimeout)
	defer cancel()

	var req *http.Request
	var err error
	switch name {
	case config.ProviderOpenAI:
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(pc.BaseURL, "/")+"/models", nil)
		if err == nil {
			req.Header.Set("Authorization", "Bearer "+pc.APIKey)
		}
	case config.ProviderGemini:
		url := llm.NewGeminiProvider(pc.APIKey, pc.BaseURL, pc.Model, nil).GenerateURL(pc.Model)
		body := `{"contents":[{"parts":[{"text":"test"}]}]}`
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(body))
		if err == nil {
			req.Header.Set("Content-Type", "application/json")
		}
	default:
		return Probe{Status: ProbeNotTested}
	}
	if err != nil {
		return Probe{Status: ProbeConnectError, Detail: truncate(err.Error(), 50)}
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return classifyProbeError(err)
	}
	resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return Probe{Status: ProbeSuccess, StatusCode: resp.StatusCode}
	}
	return Probe{Status: ProbeHTTPStatus, StatusCode: resp.StatusCode}
}

func classifyProbeError(err error) Probe {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return Probe{Status: ProbeTimedOut}
	}
	return Probe{Status: ProbeConnectError, Detail: truncate(err.Error(), 50)}
}

// QuotaExceeded reports whether any attempt failed on exhausted credit.
func QuotaExceeded(attempts []llm.Attempt) bool {
	for _, a := range attempts {
		if a.ErrorType == quotaSignature || strings.Contains(a.Error, quotaSignature) {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// String renders the probe for the report.
func (p Probe) String() string {
	switch p.Status {
	case ProbeSuccess:
		return "✅ 接続成功"
	case ProbeTimedOut:
		return "❌ 接続タイムアウト"
	case ProbeConnectError:
		return "❌ 接続エラー: " + p.Detail
	case ProbeHTTPStatus:
		return fmt.Sprintf("⚠️ HTTP %d", p.StatusCode)
	default:
		return "未テスト"
	}
}
