// Package engine resolves a chat message to an answer: deterministic facts
// first, then the provider chain, then a diagnostic report.
package engine

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ziadkadry99/cafeteria-ai/internal/answer"
	"github.com/ziadkadry99/cafeteria-ai/internal/config"
	"github.com/ziadkadry99/cafeteria-ai/internal/diagnostics"
	"github.com/ziadkadry99/cafeteria-ai/internal/knowledge"
	"github.com/ziadkadry99/cafeteria-ai/internal/llm"
	"github.com/ziadkadry99/cafeteria-ai/internal/logging"
)

// MaxMessageRunes is the longest accepted message.
const MaxMessageRunes = 3000

// InvalidSizeMessage answers an empty or oversized message.
const InvalidSizeMessage = "メッセージサイズが不適切です"

// Source says which layer produced the answer.
type Source string

const (
	SourceGuard      Source = "guard"
	SourceKnowledge  Source = "knowledge"
	SourceAI         Source = "ai"
	SourceDiagnostic Source = "diagnostic"
)

// Request is one chat turn.
type Request struct {
	Message string        `json:"message"`
	History []llm.Message `json:"history,omitempty"`
	// UseAI defaults to true when nil.
	UseAI *bool `json:"useAI,omitempty"`
}

func (r Request) useAI() bool {
	return r.UseAI == nil || *r.UseAI
}

// Debug is request metadata returned for troubleshooting.
type Debug struct {
	RequestID      string   `json:"requestId"`
	MessageLength  int      `json:"messageLength"`
	HistoryCount   int      `json:"historyCount"`
	ResponseLength int      `json:"responseLength"`
	Logs           []string `json:"debugLogs,omitempty"`
}

// Response is the resolved answer.
type Response struct {
	Text string `json:"response"`
	// UsedAPI names the winning provider; empty unless Source is SourceAI.
	UsedAPI     string              `json:"usedApi,omitempty"`
	Model       string              `json:"model,omitempty"`
	Source      Source              `json:"source"`
	AIAvailable bool                `json:"ollamaAvailable"`
	OllamaUsed  bool                `json:"ollamaUsed"`
	Attempts    []llm.Attempt       `json:"attempts,omitempty"`
	Report      *diagnostics.Report `json:"report,omitempty"`
	Debug       Debug               `json:"debug"`
}

// Engine wires the knowledge reader, matcher, chain and reporter.
type Engine struct {
	reader   *knowledge.Reader
	matcher  *answer.Matcher
	chain    *llm.Chain
	local    *llm.LocalService
	reporter *diagnostics.Reporter
	timeout  time.Duration
	now      func() time.Time
	logger   *zap.Logger
}

// Options configures an Engine. Local may be nil.
type Options struct {
	Reader   *knowledge.Reader
	Matcher  *answer.Matcher
	Chain    *llm.Chain
	Local    *llm.LocalService
	Reporter *diagnostics.Reporter
	// Timeout bounds the provider phase of a request; zero means unbounded.
	Timeout time.Duration
	Logger  *zap.Logger
}

// New creates an Engine.
func New(opts Options) *Engine {
	chain := opts.Chain
	if chain == nil {
		chain = llm.NewChain(opts.Logger)
	}
	return &Engine{
		reader:   opts.Reader,
		matcher:  opts.Matcher,
		chain:    chain,
		local:    opts.Local,
		reporter: opts.Reporter,
		timeout:  opts.Timeout,
		now:      time.Now,
		logger:   logging.OrNop(opts.Logger),
	}
}

// NewFromConfig builds an Engine and its collaborators from configuration.
func NewFromConfig(cfg *config.Config, logger *zap.Logger) (*Engine, error) {
	chain, err := llm.BuildChain(cfg.Providers, logger)
	if err != nil {
		return nil, err
	}

	var local *llm.LocalService
	if cfg.Mode == config.ModeLocal {
		local = llm.NewLocalService(cfg.Local, cfg.Providers.Ollama)
	}

	return New(Options{
		Reader: knowledge.NewReader(cfg.DataDir, logger),
		Matcher: answer.NewMatcher(answer.Thresholds{
			Moderate: cfg.Matcher.CongestionModerate,
			Heavy:    cfg.Matcher.CongestionHeavy,
		}, nil),
		Chain:    chain,
		Local:    local,
		Reporter: diagnostics.NewReporter(cfg, logger),
		Timeout:  llm.Seconds(cfg.RequestTimeoutSeconds),
		Logger:   logger,
	}), nil
}

// WithClock overrides the time source used for debug timestamps.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// AIAvailable reports whether any AI path could be attempted.
func (e *Engine) AIAvailable() bool {
	return e.local != nil || e.chain.Callable()
}

// Answer resolves one message. It never returns an error: every failure is
// expressed as answer text.
func (e *Engine) Answer(ctx context.Context, req Request) Response {
	dbg := newDebugLog(e.now)
	message := strings.TrimSpace(req.Message)
	resp := Response{
		AIAvailable: e.AIAvailable(),
		Debug: Debug{
			RequestID:     uuid.NewString(),
			MessageLength: utf8.RuneCountInString(message),
			HistoryCount:  len(req.History),
		},
	}
	resp.OllamaUsed = resp.AIAvailable && req.useAI()

	log := e.logger.With(zap.String("request_id", resp.Debug.RequestID))

	if message == "" || resp.Debug.MessageLength > MaxMessageRunes {
		dbg.Addf("メッセージサイズ不正: %d文字", resp.Debug.MessageLength)
		return e.finish(resp, SourceGuard, InvalidSizeMessage, dbg)
	}

	facts := e.reader.Load()
	dbg.Addf("食堂データ読み込み: 休業=%t 予約数=%d アレルギー項目=%d", facts.Closed(), facts.TotalReservations, len(facts.Allergies))

	if text, ok := e.matcher.Match(message, facts); ok {
		category, _ := answer.Classify(message)
		dbg.Addf("食堂データから回答: %s", category)
		log.Debug("answered from knowledge", zap.String("category", string(category)))
		return e.finish(resp, SourceKnowledge, text, dbg)
	}

	if !resp.OllamaUsed {
		dbg.Addf("AI API使用: %t, 利用可能: %t", req.useAI(), resp.AIAvailable)
		rep := e.reporter.Disabled(req.useAI(), resp.AIAvailable)
		resp.Report = &rep
		return e.finish(resp, SourceDiagnostic, rep.Markdown(), dbg)
	}

	return e.resolve(ctx, resp, llm.CompletionRequest{
		Messages: llm.BuildMessages(SystemPrompt(facts.Allergies), req.History, message),
	}, dbg, log)
}

// Analyze sends a one-shot prompt through the provider chain, skipping the
// knowledge matcher. When no provider answers, the text is the diagnostic
// report.
func (e *Engine) Analyze(ctx context.Context, system, prompt string) Response {
	dbg := newDebugLog(e.now)
	prompt = strings.TrimSpace(prompt)
	resp := Response{
		AIAvailable: e.AIAvailable(),
		Debug: Debug{
			RequestID:     uuid.NewString(),
			MessageLength: utf8.RuneCountInString(prompt),
		},
	}
	resp.OllamaUsed = resp.AIAvailable

	log := e.logger.With(zap.String("request_id", resp.Debug.RequestID))

	if prompt == "" {
		dbg.Addf("分析データなし")
		return e.finish(resp, SourceGuard, InvalidSizeMessage, dbg)
	}
	if !resp.AIAvailable {
		dbg.Addf("AI API利用可能: %t", resp.AIAvailable)
		rep := e.reporter.Disabled(true, false)
		resp.Report = &rep
		return e.finish(resp, SourceDiagnostic, rep.Markdown(), dbg)
	}

	return e.resolve(ctx, resp, llm.CompletionRequest{
		Messages: llm.BuildMessages(system, nil, prompt),
	}, dbg, log)
}

// resolve runs req through the chain and fills resp with the winning answer
// or the diagnostic report.
func (e *Engine) resolve(ctx context.Context, resp Response, req llm.CompletionRequest, dbg *DebugLog, log *zap.Logger) Response {
	result := e.runChain(ctx, req, dbg)
	resp.Attempts = result.Attempts

	if result.Answered() {
		resp.UsedAPI = result.Provider
		resp.Model = result.Model
		log.Info("answered by provider", zap.String("provider", result.Provider), zap.Int("attempts", len(result.Attempts)))
		return e.finish(resp, SourceAI, result.Text, dbg)
	}

	log.Warn("all providers failed", zap.Int("attempts", len(result.Attempts)))
	rep := e.reporter.Report(ctx, result.Attempts)
	resp.Report = &rep
	return e.finish(resp, SourceDiagnostic, rep.Markdown(), dbg)
}

// runChain runs the hosted chain, with the local links in front when the
// local service answers its probe.
func (e *Engine) runChain(ctx context.Context, req llm.CompletionRequest, dbg *DebugLog) llm.Result {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	chain := e.chain
	var probeFailure *llm.Attempt
	if e.local != nil {
		start := time.Now()
		model, err := e.local.Probe(ctx)
		if err != nil {
			a := llm.NewAttempt(llm.LocalProviderName, err, time.Since(start))
			probeFailure = &a
			dbg.Addf("ローカルAI利用不可: %s", a.Error)
		} else {
			dbg.Addf("ローカルAIモデル: %s", model)
			chain = chain.Prepend(e.local.Links(model)...)
		}
	}

	result := chain.Run(ctx, req)
	if probeFailure != nil {
		result.Attempts = append([]llm.Attempt{*probeFailure}, result.Attempts...)
	}
	for _, a := range result.Attempts {
		if a.Error != "" {
			dbg.Addf("%s: %s (%s)", a.Provider, a.Outcome, a.Error)
		} else {
			dbg.Addf("%s: %s", a.Provider, a.Outcome)
		}
	}
	return result
}

func (e *Engine) finish(resp Response, source Source, text string, dbg *DebugLog) Response {
	resp.Source = source
	resp.Text = Sanitize(text)
	resp.Debug.ResponseLength = utf8.RuneCountInString(resp.Text)
	resp.Debug.Logs = dbg.Entries()
	return resp
}

// Sanitize drops invalid UTF-8 and control characters other than tab,
// newline and carriage return.
func Sanitize(s string) string {
	s = strings.ToValidUTF8(s, "")
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\t' || r == '\n' || r == '\r':
			return r
		case r < 0x20 || r == 0x7f:
			return -1
		}
		return r
	}, s)
}
