package llm

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/ziadkadry99/cafeteria-ai/internal/logging"
)

// Gate is the static precondition for trying a provider.
type Gate struct {
	Enabled     bool
	RequiresKey bool
	HasKey      bool
}

// Open reports whether the gate lets the provider be called.
func (g Gate) Open() bool {
	return g.Enabled && (!g.RequiresKey || g.HasKey)
}

// Link is one entry in the fallback chain.
type Link struct {
	Provider Provider
	Gate     Gate
}

// Attempt records how one link fared.
type Attempt struct {
	Provider   string  `json:"provider"`
	Outcome    Outcome `json:"outcome"`
	StatusCode int     `json:"statusCode,omitempty"`
	ErrorType  string  `json:"errorType,omitempty"`
	Error      string  `json:"error,omitempty"`
	LatencyMs  int64   `json:"latencyMs"`
}

// Result is the outcome of running the chain.
type Result struct {
	Text     string
	Provider string
	Model    string
	Attempts []Attempt
}

// Answered reports whether some provider produced an accepted answer.
func (r Result) Answered() bool { return r.Provider != "" }

// Chain tries its links strictly in order until one yields an answer that
// passes Validate.
type Chain struct {
	links  []Link
	logger *zap.Logger
}

// NewChain creates a chain over links.
func NewChain(logger *zap.Logger, links ...Link) *Chain {
	return &Chain{links: links, logger: logging.OrNop(logger)}
}

// Links returns the chain's links in order.
func (c *Chain) Links() []Link {
	return append([]Link(nil), c.links...)
}

// Callable reports whether any link would be attempted.
func (c *Chain) Callable() bool {
	for _, l := range c.links {
		if l.Gate.Open() {
			return true
		}
	}
	return false
}

// Prepend returns a new chain with links placed before c's links.
func (c *Chain) Prepend(links ...Link) *Chain {
	all := make([]Link, 0, len(links)+len(c.links))
	all = append(all, links...)
	all = append(all, c.links...)
	return &Chain{links: all, logger: c.logger}
}

// Run executes the chain. Skips and failures are recorded, never returned;
// the caller inspects Result.Answered. Remaining links after ctx expires are
// recorded as transport errors without any network call.
func (c *Chain) Run(ctx context.Context, req CompletionRequest) Result {
	var res Result
	for _, link := range c.links {
		name := link.Provider.Name()

		switch {
		case !link.Gate.Enabled:
			res.Attempts = append(res.Attempts, Attempt{Provider: name, Outcome: OutcomeSkippedDisabled})
			c.logger.Debug("provider skipped", zap.String("provider", name), zap.String("reason", "disabled"))
			continue
		case link.Gate.RequiresKey && !link.Gate.HasKey:
			res.Attempts = append(res.Attempts, Attempt{Provider: name, Outcome: OutcomeSkippedNoCredential})
			c.logger.Debug("provider skipped", zap.String("provider", name), zap.String("reason", "no credential"))
			continue
		}

		if err := ctx.Err(); err != nil {
			res.Attempts = append(res.Attempts, NewAttempt(name, fmt.Errorf("%s not attempted: %w", name, err), 0))
			continue
		}

		start := time.Now()
		resp, err := link.Provider.Complete(ctx, req)
		latency := time.Since(start)
		if err == nil {
			err = Validate(resp.Content)
		}

		attempt := NewAttempt(name, err, latency)
		c.logger.Info("provider attempt",
			zap.String("provider", name),
			zap.String("outcome", string(attempt.Outcome)),
			zap.Int("status", attempt.StatusCode),
			zap.Int64("latency_ms", attempt.LatencyMs),
			zap.String("error", attempt.Error),
		)
		res.Attempts = append(res.Attempts, attempt)

		if err == nil {
			res.Text = resp.Content
			res.Provider = name
			res.Model = resp.Model
			return res
		}
	}
	return res
}

const maxAttemptError = 300

// NewAttempt builds the attempt record for err (success when nil).
func NewAttempt(provider string, err error, latency time.Duration) Attempt {
	a := Attempt{
		Provider:  provider,
		Outcome:   Classify(err),
		LatencyMs: latency.Milliseconds(),
	}
	if err == nil {
		return a
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		a.StatusCode = httpErr.StatusCode
		a.ErrorType = httpErr.Type
	}
	a.Error = truncateRunes(err.Error(), maxAttemptError)
	return a
}

// truncateRunes cuts s to at most n runes, marking the cut with "...".
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
