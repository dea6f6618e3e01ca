// Package analysis asks the provider chain to review a month of sales.
package analysis

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ziadkadry99/cafeteria-ai/internal/diagnostics"
	"github.com/ziadkadry99/cafeteria-ai/internal/engine"
	"github.com/ziadkadry99/cafeteria-ai/internal/knowledge"
	"github.com/ziadkadry99/cafeteria-ai/internal/ledger"
	"github.com/ziadkadry99/cafeteria-ai/internal/llm"
	"github.com/ziadkadry99/cafeteria-ai/internal/logging"
)

// SystemPrompt frames the model as a cafeteria business analyst.
const SystemPrompt = "あなたは学校食堂の経営分析の専門家です。提供されたデータを分析して、食堂の改善点と良い点をわかりやすく説明してください。"

const answerFormat = `以下の形式で回答してください：

## 📊 分析結果

### ✅ 良い点
- [具体的な良い点を3-5個挙げてください]

### 🔧 改善点
- [具体的な改善点を3-5個挙げてください]

### 💡 推奨事項
- [改善のための具体的な推奨事項を3-5個挙げてください]

回答は日本語で、わかりやすく、具体的に書いてください。`

// Analyzer runs a one-shot prompt through the provider chain.
type Analyzer interface {
	Analyze(ctx context.Context, system, prompt string) engine.Response
}

// Result is a monthly analysis. When no provider answers, Analysis holds the
// diagnostic report and Diagnostic is set.
type Result struct {
	Year       int                   `json:"year"`
	Month      time.Month            `json:"month"`
	Analysis   string                `json:"analysis"`
	API        string                `json:"api,omitempty"`
	Model      string                `json:"model,omitempty"`
	Source     engine.Source         `json:"source"`
	Attempts   []llm.Attempt         `json:"attempts,omitempty"`
	Diagnostic *diagnostics.Report   `json:"report,omitempty"`
	Monthly    *ledger.MonthlyReport `json:"monthlyReport"`
}

// Service builds monthly reports and has them analysed.
type Service struct {
	ledger   *ledger.Ledger
	reader   *knowledge.Reader
	analyzer Analyzer
	now      func() time.Time
	logger   *zap.Logger
}

// NewService creates a Service. Holidays for the report come from reader.
func NewService(l *ledger.Ledger, reader *knowledge.Reader, a Analyzer, logger *zap.Logger) *Service {
	return &Service{
		ledger:   l,
		reader:   reader,
		analyzer: a,
		now:      time.Now,
		logger:   logging.OrNop(logger),
	}
}

// WithClock overrides the time source used for business-day counting.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Monthly analyses year/month. It fails only when the ledger cannot be read;
// provider failures come back as a diagnostic result.
func (s *Service) Monthly(ctx context.Context, year int, month time.Month) (*Result, error) {
	report, err := s.ledger.MonthlyReport(ctx, year, month, s.reader.Holidays(), s.now())
	if err != nil {
		return nil, err
	}

	resp := s.analyzer.Analyze(ctx, SystemPrompt, Prompt(report))
	s.logger.Info("monthly analysis",
		zap.Int("year", year),
		zap.Int("month", int(month)),
		zap.String("source", string(resp.Source)),
		zap.String("provider", resp.UsedAPI),
	)
	return &Result{
		Year:       year,
		Month:      month,
		Analysis:   resp.Text,
		API:        resp.UsedAPI,
		Model:      resp.Model,
		Source:     resp.Source,
		Attempts:   resp.Attempts,
		Diagnostic: resp.Report,
		Monthly:    report,
	}, nil
}

// Prompt embeds the report's Markdown in the analysis request.
func Prompt(report *ledger.MonthlyReport) string {
	var b strings.Builder
	b.WriteString("以下のデータを分析して、食堂の改善点と良い点を具体的に教えてください。\n\n")
	b.WriteString(report.Markdown())
	b.WriteString("\n")
	b.WriteString(answerFormat)
	return b.String()
}
