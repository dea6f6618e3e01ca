package mcp

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/ziadkadry99/cafeteria-ai/internal/analysis"
	"github.com/ziadkadry99/cafeteria-ai/internal/engine"
	"github.com/ziadkadry99/cafeteria-ai/internal/knowledge"
	"github.com/ziadkadry99/cafeteria-ai/internal/ledger"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Answerer resolves one chat turn and runs one-shot analysis prompts.
type Answerer interface {
	Answer(ctx context.Context, req engine.Request) engine.Response
	analysis.Analyzer
}

// Server wraps an MCP server that exposes the cafeteria assistant and the
// sales ledger as tools.
type Server struct {
	engine   Answerer
	ledger   *ledger.Ledger
	reader   *knowledge.Reader
	analysis *analysis.Service
	now      func() time.Time
	mcp      *server.MCPServer
}

// NewServer creates a new MCP server with the given dependencies.
func NewServer(e Answerer, l *ledger.Ledger, reader *knowledge.Reader) *Server {
	s := &Server{
		engine: e,
		ledger: l,
		reader: reader,
		now:    time.Now,
	}
	s.analysis = analysis.NewService(l, reader, e, nil).WithClock(func() time.Time { return s.now() })

	s.mcp = server.NewMCPServer(
		"cafeteria",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(askCafeteriaTool, s.handleAskCafeteria)
	s.mcp.AddTool(getSalesLedgerTool, s.handleGetSalesLedger)
	s.mcp.AddTool(getMonthlyReportTool, s.handleGetMonthlyReport)
	s.mcp.AddTool(getMonthlyAnalysisTool, s.handleGetMonthlyAnalysis)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
