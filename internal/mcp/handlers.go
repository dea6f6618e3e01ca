package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/cafeteria-ai/internal/engine"
	"github.com/ziadkadry99/cafeteria-ai/internal/knowledge"
	"github.com/ziadkadry99/cafeteria-ai/internal/ledger"
)

// handleAskCafeteria runs one message through the resolution engine.
func (s *Server) handleAskCafeteria(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	message, err := request.RequireString("message")
	if err != nil || strings.TrimSpace(message) == "" {
		return mcp.NewToolResultError("missing required parameter: message"), nil
	}

	useAI := request.GetBool("use_ai", true)
	resp := s.engine.Answer(ctx, engine.Request{Message: message, UseAI: &useAI})

	var b strings.Builder
	b.WriteString(resp.Text)
	if resp.UsedAPI != "" {
		fmt.Fprintf(&b, "\n\n(answered by %s", resp.UsedAPI)
		if resp.Model != "" {
			fmt.Fprintf(&b, ", %s", resp.Model)
		}
		b.WriteString(")")
	}
	return mcp.NewToolResultText(b.String()), nil
}

// handleGetSalesLedger returns the ledger, or one date of it, as JSON.
func (s *Server) handleGetSalesLedger(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap, err := s.ledger.Snapshot(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read ledger: %v", err)), nil
	}

	var v any = snap
	if date := request.GetString("date", ""); date != "" {
		if _, err := time.Parse(knowledge.DateLayout, date); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid date %q: expected YYYY-MM-DD", date)), nil
		}
		entry, ok := snap[date]
		if !ok {
			return mcp.NewToolResultText(fmt.Sprintf("No sales recorded for %s.", date)), nil
		}
		v = ledger.Snapshot{date: entry}
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode ledger: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// yearMonth reads the optional year and month arguments, defaulting to now.
func yearMonth(request mcp.CallToolRequest, now time.Time) (int, time.Month, error) {
	year := request.GetInt("year", now.Year())
	month := request.GetInt("month", int(now.Month()))
	if year < 1 {
		return 0, 0, errors.New("year must be positive")
	}
	if month < 1 || month > 12 {
		return 0, 0, errors.New("month must be between 1 and 12")
	}
	return year, time.Month(month), nil
}

// handleGetMonthlyReport renders the monthly report for the requested month.
func (s *Server) handleGetMonthlyReport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	now := s.now()
	year, month, err := yearMonth(request, now)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	report, err := s.ledger.MonthlyReport(ctx, year, month, s.reader.Holidays(), now)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to build report: %v", err)), nil
	}
	return mcp.NewToolResultText(report.Markdown()), nil
}

// handleGetMonthlyAnalysis has the provider chain review the requested month.
func (s *Server) handleGetMonthlyAnalysis(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	year, month, err := yearMonth(request, s.now())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res, err := s.analysis.Monthly(ctx, year, month)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to build report: %v", err)), nil
	}

	var b strings.Builder
	b.WriteString(res.Analysis)
	if res.API != "" {
		fmt.Fprintf(&b, "\n\n(analysed by %s", res.API)
		if res.Model != "" {
			fmt.Fprintf(&b, ", %s", res.Model)
		}
		b.WriteString(")")
	}
	return mcp.NewToolResultText(b.String()), nil
}
