package mcp

import "github.com/mark3labs/mcp-go/mcp"

// askCafeteriaTool defines the ask_cafeteria MCP tool.
var askCafeteriaTool = mcp.NewTool("ask_cafeteria",
	mcp.WithDescription("Ask the cafeteria assistant a question about menus, opening hours, reservations or allergens. Answers come from today's data first and then from the configured AI providers."),
	mcp.WithString("message",
		mcp.Required(),
		mcp.Description("The question, usually in Japanese"),
	),
	mcp.WithBoolean("use_ai",
		mcp.Description("Allow AI providers to answer when the data files do not (default true)"),
	),
)

// getSalesLedgerTool defines the get_sales_ledger MCP tool.
var getSalesLedgerTool = mcp.NewTool("get_sales_ledger",
	mcp.WithDescription("Get the per-date sales ledger: reservations, attended people and per-menu sales."),
	mcp.WithString("date",
		mcp.Description("Restrict to one date (YYYY-MM-DD)"),
	),
)

// getMonthlyReportTool defines the get_monthly_report MCP tool.
var getMonthlyReportTool = mcp.NewTool("get_monthly_report",
	mcp.WithDescription("Get the monthly sales report as Markdown: business days, totals, top menus and daily rows."),
	mcp.WithNumber("year",
		mcp.Description("Calendar year (default current year)"),
	),
	mcp.WithNumber("month",
		mcp.Description("Month 1-12 (default current month)"),
	),
)

// getMonthlyAnalysisTool defines the get_monthly_analysis MCP tool.
var getMonthlyAnalysisTool = mcp.NewTool("get_monthly_analysis",
	mcp.WithDescription("Ask the AI providers to review a month of sales: strengths, problems and recommendations. Returns the diagnostic report when no provider answers."),
	mcp.WithNumber("year",
		mcp.Description("Calendar year (default current year)"),
	),
	mcp.WithNumber("month",
		mcp.Description("Month 1-12 (default current month)"),
	),
)
