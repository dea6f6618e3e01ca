package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ziadkadry99/cafeteria-ai/internal/analysis"
	"github.com/ziadkadry99/cafeteria-ai/internal/config"
	"github.com/ziadkadry99/cafeteria-ai/internal/engine"
	"github.com/ziadkadry99/cafeteria-ai/internal/knowledge"
	"github.com/ziadkadry99/cafeteria-ai/internal/ledger"
	"github.com/ziadkadry99/cafeteria-ai/internal/markdown"
)

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Inspect the sales ledger",
}

var ledgerShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the per-date ledger",
	RunE:  runLedgerShow,
}

var ledgerReportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the monthly sales report",
	Long:  `Prints the monthly sales report. With --analyze the report is sent to the AI provider chain for a review of strengths, problems and recommendations; the diagnostic report is printed when no provider answers.`,
	RunE:  runLedgerReport,
}

func init() {
	ledgerShowCmd.Flags().Bool("json", false, "output the ledger as JSON")
	ledgerShowCmd.Flags().String("date", "", "show a single date (YYYY-MM-DD)")

	now := time.Now()
	ledgerReportCmd.Flags().Int("year", now.Year(), "report year")
	ledgerReportCmd.Flags().Int("month", int(now.Month()), "report month (1-12)")
	ledgerReportCmd.Flags().String("format", "markdown", "output format: markdown, html, json")
	ledgerReportCmd.Flags().Bool("analyze", false, "have the AI providers review the month instead of printing the report")

	ledgerCmd.AddCommand(ledgerShowCmd, ledgerReportCmd)
	rootCmd.AddCommand(ledgerCmd)
}

func openLedger(cfg *config.Config, logger *zap.Logger) (*ledger.Ledger, *knowledge.Reader, error) {
	l, err := ledger.Open(cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("opening ledger: %w", err)
	}
	return l, knowledge.NewReader(cfg.DataDir, logger), nil
}

func runLedgerShow(cmd *cobra.Command, args []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	date, _ := cmd.Flags().GetString("date")

	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	l, _, err := openLedger(cfg, logger)
	if err != nil {
		return err
	}
	defer l.Close()

	snap, err := l.Snapshot(context.Background())
	if err != nil {
		return err
	}
	if date != "" {
		entry, ok := snap[date]
		if !ok {
			fmt.Printf("No sales recorded for %s.\n", date)
			return nil
		}
		snap = ledger.Snapshot{date: entry}
	}

	if jsonOutput {
		return printJSON(snap)
	}

	if len(snap) == 0 {
		fmt.Println("Ledger is empty.")
		return nil
	}
	dates := make([]string, 0, len(snap))
	for d := range snap {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	fmt.Printf("%-12s %8s %8s  %s\n", "DATE", "RESERVED", "PEOPLE", "MENU")
	for _, d := range dates {
		e := snap[d]
		fmt.Printf("%-12s %8d %8d  %s\n", d, e.Reservations, e.People, formatMenuSales(e.MenuSales))
	}
	return nil
}

func formatMenuSales(m map[string]int) string {
	if len(m) == 0 {
		return "-"
	}
	menus := make([]string, 0, len(m))
	for name := range m {
		menus = append(menus, name)
	}
	sort.Strings(menus)
	out := ""
	for i, name := range menus {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprintf("%s=%d", name, m[name])
	}
	return out
}

func runLedgerReport(cmd *cobra.Command, args []string) error {
	year, _ := cmd.Flags().GetInt("year")
	month, _ := cmd.Flags().GetInt("month")
	format, _ := cmd.Flags().GetString("format")
	analyze, _ := cmd.Flags().GetBool("analyze")
	if month < 1 || month > 12 {
		return fmt.Errorf("month must be between 1 and 12, got %d", month)
	}

	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	l, reader, err := openLedger(cfg, logger)
	if err != nil {
		return err
	}
	defer l.Close()

	if analyze {
		eng, err := engine.NewFromConfig(cfg, logger)
		if err != nil {
			return fmt.Errorf("building engine: %w", err)
		}
		svc := analysis.NewService(l, reader, eng, logger)
		return printAnalysis(svc, year, time.Month(month), format)
	}

	report, err := l.MonthlyReport(context.Background(), year, time.Month(month), reader.Holidays(), time.Now())
	if err != nil {
		return err
	}

	switch format {
	case "json":
		return printJSON(report)
	case "html":
		return printHTML(report.Markdown())
	case "markdown", "md":
		fmt.Print(report.Markdown())
	default:
		return fmt.Errorf("unknown format %q", format)
	}
	return nil
}

func printAnalysis(svc *analysis.Service, year int, month time.Month, format string) error {
	res, err := svc.Monthly(context.Background(), year, month)
	if err != nil {
		return err
	}

	switch format {
	case "json":
		return printJSON(res)
	case "html":
		return printHTML(res.Analysis)
	case "markdown", "md":
		fmt.Println(res.Analysis)
		if verbose && res.API != "" {
			fmt.Printf("\n  Provider: %s (%s)\n", res.API, res.Model)
		}
	default:
		return fmt.Errorf("unknown format %q", format)
	}
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printHTML(md string) error {
	html, err := markdown.ToHTML(md)
	if err != nil {
		return err
	}
	fmt.Print(html)
	return nil
}
