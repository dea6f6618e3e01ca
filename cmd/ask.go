package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/cafeteria-ai/internal/engine"
)

var askCmd = &cobra.Command{
	Use:   "ask [message]",
	Short: "Ask the cafeteria assistant a question",
	Long:  `Resolves one message the same way the chat API does: today's data first, then the AI provider chain, then a diagnostic report.`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().Bool("json", false, "output the full response as JSON")
	askCmd.Flags().Bool("no-ai", false, "answer from the data files only")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	noAI, _ := cmd.Flags().GetBool("no-ai")

	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	eng, err := engine.NewFromConfig(cfg, logger)
	if err != nil {
		return fmt.Errorf("building engine: %w", err)
	}

	useAI := !noAI
	resp := eng.Answer(context.Background(), engine.Request{
		Message: strings.Join(args, " "),
		UseAI:   &useAI,
	})

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	fmt.Println(resp.Text)
	if verbose {
		printAskDetails(resp)
	}
	return nil
}

func printAskDetails(resp engine.Response) {
	fmt.Println()
	fmt.Printf("  Source: %s\n", resp.Source)
	if resp.UsedAPI != "" {
		fmt.Printf("  Provider: %s (%s)\n", resp.UsedAPI, resp.Model)
	}
	for _, a := range resp.Attempts {
		fmt.Printf("  - %s: %s %dms\n", a.Provider, a.Outcome, a.LatencyMs)
	}
}
