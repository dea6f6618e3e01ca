package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/cafeteria-ai/internal/config"
	"github.com/ziadkadry99/cafeteria-ai/internal/diagnostics"
	"github.com/ziadkadry99/cafeteria-ai/internal/llm"
	"github.com/ziadkadry99/cafeteria-ai/internal/progress"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check AI provider configuration and connectivity",
	Long:  `Lists every configured provider with its enabled and API key state, probes the providers that support a live check, and in local mode checks the localhost model service.`,
	RunE:  runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx := context.Background()
	rep := diagnostics.NewReporter(cfg, logger)

	fmt.Printf("Mode: %s\n", cfg.Mode)
	fmt.Printf("Data: %s\n", cfg.DataDir)
	fmt.Printf("Ledger: %s (%s)\n\n", cfg.LedgerPath(), cfg.Ledger.Backend)

	var statuses []diagnostics.ProviderStatus
	if n := rep.ProbeCount(); n > 0 {
		bar := progress.NewReporter(os.Stderr)
		bar.Start(n, "Probing providers")
		statuses = rep.StatusFunc(ctx, func(st diagnostics.ProviderStatus) {
			bar.Step(string(st.Name))
		})
		bar.Finish()
	} else {
		statuses = rep.Status(ctx)
	}

	fmt.Println("Providers:")
	for _, st := range statuses {
		fmt.Printf("  %s\n", st.Line())
	}

	if cfg.Mode == config.ModeLocal {
		fmt.Println()
		local := llm.NewLocalService(cfg.Local, cfg.Providers.Ollama)
		model, err := local.Probe(ctx)
		if err != nil {
			fmt.Printf("Local model service (%s): ❌ %v\n", cfg.Local.URL, err)
		} else {
			fmt.Printf("Local model service (%s): ✅ %s\n", cfg.Local.URL, model)
		}
	}

	chain, err := llm.BuildChain(cfg.Providers, logger)
	if err != nil {
		return err
	}
	if !chain.Callable() && cfg.Mode != config.ModeLocal {
		fmt.Println()
		fmt.Println("No provider can be called: enable one and set its API key.")
	}
	return nil
}
