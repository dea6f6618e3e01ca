package cmd

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "cafeteria",
	Short: "School cafeteria assistant with AI fallback and sales ledger",
	Long: `Cafeteria answers questions about today's menu, opening hours,
reservations and allergens from local data files, falls back to a chain
of AI providers when the data cannot answer, and keeps a per-date sales
ledger in step with reservations.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".cafeteria.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
