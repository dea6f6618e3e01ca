package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/cafeteria-ai/internal/engine"
	"github.com/ziadkadry99/cafeteria-ai/internal/knowledge"
	"github.com/ziadkadry99/cafeteria-ai/internal/ledger"
	mcpserver "github.com/ziadkadry99/cafeteria-ai/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for AI agent integration",
	Long:  `Starts a Model Context Protocol (MCP) server on stdio, exposing the cafeteria assistant, the sales ledger, the monthly report and its AI analysis as tools.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		defer logger.Sync()

		eng, err := engine.NewFromConfig(cfg, logger)
		if err != nil {
			return fmt.Errorf("building engine: %w", err)
		}

		l, err := ledger.Open(cfg, logger)
		if err != nil {
			return fmt.Errorf("opening ledger: %w", err)
		}
		defer l.Close()

		// Set version from the cmd package variable.
		mcpserver.Version = Version

		fmt.Fprintf(os.Stderr, "cafeteria MCP server started on stdio (data=%s)\n", cfg.DataDir)

		srv := mcpserver.NewServer(eng, l, knowledge.NewReader(cfg.DataDir, logger))
		return srv.Serve()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
