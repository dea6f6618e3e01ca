package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/cafeteria-ai/internal/analysis"
	"github.com/ziadkadry99/cafeteria-ai/internal/engine"
	"github.com/ziadkadry99/cafeteria-ai/internal/knowledge"
	"github.com/ziadkadry99/cafeteria-ai/internal/ledger"
	"github.com/ziadkadry99/cafeteria-ai/internal/reservations"
	"github.com/ziadkadry99/cafeteria-ai/internal/server"
)

var (
	servePort     int
	serveAllowAll bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Starts the cafeteria HTTP server with the chat API, websocket chat, reservations, sales ledger and monthly analysis endpoints.`,
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

		reader := knowledge.NewReader(cfg.DataDir, logger)

		port := cfg.Server.Port
		if cmd.Flags().Changed("port") {
			port = servePort
		}
		srv := server.New(server.Config{
			Port:     port,
			AllowAll: cfg.Server.AllowAllOrigins || serveAllowAll,
		}, server.Deps{
			Engine:       eng,
			Ledger:       l,
			Reservations: reservations.NewService(cfg.DataDir, l, logger),
			Reader:       reader,
			Analysis:     analysis.NewService(l, reader, eng, logger),
		}, logger)

		// Graceful shutdown.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			<-ctx.Done()
			fmt.Fprintln(os.Stderr, "\nShutting down server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()

		fmt.Fprintf(os.Stderr, "cafeteria server %s starting on port %d\n", Version, port)
		fmt.Fprintf(os.Stderr, "  Data: %s\n", cfg.DataDir)
		fmt.Fprintf(os.Stderr, "  Mode: %s\n", cfg.Mode)
		fmt.Fprintf(os.Stderr, "  Ledger: %s (%s)\n", cfg.LedgerPath(), cfg.Ledger.Backend)

		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "port to listen on (overrides server.port)")
	serveCmd.Flags().BoolVar(&serveAllowAll, "allow-all-origins", false, "allow all CORS origins")
	rootCmd.AddCommand(serveCmd)
}
