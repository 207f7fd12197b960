package main

import (
	"os"
	"os/signal"
	"syscall"

	"yijing/internal/interpret"
	"yijing/internal/logging"
	"yijing/internal/server"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// serveCmd runs the resolver backend.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the resolver backend (casts hexagrams, answers persona questions)",
	Long: `Starts the HTTP resolver:
  POST /api/chat    divination and persona answers
  GET  /api/health  liveness and LLM availability
  GET  /metrics     Prometheus metrics (server.metrics)

Without an LLM key the backend answers with offline fallback texts.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	interp, err := interpret.New(ctx, cfg.LLM, logging.Get(logging.CategoryInterpret))
	if err != nil {
		return err
	}

	srv, err := server.New(server.Config{
		Server:      cfg.Server,
		Interpreter: interp,
		Logger:      logging.Server(),
	})
	if err != nil {
		return err
	}

	logging.Boot().Info("resolver backend starting",
		zap.String("addr", cfg.Server.ListenAddr()),
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.Bool("llm_enabled", interp.Enabled()))
	return srv.Run(ctx)
}
