package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// healthCmd probes the resolver backend.
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the resolver backend is reachable",
	Args:  cobra.NoArgs,
	RunE:  runHealth,
}

func runHealth(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.GetHealthTimeout())
	defer cancel()

	status, err := newResolver(cfg).Status(ctx)
	if err != nil {
		return fmt.Errorf("resolver %s unreachable: %w", cfg.Resolver.BaseURL, err)
	}
	if status.Status != "ok" {
		return fmt.Errorf("resolver %s unhealthy: status %q", cfg.Resolver.BaseURL, status.Status)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ %s ok (llm %s)\n", cfg.Resolver.BaseURL, status.LLM)
	return nil
}
