package main

import (
	"context"
	"fmt"

	"yijing/cmd/yijing/chat"
	"yijing/cmd/yijing/ui"
	"yijing/internal/logging"
	"yijing/internal/orchestrator"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

// runInteractive starts the bubbletea client. The bridge is created before
// the program and attached once the program exists, so the orchestrator
// can be handed its surface up front.
func runInteractive(ctx context.Context) error {
	bridge := chat.NewBridge()
	orch, err := orchestrator.New(orchestrator.Config{
		Resolver:       newResolver(cfg),
		Surface:        bridge,
		Classifier:     newClassifier(cfg),
		Timing:         ritualTiming(cfg),
		ResolveTimeout: cfg.GetResolverTimeout(),
		HealthTimeout:  cfg.GetHealthTimeout(),
		Logger:         logging.Session(),
		RitualLogger:   logging.Get(logging.CategoryRitual),
	})
	if err != nil {
		return err
	}
	logging.Boot().Info("interactive session starting",
		zap.String("session_id", orch.ID()),
		zap.String("resolver", cfg.Resolver.BaseURL))

	m := chat.New(chat.Config{
		Orchestrator:  orch,
		Styles:        ui.NewStyles(ui.ThemeFor(cfg.UI.Theme)),
		TranscriptDir: cfg.UI.TranscriptDir,
		Logger:        logging.UI(),
	})

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	bridge.Attach(p)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("interactive client: %w", err)
	}
	return nil
}
