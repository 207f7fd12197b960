package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"yijing/internal/classify"
	"yijing/internal/conversation"
	"yijing/internal/divination"
	"yijing/internal/logging"
	"yijing/internal/orchestrator"

	"github.com/spf13/cobra"
)

// errAskFailed is returned when the answer was an error entry.
var errAskFailed = errors.New("ask: no answer from resolver")

// askCmd answers one question without the interactive client.
var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask one question; divinatory questions draw their numbers automatically",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return ask(cmd.Context(), cmd.OutOrStdout(), askOptions{
			Resolver:   newResolver(cfg),
			Classifier: newClassifier(cfg),
			Timeout:    cfg.GetResolverTimeout(),
		}, strings.Join(args, " "))
	},
}

type askOptions struct {
	Resolver   orchestrator.Resolver
	Classifier *classify.Classifier
	Generator  divination.Generator
	Timeout    time.Duration
}

// printSurface reports ritual progress as plain lines.
type printSurface struct {
	w io.Writer
}

func (s printSurface) ShowRitual(string) { fmt.Fprintln(s.w, "☯ 搖籤中...") }

func (s printSurface) DismissRitual() {}

func (s printSurface) LogChanged([]conversation.Entry, orchestrator.ScrollPosition) {}

func (s printSurface) OnDrawProgress(int, int, divination.Phase) {}

func (s printSurface) OnDrawRevealed(value, index int) {
	fmt.Fprintf(s.w, "  第%d籤：%d\n", index, value)
}

func (s printSurface) OnRitualComplete() {}

// ask runs one question through an orchestrator with no ritual delays and
// prints the bot's entries.
func ask(ctx context.Context, w io.Writer, opts askOptions, question string) error {
	orch, err := orchestrator.New(orchestrator.Config{
		Resolver:       opts.Resolver,
		Surface:        printSurface{w: w},
		Classifier:     opts.Classifier,
		Generator:      opts.Generator,
		Sleeper:        func(context.Context, time.Duration) error { return nil },
		ResolveTimeout: opts.Timeout,
		Logger:         logging.Session(),
		RitualLogger:   logging.Get(logging.CategoryRitual),
	})
	if err != nil {
		return err
	}

	if err := orch.Submit(ctx, question); err != nil {
		return err
	}
	for orch.RitualActive() {
		if err := orch.Draw(ctx); err != nil {
			return fmt.Errorf("draw: %w", err)
		}
	}

	failed := false
	for _, e := range orch.Snapshot() {
		if e.Role == conversation.RoleUser || e.Placeholder {
			continue
		}
		fmt.Fprintln(w, e.Content)
		failed = failed || e.Kind == conversation.KindError
	}
	if failed {
		return errAskFailed
	}
	return nil
}
