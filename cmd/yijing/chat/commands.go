package chat

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"yijing/internal/conversation"

	tea "github.com/charmbracelet/bubbletea"
)

// =============================================================================
// COMMAND RESULTS
// =============================================================================

type submitDoneMsg struct{ err error }

type drawDoneMsg struct{ err error }

type healthDoneMsg struct{ err error }

type exportDoneMsg struct {
	path string
	err  error
}

// ErrNothingToExport is reported when the conversation has no turns.
var ErrNothingToExport = errors.New("沒有可下載的對話記錄")

// Every orchestrator call runs in a command: the orchestrator reports back
// through the bridge, which needs the Update loop to be free.

func (m Model) submit(question string) tea.Cmd {
	orch, ctx := m.orch, m.ctx
	return func() tea.Msg {
		return submitDoneMsg{err: orch.Submit(ctx, question)}
	}
}

func (m Model) draw() tea.Cmd {
	orch, ctx := m.orch, m.drawCtx
	if ctx == nil {
		ctx = m.ctx
	}
	return func() tea.Msg {
		return drawDoneMsg{err: orch.Draw(ctx)}
	}
}

func (m Model) abandon() tea.Cmd {
	orch := m.orch
	return func() tea.Msg {
		orch.Abandon()
		return nil
	}
}

func (m Model) clearConversation() tea.Cmd {
	orch := m.orch
	return func() tea.Msg {
		orch.Clear()
		return nil
	}
}

func (m Model) checkHealth() tea.Cmd {
	if m.orch == nil {
		return nil
	}
	orch, ctx := m.orch, m.ctx
	return func() tea.Msg {
		return healthDoneMsg{err: orch.CheckHealth(ctx)}
	}
}

func (m Model) export() tea.Cmd {
	entries := m.entries
	dir := m.transcriptDir
	now := m.now()
	return func() tea.Msg {
		path, err := exportTranscript(dir, entries, now)
		return exportDoneMsg{path: path, err: err}
	}
}

// exportTranscript writes the conversation to dir and returns the file path.
func exportTranscript(dir string, entries []conversation.Entry, now time.Time) (string, error) {
	if !conversation.HasTurns(entries) {
		return "", ErrNothingToExport
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create transcript dir: %w", err)
	}
	path := filepath.Join(dir, conversation.TranscriptFileName(now))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create transcript: %w", err)
	}
	if err := conversation.WriteTranscript(f, entries, now); err != nil {
		_ = f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close transcript: %w", err)
	}
	return path, nil
}

// newDrawContext replaces the per-ritual context.
func (m *Model) newDrawContext() {
	if m.drawCancel != nil {
		m.drawCancel()
	}
	m.drawCtx, m.drawCancel = context.WithCancel(m.ctx)
}

// cancelDraws interrupts any draw of the current ritual.
func (m *Model) cancelDraws() {
	if m.drawCancel != nil {
		m.drawCancel()
		m.drawCancel = nil
		m.drawCtx = nil
	}
}
