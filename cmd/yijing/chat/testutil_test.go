package chat

import (
	"context"
	"sync"
	"testing"
	"time"

	"yijing/cmd/yijing/ui"
	"yijing/internal/divination"
	"yijing/internal/orchestrator"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// MOCKS
// =============================================================================

type mockResolver struct {
	mu     sync.Mutex
	answer string
	calls  int
}

func (r *mockResolver) Resolve(context.Context, string, *divination.Ritual) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	return r.answer, nil
}

func (r *mockResolver) Health(context.Context) error { return nil }

type recordingSender struct {
	mu   sync.Mutex
	msgs []tea.Msg
}

func (s *recordingSender) Send(msg tea.Msg) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, msg)
}

type fixedGenerator struct{}

func (fixedGenerator) Draw() int { return 321 }

// =============================================================================
// HELPERS
// =============================================================================

// NewTestModel returns a sized model over an orchestrator whose resolver
// answers immediately and whose ritual has no delays.
func NewTestModel(t *testing.T) (Model, *orchestrator.Orchestrator) {
	t.Helper()
	orch, err := orchestrator.New(orchestrator.Config{
		Resolver:  &mockResolver{answer: "好的。"},
		Surface:   NewBridge(),
		Generator: fixedGenerator{},
		Sleeper:   func(context.Context, time.Duration) error { return nil },
	})
	require.NoError(t, err)

	m := New(Config{
		Orchestrator:  orch,
		Styles:        ui.NewStyles(ui.LightTheme()),
		TranscriptDir: t.TempDir(),
	})
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return updated.(Model), orch
}

func key(t tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: t} }

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func space() tea.KeyMsg { return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}} }

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}
