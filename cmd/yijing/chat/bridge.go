package chat

import (
	"sync"

	"yijing/internal/conversation"
	"yijing/internal/divination"
	"yijing/internal/orchestrator"

	tea "github.com/charmbracelet/bubbletea"
)

// =============================================================================
// SURFACE MESSAGES
// =============================================================================
// The orchestrator runs inside tea.Cmd goroutines; the bridge turns its
// surface callbacks into messages for the Update loop.

type logChangedMsg struct {
	entries []conversation.Entry
	scroll  orchestrator.ScrollPosition
}

type ritualShownMsg struct{ question string }

type ritualDismissedMsg struct{}

type drawProgressMsg struct {
	index, total int
	phase        divination.Phase
}

type drawRevealedMsg struct{ value, index int }

type ritualCompleteMsg struct{}

// Sender delivers messages to a running program. *tea.Program satisfies it.
type Sender interface {
	Send(msg tea.Msg)
}

// Bridge implements orchestrator.Surface by forwarding every callback to
// the attached program. Callbacks before Attach are dropped.
type Bridge struct {
	mu     sync.RWMutex
	sender Sender
}

var _ orchestrator.Surface = (*Bridge)(nil)

// NewBridge returns an unattached bridge.
func NewBridge() *Bridge { return &Bridge{} }

// Attach connects the bridge to a program.
func (b *Bridge) Attach(s Sender) {
	b.mu.Lock()
	b.sender = s
	b.mu.Unlock()
}

func (b *Bridge) send(msg tea.Msg) {
	b.mu.RLock()
	s := b.sender
	b.mu.RUnlock()
	if s != nil {
		s.Send(msg)
	}
}

func (b *Bridge) ShowRitual(question string) { b.send(ritualShownMsg{question: question}) }

func (b *Bridge) DismissRitual() { b.send(ritualDismissedMsg{}) }

func (b *Bridge) LogChanged(entries []conversation.Entry, scroll orchestrator.ScrollPosition) {
	b.send(logChangedMsg{entries: entries, scroll: scroll})
}

func (b *Bridge) OnDrawProgress(index, total int, phase divination.Phase) {
	b.send(drawProgressMsg{index: index, total: total, phase: phase})
}

func (b *Bridge) OnDrawRevealed(value, index int) {
	b.send(drawRevealedMsg{value: value, index: index})
}

func (b *Bridge) OnRitualComplete() { b.send(ritualCompleteMsg{}) }
