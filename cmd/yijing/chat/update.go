package chat

import (
	"errors"
	"slices"
	"strings"

	"yijing/internal/divination"
	"yijing/internal/orchestrator"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

// Status texts.
const (
	statusConfirmClear = "確定要清除所有對話記錄嗎？(y/n)"
	statusExported     = "對話記錄已下載："
	statusPending      = "請先完成目前的抽籤"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = max(msg.Width, 0), max(msg.Height, 0)
		m.ready = true
		m.layout()
		m.renderer = newRenderer(max(m.viewport.Width-4, 20), m.styles.Theme.IsDark)
		m.viewport.SetContent(m.renderHistory())
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case logChangedMsg:
		m.entries = msg.entries
		m.viewport.SetContent(m.renderHistory())
		if msg.scroll == orchestrator.ScrollTop {
			m.viewport.GotoTop()
		} else {
			m.viewport.GotoBottom()
		}
		return m, nil

	case ritualShownMsg:
		m.ritual = &ritualView{question: msg.question}
		m.newDrawContext()
		m.focus = focusRitual
		m.textarea.Blur()
		m.layout()
		return m, nil

	case ritualDismissedMsg:
		m.ritual = nil
		m.focus = focusInput
		m.layout()
		return m, m.textarea.Focus()

	case drawProgressMsg:
		if m.ritual != nil {
			m.ritual.shaking = msg.phase == divination.PhaseShaking
		}
		return m, nil

	case drawRevealedMsg:
		if m.ritual != nil && msg.index >= 1 && msg.index <= divination.RitualSize {
			m.ritual.slots[msg.index-1] = msg.value
			m.ritual.filled = msg.index
		}
		return m, nil

	case ritualCompleteMsg:
		if m.ritual != nil {
			m.ritual.done = true
			m.ritual.shaking = false
		}
		return m, nil

	case submitDoneMsg:
		m.busy = max(m.busy-1, 0)
		switch {
		case msg.err == nil:
		case errors.Is(msg.err, orchestrator.ErrRitualPending):
			m.statusMessage = statusPending
		default:
			m.logger.Info("submission not accepted", zap.Error(msg.err))
		}
		return m, nil

	case drawDoneMsg:
		if msg.err != nil {
			m.logger.Debug("draw ended", zap.Error(msg.err))
			if m.ritual != nil && !errors.Is(msg.err, divination.ErrAlreadyDrawing) {
				m.ritual.shaking = false
			}
		}
		return m, nil

	case healthDoneMsg:
		if msg.err != nil {
			m.logger.Warn("resolver unreachable at startup", zap.Error(msg.err))
		}
		return m, nil

	case exportDoneMsg:
		if msg.err != nil {
			m.statusMessage = msg.err.Error()
		} else {
			m.statusMessage = statusExported + msg.path
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.hasPlaceholder() {
			m.viewport.SetContent(m.renderHistory())
		}
		return m, cmd
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		m.cancelDraws()
		m.cancel()
		return m, tea.Quit
	}

	if m.confirmClear {
		m.confirmClear = false
		m.statusMessage = ""
		if s := msg.String(); s == "y" || s == "Y" {
			m.cancelDraws()
			return m, m.clearConversation()
		}
		return m, nil
	}

	switch msg.Type {
	case tea.KeyCtrlL:
		if len(m.entries) == 0 && m.ritual == nil {
			return m, nil
		}
		m.confirmClear = true
		m.statusMessage = statusConfirmClear
		return m, nil

	case tea.KeyCtrlS:
		return m, m.export()

	case tea.KeyEsc:
		if m.ritual != nil {
			m.cancelDraws()
			return m, m.abandon()
		}
		m.cancel()
		return m, tea.Quit

	case tea.KeyTab:
		return m.handleTab()

	case tea.KeyPgUp, tea.KeyPgDown:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	if m.focus == focusRitual {
		if s := msg.String(); s == " " || s == "s" || s == "S" {
			if m.ritual == nil || m.ritual.done || m.ritual.shaking {
				return m, nil
			}
			// Shown immediately; the session rejects overlapping draws anyway.
			m.ritual.shaking = true
			return m, m.draw()
		}
		return m, nil
	}

	if msg.Type == tea.KeyEnter {
		q := strings.TrimSpace(m.textarea.Value())
		if q == "" {
			return m, nil
		}
		m.textarea.Reset()
		m.statusMessage = ""
		m.busy++
		return m, m.submit(q)
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	return m, cmd
}

// handleTab toggles focus during a ritual and otherwise cycles the example
// questions into an empty input.
func (m Model) handleTab() (tea.Model, tea.Cmd) {
	if m.ritual != nil {
		if m.focus == focusRitual {
			m.focus = focusInput
			return m, m.textarea.Focus()
		}
		m.focus = focusRitual
		m.textarea.Blur()
		return m, nil
	}
	if v := m.textarea.Value(); strings.TrimSpace(v) != "" && !slices.Contains(ExampleQuestions, v) {
		return m, nil
	}
	m.textarea.SetValue(ExampleQuestions[m.exampleIdx%len(ExampleQuestions)])
	m.exampleIdx++
	return m, nil
}

func (m Model) hasPlaceholder() bool {
	for _, e := range m.entries {
		if e.Placeholder {
			return true
		}
	}
	return false
}

// layout sizes the viewport around the header, panel, input and footer.
func (m *Model) layout() {
	if !m.ready {
		return
	}
	m.textarea.SetWidth(max(m.width-6, 10))

	reserved := 1 + 4 + 1 // header, input box, footer
	if m.ritual != nil {
		reserved += ritualPanelHeight
	}
	m.viewport.Width = max(m.width-4, 10)
	m.viewport.Height = max(m.height-reserved, 3)
}
