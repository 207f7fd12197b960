package chat

import (
	"fmt"
	"strconv"
	"strings"

	"yijing/cmd/yijing/ui"
	"yijing/internal/conversation"
	"yijing/internal/divination"

	"github.com/charmbracelet/lipgloss"
)

// ritualPanelHeight is the number of rows the ritual panel occupies.
const ritualPanelHeight = 10

const (
	appTitle  = "☯ 易經占卜陳老師"
	userLabel = "您"
	botLabel  = "陳老師"
)

func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	header := m.renderHeader()

	var content string
	if len(m.entries) == 0 {
		content = m.renderWelcome()
	} else {
		content = m.viewport.View()
	}
	sections := []string{header, m.styles.Content.Render(content)}

	if m.ritual != nil {
		sections = append(sections, m.renderRitualPanel())
	}
	sections = append(sections,
		m.styles.Input.Render(m.textarea.View()),
		m.renderFooter())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderHeader() string {
	return m.styles.Header.Render(appTitle)
}

func (m Model) renderWelcome() string {
	var sb strings.Builder
	sb.WriteString(m.styles.Title.Render("歡迎來到易經占卜"))
	sb.WriteString("\n")
	sb.WriteString(m.styles.Body.Render("心中默念您的問題，輸入後按 Enter。占卜類問題需要抽三支籤。"))
	sb.WriteString("\n\n")
	sb.WriteString(m.styles.Muted.Render("範例問題（按 Tab 帶入）："))
	sb.WriteString("\n")
	for i, q := range ExampleQuestions {
		sb.WriteString(m.styles.Muted.Render(fmt.Sprintf("  %d. %s", i+1, q)))
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m Model) renderHistory() string {
	var sb strings.Builder

	for _, e := range m.entries {
		switch e.Role {
		case conversation.RoleUser:
			sb.WriteString(m.styles.UserLabel.Render(userLabel) + "\n")
			sb.WriteString(m.styles.UserInput.Render(e.Content))
			sb.WriteString("\n\n")

		default:
			sb.WriteString(m.styles.BotLabel.Render(botLabel) + "\n")
			sb.WriteString(m.renderBotContent(e))
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

func (m Model) renderBotContent(e conversation.Entry) string {
	switch {
	case e.Placeholder:
		return m.styles.Muted.Render(m.spinner.View()+" "+e.Content) + "\n"
	case e.Kind == conversation.KindError:
		return m.styles.Error.Render(e.Content) + "\n"
	case e.Kind == conversation.KindNotice:
		return m.styles.Warning.Render(e.Content) + "\n"
	case isPreformatted(e.Content):
		return m.styles.Body.Render(e.Content) + "\n"
	case m.renderer == nil:
		return e.Content
	default:
		key := ui.RenderKey(e.Content, m.viewport.Width, m.styles.Theme.IsDark)
		return m.cache.GetOrCompute(key, func() string { return m.safeRenderMarkdown(e.Content) })
	}
}

// isPreformatted reports whether content is a boxed divination answer whose
// line layout must survive rendering.
func isPreformatted(content string) bool {
	return strings.HasPrefix(strings.TrimSpace(content), "╔")
}

// safeRenderMarkdown renders markdown with panic recovery
func (m Model) safeRenderMarkdown(content string) (result string) {
	defer func() {
		if r := recover(); r != nil {
			// If glamour panics, return plain text
			result = content
		}
	}()

	if m.renderer != nil && content != "" {
		rendered, err := m.renderer.Render(content)
		if err == nil {
			return rendered
		}
	}
	return content
}

func (m Model) renderRitualPanel() string {
	r := m.ritual

	slots := make([]string, 0, divination.RitualSize)
	for i, label := range slotLabels {
		value := "？"
		style := m.styles.Slot
		if i < r.filled {
			value = strconv.Itoa(r.slots[i])
			style = m.styles.SlotFilled
		}
		slots = append(slots, style.Render(label+"\n"+value))
	}

	body := lipgloss.JoinVertical(lipgloss.Left,
		m.styles.Title.Render("🔮 請為您的問題抽籤"),
		m.styles.Body.Render("「"+r.question+"」"),
		lipgloss.JoinHorizontal(lipgloss.Top, slots...),
		m.renderShakeButton()+"  "+m.styles.Muted.Render("空白鍵/s 搖籤 · Tab 切換輸入 · Esc 放棄"),
	)
	return m.styles.Panel.Render(body)
}

func (m Model) renderShakeButton() string {
	r := m.ritual
	switch {
	case r.done:
		return m.styles.ButtonDone.Render(labelDone)
	case r.shaking:
		return m.styles.ButtonBusy.Render(labelShaking)
	default:
		return m.styles.Button.Render(shakeLabel(r.filled))
	}
}

func shakeLabel(filled int) string {
	return fmt.Sprintf("☯ 搖籤 (%d/%d)", filled, divination.RitualSize)
}

func (m Model) renderFooter() string {
	var parts []string
	if m.busy > 0 {
		parts = append(parts, m.spinner.View())
	}
	if m.statusMessage != "" {
		parts = append(parts, m.statusMessage)
	} else {
		parts = append(parts, "Enter 送出 · Ctrl+S 下載記錄 · Ctrl+L 清除 · Esc/Ctrl+C 離開")
	}
	return m.styles.Footer.Render(strings.Join(parts, " "))
}
