package chat

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"yijing/internal/conversation"
	"yijing/internal/divination"
	"yijing/internal/orchestrator"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdate_WindowSize(t *testing.T) {
	m, _ := NewTestModel(t)

	m, cmd := update(t, m, tea.WindowSizeMsg{Width: 120, Height: 50})
	assert.Nil(t, cmd)
	assert.True(t, m.ready)
	assert.Equal(t, 120, m.width)
	assert.Equal(t, 116, m.viewport.Width)
	assert.Equal(t, 50-6, m.viewport.Height)
}

func TestUpdate_EnterSubmits(t *testing.T) {
	m, orch := NewTestModel(t)
	m.textarea.SetValue("  聯絡方式  ")

	m, cmd := update(t, m, key(tea.KeyEnter))
	require.NotNil(t, cmd)
	assert.Empty(t, m.textarea.Value())
	assert.Equal(t, 1, m.busy)

	done, ok := cmd().(submitDoneMsg)
	require.True(t, ok)
	assert.NoError(t, done.err)

	m, _ = update(t, m, done)
	assert.Equal(t, 0, m.busy)

	entries := orch.Snapshot()
	require.Len(t, entries, 2)
	assert.Equal(t, "聯絡方式", entries[0].Content)
	assert.Equal(t, "好的。", entries[1].Content)
}

func TestUpdate_EnterIgnoresBlankInput(t *testing.T) {
	m, _ := NewTestModel(t)
	m.textarea.SetValue("   ")

	m, cmd := update(t, m, key(tea.KeyEnter))
	assert.Nil(t, cmd)
	assert.Equal(t, 0, m.busy)
}

func TestUpdate_LogChangedRendersHistory(t *testing.T) {
	m, _ := NewTestModel(t)

	m, _ = update(t, m, logChangedMsg{
		entries: []conversation.Entry{
			conversation.UserEntry("今天運勢如何"),
			conversation.ErrorEntry(orchestrator.MessageResolverFailed),
		},
		scroll: orchestrator.ScrollBottom,
	})
	require.Len(t, m.entries, 2)

	view := m.View()
	assert.Contains(t, view, "今天運勢如何")
	assert.Contains(t, view, "後端 API")
}

func TestUpdate_RitualLifecycle(t *testing.T) {
	m, _ := NewTestModel(t)

	m, _ = update(t, m, ritualShownMsg{question: "事業發展"})
	require.NotNil(t, m.ritual)
	assert.Equal(t, focusRitual, m.focus)
	assert.Contains(t, m.View(), "☯ 搖籤 (0/3)")

	m, cmd := update(t, m, space())
	require.NotNil(t, cmd)
	assert.True(t, m.ritual.shaking)
	assert.Contains(t, m.View(), labelShaking)

	// A second press while shaking is swallowed.
	_, cmd = update(t, m, runes("s"))
	assert.Nil(t, cmd)

	m, _ = update(t, m, drawRevealedMsg{value: 123, index: 1})
	m, _ = update(t, m, drawProgressMsg{index: 1, total: 3, phase: divination.PhaseSettled})
	assert.False(t, m.ritual.shaking)
	assert.Equal(t, 123, m.ritual.slots[0])
	assert.Contains(t, m.View(), "☯ 搖籤 (1/3)")

	m, _ = update(t, m, drawRevealedMsg{value: 456, index: 2})
	m, _ = update(t, m, drawRevealedMsg{value: 789, index: 3})
	m, _ = update(t, m, ritualCompleteMsg{})
	assert.True(t, m.ritual.done)
	assert.Contains(t, m.View(), labelDone)

	_, cmd = update(t, m, space())
	assert.Nil(t, cmd, "completed ritual accepts no more draws")

	m, _ = update(t, m, ritualDismissedMsg{})
	assert.Nil(t, m.ritual)
	assert.Equal(t, focusInput, m.focus)
	assert.NotContains(t, m.View(), "☯ 搖籤")
}

func TestUpdate_DrawDoneResetsShaking(t *testing.T) {
	m, _ := NewTestModel(t)
	m, _ = update(t, m, ritualShownMsg{question: "感情"})
	m.ritual.shaking = true

	m, _ = update(t, m, drawDoneMsg{err: divination.ErrAlreadyDrawing})
	assert.True(t, m.ritual.shaking)

	m, _ = update(t, m, drawDoneMsg{err: context.Canceled})
	assert.False(t, m.ritual.shaking)
}

func TestUpdate_StaleRitualEventsIgnored(t *testing.T) {
	m, _ := NewTestModel(t)

	assert.NotPanics(t, func() {
		m, _ = update(t, m, drawRevealedMsg{value: 1, index: 1})
		m, _ = update(t, m, drawProgressMsg{index: 1, total: 3, phase: divination.PhaseShaking})
		m, _ = update(t, m, ritualCompleteMsg{})
	})
	assert.Nil(t, m.ritual)
}

func TestUpdate_FullRitualThroughOrchestrator(t *testing.T) {
	m, orch := NewTestModel(t)
	m.textarea.SetValue("我的事業發展如何")

	m, cmd := update(t, m, key(tea.KeyEnter))
	require.NotNil(t, cmd)
	require.NoError(t, cmd().(submitDoneMsg).err)
	require.True(t, orch.RitualActive())

	// The bridge is unattached, so the panel is opened by hand.
	m, _ = update(t, m, ritualShownMsg{question: "我的事業發展如何"})
	for i := 0; i < divination.RitualSize; i++ {
		m.ritual.shaking = false
		var draw tea.Cmd
		m, draw = update(t, m, space())
		require.NotNil(t, draw)
		assert.NoError(t, draw().(drawDoneMsg).err)
	}

	assert.False(t, orch.RitualActive())
	_, pending := orch.Pending()
	assert.False(t, pending)

	entries := orch.Snapshot()
	require.Len(t, entries, 2)
	assert.Equal(t, "好的。", entries[1].Content)
}

func TestUpdate_SubmitPendingSetsStatus(t *testing.T) {
	m, _ := NewTestModel(t)
	m.busy = 1

	m, _ = update(t, m, submitDoneMsg{err: orchestrator.ErrRitualPending})
	assert.Equal(t, statusPending, m.statusMessage)
	assert.Equal(t, 0, m.busy)
}

func TestUpdate_ClearConfirmation(t *testing.T) {
	m, orch := NewTestModel(t)

	// Nothing to clear yet.
	m, _ = update(t, m, key(tea.KeyCtrlL))
	assert.False(t, m.confirmClear)

	m, _ = update(t, m, logChangedMsg{entries: []conversation.Entry{conversation.UserEntry("你好")}})

	m, _ = update(t, m, key(tea.KeyCtrlL))
	assert.True(t, m.confirmClear)
	assert.Contains(t, m.View(), statusConfirmClear)

	m, cmd := update(t, m, runes("n"))
	assert.Nil(t, cmd)
	assert.False(t, m.confirmClear)
	assert.Empty(t, m.statusMessage)

	m, _ = update(t, m, key(tea.KeyCtrlL))
	_, cmd = update(t, m, runes("y"))
	require.NotNil(t, cmd)
	cmd()
	assert.Empty(t, orch.Snapshot())
}

func TestUpdate_EscQuitsWhenIdle(t *testing.T) {
	m, _ := NewTestModel(t)

	_, cmd := update(t, m, key(tea.KeyEsc))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestUpdate_EscAbandonsRitual(t *testing.T) {
	m, orch := NewTestModel(t)
	require.NoError(t, orch.Submit(context.Background(), "今年財運"))
	m, _ = update(t, m, ritualShownMsg{question: "今年財運"})
	drawCtx := m.drawCtx

	_, cmd := update(t, m, key(tea.KeyEsc))
	require.NotNil(t, cmd)
	_, isQuit := cmd().(tea.QuitMsg)
	assert.False(t, isQuit)

	assert.False(t, orch.RitualActive())
	assert.ErrorIs(t, drawCtx.Err(), context.Canceled)
}

func TestUpdate_TabCyclesExamples(t *testing.T) {
	m, _ := NewTestModel(t)

	for i := 0; i < len(ExampleQuestions)+1; i++ {
		m, _ = update(t, m, key(tea.KeyTab))
		assert.Equal(t, ExampleQuestions[i%len(ExampleQuestions)], m.textarea.Value())
	}

	m.textarea.SetValue("自己的問題")
	m, _ = update(t, m, key(tea.KeyTab))
	assert.Equal(t, "自己的問題", m.textarea.Value())
}

func TestUpdate_TabTogglesFocusDuringRitual(t *testing.T) {
	m, _ := NewTestModel(t)
	m, _ = update(t, m, ritualShownMsg{question: "健康"})

	m, _ = update(t, m, key(tea.KeyTab))
	assert.Equal(t, focusInput, m.focus)

	m, _ = update(t, m, key(tea.KeyTab))
	assert.Equal(t, focusRitual, m.focus)
}

func TestUpdate_ExportDone(t *testing.T) {
	m, _ := NewTestModel(t)

	m, _ = update(t, m, exportDoneMsg{path: "/tmp/x.txt"})
	assert.Equal(t, statusExported+"/tmp/x.txt", m.statusMessage)

	m, _ = update(t, m, exportDoneMsg{err: ErrNothingToExport})
	assert.Equal(t, ErrNothingToExport.Error(), m.statusMessage)
}

func TestExportTranscript(t *testing.T) {
	now := time.Date(2025, 3, 14, 9, 26, 53, 0, time.Local)

	t.Run("writes file", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "exports")
		entries := []conversation.Entry{
			conversation.UserEntry("我的事業"),
			conversation.BotEntry("宜守不宜攻。"),
		}

		path, err := exportTranscript(dir, entries, now)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, conversation.TranscriptFileName(now)), path)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.True(t, strings.Contains(string(data), "宜守不宜攻。"))
	})

	t.Run("nothing to export", func(t *testing.T) {
		_, err := exportTranscript(t.TempDir(), nil, now)
		assert.True(t, errors.Is(err, ErrNothingToExport))
	})
}

func TestBridge_ForwardsWhenAttached(t *testing.T) {
	b := NewBridge()

	// Unattached callbacks are dropped.
	assert.NotPanics(t, func() { b.ShowRitual("q") })

	s := &recordingSender{}
	b.Attach(s)
	b.ShowRitual("事業")
	b.OnDrawProgress(1, 3, divination.PhaseShaking)
	b.OnDrawRevealed(42, 1)
	b.OnRitualComplete()
	b.DismissRitual()
	b.LogChanged(nil, orchestrator.ScrollTop)

	require.Len(t, s.msgs, 6)
	assert.Equal(t, ritualShownMsg{question: "事業"}, s.msgs[0])
	assert.Equal(t, drawProgressMsg{index: 1, total: 3, phase: divination.PhaseShaking}, s.msgs[1])
	assert.Equal(t, drawRevealedMsg{value: 42, index: 1}, s.msgs[2])
	assert.Equal(t, ritualCompleteMsg{}, s.msgs[3])
	assert.Equal(t, ritualDismissedMsg{}, s.msgs[4])
	assert.Equal(t, logChangedMsg{scroll: orchestrator.ScrollTop}, s.msgs[5])
}

func TestUpdate_MarkdownRenderedOnce(t *testing.T) {
	m, _ := NewTestModel(t)
	entries := []conversation.Entry{
		conversation.UserEntry("你好"),
		conversation.BotEntry("**陳老師**在此。"),
		conversation.PlaceholderEntry(orchestrator.MessageQuerying),
	}

	m, _ = update(t, m, logChangedMsg{entries: entries})
	_, misses := m.cache.Stats()
	assert.Equal(t, 1, misses)

	// Spinner ticks rebuild the history while a placeholder is showing.
	m, _ = update(t, m, m.spinner.Tick())
	hits, misses := m.cache.Stats()
	assert.Equal(t, 1, misses)
	assert.GreaterOrEqual(t, hits, 1)
}
