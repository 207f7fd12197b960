// Package chat implements the interactive divination client using bubbletea.
package chat

import (
	"context"
	"time"

	"yijing/cmd/yijing/ui"
	"yijing/internal/conversation"
	"yijing/internal/divination"
	"yijing/internal/orchestrator"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"go.uber.org/zap"
)

// ExampleQuestions are offered on the welcome screen; Tab cycles them into
// the input.
var ExampleQuestions = []string{
	"我今年的事業運勢如何？",
	"這段感情未來的發展會如何？",
	"陳老師的收費標準是什麼？",
}

// Slot labels for the three draws.
var slotLabels = [divination.RitualSize]string{"第一籤", "第二籤", "第三籤"}

// Button labels.
const (
	labelShaking = "搖籤中..."
	labelDone    = "✓ 已完成"
)

// focus is where key presses go.
type focus int

const (
	focusInput focus = iota
	focusRitual
)

// ritualView mirrors the active ritual for rendering.
type ritualView struct {
	question string
	slots    [divination.RitualSize]int
	filled   int
	shaking  bool
	done     bool
}

// Config wires a Model.
type Config struct {
	Orchestrator  *orchestrator.Orchestrator
	Styles        ui.Styles
	TranscriptDir string
	Logger        *zap.Logger
	Now           func() time.Time
}

// Model is the bubbletea model for the interactive client.
type Model struct {
	// UI Components
	textarea textarea.Model
	viewport viewport.Model
	spinner  spinner.Model
	styles   ui.Styles
	renderer *glamour.TermRenderer
	cache    *ui.RenderCache

	// State
	entries       []conversation.Entry
	ritual        *ritualView
	focus         focus
	busy          int // in-flight submissions
	confirmClear  bool
	exampleIdx    int
	statusMessage string
	width         int
	height        int
	ready         bool

	// Backend
	orch          *orchestrator.Orchestrator
	ctx           context.Context
	cancel        context.CancelFunc
	drawCtx       context.Context // per ritual; cancelled on abandon
	drawCancel    context.CancelFunc
	transcriptDir string
	logger        *zap.Logger
	now           func() time.Time
}

// New creates the model.
func New(cfg Config) Model {
	ta := textarea.New()
	ta.Placeholder = "請輸入您的問題，按 Enter 送出..."
	ta.ShowLineNumbers = false
	ta.CharLimit = 500
	ta.SetHeight(2)
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = cfg.Styles.Muted

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	dir := cfg.TranscriptDir
	if dir == "" {
		dir = "."
	}
	ctx, cancel := context.WithCancel(context.Background())

	return Model{
		textarea:      ta,
		viewport:      viewport.New(80, 20),
		spinner:       sp,
		styles:        cfg.Styles,
		cache:         ui.NewRenderCache(ui.DefaultRenderCacheSize),
		orch:          cfg.Orchestrator,
		ctx:           ctx,
		cancel:        cancel,
		transcriptDir: dir,
		logger:        logger,
		now:           now,
	}
}

// Init starts the cursor blink, the spinner and the health probe.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.spinner.Tick, m.checkHealth())
}

func newRenderer(width int, dark bool) *glamour.TermRenderer {
	style := "light"
	if dark {
		style = "dark"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}
	return r
}
