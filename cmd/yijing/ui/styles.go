// Package ui provides the visual styling for the yijing interactive client.
// Ink-and-jade palette with light/dark mode support.
package ui

import (
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color palette
var (
	// Light Mode Colors (Default)
	LightBackground = lipgloss.Color("#f7f3ea") // rice paper
	LightForeground = lipgloss.Color("#2b2118") // ink
	LightPrimary    = lipgloss.Color("#8c2f1b") // cinnabar
	LightAccent     = lipgloss.Color("#2f6f5e") // jade
	LightMuted      = lipgloss.Color("#9a8f80")
	LightBorder     = lipgloss.Color("#d8cfbf")

	// Dark Mode Colors
	DarkBackground = lipgloss.Color("#15120e")
	DarkForeground = lipgloss.Color("#efe8da")
	DarkPrimary    = lipgloss.Color("#e0a458") // gold (flipped)
	DarkAccent     = lipgloss.Color("#6fb7a0") // light jade
	DarkMuted      = lipgloss.Color("#7d7466")
	DarkBorder     = lipgloss.Color("#3a332a")

	// Semantic Colors (same in both modes)
	Destructive = lipgloss.Color("#e53935")
	Success     = lipgloss.Color("#7cb342")
	Warning     = lipgloss.Color("#FFC107")
)

// Theme holds the current color scheme
type Theme struct {
	Background lipgloss.Color
	Foreground lipgloss.Color
	Primary    lipgloss.Color
	Accent     lipgloss.Color
	Muted      lipgloss.Color
	Border     lipgloss.Color
	IsDark     bool
}

// LightTheme returns the light mode theme
func LightTheme() Theme {
	return Theme{
		Background: LightBackground,
		Foreground: LightForeground,
		Primary:    LightPrimary,
		Accent:     LightAccent,
		Muted:      LightMuted,
		Border:     LightBorder,
	}
}

// DarkTheme returns the dark mode theme
func DarkTheme() Theme {
	return Theme{
		Background: DarkBackground,
		Foreground: DarkForeground,
		Primary:    DarkPrimary,
		Accent:     DarkAccent,
		Muted:      DarkMuted,
		Border:     DarkBorder,
		IsDark:     true,
	}
}

// ThemeFor resolves a ui.theme setting. "auto" and unknown values detect.
func ThemeFor(pref string) Theme {
	switch pref {
	case "light":
		return LightTheme()
	case "dark":
		return DarkTheme()
	}
	return DetectTheme()
}

// DetectTheme auto-detects based on terminal or returns light mode
func DetectTheme() Theme {
	// Format is usually "foreground;background"
	if parts := strings.Split(os.Getenv("COLORFGBG"), ";"); len(parts) == 2 {
		if bgIdx, err := strconv.Atoi(parts[1]); err == nil {
			// 0-6 and 8 (dark grey) are likely dark backgrounds
			if (bgIdx >= 0 && bgIdx <= 6) || bgIdx == 8 {
				return DarkTheme()
			}
		}
	}
	if os.Getenv("YIJING_DARK_MODE") == "1" {
		return DarkTheme()
	}
	return LightTheme()
}

// Styles holds all the styled components
type Styles struct {
	Theme Theme

	// Layout
	Header  lipgloss.Style
	Footer  lipgloss.Style
	Content lipgloss.Style
	Input   lipgloss.Style

	// Text
	Title     lipgloss.Style
	Muted     lipgloss.Style
	UserLabel lipgloss.Style
	BotLabel  lipgloss.Style
	UserInput lipgloss.Style
	Body      lipgloss.Style

	// Status
	Error   lipgloss.Style
	Warning lipgloss.Style
	Success lipgloss.Style

	// Ritual panel
	Panel      lipgloss.Style
	Slot       lipgloss.Style
	SlotFilled lipgloss.Style
	Button     lipgloss.Style
	ButtonBusy lipgloss.Style
	ButtonDone lipgloss.Style

	Divider lipgloss.Style
}

// NewStyles creates a new Styles instance with the given theme
func NewStyles(theme Theme) Styles {
	slot := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border).
		Width(10).
		Align(lipgloss.Center).
		Padding(0, 1)
	button := lipgloss.NewStyle().
		Padding(0, 2).
		Bold(true)

	return Styles{
		Theme: theme,

		Header: lipgloss.NewStyle().
			Background(theme.Primary).
			Foreground(lipgloss.Color("#ffffff")).
			Padding(0, 2).
			Bold(true),
		Footer: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Padding(0, 2),
		Content: lipgloss.NewStyle().
			Padding(0, 2),
		Input: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Accent).
			Padding(0, 1),

		Title: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true).
			MarginBottom(1),
		Muted: lipgloss.NewStyle().
			Foreground(theme.Muted),
		UserLabel: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true).
			MarginTop(1),
		BotLabel: lipgloss.NewStyle().
			Foreground(theme.Accent).
			Bold(true).
			MarginTop(1),
		UserInput: lipgloss.NewStyle().
			Foreground(theme.Foreground).
			PaddingLeft(2),
		Body: lipgloss.NewStyle().
			Foreground(theme.Foreground),

		Error: lipgloss.NewStyle().
			Foreground(Destructive).
			Bold(true),
		Warning: lipgloss.NewStyle().
			Foreground(Warning),
		Success: lipgloss.NewStyle().
			Foreground(Success),

		Panel: lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(theme.Primary).
			Padding(0, 2),
		Slot: slot.Foreground(theme.Muted),
		SlotFilled: slot.
			Foreground(theme.Primary).
			BorderForeground(theme.Primary).
			Bold(true),
		Button: button.
			Background(theme.Accent).
			Foreground(lipgloss.Color("#ffffff")),
		ButtonBusy: button.
			Background(theme.Muted).
			Foreground(lipgloss.Color("#ffffff")),
		ButtonDone: button.
			Background(Success).
			Foreground(lipgloss.Color("#ffffff")),

		Divider: lipgloss.NewStyle().
			Foreground(theme.Border),
	}
}

// RenderDivider renders a horizontal divider
func (s Styles) RenderDivider(width int) string {
	if width < 1 {
		width = 1
	}
	return s.Divider.Render(strings.Repeat("─", width))
}
