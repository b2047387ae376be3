// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/vishalm/LlamaBot/internal/model"
)

// SidebarWidth is the fixed width of the conversation list.
const SidebarWidth = 32

// Theme holds all the styled components for the application.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	ColorProfile termenv.Profile

	// ==========================================================================
	// LAYOUT
	// ==========================================================================

	Header      lipgloss.Style
	HeaderBrand lipgloss.Style
	Sidebar     lipgloss.Style
	Transcript  lipgloss.Style

	// ==========================================================================
	// SIDEBAR ROWS
	// ==========================================================================

	ThreadTitle        lipgloss.Style
	ThreadPreview      lipgloss.Style
	ThreadSelected     lipgloss.Style
	ThreadNewIndicator lipgloss.Style

	// ==========================================================================
	// TRANSCRIPT
	// ==========================================================================

	UserLabel      lipgloss.Style
	AssistantLabel lipgloss.Style
	SystemLabel    lipgloss.Style
	ToolBadge      lipgloss.Style
	Timestamp      lipgloss.Style
	Body           lipgloss.Style
	Progress       lipgloss.Style

	// ==========================================================================
	// INPUT, STATUS AND ERRORS
	// ==========================================================================

	Input        lipgloss.Style
	InputFocused lipgloss.Style
	StatusBar    lipgloss.Style
	ShortcutKey  lipgloss.Style
	ShortcutDesc lipgloss.Style
	AgentBadge   lipgloss.Style
	ErrorBanner  lipgloss.Style
	Muted        lipgloss.Style
}

// NewTheme creates a theme for mode "dark", "light" or "auto". Auto asks the
// terminal for its background.
func NewTheme(mode string) *Theme {
	var isDark bool
	switch strings.ToLower(mode) {
	case "dark":
		isDark = true
	case "light":
		isDark = false
	default:
		isDark = termenv.HasDarkBackground()
	}
	lipgloss.SetHasDarkBackground(isDark)

	t := &Theme{
		IsDark:       isDark,
		ColorProfile: termenv.ColorProfile(),
	}
	t.initStyles()
	return t
}

// GlamourStyle names the glamour standard style matching the theme.
func (t *Theme) GlamourStyle() string {
	if t.IsDark {
		return "dark"
	}
	return "light"
}

// RoleLabel returns the styled speaker label for an entry.
func (t *Theme) RoleLabel(role model.Role) string {
	name := role.DisplayName()
	switch role {
	case model.RoleUser:
		return t.UserLabel.Render(name)
	case model.RoleSystem:
		return t.SystemLabel.Render(name)
	case model.RoleToolCall:
		return t.ToolBadge.Render(name)
	default:
		return t.AssistantLabel.Render(name)
	}
}

func (t *Theme) initStyles() {
	t.Header = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan).
		Background(SurfaceDim).
		Padding(0, 1)

	t.HeaderBrand = lipgloss.NewStyle().
		Bold(true).
		Foreground(Purple)

	t.Sidebar = lipgloss.NewStyle().
		Width(SidebarWidth).
		BorderStyle(lipgloss.NormalBorder()).
		BorderRight(true).
		BorderForeground(Overlay).
		PaddingRight(1)

	t.Transcript = lipgloss.NewStyle().PaddingLeft(1)

	t.ThreadTitle = lipgloss.NewStyle().Foreground(TextPrimary)
	t.ThreadPreview = lipgloss.NewStyle().Foreground(TextMuted)
	t.ThreadSelected = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan).
		Background(SelectionBg)
	t.ThreadNewIndicator = lipgloss.NewStyle().Foreground(Emerald)

	t.UserLabel = lipgloss.NewStyle().Bold(true).Foreground(Cyan)
	t.AssistantLabel = lipgloss.NewStyle().Bold(true).Foreground(Purple)
	t.SystemLabel = lipgloss.NewStyle().Bold(true).Foreground(Amber)
	t.ToolBadge = lipgloss.NewStyle().
		Foreground(Emerald).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Emerald).
		Padding(0, 1)
	t.Timestamp = lipgloss.NewStyle().Foreground(TextMuted).Italic(true)
	t.Body = lipgloss.NewStyle().Foreground(TextPrimary)
	t.Progress = lipgloss.NewStyle().Foreground(Amber).Italic(true)

	t.Input = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay)
	t.InputFocused = t.Input.BorderForeground(Purple)

	t.StatusBar = lipgloss.NewStyle().Foreground(TextSecondary).Background(SurfaceDim)
	t.ShortcutKey = lipgloss.NewStyle().Bold(true).Foreground(Cyan)
	t.ShortcutDesc = lipgloss.NewStyle().Foreground(TextMuted)
	t.AgentBadge = lipgloss.NewStyle().Bold(true).Foreground(Emerald)
	t.ErrorBanner = lipgloss.NewStyle().
		Foreground(Rose).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Rose).
		Padding(0, 1)
	t.Muted = lipgloss.NewStyle().Foreground(TextMuted)
}
