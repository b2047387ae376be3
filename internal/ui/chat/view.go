// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"github.com/vishalm/LlamaBot/internal/ui/styles"
)

// =============================================================================
// LAYOUT
// =============================================================================

func (m *Model) mainWidth() int {
	return max(m.width-styles.SidebarWidth-1, 20)
}

// layout sizes every widget for the current window and state, then redraws
// the transcript.
func (m *Model) layout() {
	if m.width == 0 || m.height == 0 {
		return
	}
	width := m.mainWidth()

	chrome := 2 // header and status bar
	chrome += inputHeight + m.theme.Input.GetVerticalFrameSize()
	chrome += lipgloss.Height(m.errorView())
	if m.showHelp {
		chrome += lipgloss.Height(m.helpView())
	}
	height := max(m.height-chrome, minViewport)

	if !m.ready {
		m.viewport = viewport.New(width, height)
		m.viewport.KeyMap = viewport.KeyMap{}
		m.ready = true
	} else {
		m.viewport.Width = width
		m.viewport.Height = height
	}

	m.input.SetWidth(width - m.theme.Input.GetHorizontalFrameSize())
	m.renderer.SetWidth(min(wrapWidth(m.ui.WordWrap, width), width-2))
	m.refresh()
}

// refresh redraws the transcript, following the bottom if the user was
// already there.
func (m *Model) refresh() {
	if !m.ready {
		return
	}
	follow := m.viewport.AtBottom()
	tv := transcriptView{
		theme:          m.theme,
		renderer:       m.renderer,
		showTimestamps: m.ui.ShowTimestamps,
		spinner:        m.spinner.View(),
	}
	m.viewport.SetContent(m.theme.Transcript.Render(tv.render(m.state)))
	if follow {
		m.viewport.GotoBottom()
	}
}

// =============================================================================
// VIEW
// =============================================================================

// View renders the screen.
func (m *Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	inputStyle := m.theme.InputFocused
	if m.state.IsStreaming {
		inputStyle = m.theme.Input
	}

	main := []string{m.viewport.View()}
	if banner := m.errorView(); banner != "" {
		main = append(main, banner)
	}
	main = append(main, inputStyle.Render(m.input.View()))
	column := lipgloss.JoinVertical(lipgloss.Left, main...)

	sidebar := renderSidebar(m.theme, m.state, lipgloss.Height(column))
	body := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, column)

	parts := []string{m.headerView(), body}
	if m.showHelp {
		parts = append(parts, m.helpView())
	}
	parts = append(parts, m.statusView())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m *Model) headerView() string {
	title := "llamabot"
	if sum, ok := m.state.ActiveSummary(); ok {
		title += " | " + sum.Title
	}
	return m.theme.Header.Width(m.width).Render(title)
}

func (m *Model) errorView() string {
	if m.state.LastError == "" {
		return ""
	}
	msg := styles.StatusIndicators.Error + " " + m.state.LastError + "  (esc to dismiss)"
	return m.theme.ErrorBanner.Width(m.mainWidth() - 2).Render(msg)
}

func (m *Model) helpView() string {
	m.help.ShowAll = true
	return m.help.View(m.keys)
}

func (m *Model) statusView() string {
	agent := "no agent"
	if m.state.SelectedAgent != "" {
		agent = "agent: " + m.state.SelectedAgent
	}
	left := m.theme.AgentBadge.Render(agent)

	switch {
	case m.state.IsStreaming:
		left += "  " + m.theme.Progress.Render(m.spinner.View()+" streaming")
	case m.state.IsLoading:
		left += "  " + m.theme.Progress.Render(m.spinner.View()+" loading")
	}

	m.help.ShowAll = false
	right := m.help.View(m.keys)
	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return m.theme.StatusBar.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}

