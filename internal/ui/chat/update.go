// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vishalm/LlamaBot/internal/config"
	"github.com/vishalm/LlamaBot/internal/store"
	"github.com/vishalm/LlamaBot/internal/ui/styles"
)

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		return m, nil

	case stateMsg:
		m.applyState(store.State(msg))
		return m, nil

	case uiConfigMsg:
		m.applyUI(config.UIConfig(msg))
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.state.Busy() {
			m.refresh()
		}
		return m, cmd

	case tea.KeyMsg:
		if cmd, handled := m.handleKey(msg); handled {
			return m, cmd
		}
	}

	if !m.state.IsStreaming {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// handleKey processes global bindings. It reports false for keys that
// belong to the input.
func (m *Model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit, true

	case key.Matches(msg, m.keys.Send):
		return m.send(), true

	case key.Matches(msg, m.keys.NewConversation):
		return m.do(func(context.Context) { m.store.CreateNewConversation() }), true

	case key.Matches(msg, m.keys.PrevConversation):
		return m.switchConversation(-1), true

	case key.Matches(msg, m.keys.NextConversation):
		return m.switchConversation(1), true

	case key.Matches(msg, m.keys.Reload):
		return m.do(func(ctx context.Context) { m.store.LoadConversations(ctx) }), true

	case key.Matches(msg, m.keys.CycleAgent):
		return m.do(func(context.Context) { m.store.CycleAgent() }), true

	case key.Matches(msg, m.keys.DismissError):
		if m.state.LastError == "" {
			return nil, true
		}
		return m.do(func(context.Context) { m.store.ClearError() }), true

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return nil, true

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return nil, true

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.layout()
		return nil, true
	}
	return nil, false
}

// send submits the input. The input is disabled while a reply streams.
func (m *Model) send() tea.Cmd {
	if m.state.IsStreaming {
		return nil
	}
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return nil
	}
	m.input.Reset()
	return m.do(func(ctx context.Context) { m.store.SendMessage(ctx, text) })
}

// switchConversation selects the neighbour of the active conversation.
// It is refused while a reply streams: reselecting the streaming thread
// would reload its history and lose the reply's placeholder.
func (m *Model) switchConversation(delta int) tea.Cmd {
	convs := m.state.Conversations
	if len(convs) == 0 || m.state.IsStreaming {
		return nil
	}
	i := m.state.ActiveIndex()
	if i < 0 {
		i = 0
		if delta < 0 {
			i = len(convs) - 1
		}
	} else {
		i += delta
		if i < 0 || i >= len(convs) {
			return nil
		}
	}
	id := convs[i].ID
	return m.do(func(ctx context.Context) { m.store.SelectConversation(ctx, id) })
}

func (m *Model) applyState(st store.State) {
	wasStreaming := m.state.IsStreaming
	m.state = st

	if st.IsStreaming && !wasStreaming {
		m.input.Blur()
	} else if !st.IsStreaming && wasStreaming {
		m.input.Focus()
	}
	m.layout()
}

func (m *Model) applyUI(ui config.UIConfig) {
	m.log.V(1).Info("applying ui settings", "theme", ui.Theme, "markdown", ui.Markdown)
	if ui.Theme != m.ui.Theme {
		m.theme = styles.NewTheme(ui.Theme)
		m.spinner.Style = m.theme.Progress
	}
	m.ui = ui
	m.renderer.Configure(ui.Markdown, m.theme.GlamourStyle())
	m.layout()
}
