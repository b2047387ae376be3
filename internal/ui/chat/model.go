// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat is the full-screen chat interface.
//
// The Model renders Store snapshots and turns keys into Store actions.
// Actions always run as tea.Cmds: they block on the network, and the
// snapshots they produce come back through the program as stateMsg.
package chat

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-logr/logr"

	"github.com/vishalm/LlamaBot/internal/config"
	"github.com/vishalm/LlamaBot/internal/store"
	"github.com/vishalm/LlamaBot/internal/ui/styles"
)

const (
	inputHeight = 3
	minViewport = 3
)

// stateMsg carries a Store snapshot into the program.
type stateMsg store.State

// uiConfigMsg carries reloaded UI settings.
type uiConfigMsg config.UIConfig

// Options configures a Model.
type Options struct {
	Store  *store.Store
	UI     config.UIConfig
	Logger logr.Logger
}

// Model is the Bubble Tea model for the chat screen.
type Model struct {
	ctx   context.Context
	store *store.Store
	ui    config.UIConfig
	log   logr.Logger

	theme    *styles.Theme
	keys     KeyMap
	renderer *Renderer

	// state is the last snapshot received.
	state store.State

	viewport viewport.Model
	input    textarea.Model
	spinner  spinner.Model
	help     help.Model

	width    int
	height   int
	ready    bool
	showHelp bool
}

// New creates the chat model. ctx bounds every action the model starts.
func New(ctx context.Context, opts Options) *Model {
	log := opts.Logger
	if log.GetSink() == nil {
		log = logr.Discard()
	}

	theme := styles.NewTheme(opts.UI.Theme)
	keys := DefaultKeyMap()

	ta := textarea.New()
	ta.Placeholder = "Type a message... (Enter to send, C-j for newline)"
	ta.ShowLineNumbers = false
	ta.Prompt = ""
	ta.CharLimit = 0
	ta.SetHeight(inputHeight)
	ta.KeyMap.InsertNewline = keys.Newline
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.Progress

	return &Model{
		ctx:      ctx,
		store:    opts.Store,
		ui:       opts.UI,
		log:      log.WithName("tui"),
		theme:    theme,
		keys:     keys,
		renderer: NewRenderer(opts.UI.Markdown, theme.GlamourStyle(), wrapWidth(opts.UI.WordWrap, 80)),
		state:    opts.Store.Snapshot(),
		input:    ta,
		spinner:  sp,
		help:     help.New(),
	}
}

// Init loads agents and conversations.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.spinner.Tick,
		m.do(func(ctx context.Context) { m.store.LoadAgents(ctx) }),
		m.do(func(ctx context.Context) { m.store.LoadConversations(ctx) }),
	)
}

// do runs a Store action off the program goroutine. The resulting state
// arrives as stateMsg through the subscription.
func (m *Model) do(action func(ctx context.Context)) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		action(ctx)
		return nil
	}
}

// wrapWidth picks the markdown wrap width: the configured word_wrap when
// set, else fallback, never wider than the pane.
func wrapWidth(configured, fallback int) int {
	if configured > 0 {
		return configured
	}
	return fallback
}
