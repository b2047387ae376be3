// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"

	"github.com/vishalm/LlamaBot/internal/config"
)

// Run shows the chat screen until the user quits or ctx ends. When
// configPath is set, edits to its ui section apply live.
func Run(ctx context.Context, opts Options, configPath string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := New(ctx, opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	br := newBridge(p.Send, DefaultRepaintInterval)
	unsubscribe := opts.Store.Subscribe(br.deliver)
	defer unsubscribe()
	defer br.stop()

	if configPath != "" {
		w, err := config.Watch(configPath, 0, m.log, func(cfg *config.Config) {
			p.Send(uiConfigMsg(cfg.UI))
		})
		if err != nil {
			m.log.Error(err, "config hot reload disabled")
		} else {
			defer w.Close()
		}
	}

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return errors.Wrap(err, "run chat screen")
	}
	return nil
}
