// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/vishalm/LlamaBot/internal/ui/chat"
)

func newTUICmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the full-screen chat",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTUI(cmd.Context())
		},
	}
}

func (a *app) runTUI(ctx context.Context) error {
	if a.flags.LogStderr {
		return errors.New("--log-stderr cannot be used with the full-screen chat")
	}
	return chat.Run(ctx, chat.Options{
		Store:  a.newStore(),
		UI:     a.cfg.UI,
		Logger: a.log,
	}, a.cfgPath)
}
