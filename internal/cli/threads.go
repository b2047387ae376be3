// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/vishalm/LlamaBot/internal/model"
)

func newThreadsCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "threads",
		Aliases: []string{"ls"},
		Short:   "List conversations on the server",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			convs, err := a.client.ListThreads(cmd.Context())
			if err != nil {
				return err
			}

			now := time.Now()
			sums := make([]model.Summary, 0, len(convs))
			for _, conv := range convs {
				sums = append(sums, model.Summarize(conv, now))
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return printJSON(out, sums)
			}
			printSummaries(out, sums, "", terminalWidth(out))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "output JSON")
	return cmd
}

func newHistoryCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history THREAD_ID",
		Short: "Print a conversation's messages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conv, err := a.client.GetHistory(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			entries := model.NormalizeAll(conv.Messages)

			out := cmd.OutOrStdout()
			if asJSON {
				return printJSON(out, entries)
			}
			printTranscript(out, entries, a.replyOptions(out, false))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "output JSON")
	return cmd
}
