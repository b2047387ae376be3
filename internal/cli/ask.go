// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newAskCmd(a *app) *cobra.Command {
	var opts struct {
		ThreadID string
		Raw      bool
	}

	cmd := &cobra.Command{
		Use:   "ask [--thread ID] MESSAGE...",
		Short: "Send one message and print the reply",
		Long: `Send one message and print the reply.

Without --thread a new conversation is started. On a terminal the reply is
rendered as markdown when it completes; when piped, or with --raw, text is
written as it streams.`,
		Example: `  llamabot ask "What is LangGraph?"
  llamabot ask --thread thread_1718000000000_ab12cd "And then?"
  echo "summarise this" | llamabot ask -`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			message, err := messageFromArgs(args, cmd.InOrStdin())
			if err != nil {
				return err
			}

			st := a.newStore()
			st.LoadAgents(ctx)
			if opts.ThreadID != "" {
				st.SelectConversation(ctx, opts.ThreadID)
				if msg := st.Snapshot().LastError; msg != "" {
					return errors.New(msg)
				}
			} else {
				st.CreateNewConversation()
			}

			out := cmd.OutOrStdout()
			err = sendAndPrint(ctx, st, message, out, cmd.ErrOrStderr(), a.replyOptions(out, opts.Raw))
			if opts.ThreadID == "" {
				cmd.PrintErrln(DimStyle.Render("thread: " + st.Snapshot().ActiveConversationID))
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&opts.ThreadID, "thread", "t", "", "continue an existing conversation")
	cmd.Flags().BoolVar(&opts.Raw, "raw", false, "stream raw text even on a terminal")
	return cmd
}

// messageFromArgs joins args into the message. A lone "-" reads stdin.
func messageFromArgs(args []string, stdin io.Reader) (string, error) {
	if len(args) == 1 && args[0] == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", errors.Wrap(err, "read message from stdin")
		}
		args = []string{string(data)}
	}
	message := strings.TrimSpace(strings.Join(args, " "))
	if message == "" {
		return "", errors.New("message is empty")
	}
	return message, nil
}
