// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/vishalm/LlamaBot/internal/config"
	"github.com/vishalm/LlamaBot/internal/store"
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// lineReader provides input history and line editing for the REPL.
type lineReader struct {
	line        *liner.State
	historyFile string
}

func newLineReader() *lineReader {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	line.SetCompleter(completeSlash)

	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	r := &lineReader{line: line, historyFile: filepath.Join(dir, "chat_history")}

	if f, err := os.Open(r.historyFile); err == nil {
		r.line.ReadHistory(f)
		f.Close()
	}
	return r
}

// ReadInput reads a line, adding non-empty input to the history.
func (r *lineReader) ReadInput(prompt string) (string, error) {
	input, err := r.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		r.line.AppendHistory(input)
	}
	return input, nil
}

// Close saves history with 0600 permissions and restores the terminal.
func (r *lineReader) Close() {
	if err := os.MkdirAll(filepath.Dir(r.historyFile), 0o700); err == nil {
		if f, err := os.OpenFile(r.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600); err == nil {
			r.line.WriteHistory(f)
			f.Close()
		}
	}
	r.line.Close()
}

// =============================================================================
// COMMAND
// =============================================================================

func newChatCmd(a *app) *cobra.Command {
	var threadID string

	cmd := &cobra.Command{
		Use:   "chat [--thread ID]",
		Short: "Chat in line mode",
		Long: `Chat in line mode, with input history and slash commands.
Type /help inside the session for the command list.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			session := a.newChatSession(cmd.OutOrStdout(), cmd.ErrOrStderr())
			session.st.LoadAgents(ctx)

			if threadID != "" {
				session.st.SelectConversation(ctx, threadID)
				if err := session.takeError(); err != nil {
					return err
				}
			} else {
				session.st.CreateNewConversation()
			}
			session.printBanner()

			reader := newLineReader()
			defer reader.Close()

			for {
				input, err := reader.ReadInput(PromptStyle.Render("llamabot> "))
				if err != nil {
					// Ctrl+C, Ctrl+D or a closed stdin all end the session.
					fmt.Fprintln(session.out)
					return nil
				}
				cont, err := session.handle(ctx, input)
				if err != nil {
					fmt.Fprintln(session.errOut, ErrorStyle.Render("[Error]"), err)
				}
				if !cont || ctx.Err() != nil {
					return nil
				}
			}
		},
	}

	cmd.Flags().StringVarP(&threadID, "thread", "t", "", "continue an existing conversation")
	return cmd
}

// =============================================================================
// SESSION
// =============================================================================

// chatSession runs REPL input against a Store.
type chatSession struct {
	st     *store.Store
	out    io.Writer
	errOut io.Writer
	opts   printOptions
}

func (a *app) newChatSession(out, errOut io.Writer) *chatSession {
	st := store.New(a.client, store.Config{
		// Listing threads must not move the user to another conversation.
		AutoSelectFirst: false,
		DefaultAgent:    a.cfg.Chat.DefaultAgent,
		Logger:          a.log,
	})
	opts := a.replyOptions(out, true)
	return &chatSession{st: st, out: out, errOut: errOut, opts: opts}
}

var slashCommands = []struct {
	name, args, help string
}{
	{"/new", "", "start a new conversation"},
	{"/threads", "", "list conversations"},
	{"/switch", "ID", "continue another conversation"},
	{"/history", "", "show the current conversation"},
	{"/agents", "", "list agents"},
	{"/agent", "NAME", "route messages to an agent"},
	{"/help", "", "show this help"},
	{"/exit", "", "leave"},
}

func completeSlash(line string) []string {
	if !strings.HasPrefix(line, "/") {
		return nil
	}
	var out []string
	for _, c := range slashCommands {
		if strings.HasPrefix(c.name, line) {
			out = append(out, c.name)
		}
	}
	return out
}

// handle processes one line. It returns false when the session should end.
func (s *chatSession) handle(ctx context.Context, input string) (bool, error) {
	input = strings.TrimSpace(input)
	switch {
	case input == "":
		return true, nil
	case strings.EqualFold(input, "exit"), strings.EqualFold(input, "quit"):
		return false, nil
	case strings.HasPrefix(input, "/"):
		return s.slash(ctx, input)
	}

	err := sendAndPrint(ctx, s.st, input, s.out, s.errOut, s.opts)
	s.st.ClearError()
	return true, err
}

func (s *chatSession) slash(ctx context.Context, input string) (bool, error) {
	name, arg, _ := strings.Cut(input, " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(name) {
	case "/exit", "/quit", "/q":
		return false, nil

	case "/help", "/?":
		for _, c := range slashCommands {
			usage := strings.TrimSpace(c.name + " " + c.args)
			fmt.Fprintf(s.out, "  %-16s %s\n", usage, DimStyle.Render(c.help))
		}
		return true, nil

	case "/new":
		id := s.st.CreateNewConversation()
		fmt.Fprintln(s.out, DimStyle.Render("New conversation "+id))
		return true, nil

	case "/threads":
		s.st.LoadConversations(ctx)
		if err := s.takeError(); err != nil {
			return true, err
		}
		snap := s.st.Snapshot()
		printSummaries(s.out, snap.Conversations, snap.ActiveConversationID, s.opts.width)
		return true, nil

	case "/switch":
		if arg == "" {
			return true, errors.New("usage: /switch ID")
		}
		s.st.SelectConversation(ctx, arg)
		if err := s.takeError(); err != nil {
			return true, err
		}
		snap := s.st.Snapshot()
		fmt.Fprintln(s.out, DimStyle.Render(fmt.Sprintf("Switched to %s (%d messages)", arg, len(snap.Transcript))))
		return true, nil

	case "/history":
		snap := s.st.Snapshot()
		printTranscript(s.out, snap.Transcript, s.opts)
		return true, nil

	case "/agents":
		s.st.LoadAgents(ctx)
		snap := s.st.Snapshot()
		printAgents(s.out, snap.AvailableAgents, snap.SelectedAgent)
		return true, nil

	case "/agent":
		if arg == "" {
			return true, errors.New("usage: /agent NAME")
		}
		s.st.SelectAgent(arg)
		if err := s.takeError(); err != nil {
			return true, err
		}
		fmt.Fprintln(s.out, DimStyle.Render("Agent: "+arg))
		return true, nil
	}

	return true, errors.Errorf("unknown command %s (try /help)", name)
}

// takeError returns and clears the session error.
func (s *chatSession) takeError() error {
	msg := s.st.Snapshot().LastError
	if msg == "" {
		return nil
	}
	s.st.ClearError()
	return errors.New(msg)
}

func (s *chatSession) printBanner() {
	snap := s.st.Snapshot()
	fmt.Fprintln(s.out, TitleStyle.Render("llamabot chat"))
	agent := snap.SelectedAgent
	if agent == "" {
		agent = "server default"
	}
	fmt.Fprintln(s.out, DimStyle.Render(fmt.Sprintf("thread %s | agent %s | /help for commands", snap.ActiveConversationID, agent)))
}
