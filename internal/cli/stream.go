// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/pkg/errors"

	"github.com/vishalm/LlamaBot/internal/model"
	"github.com/vishalm/LlamaBot/internal/store"
)

// replyPrinter follows a send through Store snapshots and prints the reply.
//
// In live mode every appended token is written as it arrives. Otherwise a
// one-line progress indicator goes to status and the finished reply is
// rendered as markdown afterwards.
type replyPrinter struct {
	out    io.Writer
	status io.Writer
	live   bool

	mu       sync.Mutex
	started  bool
	printed  string
	node     string
	reply    string
	diverged bool
}

func newReplyPrinter(out, status io.Writer, live bool) *replyPrinter {
	return &replyPrinter{out: out, status: status, live: live}
}

// observe is the Store subscriber.
func (p *replyPrinter) observe(st store.State) {
	p.mu.Lock()
	defer p.mu.Unlock()

	// Snapshots from before the send, or from a rejected one, hold no reply.
	if st.IsStreaming {
		p.started = true
	}
	if !p.started {
		return
	}

	if n := len(st.Transcript); n > 0 && st.Transcript[n-1].Role == model.RoleAssistant {
		p.reply = st.Transcript[n-1].Content
	}

	if !p.live {
		if st.IsStreaming && st.Progress.Node != p.node {
			p.node = st.Progress.Node
			fmt.Fprintf(p.status, "\r\033[K%s", DimStyle.Render(progressText(p.node)))
		}
		return
	}

	// A final event may replace the text instead of extending it.
	if strings.HasPrefix(p.reply, p.printed) {
		io.WriteString(p.out, p.reply[len(p.printed):])
		p.printed = p.reply
	} else {
		p.diverged = true
	}
}

// finish completes the output once the send has returned.
func (p *replyPrinter) finish(markdown bool, width int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.live {
		if p.diverged {
			fmt.Fprintf(p.out, "\n%s\n%s", RenderSeparator(width/2), p.reply)
		}
		if p.reply != "" {
			io.WriteString(p.out, "\n")
		}
		return
	}

	if p.node != "" {
		fmt.Fprint(p.status, "\r\033[K")
	}
	if p.reply == "" {
		return
	}
	fmt.Fprintln(p.out, renderMarkdown(p.reply, markdown, width))
}

func progressText(node string) string {
	if node == "" {
		return "Thinking..."
	}
	return "Thinking... (" + model.HumanizeName(node) + ")"
}

// renderMarkdown renders content with glamour, falling back to the raw text.
func renderMarkdown(content string, enabled bool, width int) string {
	if !enabled {
		return content
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return content
	}
	out, err := r.Render(content)
	if err != nil {
		return content
	}
	return strings.Trim(out, "\n")
}

// sendAndPrint sends text through st and prints the reply. The returned
// error is the session error the send left behind, if any.
func sendAndPrint(ctx context.Context, st *store.Store, text string, out, status io.Writer, opts printOptions) error {
	p := newReplyPrinter(out, status, opts.live)
	unsubscribe := st.Subscribe(p.observe)
	st.SendMessage(ctx, text)
	unsubscribe()
	p.finish(opts.markdown, opts.width)

	if msg := st.Snapshot().LastError; msg != "" {
		return errors.New(msg)
	}
	return nil
}

// printOptions controls how replies are shown.
type printOptions struct {
	live     bool
	markdown bool
	width    int
}

// replyOptions picks live streaming for pipes and rendered markdown for
// terminals, unless raw forces live output.
func (a *app) replyOptions(out io.Writer, raw bool) printOptions {
	tty := isTerminal(out)
	return printOptions{
		live:     raw || !tty,
		markdown: a.cfg.UI.Markdown && tty,
		width:    min(terminalWidth(out), wrapOr(a.cfg.UI.WordWrap, terminalWidth(out))),
	}
}

func wrapOr(wrap, fallback int) int {
	if wrap > 0 {
		return wrap
	}
	return fallback
}
