// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

// Renderer turns assistant markdown into terminal output. The glamour
// renderer is rebuilt only when width or style change.
type Renderer struct {
	markdown bool
	style    string
	width    int
	term     *glamour.TermRenderer

	// cache holds output per entry id; it is cleared by build.
	cache map[string]rendered
}

// maxCachedEntries bounds the render cache across conversation switches.
const maxCachedEntries = 1024

type rendered struct {
	content string
	out     string
}

// NewRenderer creates a renderer. style is a glamour standard style name.
func NewRenderer(markdown bool, style string, width int) *Renderer {
	r := &Renderer{markdown: markdown, style: style}
	r.SetWidth(width)
	return r
}

// Configure changes the markdown switch and style.
func (r *Renderer) Configure(markdown bool, style string) {
	if r.markdown == markdown && r.style == style {
		return
	}
	r.markdown = markdown
	r.style = style
	r.term = nil
	r.build()
}

// SetWidth changes the wrap width.
func (r *Renderer) SetWidth(width int) {
	if width < 10 {
		width = 10
	}
	if width == r.width && r.term != nil {
		return
	}
	r.width = width
	r.build()
}

func (r *Renderer) build() {
	r.term = nil
	r.cache = make(map[string]rendered)
	if !r.markdown {
		return
	}
	term, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(r.style),
		glamour.WithWordWrap(r.width),
	)
	if err == nil {
		r.term = term
	}
}

// Render formats content. Plain text is wrapped when markdown is off or
// glamour fails.
func (r *Renderer) Render(content string) string {
	if r.term != nil {
		if out, err := r.term.Render(content); err == nil {
			return strings.Trim(out, "\n")
		}
	}
	return lipgloss.NewStyle().Width(r.width).Render(content)
}

// RenderEntry is Render memoized by entry id. Output is reused while the
// entry's content is unchanged, so repaints only format the entry that is
// streaming.
func (r *Renderer) RenderEntry(id, content string) string {
	if id == "" {
		return r.Render(content)
	}
	if c, ok := r.cache[id]; ok && c.content == content {
		return c.out
	}
	out := r.Render(content)
	if len(r.cache) >= maxCachedEntries {
		clear(r.cache)
	}
	r.cache[id] = rendered{content: content, out: out}
	return out
}

// Plain wraps content without markdown processing; user input is shown as
// typed.
func (r *Renderer) Plain(content string) string {
	return lipgloss.NewStyle().Width(r.width).Render(content)
}
