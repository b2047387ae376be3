// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/vishalm/LlamaBot/internal/model"
	"github.com/vishalm/LlamaBot/internal/store"
	"github.com/vishalm/LlamaBot/internal/ui/styles"
	"github.com/vishalm/LlamaBot/internal/util"
)

// toolPreviewWidth caps the one-line preview shown under a tool badge.
const toolPreviewWidth = 72

// transcriptView carries everything needed to draw the transcript.
type transcriptView struct {
	theme          *styles.Theme
	renderer       *Renderer
	showTimestamps bool
	// spinner is the current spinner frame, shown in an empty placeholder.
	spinner string
}

// render draws the grouped transcript of st.
func (v transcriptView) render(st store.State) string {
	if st.ActiveConversationID == "" {
		return v.theme.Muted.Render("No conversation selected. Press ctrl+n to start one.")
	}
	groups := st.Groups()
	if len(groups) == 0 {
		if st.IsLoading {
			return v.theme.Progress.Render(v.spinner + " Loading...")
		}
		return v.theme.Muted.Render(model.NewThreadPreview)
	}

	var b strings.Builder
	for i, g := range groups {
		if i > 0 {
			b.WriteString("\n\n")
		}
		last := i == len(groups)-1
		b.WriteString(v.renderGroup(g, last && st.IsStreaming, st.Progress))
	}
	return b.String()
}

func (v transcriptView) renderGroup(g model.Group, streaming bool, progress model.Progress) string {
	var b strings.Builder

	b.WriteString(v.theme.RoleLabel(g.Anchor.Role))
	if v.showTimestamps && g.Anchor.HasTimestamp() {
		b.WriteString("  ")
		b.WriteString(v.theme.Timestamp.Render(g.Anchor.Timestamp.Format("15:04")))
	}
	b.WriteString("\n")

	switch {
	case g.Anchor.Role == model.RoleAssistant && g.Anchor.Content == "" && streaming:
		b.WriteString(v.theme.Progress.Render(progressLine(v.spinner, progress)))
	case g.Anchor.Role == model.RoleUser:
		b.WriteString(v.theme.Body.Render(v.renderer.Plain(g.Anchor.Content)))
	default:
		b.WriteString(v.renderer.RenderEntry(g.Anchor.ID, g.Anchor.Content))
		if streaming && progress.Node != "" {
			b.WriteString("\n")
			b.WriteString(v.theme.Progress.Render(progressLine(v.spinner, progress)))
		}
	}

	for _, tool := range g.Tools {
		b.WriteString("\n")
		b.WriteString(v.theme.ToolBadge.Render(model.ToolLabel(tool)))
		if line := util.FirstLine(tool.Content); line != "" {
			b.WriteString(" ")
			b.WriteString(v.theme.Muted.Render(util.TruncateWidth(line, toolPreviewWidth)))
		}
	}
	return b.String()
}

// progressLine describes what the server is doing for the in-flight send.
func progressLine(spinner string, p model.Progress) string {
	if p.Node == "" {
		return spinner + " Thinking..."
	}
	return fmt.Sprintf("%s Thinking... (%s)", spinner, model.HumanizeName(p.Node))
}
