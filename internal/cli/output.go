// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/vishalm/LlamaBot/internal/model"
	"github.com/vishalm/LlamaBot/internal/util"
)

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode JSON")
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// printSummaries lists conversations, marking activeID.
func printSummaries(w io.Writer, sums []model.Summary, activeID string, width int) {
	if len(sums) == 0 {
		fmt.Fprintln(w, DimStyle.Render("No conversations yet."))
		return
	}
	titleWidth := max(width-4, 20)
	for _, sum := range sums {
		marker := "  "
		title := util.TruncateWidth(sum.Title, titleWidth)
		if sum.ID == activeID {
			marker = ActiveStyle.Render("* ")
			title = ActiveStyle.Render(title)
		}
		fmt.Fprintf(w, "%s%s\n", marker, title)
		fmt.Fprintf(w, "  %s  %s\n", DimStyle.Render(sum.ID), DimStyle.Render(fmt.Sprintf("%d messages", sum.MessageCount)))
		if preview := util.FirstLine(sum.Preview); preview != "" {
			fmt.Fprintf(w, "  %s\n", util.TruncateWidth(preview, titleWidth))
		}
	}
}

// printTranscript prints entries grouped with their tool activity.
func printTranscript(w io.Writer, entries []model.Entry, opts printOptions) {
	groups := model.GroupToolCalls(entries)
	if len(groups) == 0 {
		fmt.Fprintln(w, DimStyle.Render("No messages."))
		return
	}
	for i, g := range groups {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, roleHeading(g.Anchor.Role))

		content := g.Anchor.Content
		if g.Anchor.Role == model.RoleAssistant {
			content = renderMarkdown(content, opts.markdown, opts.width)
		}
		fmt.Fprintln(w, content)

		for _, tool := range g.Tools {
			line := util.TruncateWidth(util.FirstLine(tool.Content), max(opts.width-20, 20))
			fmt.Fprintf(w, "  %s %s\n", ToolStyle.Render("["+model.ToolLabel(tool)+"]"), DimStyle.Render(line))
		}
	}
}

func roleHeading(role model.Role) string {
	name := strings.ToUpper(role.DisplayName())
	switch role {
	case model.RoleUser:
		return ActiveStyle.Render(name)
	case model.RoleAssistant:
		return PromptStyle.Render(name)
	default:
		return WarningStyle.Render(name)
	}
}
