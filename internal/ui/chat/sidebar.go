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

// rowHeight is the number of lines a conversation takes in the sidebar.
const rowHeight = 3

// renderSidebar lists conversations, scrolled so the active one is visible.
func renderSidebar(theme *styles.Theme, st store.State, height int) string {
	width := styles.SidebarWidth - 1
	header := theme.HeaderBrand.Render(fmt.Sprintf("Conversations (%d)", len(st.Conversations)))

	if len(st.Conversations) == 0 {
		body := theme.Muted.Render("None yet.\nctrl+n starts one.")
		if st.IsLoading {
			body = theme.Muted.Render("Loading...")
		}
		return theme.Sidebar.Height(height).Render(header + "\n\n" + body)
	}

	visible := max((height-2)/rowHeight, 1)
	first := visibleWindow(st.ActiveIndex(), len(st.Conversations), visible)
	last := min(first+visible, len(st.Conversations))

	rows := make([]string, 0, last-first)
	for i := first; i < last; i++ {
		rows = append(rows, renderRow(theme, st.Conversations[i], st.Conversations[i].ID == st.ActiveConversationID, width))
	}
	return theme.Sidebar.Height(height).Render(header + "\n\n" + strings.Join(rows, "\n"))
}

func renderRow(theme *styles.Theme, sum model.Summary, active bool, width int) string {
	title := util.PadRight(util.TruncateWidth(sum.Title, width-2), width-2)
	preview := util.TruncateWidth(util.FirstLine(sum.Preview), width-2)

	if active {
		title = theme.ThreadSelected.Render("* " + title)
	} else {
		title = theme.ThreadTitle.Render("  " + title)
	}
	return title + "\n" + theme.ThreadPreview.Render("  "+preview) + "\n"
}

// visibleWindow returns the first row to draw so that active stays in view.
func visibleWindow(active, total, visible int) int {
	if total <= visible || active < 0 {
		return 0
	}
	first := active - visible/2
	return max(0, min(first, total-visible))
}
