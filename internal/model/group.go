// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// Group is a display unit: an anchor entry and the tool activity it caused.
// Only assistant anchors carry tools.
type Group struct {
	Anchor Entry
	Tools  []Entry
}

// GroupToolCalls attaches each run of tool_call entries to the assistant
// entry directly before it. Tool entries with no such anchor are left out of
// the result; the transcript itself is not modified.
func GroupToolCalls(entries []Entry) []Group {
	groups := make([]Group, 0, len(entries))
	anchored := false

	for _, e := range entries {
		if e.Role == RoleToolCall {
			if anchored {
				last := &groups[len(groups)-1]
				last.Tools = append(last.Tools, e)
			}
			continue
		}
		groups = append(groups, Group{Anchor: e})
		anchored = e.Role == RoleAssistant
	}
	return groups
}
