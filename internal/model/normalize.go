// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Tool names the backend agents are known to emit without a name field.
const (
	ToolWriteHTML  = "write_html"
	ToolScreenshot = "get_screenshot_and_html_content_using_playwright"
)

// GenericToolLabel is shown for tool entries whose name is unresolved.
const GenericToolLabel = "Tool"

// Normalize maps a backend record to a transcript entry. Tool and function
// records keep their explicit name, falling back to InferToolName.
func Normalize(rec Record) Entry {
	role := RoleForSource(rec.Type)
	content := rec.Content.String()

	if role != RoleToolCall {
		return Entry{ID: rec.ID, Role: role, Content: content}
	}

	name := rec.Name
	if name == "" {
		name = InferToolName(content)
	}
	callID := rec.ToolCallID
	if callID == "" {
		callID = rec.FunctionCallID
	}
	return NewToolEntry(rec.ID, content, ToolInfo{Name: name, CallID: callID})
}

// NormalizeAll maps records in order.
func NormalizeAll(records []Record) []Entry {
	entries := make([]Entry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, Normalize(rec))
	}
	return entries
}

// InferToolName guesses which tool produced content from phrases its
// output is known to contain. It returns "" when nothing matches; callers
// must treat that as an unnamed tool, not an error.
func InferToolName(content string) string {
	lower := strings.ToLower(content)
	switch {
	case strings.Contains(lower, "written to") && strings.Contains(lower, "html"):
		return ToolWriteHTML
	case strings.Contains(lower, "screenshot"), strings.Contains(lower, "clone"):
		return ToolScreenshot
	default:
		return ""
	}
}

// ToolLabel returns the display label for a tool entry: "write_html"
// becomes "Write Html". Unresolved names and non-tool entries get
// GenericToolLabel.
func ToolLabel(e Entry) string {
	info, ok := e.Tool()
	if !ok || info.Name == "" {
		return GenericToolLabel
	}
	return HumanizeName(info.Name)
}

// HumanizeName turns a snake_case or kebab-case identifier into title case.
func HumanizeName(name string) string {
	spaced := strings.NewReplacer("_", " ", "-", " ").Replace(name)
	return cases.Title(language.English).String(strings.Join(strings.Fields(spaced), " "))
}
