// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"encoding/json"
	"strconv"
	"time"
)

// =============================================================================
// ENTRY TYPE
// =============================================================================

// ToolInfo correlates a tool_call entry with the invocation that produced it.
// Name may be empty when it could not be resolved.
type ToolInfo struct {
	Name   string
	CallID string
}

// Entry is one message in a conversation transcript.
//
// Backend entries have a zero Timestamp: the server does not report
// per-message times and a synthesized "now" would be misleading.
type Entry struct {
	ID        string
	Role      Role
	Content   string
	Timestamp time.Time

	// Set only by NewToolEntry, read only through Tool.
	tool *ToolInfo
}

// NewUserEntry creates a user entry stamped with now.
func NewUserEntry(id, content string, now time.Time) Entry {
	return Entry{ID: id, Role: RoleUser, Content: content, Timestamp: now}
}

// NewAssistantPlaceholder creates the empty assistant entry a stream fills in.
func NewAssistantPlaceholder(id string, now time.Time) Entry {
	return Entry{ID: id, Role: RoleAssistant, Timestamp: now}
}

// NewAssistantEntry creates a completed assistant entry.
func NewAssistantEntry(id, content string) Entry {
	return Entry{ID: id, Role: RoleAssistant, Content: content}
}

// NewSystemEntry creates a system entry.
func NewSystemEntry(id, content string) Entry {
	return Entry{ID: id, Role: RoleSystem, Content: content}
}

// NewToolEntry creates a tool_call entry carrying tool correlation data.
func NewToolEntry(id, content string, info ToolInfo) Entry {
	return Entry{ID: id, Role: RoleToolCall, Content: content, tool: &info}
}

// Tool returns the tool payload. ok is false for every role except
// RoleToolCall.
func (e Entry) Tool() (ToolInfo, bool) {
	if e.Role != RoleToolCall || e.tool == nil {
		return ToolInfo{}, false
	}
	return *e.tool, true
}

// HasTimestamp reports whether the entry was created client-side.
func (e Entry) HasTimestamp() bool {
	return !e.Timestamp.IsZero()
}

type entryJSON struct {
	ID         string    `json:"id"`
	Role       Role      `json:"role"`
	Content    string    `json:"content"`
	Timestamp  time.Time `json:"timestamp,omitzero"`
	ToolName   string    `json:"tool_name,omitempty"`
	ToolCallID string    `json:"tool_call_id,omitempty"`
}

// MarshalJSON encodes the entry with the tool payload flattened.
func (e Entry) MarshalJSON() ([]byte, error) {
	out := entryJSON{ID: e.ID, Role: e.Role, Content: e.Content, Timestamp: e.Timestamp}
	if info, ok := e.Tool(); ok {
		out.ToolName = info.Name
		out.ToolCallID = info.CallID
	}
	return json.Marshal(out)
}

// LocalID formats a client-side entry id from a wall-clock time.
func LocalID(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}
