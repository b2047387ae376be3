// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"bytes"
	"encoding/json"
	"strings"
)

// =============================================================================
// BACKEND RECORDS
// =============================================================================

// Record is one backend message in LangChain's serialized form.
type Record struct {
	Type             string         `json:"type"`
	Content          Content        `json:"content"`
	ID               string         `json:"id,omitempty"`
	Name             string         `json:"name,omitempty"`
	ToolCallID       string         `json:"tool_call_id,omitempty"`
	FunctionCallID   string         `json:"function_call_id,omitempty"`
	AdditionalKwargs map[string]any `json:"additional_kwargs,omitempty"`
	ResponseMetadata map[string]any `json:"response_metadata,omitempty"`
	Example          bool           `json:"example,omitempty"`
}

// Conversation is a thread id with its backend messages.
type Conversation struct {
	ThreadID string   `json:"thread_id"`
	Messages []Record `json:"messages"`
}

// Content is message text. On the wire it is either a string or a list of
// content parts; parts contribute their "text" field (or themselves, when a
// part is a bare string) and are concatenated.
type Content string

// UnmarshalJSON accepts a string, null, or a list of content parts.
func (c *Content) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*c = ""
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = Content(s)
		return nil
	}

	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return err
	}

	var b strings.Builder
	for _, raw := range parts {
		var s string
		if json.Unmarshal(raw, &s) == nil {
			b.WriteString(s)
			continue
		}
		var part struct {
			Text string `json:"text"`
		}
		if json.Unmarshal(raw, &part) == nil {
			b.WriteString(part.Text)
		}
	}
	*c = Content(b.String())
	return nil
}

// String returns the text.
func (c Content) String() string {
	return string(c)
}
