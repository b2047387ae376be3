// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// EventKind is the type tag of a stream event.
type EventKind string

const (
	EventStart  EventKind = "start"
	EventUpdate EventKind = "update"
	EventFinal  EventKind = "final"
	EventError  EventKind = "error"
)

// StreamEvent is one line of a /chat-message response.
type StreamEvent struct {
	Kind      EventKind `json:"type"`
	RequestID string    `json:"request_id,omitempty"`
	Node      string    `json:"node,omitempty"`
	Value     string    `json:"value,omitempty"`
	Error     string    `json:"error,omitempty"`
	Messages  []Record  `json:"messages,omitempty"`
	Model     string    `json:"model,omitempty"`
}

// LastMessage returns the final element of Messages.
func (ev StreamEvent) LastMessage() (Record, bool) {
	if len(ev.Messages) == 0 {
		return Record{}, false
	}
	return ev.Messages[len(ev.Messages)-1], true
}

// Progress describes the in-flight send: which request and which graph node
// the backend is currently running.
type Progress struct {
	RequestID string `json:"request_id,omitempty"`
	Node      string `json:"node,omitempty"`
}

// Active reports whether any progress has been reported.
func (p Progress) Active() bool {
	return p.RequestID != "" || p.Node != ""
}
