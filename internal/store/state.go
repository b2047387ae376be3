// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"slices"

	"github.com/vishalm/LlamaBot/internal/model"
)

// State is a snapshot of the session. Snapshots handed out by the Store are
// deep copies; holders may keep and modify them freely.
type State struct {
	Conversations []model.Summary
	// ActiveConversationID is empty when no conversation is selected.
	ActiveConversationID string
	Transcript           []model.Entry

	IsLoading   bool
	IsStreaming bool
	// LastError is empty when there is nothing to show.
	LastError string

	AvailableAgents []string
	SelectedAgent   string

	// Progress of the in-flight send; zero when idle.
	Progress model.Progress
}

func (s State) clone() State {
	out := s
	out.Conversations = slices.Clone(s.Conversations)
	out.Transcript = slices.Clone(s.Transcript)
	out.AvailableAgents = slices.Clone(s.AvailableAgents)
	return out
}

// ActiveSummary returns the directory entry of the active conversation.
func (s State) ActiveSummary() (model.Summary, bool) {
	if i := s.summaryIndex(s.ActiveConversationID); i >= 0 {
		return s.Conversations[i], true
	}
	return model.Summary{}, false
}

// ActiveIndex returns the position of the active conversation in
// Conversations, or -1.
func (s State) ActiveIndex() int {
	return s.summaryIndex(s.ActiveConversationID)
}

// Groups returns the transcript grouped for display.
func (s State) Groups() []model.Group {
	return model.GroupToolCalls(s.Transcript)
}

// Busy reports whether an action is in flight.
func (s State) Busy() bool {
	return s.IsLoading || s.IsStreaming
}

func (s State) summaryIndex(id string) int {
	if id == "" {
		return -1
	}
	return slices.IndexFunc(s.Conversations, func(sum model.Summary) bool {
		return sum.ID == id
	})
}

func (s State) entryIndex(id string) int {
	return slices.IndexFunc(s.Transcript, func(e model.Entry) bool {
		return e.ID == id
	})
}
