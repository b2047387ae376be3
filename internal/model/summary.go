// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/vishalm/LlamaBot/internal/util"
)

const (
	// TitleMaxRunes is how much of the first user message a title keeps.
	TitleMaxRunes = 50
	// PreviewMaxRunes is how much of the last message a preview keeps.
	PreviewMaxRunes = 100

	DefaultTitle     = "New Conversation"
	DefaultPreview   = "No messages yet..."
	NewThreadPreview = "Start a new conversation..."
)

// Summary is a conversation directory entry. It is derived from the
// backend's messages and regenerated on every list fetch.
type Summary struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Preview      string    `json:"preview"`
	LastMessage  string    `json:"last_message,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
	MessageCount int       `json:"message_count"`
}

// Summarize derives a Summary from a backend conversation. The backend has
// no per-thread times, so Timestamp is the time of the fetch.
func Summarize(conv Conversation, now time.Time) Summary {
	sum := Summary{
		ID:           conv.ThreadID,
		Title:        DefaultTitle,
		Preview:      DefaultPreview,
		Timestamp:    now,
		MessageCount: len(conv.Messages),
	}

	for _, rec := range conv.Messages {
		if rec.Type == SourceHuman {
			if text := rec.Content.String(); text != "" {
				sum.Title = util.Abbreviate(text, TitleMaxRunes)
			}
			break
		}
	}

	if n := len(conv.Messages); n > 0 {
		last := conv.Messages[n-1].Content.String()
		sum.LastMessage = last
		if last != "" {
			sum.Preview = util.Abbreviate(last, PreviewMaxRunes)
		}
	}
	return sum
}

// SummarizeEntries derives a Summary from a local transcript, used to
// refresh the active conversation after a send without refetching.
func SummarizeEntries(id string, entries []Entry, now time.Time) Summary {
	sum := Summary{
		ID:           id,
		Title:        DefaultTitle,
		Preview:      DefaultPreview,
		Timestamp:    now,
		MessageCount: len(entries),
	}

	for _, e := range entries {
		if e.Role == RoleUser {
			if e.Content != "" {
				sum.Title = util.Abbreviate(e.Content, TitleMaxRunes)
			}
			break
		}
	}

	if n := len(entries); n > 0 {
		sum.LastMessage = entries[n-1].Content
		if sum.LastMessage != "" {
			sum.Preview = util.Abbreviate(sum.LastMessage, PreviewMaxRunes)
		}
	}
	return sum
}

// NewSummary is the directory entry for a conversation created locally and
// not yet known to the backend.
func NewSummary(id string, now time.Time) Summary {
	return Summary{
		ID:        id,
		Title:     DefaultTitle,
		Preview:   NewThreadPreview,
		Timestamp: now,
	}
}
