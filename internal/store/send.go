// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"context"
	"strings"

	"github.com/vishalm/LlamaBot/internal/backend"
	"github.com/vishalm/LlamaBot/internal/model"
	"github.com/vishalm/LlamaBot/internal/reconcile"
)

// =============================================================================
// SENDING
// =============================================================================

// SendMessage sends text to the active conversation and streams the reply
// into the transcript. It blocks until the stream ends.
//
// The user entry and an empty assistant placeholder are appended first.
// IsStreaming is true from then until this call returns, on every path.
// Only one send may be in flight; a second is rejected with ErrBusy.
//
// There is no abort action: ctx is canceled only when the process shuts
// down, and a stalled server keeps IsStreaming set until then.
func (s *Store) SendMessage(ctx context.Context, text string) {
	var (
		placeholderID string
		req           backend.ChatRequest
		rejected      error
	)

	s.update(func(st *State) bool {
		switch {
		case st.ActiveConversationID == "":
			rejected = ErrNoConversation
		case strings.TrimSpace(text) == "":
			rejected = ErrEmptyMessage
		case st.IsStreaming:
			rejected = ErrBusy
		}
		if rejected != nil {
			st.LastError = rejected.Error()
			return true
		}

		now := s.cfg.Now()
		userID := s.localID(now.UnixMilli(), st.Transcript)
		st.Transcript = append(st.Transcript, model.NewUserEntry(userID, text, now))
		placeholderID = s.localID(now.UnixMilli()+1, st.Transcript)
		st.Transcript = append(st.Transcript, model.NewAssistantPlaceholder(placeholderID, now))

		st.IsStreaming = true
		st.LastError = ""
		st.Progress = model.Progress{}
		req = backend.ChatRequest{
			Message:  text,
			ThreadID: st.ActiveConversationID,
			Agent:    st.SelectedAgent,
		}
		return true
	})
	if rejected != nil {
		s.log.V(1).Info("send rejected", "reason", rejected.Error())
		return
	}

	log := s.log.WithValues("thread_id", req.ThreadID)
	defer s.finishSend(req.ThreadID)

	stream, err := s.backend.SendMessage(ctx, req)
	if err != nil {
		s.fail(err, req.ThreadID)
		return
	}
	defer stream.Close()

	target := &sendTarget{store: s, threadID: req.ThreadID}
	rec := reconcile.New(placeholderID, target, log)
	if err := rec.Run(stream); err != nil {
		s.fail(err, req.ThreadID)
	}
	stats := rec.Stats()
	log.V(1).Info("send finished", "request_id", stream.RequestID(),
		"updates", stats.Updates, "finals", stats.Finals, "skipped", stream.Skipped())
}

// finishSend ends the streaming state and refreshes the conversation's
// directory entry from the local transcript.
func (s *Store) finishSend(threadID string) {
	now := s.cfg.Now()
	s.update(func(st *State) bool {
		st.IsStreaming = false
		st.Progress = model.Progress{}
		if st.ActiveConversationID != threadID {
			return true
		}

		sum := model.SummarizeEntries(threadID, st.Transcript, now)
		if i := st.summaryIndex(threadID); i >= 0 {
			st.Conversations[i] = sum
		} else {
			st.Conversations = append([]model.Summary{sum}, st.Conversations...)
		}
		return true
	})
}

// sendTarget applies one send's events. Content and errors only land while
// the send's conversation is still the active one.
type sendTarget struct {
	store    *Store
	threadID string
}

func (t *sendTarget) UpdateEntry(id string, mutate func(*model.Entry)) bool {
	found := false
	t.store.update(func(st *State) bool {
		if st.ActiveConversationID != t.threadID {
			return false
		}
		i := st.entryIndex(id)
		if i < 0 {
			return false
		}
		mutate(&st.Transcript[i])
		found = true
		return true
	})
	return found
}

func (t *sendTarget) SetError(msg string) {
	t.store.setThreadError(t.threadID, msg)
}

func (t *sendTarget) SetProgress(p model.Progress) {
	t.store.update(func(st *State) bool {
		if !st.IsStreaming || st.Progress == p {
			return false
		}
		st.Progress = p
		return true
	})
}
