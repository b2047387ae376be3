// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"context"
	"slices"

	"github.com/pkg/errors"

	"github.com/vishalm/LlamaBot/internal/model"
)

// =============================================================================
// CONVERSATIONS
// =============================================================================

// LoadConversations fetches the conversation directory and replaces the
// list. A conversation created locally and still active is kept at the
// head even though the server does not know it yet. On failure the old list
// stays.
func (s *Store) LoadConversations(ctx context.Context) {
	s.update(func(st *State) bool {
		st.IsLoading = true
		st.LastError = ""
		return true
	})

	convs, err := s.backend.ListThreads(ctx)
	if err != nil {
		s.log.Info("loading conversations failed", "error", err.Error())
		s.update(func(st *State) bool {
			st.IsLoading = false
			st.LastError = errors.Wrap(err, "load conversations").Error()
			return true
		})
		return
	}

	now := s.cfg.Now()
	summaries := make([]model.Summary, 0, len(convs)+1)
	for _, conv := range convs {
		summaries = append(summaries, model.Summarize(conv, now))
	}

	var autoSelect string
	s.update(func(st *State) bool {
		if active, ok := st.ActiveSummary(); ok && !containsSummary(summaries, active.ID) {
			summaries = slices.Insert(summaries, 0, active)
		}
		st.Conversations = summaries
		st.IsLoading = false
		if s.cfg.AutoSelectFirst && st.ActiveConversationID == "" && len(summaries) > 0 {
			autoSelect = summaries[0].ID
		}
		return true
	})
	s.log.V(1).Info("conversations loaded", "count", len(summaries))

	if autoSelect != "" {
		s.SelectConversation(ctx, autoSelect)
	}
}

// SelectConversation loads the history of id and makes it active. The id and
// transcript change together. On failure the transcript is emptied and no
// conversation is active. If another selection starts before this one
// returns, this one's result is dropped.
func (s *Store) SelectConversation(ctx context.Context, id string) {
	var seq uint64
	s.update(func(st *State) bool {
		s.selectSeq++
		seq = s.selectSeq
		st.IsLoading = true
		st.LastError = ""
		return true
	})

	conv, err := s.backend.GetHistory(ctx, id)

	s.update(func(st *State) bool {
		if seq != s.selectSeq {
			s.log.V(1).Info("dropping superseded selection", "thread_id", id)
			return false
		}
		st.IsLoading = false
		if err != nil {
			s.log.Info("loading conversation failed", "thread_id", id, "error", err.Error())
			st.LastError = errors.Wrap(err, "load conversation").Error()
			st.ActiveConversationID = ""
			st.Transcript = []model.Entry{}
			return true
		}
		st.ActiveConversationID = id
		st.Transcript = model.NormalizeAll(conv.Messages)
		return true
	})
}

// CreateNewConversation starts a conversation locally and makes it active.
// The server creates it on the first message.
func (s *Store) CreateNewConversation() string {
	now := s.cfg.Now()
	id := model.NewThreadID(now, s.cfg.Rand)

	s.update(func(st *State) bool {
		// Supersede any selection still in flight.
		s.selectSeq++
		st.IsLoading = false
		st.ActiveConversationID = id
		st.Transcript = []model.Entry{}
		st.Conversations = slices.Insert(st.Conversations, 0, model.NewSummary(id, now))
		return true
	})
	s.log.V(1).Info("created conversation", "thread_id", id)
	return id
}

func containsSummary(list []model.Summary, id string) bool {
	return slices.ContainsFunc(list, func(sum model.Summary) bool {
		return sum.ID == id
	})
}

// =============================================================================
// AGENTS
// =============================================================================

// LoadAgents fetches the agents the server offers. Failure is logged and
// otherwise ignored. When no agent is selected, the configured default is
// picked if offered, else the first one.
func (s *Store) LoadAgents(ctx context.Context) {
	agents, err := s.backend.ListAgents(ctx)
	if err != nil {
		s.log.Info("loading agents failed", "error", err.Error())
		return
	}

	s.update(func(st *State) bool {
		st.AvailableAgents = agents
		if st.SelectedAgent != "" && slices.Contains(agents, st.SelectedAgent) {
			return true
		}
		st.SelectedAgent = ""
		switch {
		case s.cfg.DefaultAgent != "" && slices.Contains(agents, s.cfg.DefaultAgent):
			st.SelectedAgent = s.cfg.DefaultAgent
		case len(agents) > 0:
			st.SelectedAgent = agents[0]
		}
		return true
	})
}

// SelectAgent sets the agent later sends are routed to. Once agents are
// loaded, only offered names are accepted.
func (s *Store) SelectAgent(name string) {
	s.update(func(st *State) bool {
		if len(st.AvailableAgents) > 0 && !slices.Contains(st.AvailableAgents, name) {
			st.LastError = errors.Errorf("%v: %s", ErrUnknownAgent, name).Error()
			return true
		}
		if st.SelectedAgent == name {
			return false
		}
		st.SelectedAgent = name
		return true
	})
}

// CycleAgent selects the next offered agent, wrapping around.
func (s *Store) CycleAgent() {
	s.update(func(st *State) bool {
		if len(st.AvailableAgents) == 0 {
			return false
		}
		i := slices.Index(st.AvailableAgents, st.SelectedAgent)
		st.SelectedAgent = st.AvailableAgents[(i+1)%len(st.AvailableAgents)]
		return true
	})
}
