// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store owns the chat session state.
//
// All mutation goes through Store actions. Each action or stream event is
// applied in one critical section, and subscribers are then handed a deep
// copy of the resulting State, in mutation order. Errors of every kind end
// here as State.LastError; actions do not return them.
package store

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/go-logr/logr"

	"github.com/vishalm/LlamaBot/internal/backend"
	"github.com/vishalm/LlamaBot/internal/model"
)

// Backend is the agent server as the store uses it. *backend.Client
// implements it.
type Backend interface {
	ListThreads(ctx context.Context) ([]model.Conversation, error)
	GetHistory(ctx context.Context, threadID string) (model.Conversation, error)
	ListAgents(ctx context.Context) ([]string, error)
	SendMessage(ctx context.Context, req backend.ChatRequest) (*backend.EventStream, error)
}

// Config holds configuration for the store.
type Config struct {
	// AutoSelectFirst selects the first conversation after a load when
	// none is active (default: true)
	AutoSelectFirst bool

	// DefaultAgent is preselected when the server offers it.
	DefaultAgent string

	Logger logr.Logger

	// Now and Rand are for tests.
	Now  func() time.Time
	Rand *rand.Rand
}

// DefaultConfig returns the default store configuration.
func DefaultConfig() Config {
	return Config{
		AutoSelectFirst: true,
		Logger:          logr.Discard(),
		Now:             time.Now,
	}
}

// Store is the single owner of session state. It is safe for concurrent
// use.
type Store struct {
	backend Backend
	cfg     Config
	log     logr.Logger

	// notifyMu orders mutation+notification pairs so subscribers see
	// snapshots in mutation order. mu guards everything below.
	notifyMu sync.Mutex
	mu       sync.Mutex
	state    State

	subs    map[int]func(State)
	nextSub int

	// selectSeq identifies the latest selection; older responses are
	// discarded.
	selectSeq uint64
	lastLocal int64
}

// New creates a store over b.
func New(b Backend, cfg Config) *Store {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger.GetSink() == nil {
		cfg.Logger = logr.Discard()
	}
	return &Store{
		backend: b,
		cfg:     cfg,
		log:     cfg.Logger.WithName("store"),
		state:   State{SelectedAgent: cfg.DefaultAgent},
		subs:    make(map[int]func(State)),
	}
}

// =============================================================================
// READING
// =============================================================================

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Subscribe registers fn to receive a snapshot after every change. fn runs
// on the goroutine that made the change and must not call Store actions
// synchronously; Snapshot is fine. The returned func unsubscribes.
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// update applies fn under the lock and, if it reports a change, notifies
// subscribers with the resulting state.
func (s *Store) update(fn func(st *State) bool) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	if !fn(&s.state) {
		s.mu.Unlock()
		return
	}
	snap := s.state.clone()
	subs := make([]func(State), 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	for _, sub := range subs {
		sub(snap)
	}
}

// =============================================================================
// ERRORS
// =============================================================================

// SetError sets the error banner text. An empty msg clears it.
func (s *Store) SetError(msg string) {
	s.update(func(st *State) bool {
		if st.LastError == msg {
			return false
		}
		st.LastError = msg
		return true
	})
}

// ClearError dismisses the error banner.
func (s *Store) ClearError() {
	s.SetError("")
}

// fail surfaces a send failure in the banner.
func (s *Store) fail(err error, threadID string) {
	s.log.Info("send failed", "thread_id", threadID, "error", err.Error())
	s.setThreadError(threadID, err.Error())
}

// setThreadError shows msg only while threadID is the active conversation.
// Errors from a send the user switched away from are logged and dropped.
func (s *Store) setThreadError(threadID, msg string) {
	s.update(func(st *State) bool {
		if st.ActiveConversationID != threadID {
			s.log.V(1).Info("dropping error for inactive conversation", "thread_id", threadID, "error", msg)
			return false
		}
		if st.LastError == msg {
			return false
		}
		st.LastError = msg
		return true
	})
}

// localID returns a client-side entry id for time ms, bumped past any id
// already used so ids stay unique in the transcript. Called with mu held.
func (s *Store) localID(ms int64, transcript []model.Entry) string {
	id := max(ms, s.lastLocal+1)
	for {
		candidate := model.LocalID(time.UnixMilli(id))
		taken := false
		for _, e := range transcript {
			if e.ID == candidate {
				taken = true
				break
			}
		}
		if !taken {
			s.lastLocal = id
			return candidate
		}
		id++
	}
}
