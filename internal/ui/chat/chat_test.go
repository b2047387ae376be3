// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vishalm/LlamaBot/internal/backend"
	"github.com/vishalm/LlamaBot/internal/config"
	"github.com/vishalm/LlamaBot/internal/model"
	"github.com/vishalm/LlamaBot/internal/store"
)

// =============================================================================
// FIXTURES
// =============================================================================

type stubBackend struct {
	threads []model.Conversation
	agents  []string
	stream  string

	mu       sync.Mutex
	requests []backend.ChatRequest
}

func (b *stubBackend) ListThreads(context.Context) ([]model.Conversation, error) {
	return b.threads, nil
}

func (b *stubBackend) GetHistory(_ context.Context, id string) (model.Conversation, error) {
	for _, c := range b.threads {
		if c.ThreadID == id {
			return c, nil
		}
	}
	return model.Conversation{ThreadID: id}, nil
}

func (b *stubBackend) ListAgents(context.Context) ([]string, error) {
	return b.agents, nil
}

func (b *stubBackend) SendMessage(_ context.Context, req backend.ChatRequest) (*backend.EventStream, error) {
	b.mu.Lock()
	b.requests = append(b.requests, req)
	b.mu.Unlock()
	return backend.NewEventStream(io.NopCloser(strings.NewReader(b.stream)), "rid", logr.Discard()), nil
}

func conversation(id string, texts ...string) model.Conversation {
	c := model.Conversation{ThreadID: id}
	for i, text := range texts {
		typ := model.SourceHuman
		if i%2 == 1 {
			typ = model.SourceAI
		}
		c.Messages = append(c.Messages, model.Record{Type: typ, ID: id + string(rune('a'+i)), Content: model.Content(text)})
	}
	return c
}

func newTestModel(t *testing.T, b *stubBackend) (*Model, *store.Store) {
	t.Helper()
	st := store.New(b, store.DefaultConfig())
	m := New(context.Background(), Options{
		Store: st,
		UI:    config.UIConfig{Theme: "dark", WordWrap: 60},
	})
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return m, st
}

// runCmd executes cmd and any batch it returns, ignoring ticks.
func runCmd(t *testing.T, cmd tea.Cmd) {
	t.Helper()
	if cmd == nil {
		return
	}
	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()
	select {
	case msg := <-done:
		if batch, ok := msg.(tea.BatchMsg); ok {
			for _, c := range batch {
				runCmd(t, c)
			}
		}
	case <-time.After(time.Second):
		// Blink and spinner ticks sleep; they are not actions.
	}
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "ctrl+n":
		return tea.KeyMsg{Type: tea.KeyCtrlN}
	case "ctrl+a":
		return tea.KeyMsg{Type: tea.KeyCtrlA}
	case "ctrl+o":
		return tea.KeyMsg{Type: tea.KeyCtrlO}
	case "ctrl+p":
		return tea.KeyMsg{Type: tea.KeyCtrlP}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// syncState pulls the store's current snapshot into the model, as the bridge
// would.
func syncState(m *Model, st *store.Store) {
	m.Update(stateMsg(st.Snapshot()))
}

// =============================================================================
// MODEL TESTS
// =============================================================================

func TestModel_RendersConversationsAndTranscript(t *testing.T) {
	b := &stubBackend{
		threads: []model.Conversation{
			conversation("t1", "What is Go?", "A **language**."),
			conversation("t2", "Second thread"),
		},
		agents: []string{"research", "coder"},
	}
	m, st := newTestModel(t, b)

	runCmd(t, m.Init())
	syncState(m, st)

	view := m.View()
	assert.Contains(t, view, "Conversations (2)")
	assert.Contains(t, view, "What is Go?")
	assert.Contains(t, view, "Second thread")
	assert.Contains(t, view, "language")
	assert.Contains(t, view, "agent: research")
}

func TestModel_SendClearsInputAndStreamsReply(t *testing.T) {
	b := &stubBackend{
		stream: `{"type":"start","request_id":"r1"}
{"type":"update","value":"Hel"}
{"type":"update","value":"lo"}
{"type":"final"}
`,
	}
	m, st := newTestModel(t, b)
	runCmd(t, m.do(func(context.Context) { st.CreateNewConversation() }))
	syncState(m, st)

	m.input.SetValue("hi there")
	_, cmd := m.Update(keyMsg("enter"))
	assert.Empty(t, m.input.Value())
	runCmd(t, cmd)
	syncState(m, st)

	require.Len(t, b.requests, 1)
	assert.Equal(t, "hi there", b.requests[0].Message)

	snap := st.Snapshot()
	require.Len(t, snap.Transcript, 2)
	assert.Equal(t, "Hello", snap.Transcript[1].Content)
	assert.False(t, snap.IsStreaming)
	assert.Contains(t, m.View(), "Hello")
}

func TestModel_EnterIgnoredWhileStreaming(t *testing.T) {
	m, _ := newTestModel(t, &stubBackend{})
	m.applyState(store.State{ActiveConversationID: "t1", IsStreaming: true})

	m.input.SetValue("queued")
	_, cmd := m.Update(keyMsg("enter"))
	assert.Nil(t, cmd)
	assert.Equal(t, "queued", m.input.Value())
	assert.False(t, m.input.Focused())
}

func TestModel_BlankInputNotSent(t *testing.T) {
	b := &stubBackend{}
	m, st := newTestModel(t, b)
	runCmd(t, m.do(func(context.Context) { st.CreateNewConversation() }))
	syncState(m, st)

	m.input.SetValue("   ")
	_, cmd := m.Update(keyMsg("enter"))
	assert.Nil(t, cmd)
	assert.Empty(t, b.requests)
}

func TestModel_NewConversationKey(t *testing.T) {
	m, st := newTestModel(t, &stubBackend{})

	_, cmd := m.Update(keyMsg("ctrl+n"))
	runCmd(t, cmd)
	syncState(m, st)

	snap := st.Snapshot()
	require.NotEmpty(t, snap.ActiveConversationID)
	assert.Contains(t, m.View(), model.DefaultTitle)
}

func TestModel_SwitchConversationKeys(t *testing.T) {
	b := &stubBackend{threads: []model.Conversation{
		conversation("t1", "first"),
		conversation("t2", "second"),
	}}
	m, st := newTestModel(t, b)
	runCmd(t, m.do(func(ctx context.Context) { st.LoadConversations(ctx) }))
	syncState(m, st)
	require.Equal(t, "t1", st.Snapshot().ActiveConversationID)

	_, cmd := m.Update(keyMsg("ctrl+o"))
	runCmd(t, cmd)
	syncState(m, st)
	assert.Equal(t, "t2", st.Snapshot().ActiveConversationID)

	// Past the end is a no-op.
	_, cmd = m.Update(keyMsg("ctrl+o"))
	assert.Nil(t, cmd)

	_, cmd = m.Update(keyMsg("ctrl+p"))
	runCmd(t, cmd)
	assert.Equal(t, "t1", st.Snapshot().ActiveConversationID)
}

func TestModel_SwitchRefusedWhileStreaming(t *testing.T) {
	m, _ := newTestModel(t, &stubBackend{})
	m.applyState(store.State{
		Conversations: []model.Summary{
			model.NewSummary("t1", time.Time{}),
			model.NewSummary("t2", time.Time{}),
		},
		ActiveConversationID: "t1",
		IsStreaming:          true,
	})

	_, cmd := m.Update(keyMsg("ctrl+o"))
	assert.Nil(t, cmd)
	_, cmd = m.Update(keyMsg("ctrl+p"))
	assert.Nil(t, cmd)
}

func TestModel_ErrorBannerDismiss(t *testing.T) {
	m, st := newTestModel(t, &stubBackend{})
	st.SetError("backend unreachable")
	syncState(m, st)
	assert.Contains(t, m.View(), "backend unreachable")

	_, cmd := m.Update(keyMsg("esc"))
	runCmd(t, cmd)
	syncState(m, st)
	assert.Empty(t, st.Snapshot().LastError)
	assert.NotContains(t, m.View(), "backend unreachable")
}

func TestModel_CycleAgentKey(t *testing.T) {
	m, st := newTestModel(t, &stubBackend{agents: []string{"a", "b"}})
	runCmd(t, m.do(func(ctx context.Context) { st.LoadAgents(ctx) }))

	_, cmd := m.Update(keyMsg("ctrl+a"))
	runCmd(t, cmd)
	assert.Equal(t, "b", st.Snapshot().SelectedAgent)
}

func TestModel_TypingGoesToInput(t *testing.T) {
	m, _ := newTestModel(t, &stubBackend{})
	m.Update(keyMsg("j"))
	m.Update(keyMsg("k"))
	assert.Equal(t, "jk", m.input.Value())
}

func TestModel_ApplyUI(t *testing.T) {
	m, _ := newTestModel(t, &stubBackend{})
	m.Update(uiConfigMsg(config.UIConfig{Theme: "light", Markdown: false, ShowTimestamps: true}))

	assert.False(t, m.theme.IsDark)
	assert.True(t, m.ui.ShowTimestamps)
	assert.Nil(t, m.renderer.term)
}

// =============================================================================
// RENDERING TESTS
// =============================================================================

func TestProgressLine(t *testing.T) {
	assert.Equal(t, ". Thinking...", progressLine(".", model.Progress{}))
	assert.Contains(t, progressLine(".", model.Progress{Node: "web_search"}), "Web Search")
}

func TestTranscript_ToolsUnderAssistant(t *testing.T) {
	m, _ := newTestModel(t, &stubBackend{})
	st := store.State{
		ActiveConversationID: "t1",
		Transcript: []model.Entry{
			model.NewUserEntry("1", "make a page", time.Time{}),
			model.NewAssistantEntry("2", "Working on it"),
			model.NewToolEntry("3", "<html>ok</html>", model.ToolInfo{Name: model.ToolWriteHTML}),
		},
	}
	m.applyState(st)

	out := m.viewport.View()
	assert.Contains(t, out, "Working on it")
	assert.Contains(t, out, model.HumanizeName(model.ToolWriteHTML))
}

func TestTranscript_PlaceholderShowsThinking(t *testing.T) {
	m, _ := newTestModel(t, &stubBackend{})
	m.applyState(store.State{
		ActiveConversationID: "t1",
		IsStreaming:          true,
		Progress:             model.Progress{Node: "agent"},
		Transcript: []model.Entry{
			model.NewUserEntry("1", "hi", time.Time{}),
			model.NewAssistantPlaceholder("2", time.Time{}),
		},
	})
	assert.Contains(t, m.viewport.View(), "Thinking...")
}

func TestRenderer_RenderEntryReusesOutput(t *testing.T) {
	r := NewRenderer(false, "dark", 40)

	first := r.RenderEntry("a1", "partial")
	assert.Equal(t, first, r.RenderEntry("a1", "partial"))
	require.Len(t, r.cache, 1)

	assert.Contains(t, r.RenderEntry("a1", "partial answer"), "partial answer")
	assert.Equal(t, "partial answer", r.cache["a1"].content)

	r.SetWidth(60)
	assert.Empty(t, r.cache, "a width change invalidates cached output")

	assert.Contains(t, r.RenderEntry("", "no id"), "no id")
	assert.Empty(t, r.cache)
}

func TestVisibleWindow(t *testing.T) {
	tests := []struct {
		active, total, visible, want int
	}{
		{0, 3, 5, 0},
		{-1, 10, 4, 0},
		{0, 10, 4, 0},
		{5, 10, 4, 3},
		{9, 10, 4, 6},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, visibleWindow(tt.active, tt.total, tt.visible), "%+v", tt)
	}
}

// =============================================================================
// BRIDGE TESTS
// =============================================================================

type msgLog struct {
	mu   sync.Mutex
	msgs []store.State
}

func (l *msgLog) send(msg tea.Msg) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.msgs = append(l.msgs, store.State(msg.(stateMsg)))
}

func (l *msgLog) all() []store.State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]store.State(nil), l.msgs...)
}

func TestBridge_IdleSnapshotsPassThrough(t *testing.T) {
	log := &msgLog{}
	b := newBridge(log.send, time.Hour)

	b.deliver(store.State{IsLoading: true})
	b.deliver(store.State{LastError: "x"})

	assert.Len(t, log.all(), 2)
}

func TestBridge_StreamingThrottledWithTrailingFlush(t *testing.T) {
	log := &msgLog{}
	b := newBridge(log.send, 30*time.Millisecond)
	defer b.stop()

	for i := 0; i < 20; i++ {
		b.deliver(store.State{IsStreaming: true, LastError: string(rune('a' + i))})
	}
	assert.Less(t, len(log.all()), 20)

	require.Eventually(t, func() bool {
		msgs := log.all()
		return len(msgs) > 0 && msgs[len(msgs)-1].LastError == "t"
	}, time.Second, 5*time.Millisecond)
}

func TestBridge_FinalSnapshotAlwaysDelivered(t *testing.T) {
	log := &msgLog{}
	b := newBridge(log.send, time.Hour)
	defer b.stop()

	b.deliver(store.State{IsStreaming: true})
	b.deliver(store.State{IsStreaming: true, LastError: "dropped"})
	b.deliver(store.State{IsStreaming: false})

	msgs := log.all()
	require.NotEmpty(t, msgs)
	assert.False(t, msgs[len(msgs)-1].IsStreaming)
}
