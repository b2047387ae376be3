// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package reconcile

import (
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vishalm/LlamaBot/internal/backend"
	"github.com/vishalm/LlamaBot/internal/model"
)

// transcript is a Target over a plain slice. Every update copies the slice
// so a cached index or pointer would go stale.
type transcript struct {
	entries  []model.Entry
	lastErr  string
	progress []model.Progress
}

func (tr *transcript) UpdateEntry(id string, mutate func(*model.Entry)) bool {
	next := make([]model.Entry, len(tr.entries))
	copy(next, tr.entries)
	for i := range next {
		if next[i].ID == id {
			mutate(&next[i])
			tr.entries = next
			return true
		}
	}
	return false
}

func (tr *transcript) SetError(msg string)          { tr.lastErr = msg }
func (tr *transcript) SetProgress(p model.Progress) { tr.progress = append(tr.progress, p) }

func (tr *transcript) content(t *testing.T, id string) string {
	t.Helper()
	for _, e := range tr.entries {
		if e.ID == id {
			return e.Content
		}
	}
	t.Fatalf("entry %s not found", id)
	return ""
}

func newTranscript() *transcript {
	now := time.Now()
	return &transcript{entries: []model.Entry{
		model.NewUserEntry("100", "hi", now),
		model.NewAssistantPlaceholder("101", now),
	}}
}

// events is an EventSource over a fixed slice, optionally failing at the end.
type events struct {
	list []model.StreamEvent
	err  error
}

func (s *events) Next() (model.StreamEvent, error) {
	if len(s.list) == 0 {
		if s.err != nil {
			return model.StreamEvent{}, s.err
		}
		return model.StreamEvent{}, io.EOF
	}
	ev := s.list[0]
	s.list = s.list[1:]
	return ev, nil
}

func update(v string) model.StreamEvent {
	return model.StreamEvent{Kind: model.EventUpdate, Value: v}
}

func final(contents ...string) model.StreamEvent {
	ev := model.StreamEvent{Kind: model.EventFinal, Messages: []model.Record{}}
	for _, c := range contents {
		ev.Messages = append(ev.Messages, model.Record{Type: model.SourceAI, Content: model.Content(c)})
	}
	return ev
}

// =============================================================================
// EVENT SEMANTICS
// =============================================================================

func TestUpdateAccumulation(t *testing.T) {
	tr := newTranscript()
	r := New("101", tr, logr.Discard())

	require.NoError(t, r.Run(&events{list: []model.StreamEvent{update("Hel"), update("lo"), update(" world")}}))
	assert.Equal(t, "Hello world", tr.content(t, "101"))
	assert.Equal(t, "hi", tr.content(t, "100"))
	assert.Equal(t, 3, r.Stats().Updates)
}

func TestUpdateOrderMatters(t *testing.T) {
	tr := newTranscript()
	r := New("101", tr, logr.Discard())

	require.NoError(t, r.Run(&events{list: []model.StreamEvent{update(" world"), update("lo"), update("Hel")}}))
	assert.Equal(t, " worldloHel", tr.content(t, "101"))
}

func TestFinalOverwrites(t *testing.T) {
	tr := newTranscript()
	r := New("101", tr, logr.Discard())

	require.NoError(t, r.Run(&events{list: []model.StreamEvent{
		update("part"), update("ial"), final("question", "complete answer"),
	}}))
	assert.Equal(t, "complete answer", tr.content(t, "101"))
}

func TestFinalWithoutMessagesKeepsContent(t *testing.T) {
	tr := newTranscript()
	r := New("101", tr, logr.Discard())

	require.NoError(t, r.Run(&events{list: []model.StreamEvent{
		update("partial"), final(), {Kind: model.EventFinal},
	}}))
	assert.Equal(t, "partial", tr.content(t, "101"))
	assert.Equal(t, 2, r.Stats().Finals)
}

func TestErrorKeepsContent(t *testing.T) {
	tr := newTranscript()
	r := New("101", tr, logr.Discard())

	require.NoError(t, r.Run(&events{list: []model.StreamEvent{
		update("so far"),
		{Kind: model.EventError, Error: "model crashed"},
		final(),
	}}))
	assert.Equal(t, "so far", tr.content(t, "101"))
	assert.Equal(t, "model crashed", tr.lastErr)
}

func TestErrorFallbackMessage(t *testing.T) {
	tr := newTranscript()
	New("101", tr, logr.Discard()).Apply(model.StreamEvent{Kind: model.EventError})
	assert.Equal(t, FallbackErrorMessage, tr.lastErr)
}

func TestStartIsProgressOnly(t *testing.T) {
	tr := newTranscript()
	before := append([]model.Entry(nil), tr.entries...)
	r := New("101", tr, logr.Discard())

	r.Apply(model.StreamEvent{Kind: model.EventStart, RequestID: "req_1"})
	assert.Equal(t, before, tr.entries)
	require.Len(t, tr.progress, 1)
	assert.Equal(t, "req_1", tr.progress[0].RequestID)

	r.Apply(model.StreamEvent{Kind: model.EventUpdate, Node: "design_and_plan", Value: "x"})
	r.Apply(model.StreamEvent{Kind: model.EventUpdate, Node: "design_and_plan", Value: "y"})
	require.Len(t, tr.progress, 2, "node change reported once")
	assert.Equal(t, model.Progress{RequestID: "req_1", Node: "design_and_plan"}, r.Progress())
}

func TestUnknownKindIgnored(t *testing.T) {
	tr := newTranscript()
	r := New("101", tr, logr.Discard())

	r.Apply(model.StreamEvent{Kind: "heartbeat", Value: "zzz"})
	assert.Empty(t, tr.content(t, "101"))
	assert.Empty(t, tr.lastErr)
	assert.Equal(t, 1, r.Stats().Ignored)
}

// =============================================================================
// IDENTITY
// =============================================================================

func TestLooksUpPlaceholderEveryEvent(t *testing.T) {
	tr := newTranscript()
	r := New("101", tr, logr.Discard())

	r.Apply(update("a"))
	// The store may reshape its transcript between events.
	tr.entries = append([]model.Entry{model.NewSystemEntry("s0", "notice")}, tr.entries...)
	r.Apply(update("b"))
	tr.entries = []model.Entry{tr.entries[2], tr.entries[0], tr.entries[1]}
	r.Apply(update("c"))

	assert.Equal(t, "abc", tr.content(t, "101"))
	assert.Equal(t, "hi", tr.content(t, "100"))
	assert.Equal(t, "notice", tr.content(t, "s0"))
}

func TestMissingPlaceholder(t *testing.T) {
	tr := newTranscript()
	r := New("404", tr, logr.Discard())

	require.NoError(t, r.Run(&events{list: []model.StreamEvent{update("x"), final("y")}}))
	assert.Equal(t, "", tr.content(t, "101"))
	assert.Equal(t, 2, r.Stats().Orphaned)
}

func TestRunReturnsSourceError(t *testing.T) {
	tr := newTranscript()
	r := New("101", tr, logr.Discard())
	boom := errors.New("connection reset")

	err := r.Run(&events{list: []model.StreamEvent{update("kept")}, err: boom})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "kept", tr.content(t, "101"))
}

// =============================================================================
// WIRE TO TRANSCRIPT
// =============================================================================

func TestMalformedLineTolerance(t *testing.T) {
	body := "{\"type\":\"update\",\"value\":\"one \"}\n" +
		"{\"type\":\"update\",\"value\":\n" +
		"{\"type\":\"update\",\"value\":\"two\"}\n"
	stream := backend.NewEventStream(io.NopCloser(strings.NewReader(body)), "rid", logr.Discard())

	tr := newTranscript()
	require.NoError(t, New("101", tr, logr.Discard()).Run(stream))

	assert.Equal(t, "one two", tr.content(t, "101"))
	assert.Empty(t, tr.lastErr)
	assert.Equal(t, 1, stream.Skipped())
}
