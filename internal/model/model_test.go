// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"encoding/json"
	"math/rand/v2"
	"regexp"
	"strings"
	"testing"
	"time"
)

// =============================================================================
// NORMALIZE TESTS
// =============================================================================

func TestNormalize_RoleMapping(t *testing.T) {
	tests := []struct {
		source string
		want   Role
	}{
		{SourceHuman, RoleUser},
		{SourceAI, RoleAssistant},
		{SourceSystem, RoleSystem},
		{SourceTool, RoleToolCall},
		{SourceFunction, RoleToolCall},
		{"AIMessageChunk", RoleAssistant},
	}

	for _, tc := range tests {
		t.Run(tc.source, func(t *testing.T) {
			e := Normalize(Record{Type: tc.source, ID: "m1", Content: "hi"})
			if e.Role != tc.want {
				t.Errorf("Normalize(%q).Role = %q, want %q", tc.source, e.Role, tc.want)
			}
			if e.ID != "m1" || e.Content != "hi" {
				t.Errorf("Normalize kept id=%q content=%q", e.ID, e.Content)
			}
			if e.HasTimestamp() {
				t.Error("backend entries must not carry a timestamp")
			}
		})
	}
}

func TestNormalize_ToolPayload(t *testing.T) {
	named := Normalize(Record{Type: SourceTool, Content: "ok", Name: "search", ToolCallID: "call_1"})
	info, ok := named.Tool()
	if !ok {
		t.Fatal("tool entry has no tool payload")
	}
	if info.Name != "search" || info.CallID != "call_1" {
		t.Errorf("Tool() = %+v, want search/call_1", info)
	}

	inferred := Normalize(Record{Type: SourceFunction, Content: "File written to index.HTML", FunctionCallID: "fn_9"})
	info, _ = inferred.Tool()
	if info.Name != ToolWriteHTML || info.CallID != "fn_9" {
		t.Errorf("Tool() = %+v, want %s/fn_9", info, ToolWriteHTML)
	}

	user := Normalize(Record{Type: SourceHuman, Content: "hello", Name: "search"})
	if _, ok := user.Tool(); ok {
		t.Error("user entry must not expose a tool payload")
	}
}

func TestInferToolName(t *testing.T) {
	tests := []struct {
		content string
		want    string
	}{
		{"Successfully written to page.html", ToolWriteHTML},
		{"WRITTEN TO disk as HTML", ToolWriteHTML},
		{"written to disk", ""},
		{"Took a Screenshot of example.com", ToolScreenshot},
		{"Cloned the landing page", ToolScreenshot},
		{"plain output", ""},
		{"", ""},
	}

	for _, tc := range tests {
		if got := InferToolName(tc.content); got != tc.want {
			t.Errorf("InferToolName(%q) = %q, want %q", tc.content, got, tc.want)
		}
	}
}

func TestToolLabel(t *testing.T) {
	if got := ToolLabel(NewToolEntry("1", "", ToolInfo{Name: "write_html"})); got != "Write Html" {
		t.Errorf("ToolLabel(write_html) = %q, want %q", got, "Write Html")
	}
	if got := ToolLabel(NewToolEntry("1", "", ToolInfo{})); got != GenericToolLabel {
		t.Errorf("ToolLabel(unnamed) = %q, want %q", got, GenericToolLabel)
	}
	if got := ToolLabel(NewUserEntry("1", "x", time.Now())); got != GenericToolLabel {
		t.Errorf("ToolLabel(user) = %q, want %q", got, GenericToolLabel)
	}
}

func TestContent_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"string", `{"type":"ai","content":"hello"}`, "hello"},
		{"null", `{"type":"ai","content":null}`, ""},
		{"parts", `{"type":"ai","content":[{"type":"text","text":"foo"},{"type":"text","text":"bar"}]}`, "foobar"},
		{"bare string parts", `{"type":"ai","content":["a","b"]}`, "ab"},
		{"non text part", `{"type":"ai","content":[{"type":"tool_use","id":"x"},{"text":"z"}]}`, "z"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var rec Record
			if err := json.Unmarshal([]byte(tc.raw), &rec); err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			if rec.Content.String() != tc.want {
				t.Errorf("Content = %q, want %q", rec.Content, tc.want)
			}
		})
	}
}

// =============================================================================
// GROUPING TESTS
// =============================================================================

func TestGroupToolCalls(t *testing.T) {
	a1 := NewAssistantEntry("a1", "A1")
	t1 := NewToolEntry("t1", "T1", ToolInfo{})
	t2 := NewToolEntry("t2", "T2", ToolInfo{})
	a2 := NewAssistantEntry("a2", "A2")

	groups := GroupToolCalls([]Entry{a1, t1, t2, a2})
	if len(groups) != 2 {
		t.Fatalf("len(groups) = %d, want 2", len(groups))
	}
	if groups[0].Anchor.ID != "a1" || len(groups[0].Tools) != 2 {
		t.Errorf("group[0] = %s with %d tools, want a1 with 2", groups[0].Anchor.ID, len(groups[0].Tools))
	}
	if groups[0].Tools[0].ID != "t1" || groups[0].Tools[1].ID != "t2" {
		t.Error("tools out of order")
	}
	if groups[1].Anchor.ID != "a2" || len(groups[1].Tools) != 0 {
		t.Errorf("group[1] = %s with %d tools, want a2 with 0", groups[1].Anchor.ID, len(groups[1].Tools))
	}
}

func TestGroupToolCalls_Unanchored(t *testing.T) {
	t0 := NewToolEntry("t0", "T0", ToolInfo{})
	u1 := NewUserEntry("u1", "U1", time.Now())
	t1 := NewToolEntry("t1", "T1", ToolInfo{})
	a1 := NewAssistantEntry("a1", "A1")

	entries := []Entry{t0, a1, u1, t1}
	groups := GroupToolCalls(entries)

	if len(groups) != 2 {
		t.Fatalf("len(groups) = %d, want 2", len(groups))
	}
	for _, g := range groups {
		if g.Anchor.Role == RoleToolCall {
			t.Errorf("tool entry %s used as anchor", g.Anchor.ID)
		}
		if len(g.Tools) != 0 {
			t.Errorf("group %s got tools %v", g.Anchor.ID, g.Tools)
		}
	}
	if len(entries) != 4 {
		t.Error("grouping modified the transcript")
	}
}

// =============================================================================
// SUMMARY TESTS
// =============================================================================

func TestSummarize_Truncation(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	first := strings.Repeat("q", 75)

	tests := []struct {
		name        string
		last        string
		wantPreview string
	}{
		{"exactly 100", strings.Repeat("p", 100), strings.Repeat("p", 100)},
		{"101", strings.Repeat("p", 101), strings.Repeat("p", 100) + "..."},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			conv := Conversation{
				ThreadID: "thread_1",
				Messages: []Record{
					{Type: SourceHuman, Content: Content(first)},
					{Type: SourceAI, Content: Content(tc.last)},
				},
			}
			sum := Summarize(conv, now)

			if want := strings.Repeat("q", 50) + "..."; sum.Title != want {
				t.Errorf("Title = %q, want %q", sum.Title, want)
			}
			if sum.Preview != tc.wantPreview {
				t.Errorf("Preview = %q, want %q", sum.Preview, tc.wantPreview)
			}
			if sum.MessageCount != 2 || sum.ID != "thread_1" || !sum.Timestamp.Equal(now) {
				t.Errorf("Summary = %+v", sum)
			}
			if sum.LastMessage != tc.last {
				t.Error("LastMessage must be untruncated")
			}
		})
	}
}

func TestSummarize_Defaults(t *testing.T) {
	sum := Summarize(Conversation{ThreadID: "t"}, time.Now())
	if sum.Title != DefaultTitle || sum.Preview != DefaultPreview || sum.MessageCount != 0 {
		t.Errorf("empty conversation summary = %+v", sum)
	}

	// No human message: title stays default.
	sum = Summarize(Conversation{ThreadID: "t", Messages: []Record{{Type: SourceAI, Content: "hi"}}}, time.Now())
	if sum.Title != DefaultTitle || sum.Preview != "hi" {
		t.Errorf("ai-only summary = %+v", sum)
	}

	fresh := NewSummary("thread_x", time.Now())
	if fresh.Title != DefaultTitle || fresh.Preview != NewThreadPreview || fresh.MessageCount != 0 {
		t.Errorf("NewSummary = %+v", fresh)
	}
}

func TestSummarizeEntries(t *testing.T) {
	entries := []Entry{
		NewUserEntry("1", "what is go?", time.Now()),
		NewAssistantEntry("2", "a language"),
	}
	sum := SummarizeEntries("thread_1", entries, time.Now())
	if sum.Title != "what is go?" || sum.Preview != "a language" || sum.MessageCount != 2 {
		t.Errorf("SummarizeEntries = %+v", sum)
	}
}

// =============================================================================
// IDS AND EVENTS
// =============================================================================

func TestNewThreadID(t *testing.T) {
	now := time.UnixMilli(1718000000123)
	rng := rand.New(rand.NewPCG(1, 2))
	pattern := regexp.MustCompile(`^thread_1718000000123_[0-9a-z]{6}$`)

	seen := make(map[string]bool)
	for range 50 {
		id := NewThreadID(now, rng)
		if !pattern.MatchString(id) {
			t.Fatalf("NewThreadID = %q, does not match %s", id, pattern)
		}
		seen[id] = true
	}
	if len(seen) < 45 {
		t.Errorf("only %d distinct ids out of 50", len(seen))
	}

	if id := NewThreadID(now, nil); !pattern.MatchString(id) {
		t.Errorf("NewThreadID(nil rng) = %q", id)
	}
}

func TestEntry_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(NewToolEntry("t1", "done", ToolInfo{Name: "write_html", CallID: "c1"}))
	if err != nil {
		t.Fatal(err)
	}
	got := string(data)
	for _, want := range []string{`"role":"tool_call"`, `"tool_name":"write_html"`, `"tool_call_id":"c1"`} {
		if !strings.Contains(got, want) {
			t.Errorf("json %s missing %s", got, want)
		}
	}
	if strings.Contains(got, "timestamp") {
		t.Errorf("zero timestamp should be omitted: %s", got)
	}
}

func TestStreamEvent_Decode(t *testing.T) {
	line := `{"type":"final","request_id":"r1","messages":[{"type":"human","content":"q"},{"type":"ai","content":"answer"}]}`
	var ev StreamEvent
	if err := json.Unmarshal([]byte(line), &ev); err != nil {
		t.Fatal(err)
	}
	last, ok := ev.LastMessage()
	if ev.Kind != EventFinal || !ok || last.Content != "answer" {
		t.Errorf("decoded %+v", ev)
	}

	if _, ok := (StreamEvent{Kind: EventFinal}).LastMessage(); ok {
		t.Error("LastMessage on empty messages reported ok")
	}
}
