// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for LlamaBot conversations.
//
// Backend messages arrive as Records (the LangChain message shape the agent
// server serializes) and are mapped into transcript Entries by Normalize.
// Entries are what the store owns and what the UI renders.
//
// # Key Types
//
//   - Entry: one transcript message with a UI-facing Role
//   - Record: one backend message as it appears on the wire
//   - Conversation: a thread id and its backend messages
//   - Summary: sidebar directory entry derived from a Conversation
//   - StreamEvent: one decoded line of a /chat-message response
//
// # Usage
//
//	entries := model.NormalizeAll(conv.Messages)
//	for _, g := range model.GroupToolCalls(entries) {
//	    fmt.Println(g.Anchor.Content, len(g.Tools))
//	}
package model
