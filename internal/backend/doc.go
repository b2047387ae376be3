// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package backend provides the HTTP client for the LlamaBot agent server.
//
// The server exposes a small REST surface (threads, chat history, agents,
// health) plus /chat-message, which answers with newline-delimited JSON
// events. Chunk boundaries on that body are arbitrary; Decoder reassembles
// complete lines and yields one model.StreamEvent per line.
//
// # Key Types
//
//   - Client: REST and streaming calls against one base URL
//   - EventStream: lazy sequence of events from one send
//   - Decoder: NDJSON framing over any io.Reader
//   - TransportError: status, network and backend-reported failures
//
// # Usage
//
//	client := backend.NewClient(backend.DefaultConfig())
//	stream, err := client.SendMessage(ctx, backend.ChatRequest{
//	    Message:  "Build me a landing page",
//	    ThreadID: "thread_1718000000000_ab12cd",
//	})
//	if err != nil {
//	    return err
//	}
//	defer stream.Close()
//	for ev, err := range stream.All() {
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Print(ev.Value)
//	}
//
// No call is retried. Retry policy belongs to the caller.
package backend
