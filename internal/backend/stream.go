// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"iter"
	"sync"

	"github.com/go-logr/logr"

	"github.com/vishalm/LlamaBot/internal/model"
)

// =============================================================================
// NDJSON DECODER
// =============================================================================

// Decoder splits a byte stream into newline-terminated JSON events.
//
// Reads return as soon as the underlying reader delivers a newline, so each
// event is available the moment its line completes. A trailing line with
// no newline at end of stream is discarded. Lines that are not valid JSON
// are logged, counted and skipped.
type Decoder struct {
	reader  *bufio.Reader
	log     logr.Logger
	skipped int
	err     error
}

// NewDecoder creates a decoder reading from r.
func NewDecoder(r io.Reader, log logr.Logger) *Decoder {
	return &Decoder{reader: bufio.NewReader(r), log: log}
}

// Next returns the next event. It returns io.EOF at the natural end of the
// stream and a *TransportError if the read failed. Once Next has returned
// an error it keeps returning it.
func (d *Decoder) Next() (model.StreamEvent, error) {
	for d.err == nil {
		line, err := d.reader.ReadBytes('\n')
		if err != nil {
			d.finish(line, err)
			break
		}

		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		var ev model.StreamEvent
		if err := json.Unmarshal(line, &ev); err != nil {
			d.skipped++
			d.log.Info("skipping malformed stream line", "error", err.Error(), "line", preview(line))
			continue
		}
		return ev, nil
	}
	return model.StreamEvent{}, d.err
}

// finish records the terminal error. Bytes after the last newline cannot be
// completed and are dropped.
func (d *Decoder) finish(leftover []byte, err error) {
	if len(bytes.TrimSpace(leftover)) > 0 {
		d.log.V(1).Info("discarding incomplete trailing line", "bytes", len(leftover))
	}
	if err == io.EOF {
		d.err = io.EOF
		return
	}
	d.err = networkError("stream read failed", err)
}

// Skipped returns how many malformed lines have been dropped so far.
func (d *Decoder) Skipped() int {
	return d.skipped
}

func preview(line []byte) string {
	const limit = 120
	if len(line) <= limit {
		return string(line)
	}
	return string(line[:limit]) + "..."
}

// =============================================================================
// EVENT STREAM
// =============================================================================

// EventStream is the lazy event sequence of one /chat-message call. It is
// not safe for concurrent use; one goroutine should drain it.
type EventStream struct {
	body      io.ReadCloser
	dec       *Decoder
	requestID string
	closeOnce sync.Once
	closeErr  error
}

// NewEventStream wraps a response body. requestID is the correlation id
// the request was sent with.
func NewEventStream(body io.ReadCloser, requestID string, log logr.Logger) *EventStream {
	return &EventStream{
		body:      body,
		dec:       NewDecoder(body, log.WithValues("request_id", requestID)),
		requestID: requestID,
	}
}

// Next returns the next event, io.EOF at the end of the stream, or a
// *TransportError. Events returned before an error remain valid.
func (s *EventStream) Next() (model.StreamEvent, error) {
	return s.dec.Next()
}

// All yields events until the stream ends. A read failure is yielded once
// as (zero, err) and ends the sequence; a clean end yields nothing more.
func (s *EventStream) All() iter.Seq2[model.StreamEvent, error] {
	return func(yield func(model.StreamEvent, error) bool) {
		for {
			ev, err := s.Next()
			if err == io.EOF {
				return
			}
			if err != nil {
				yield(model.StreamEvent{}, err)
				return
			}
			if !yield(ev, nil) {
				return
			}
		}
	}
}

// Skipped returns the number of malformed lines dropped.
func (s *EventStream) Skipped() int {
	return s.dec.Skipped()
}

// RequestID returns the X-Request-ID the stream was requested with.
func (s *EventStream) RequestID() string {
	return s.requestID
}

// Close releases the response body. It is safe to call more than once.
func (s *EventStream) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.body.Close()
	})
	return s.closeErr
}
