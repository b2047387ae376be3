// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package reconcile folds a chat response stream into the transcript.
//
// One Reconciler serves one send. It owns no transcript state: every event
// is applied through a Target (the store) by looking the placeholder entry up
// by id, so the target is free to replace its transcript between events.
//
// Event semantics:
//
//   - start: progress only
//   - update: Value is appended to the placeholder, in delivery order
//   - final: the placeholder is overwritten with the last message's content;
//     an empty message list keeps what the updates built
//   - error: the session error is set; content already written stays
package reconcile

import (
	"io"

	"github.com/go-logr/logr"

	"github.com/vishalm/LlamaBot/internal/model"
)

// FallbackErrorMessage is reported for error events that carry no message.
const FallbackErrorMessage = "Unknown error occurred"

// Target is the state a Reconciler mutates.
type Target interface {
	// UpdateEntry applies mutate to the entry with the given id in the
	// current transcript, atomically. It reports false if no such entry
	// exists.
	UpdateEntry(id string, mutate func(*model.Entry)) bool
	SetError(msg string)
	SetProgress(p model.Progress)
}

// EventSource yields stream events until io.EOF or an error.
type EventSource interface {
	Next() (model.StreamEvent, error)
}

// Stats counts what a Reconciler has applied.
type Stats struct {
	Starts  int
	Updates int
	Finals  int
	Errors  int
	// Ignored counts events of unknown kind.
	Ignored int
	// Orphaned counts content events whose placeholder was gone.
	Orphaned int
}

// Reconciler applies the events of one send to one placeholder entry.
type Reconciler struct {
	placeholderID string
	target        Target
	log           logr.Logger
	progress      model.Progress
	stats         Stats
}

// New creates a Reconciler targeting the entry placeholderID.
func New(placeholderID string, target Target, log logr.Logger) *Reconciler {
	return &Reconciler{
		placeholderID: placeholderID,
		target:        target,
		log:           log.WithValues("placeholder", placeholderID),
	}
}

// Run applies events from src in order until it is exhausted. It returns
// nil at io.EOF and the source's error otherwise; events applied before
// the error are kept.
func (r *Reconciler) Run(src EventSource) error {
	for {
		ev, err := src.Next()
		if err == io.EOF {
			r.log.V(1).Info("stream ended", "updates", r.stats.Updates, "finals", r.stats.Finals)
			return nil
		}
		if err != nil {
			r.log.Info("stream failed", "error", err.Error(), "updates", r.stats.Updates)
			return err
		}
		r.Apply(ev)
	}
}

// Apply applies one event.
func (r *Reconciler) Apply(ev model.StreamEvent) {
	switch ev.Kind {
	case model.EventStart:
		r.stats.Starts++
		r.applyStart(ev)
	case model.EventUpdate:
		r.stats.Updates++
		r.applyUpdate(ev)
	case model.EventFinal:
		r.stats.Finals++
		r.applyFinal(ev)
	case model.EventError:
		r.stats.Errors++
		r.applyError(ev)
	default:
		r.stats.Ignored++
		r.log.V(1).Info("ignoring unknown event", "type", string(ev.Kind))
	}
}

// Stats returns the counts so far.
func (r *Reconciler) Stats() Stats {
	return r.stats
}

// Progress returns the last progress reported to the target.
func (r *Reconciler) Progress() model.Progress {
	return r.progress
}

func (r *Reconciler) applyStart(ev model.StreamEvent) {
	r.progress = model.Progress{RequestID: ev.RequestID, Node: ev.Node}
	r.target.SetProgress(r.progress)
}

func (r *Reconciler) applyUpdate(ev model.StreamEvent) {
	if ev.Node != "" && ev.Node != r.progress.Node {
		r.progress.Node = ev.Node
		r.target.SetProgress(r.progress)
	}
	if ev.Value == "" {
		return
	}
	r.mutate(func(e *model.Entry) {
		e.Content += ev.Value
	})
}

func (r *Reconciler) applyFinal(ev model.StreamEvent) {
	last, ok := ev.LastMessage()
	if !ok {
		r.log.V(1).Info("final event without messages, keeping streamed content")
		return
	}
	r.mutate(func(e *model.Entry) {
		e.Content = last.Content.String()
	})
}

func (r *Reconciler) applyError(ev model.StreamEvent) {
	msg := ev.Error
	if msg == "" {
		msg = FallbackErrorMessage
	}
	r.log.Info("backend reported error", "error", msg, "request_id", ev.RequestID)
	r.target.SetError(msg)
}

func (r *Reconciler) mutate(fn func(*model.Entry)) {
	if !r.target.UpdateEntry(r.placeholderID, fn) {
		r.stats.Orphaned++
		r.log.Info("placeholder missing from transcript, dropping content")
	}
}
