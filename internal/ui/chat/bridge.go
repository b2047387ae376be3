// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/time/rate"

	"github.com/vishalm/LlamaBot/internal/store"
)

// DefaultRepaintInterval bounds how often streaming snapshots reach the
// program.
const DefaultRepaintInterval = 50 * time.Millisecond

// bridge forwards Store snapshots to the program. While a reply streams,
// snapshots are coalesced to one per interval and a trailing flush delivers
// the newest one. Every non-streaming snapshot goes through at once, so the
// state at the end of a send is never lost.
type bridge struct {
	send     func(tea.Msg)
	interval time.Duration
	throttle rate.Sometimes

	mu      sync.Mutex
	latest  store.State
	seq     uint64
	pending *time.Timer

	// sendMu orders deliveries; sent is the seq last handed to send.
	sendMu sync.Mutex
	sent   uint64
}

func newBridge(send func(tea.Msg), interval time.Duration) *bridge {
	if interval <= 0 {
		interval = DefaultRepaintInterval
	}
	return &bridge{
		send:     send,
		interval: interval,
		throttle: rate.Sometimes{Interval: interval},
	}
}

// deliver is the Store subscriber.
func (b *bridge) deliver(st store.State) {
	b.mu.Lock()
	b.latest = st
	b.seq++
	b.mu.Unlock()

	if !st.IsStreaming {
		b.flush()
		return
	}

	ran := false
	b.throttle.Do(func() {
		ran = true
		b.flush()
	})
	if !ran {
		b.scheduleTrailing()
	}
}

func (b *bridge) scheduleTrailing() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pending != nil {
		return
	}
	b.pending = time.AfterFunc(b.interval, func() {
		b.mu.Lock()
		b.pending = nil
		b.mu.Unlock()
		b.flush()
	})
}

// flush sends the newest snapshot unless it was already sent.
func (b *bridge) flush() {
	b.sendMu.Lock()
	defer b.sendMu.Unlock()

	b.mu.Lock()
	st, seq := b.latest, b.seq
	b.mu.Unlock()

	if seq <= b.sent {
		return
	}
	b.sent = seq
	b.send(stateMsg(st))
}

// stop cancels a pending trailing flush.
func (b *bridge) stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pending != nil {
		b.pending.Stop()
		b.pending = nil
	}
}
