// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"math/rand/v2"
	"strconv"
	"strings"
	"time"
)

const (
	threadPrefix     = "thread_"
	threadSuffixLen  = 6
	threadSuffixSyms = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// NewThreadID returns a client-generated thread id of the form
// thread_<millis>_<6 chars of [0-9a-z]>. A nil rng uses the global source.
func NewThreadID(now time.Time, rng *rand.Rand) string {
	var b strings.Builder
	b.WriteString(threadPrefix)
	b.WriteString(strconv.FormatInt(now.UnixMilli(), 10))
	b.WriteByte('_')
	for range threadSuffixLen {
		var n int
		if rng != nil {
			n = rng.IntN(len(threadSuffixSyms))
		} else {
			n = rand.IntN(len(threadSuffixSyms))
		}
		b.WriteByte(threadSuffixSyms[n])
	}
	return b.String()
}
