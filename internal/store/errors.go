// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import "github.com/pkg/errors"

// User errors, reported through State.LastError without any network call.
var (
	ErrNoConversation = errors.New("no conversation selected")
	ErrEmptyMessage   = errors.New("message is empty")
	ErrBusy           = errors.New("a response is still streaming")
	ErrUnknownAgent   = errors.New("unknown agent")
)
