// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"context"
	"errors"
	"fmt"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ErrorType categorizes transport errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	// ErrTypeStatus is a non-2xx HTTP status.
	ErrTypeStatus
	// ErrTypeNetwork is a connection or read failure.
	ErrTypeNetwork
	ErrTypeTimeout
	ErrTypeCanceled
	// ErrTypeInvalidResponse is a body that could not be decoded.
	ErrTypeInvalidResponse
	// ErrTypeBackend is an {"error": ...} body sent with a success status.
	ErrTypeBackend
)

func (t ErrorType) String() string {
	switch t {
	case ErrTypeStatus:
		return "status"
	case ErrTypeNetwork:
		return "network"
	case ErrTypeTimeout:
		return "timeout"
	case ErrTypeCanceled:
		return "canceled"
	case ErrTypeInvalidResponse:
		return "invalid_response"
	case ErrTypeBackend:
		return "backend"
	default:
		return "unknown"
	}
}

// TransportError is any failure talking to the backend. StatusCode is zero
// unless Type is ErrTypeStatus.
type TransportError struct {
	Type       ErrorType
	StatusCode int
	Message    string
	Cause      error
}

func (e *TransportError) Error() string {
	msg := e.Message
	if e.Type == ErrTypeStatus {
		msg = fmt.Sprintf("HTTP error! status: %d", e.StatusCode)
		if e.Message != "" {
			msg += " (" + e.Message + ")"
		}
	}
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}

// Is lets errors.Is match any TransportError against the sentinels by Type.
func (e *TransportError) Is(target error) bool {
	t, ok := target.(*TransportError)
	if !ok {
		return false
	}
	return (t == ErrTimeout || t == ErrCanceled) && t.Type == e.Type
}

// Sentinel errors for easy checking with errors.Is.
var (
	ErrTimeout  = &TransportError{Type: ErrTypeTimeout, Message: "request timed out"}
	ErrCanceled = &TransportError{Type: ErrTypeCanceled, Message: "request canceled"}
)

// networkError classifies err from an HTTP round trip or body read.
func networkError(msg string, err error) *TransportError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &TransportError{Type: ErrTypeTimeout, Message: msg, Cause: err}
	case errors.Is(err, context.Canceled):
		return &TransportError{Type: ErrTypeCanceled, Message: msg, Cause: err}
	default:
		var netErr interface{ Timeout() bool }
		if errors.As(err, &netErr) && netErr.Timeout() {
			return &TransportError{Type: ErrTypeTimeout, Message: msg, Cause: err}
		}
		return &TransportError{Type: ErrTypeNetwork, Message: msg, Cause: err}
	}
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var te *TransportError
	if errors.As(err, &te) && te.Type == ErrTypeStatus {
		return te.StatusCode
	}
	return 0
}

// IsTimeout checks if an error is a timeout error.
func IsTimeout(err error) bool {
	var te *TransportError
	return errors.As(err, &te) && te.Type == ErrTypeTimeout
}

// IsCanceled reports whether err came from a canceled context.
func IsCanceled(err error) bool {
	var te *TransportError
	return errors.As(err, &te) && te.Type == ErrTypeCanceled
}
