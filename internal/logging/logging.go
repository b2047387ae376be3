// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging builds the logr.Logger handed to every llamabot
// component. Records are JSON lines written through log/slog.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-logr/logr"
	"github.com/pkg/errors"

	"github.com/vishalm/LlamaBot/internal/config"
)

// ParseLevel maps a config level name to a slog level. logr's V(n) is
// emitted at slog level -n, so "debug" admits V(1) through V(4).
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, errors.Errorf("unknown log level %q", name)
}

// New returns a logger writing JSON records to w.
func New(w io.Writer, level slog.Level) logr.Logger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return logr.FromSlogHandler(h).WithName("llamabot")
}

// Setup opens the configured log destination. With toStderr set, records
// go to stderr instead of cfg.File; the TUI never sets it because it owns
// the terminal. The returned closer releases the file.
func Setup(cfg config.LogConfig, toStderr bool) (logr.Logger, io.Closer, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return logr.Discard(), nopCloser{}, err
	}

	if toStderr || cfg.File == "" {
		return New(os.Stderr, level), nopCloser{}, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o700); err != nil {
		return logr.Discard(), nopCloser{}, errors.Wrap(err, "create log directory")
	}
	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return logr.Discard(), nopCloser{}, errors.Wrap(err, "open log file")
	}
	return New(f, level), f, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
