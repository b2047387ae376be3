// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the llamabot command line.
//
// # Commands
//
//   - llamabot / llamabot tui: full-screen chat
//   - llamabot ask MESSAGE: one-shot question, streamed to stdout
//   - llamabot chat: line-mode REPL with history and slash commands
//   - llamabot threads / history ID: browse conversations
//   - llamabot agents / models / status: inspect the server
//   - llamabot config show|path|init|get|set|keys: manage settings
//
// Every command shares the persistent flags --config, --api-url, --agent
// and --log-stderr. Logs go to the configured file unless --log-stderr is
// given, so they never interleave with command output.
package cli
