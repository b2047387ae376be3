// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared by the llamabot packages.
//
// # Text
//
//   - Abbreviate: keep the first N runes and mark the cut with an ellipsis
//   - TruncateWidth: clip to a terminal display width (CJK aware)
//   - PadRight: pad to a display width
//
// # Files
//
//   - AtomicWriteFile: write-then-rename with fsync, used for config files
package util
