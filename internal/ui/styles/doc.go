// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the llamabot TUI.
//
// Colors are Lip Gloss AdaptiveColors so they follow the terminal
// background; the theme can also be pinned to dark or light from config.
//
// # Usage
//
//	theme := styles.NewTheme("auto")
//	fmt.Println(theme.UserLabel.Render("You"))
package styles
