// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role is the UI-facing category of a transcript entry.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleToolCall  Role = "tool_call"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	case RoleSystem:
		return "System"
	case RoleToolCall:
		return "Tool"
	default:
		return string(r)
	}
}

// Backend message types as serialized by the agent server.
const (
	SourceHuman    = "human"
	SourceAI       = "ai"
	SourceSystem   = "system"
	SourceTool     = "tool"
	SourceFunction = "function"
)

// RoleForSource maps a backend message type to a Role. Tool and function
// messages collapse into RoleToolCall. Unrecognized types render as
// assistant output.
func RoleForSource(source string) Role {
	switch source {
	case SourceHuman:
		return RoleUser
	case SourceSystem:
		return RoleSystem
	case SourceTool, SourceFunction:
		return RoleToolCall
	default:
		return RoleAssistant
	}
}
