// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

// =============================================================================
// REQUEST TYPES
// =============================================================================

// ChatRequest is the body of POST /chat-message.
type ChatRequest struct {
	Message  string `json:"message"`
	ThreadID string `json:"thread_id,omitempty"`
	Agent    string `json:"agent,omitempty"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// HealthStatus is the body of GET /health. Status is "healthy" or
// "unhealthy"; Error explains the latter.
type HealthStatus struct {
	Status       string `json:"status"`
	OllamaModel  string `json:"ollama_model,omitempty"`
	OllamaURL    string `json:"ollama_url,omitempty"`
	DirectAPI    bool   `json:"direct_api,omitempty"`
	TestResponse string `json:"test_response,omitempty"`
	Error        string `json:"error,omitempty"`
}

// Healthy reports whether the backend and its model server are up.
func (h HealthStatus) Healthy() bool {
	return h.Status == "healthy"
}

// ModelList is the body of GET /models.
type ModelList struct {
	Provider string   `json:"provider"`
	Models   []string `json:"models"`
	Current  string   `json:"current"`
	BaseURL  string   `json:"base_url"`
}

type agentsResponse struct {
	Agents []string `json:"agents"`
}
