// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/vishalm/LlamaBot/internal/model"
)

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

const (
	// DefaultBaseURL is where the agent server listens by default.
	DefaultBaseURL = "http://localhost:8000"
	// DefaultTimeout bounds every non-streaming call.
	DefaultTimeout = 30 * time.Second

	// maxBodyBytes caps non-streaming responses.
	maxBodyBytes = 32 << 20

	headerRequestID = "X-Request-ID"
)

// ClientConfig holds configuration options for the backend client.
type ClientConfig struct {
	// BaseURL is the agent server root (default: http://localhost:8000)
	BaseURL string

	// Timeout for non-streaming requests (default: 30s). Streaming sends
	// have no client timeout; they end with the body or the context.
	Timeout time.Duration

	// AuthHeader, when set, is sent verbatim as the Authorization header.
	AuthHeader string

	// UserAgent header value.
	UserAgent string

	Logger logr.Logger
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:   DefaultBaseURL,
		Timeout:   DefaultTimeout,
		UserAgent: "llamabot",
		Logger:    logr.Discard(),
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to one LlamaBot agent server. It is safe for concurrent use.
type Client struct {
	config       *ClientConfig
	baseURL      string
	httpClient   *http.Client
	streamClient *http.Client
	log          logr.Logger
}

// NewClient creates a client. Zero fields in config take their defaults.
func NewClient(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	cfg := *config
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "llamabot"
	}
	if cfg.Logger.GetSink() == nil {
		cfg.Logger = logr.Discard()
	}

	return &Client{
		config:     &cfg,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		// No timeout: a response may stream for as long as the agent runs.
		streamClient: &http.Client{},
		log:          cfg.Logger.WithName("backend"),
	}
}

// BaseURL returns the server root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, string, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, "", &TransportError{Type: ErrTypeNetwork, Message: "failed to create request", Cause: err}
	}

	requestID := uuid.NewString()
	req.Header.Set(headerRequestID, requestID)
	req.Header.Set("User-Agent", c.config.UserAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.config.AuthHeader != "" {
		req.Header.Set("Authorization", c.config.AuthHeader)
	}
	return req, requestID, nil
}

// statusError builds the error for a non-2xx response and drains its body.
func statusError(resp *http.Response) *TransportError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	return &TransportError{
		Type:       ErrTypeStatus,
		StatusCode: resp.StatusCode,
		Message:    statusDetail(body),
	}
}

func isSuccess(code int) bool {
	return code >= 200 && code < 300
}

// get performs a GET and returns the body. When checkError is set, a
// success response whose body is {"error": "..."} becomes an ErrTypeBackend
// error.
func (c *Client) get(ctx context.Context, path string, checkError bool) ([]byte, error) {
	req, requestID, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	log := c.log.WithValues("path", path, "request_id", requestID)
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.V(1).Info("request failed", "error", err.Error())
		return nil, networkError("GET "+path+" failed", err)
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		terr := statusError(resp)
		log.V(1).Info("request rejected", "status", resp.StatusCode, "detail", terr.Message)
		return nil, terr
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, networkError("read "+path+" response", err)
	}
	log.V(1).Info("request done", "status", resp.StatusCode, "bytes", len(body), "elapsed", time.Since(start).String())

	if checkError {
		if msg, ok := backendError(body); ok {
			return nil, &TransportError{Type: ErrTypeBackend, Message: msg}
		}
	}
	return body, nil
}

// =============================================================================
// CONVERSATIONS
// =============================================================================

// ListThreads fetches every conversation the server has checkpoints for.
func (c *Client) ListThreads(ctx context.Context) ([]model.Conversation, error) {
	body, err := c.get(ctx, "/threads", true)
	if err != nil {
		return nil, err
	}
	convs, shim, err := decodeThreads(body)
	if err != nil {
		return nil, &TransportError{Type: ErrTypeInvalidResponse, Message: "invalid /threads response", Cause: err}
	}
	if shim {
		c.log.V(1).Info("threads used snapshot-array state shape", "count", len(convs))
	}
	return convs, nil
}

// GetHistory fetches the full message history of one thread.
func (c *Client) GetHistory(ctx context.Context, threadID string) (model.Conversation, error) {
	body, err := c.get(ctx, "/chat-history/"+url.PathEscape(threadID), true)
	if err != nil {
		return model.Conversation{}, err
	}
	conv, shim, err := decodeHistory(threadID, body)
	if err != nil {
		return model.Conversation{}, &TransportError{Type: ErrTypeInvalidResponse, Message: "invalid /chat-history response", Cause: err}
	}
	if shim {
		c.log.V(1).Info("history used snapshot-array state shape", "thread_id", threadID)
	}
	return conv, nil
}

// ListAgents returns the agent names the server can route to.
func (c *Client) ListAgents(ctx context.Context) ([]string, error) {
	body, err := c.get(ctx, "/available-agents", false)
	if err != nil {
		return nil, err
	}
	var out agentsResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, &TransportError{Type: ErrTypeInvalidResponse, Message: "invalid /available-agents response", Cause: err}
	}
	if len(out.Agents) == 0 {
		if msg, ok := backendError(body); ok {
			return nil, &TransportError{Type: ErrTypeBackend, Message: msg}
		}
	}
	return out.Agents, nil
}

// =============================================================================
// SERVER INFO
// =============================================================================

// Health reports backend health. An unhealthy server is not an error; check
// HealthStatus.Healthy.
func (c *Client) Health(ctx context.Context) (HealthStatus, error) {
	body, err := c.get(ctx, "/health", false)
	if err != nil {
		return HealthStatus{}, err
	}
	var status HealthStatus
	if err := json.Unmarshal(body, &status); err != nil {
		return HealthStatus{}, &TransportError{Type: ErrTypeInvalidResponse, Message: "invalid /health response", Cause: err}
	}
	return status, nil
}

// ListModels returns the models the backend's model server offers.
func (c *Client) ListModels(ctx context.Context) (ModelList, error) {
	body, err := c.get(ctx, "/models", true)
	if err != nil {
		return ModelList{}, err
	}
	var list ModelList
	if err := json.Unmarshal(body, &list); err != nil {
		return ModelList{}, &TransportError{Type: ErrTypeInvalidResponse, Message: "invalid /models response", Cause: err}
	}
	return list, nil
}

// =============================================================================
// STREAMING
// =============================================================================

// SendMessage posts a chat message and returns its event stream. A non-2xx
// status fails here, before any event. The caller must Close the stream.
func (c *Client) SendMessage(ctx context.Context, chat ChatRequest) (*EventStream, error) {
	body, err := json.Marshal(chat)
	if err != nil {
		return nil, &TransportError{Type: ErrTypeInvalidResponse, Message: "failed to marshal request", Cause: err}
	}

	req, requestID, err := c.newRequest(ctx, http.MethodPost, "/chat-message", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/x-ndjson, text/event-stream")

	log := c.log.WithValues("request_id", requestID, "thread_id", chat.ThreadID)
	log.V(1).Info("sending message", "agent", chat.Agent, "chars", len(chat.Message))

	resp, err := c.streamClient.Do(req)
	if err != nil {
		return nil, networkError("POST /chat-message failed", err)
	}
	if !isSuccess(resp.StatusCode) {
		defer resp.Body.Close()
		terr := statusError(resp)
		log.Info("send rejected", "status", resp.StatusCode, "detail", terr.Message)
		return nil, terr
	}

	return NewEventStream(resp.Body, requestID, c.log), nil
}
