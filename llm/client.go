// Package llm provides a provider-agnostic client for multimodal completion
// APIs. Each request is a single attempt: there is no retry or model fallback,
// callers decide how to degrade when a call fails.
package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// maxResponseSize limits the response body read to prevent memory exhaustion.
const maxResponseSize = 1 << 20 // 1MB

// Endpoint describes where and how to reach a model API. All credentials are
// explicit; nothing is read from the environment at call time.
type Endpoint struct {
	// Provider selects the wire format ("openai", "gemini").
	Provider string

	// BaseURL overrides the provider's default API base. Empty uses the default.
	BaseURL string

	// Model is the model identifier sent to the API.
	Model string

	// APIKey is the credential for the API, if it requires one.
	APIKey string
}

// Message represents a chat message, optionally carrying an image.
type Message struct {
	Role    string // "system", "user", or "assistant"
	Content string
	Image   *ImageAttachment
}

// ImageAttachment is a decoded image payload attached to a message.
type ImageAttachment struct {
	MIMEType string
	Data     []byte
}

// DataURI renders the attachment as a data: URI for providers that embed
// images by URL.
func (a *ImageAttachment) DataURI() string {
	return "data:" + a.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(a.Data)
}

// Request defines a completion request.
type Request struct {
	// Messages is the chat history to send.
	Messages []Message

	// Temperature controls randomness. nil uses the endpoint default.
	Temperature *float64

	// MaxTokens limits response length. 0 uses the endpoint default.
	MaxTokens int
}

// TokenUsage represents token consumption details for a call.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response contains the completion result.
type Response struct {
	// RequestID uniquely identifies this call for log correlation.
	// Set by Complete().
	RequestID string

	// Content is the generated text.
	Content string

	// Model is the model that produced the completion.
	Model string

	// Usage contains token consumption metrics, when the API reports them.
	Usage TokenUsage

	// FinishReason indicates why generation stopped.
	FinishReason string
}

// Client sends completion requests to a single configured endpoint.
type Client struct {
	endpoint   Endpoint
	provider   Provider
	httpClient *http.Client
	logger     *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client. The client's timeout bounds the
// one suspension point of a completion call.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(client *Client) {
		client.httpClient = c
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(client *Client) {
		client.logger = logger
	}
}

// NewClient creates a client for the given endpoint. The endpoint's provider
// must be registered.
func NewClient(endpoint Endpoint, opts ...ClientOption) (*Client, error) {
	provider := GetProvider(endpoint.Provider)
	if provider == nil {
		return nil, fmt.Errorf("unknown provider: %s", endpoint.Provider)
	}

	c := &Client{
		endpoint: endpoint,
		provider: provider,
		httpClient: &http.Client{
			Timeout: 25 * time.Second,
		},
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Endpoint returns the endpoint this client is bound to.
func (c *Client) Endpoint() Endpoint {
	return c.endpoint
}

// Complete sends one completion request. Failures are classified:
// *UpstreamError for network/status failures, *MalformedResponseError when
// the upstream replied 2xx with an unusable body.
func (c *Client) Complete(ctx context.Context, req Request) (*Response, error) {
	if len(req.Messages) == 0 {
		return nil, fmt.Errorf("at least one message is required")
	}

	requestID := uuid.New().String()
	started := time.Now()

	body, err := c.provider.BuildRequestBody(c.endpoint.Model, req)
	if err != nil {
		return nil, fmt.Errorf("build request body: %w", err)
	}

	url := c.provider.BuildURL(c.endpoint.BaseURL, c.endpoint.Model)

	c.logger.Debug("sending completion request",
		"request_id", requestID,
		"provider", c.provider.Name(),
		"model", c.endpoint.Model,
		"messages", len(req.Messages))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create HTTP request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	c.provider.SetHeaders(httpReq, c.endpoint.APIKey)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, NewUpstreamError(0, fmt.Errorf("HTTP request failed: %w", err))
	}
	defer httpResp.Body.Close()

	// Read with a size limit to prevent memory exhaustion.
	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseSize))
	if err != nil {
		return nil, NewUpstreamError(0, fmt.Errorf("read response body: %w", err))
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, statusError(httpResp.StatusCode, respBody)
	}

	resp, err := c.provider.ParseResponse(respBody, c.endpoint.Model)
	if err != nil {
		return nil, NewMalformedResponseError(fmt.Errorf("parse %s response: %w", c.provider.Name(), err))
	}
	resp.RequestID = requestID

	c.logger.Debug("completion request finished",
		"request_id", requestID,
		"model", resp.Model,
		"finish_reason", resp.FinishReason,
		"total_tokens", resp.Usage.TotalTokens,
		"duration_ms", time.Since(started).Milliseconds())

	return resp, nil
}

// statusError builds an UpstreamError from a non-200 reply, keeping a short
// body preview for logs.
func statusError(statusCode int, body []byte) error {
	bodyStr := string(body)
	if len(bodyStr) > 200 {
		bodyStr = bodyStr[:200] + "..."
	}
	return NewUpstreamError(statusCode, fmt.Errorf("model API error (status %d): %s", statusCode, bodyStr))
}
