// Package upstream implements the HTTP client that opens the streaming
// request to the configured Legacy chat-completions backend.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/mrorigo/ors-proxy/pkg/api"
	"github.com/mrorigo/ors-proxy/pkg/legacy"
)

// Client opens streaming POST requests against a Legacy chat-completions
// endpoint.
type Client struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
}

// NewClient creates a Client posting to endpoint, the complete Legacy
// chat-completions URL (e.g. "http://localhost:11434/v1/chat/completions"),
// optionally authenticating with apiKey.
func NewClient(endpoint, apiKey string) *Client {
	return &Client{
		httpClient: &http.Client{},
		endpoint:   endpoint,
		apiKey:     apiKey,
	}
}

// Stream posts req to the Legacy endpoint with stream:true and returns the
// response body for the caller to read as an SSE stream. The caller must
// close the returned body. Any non-2xx response, or a network-level
// failure, is mapped to a single upstream_error (spec: every upstream
// failure surfaces the same way, there is no partial-success case).
func (c *Client) Stream(ctx context.Context, req legacy.ChatCompletionRequest) (io.ReadCloser, error) {
	req.Stream = true

	body, err := json.Marshal(req)
	if err != nil {
		return nil, api.NewServerError(fmt.Sprintf("encoding upstream request: %s", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, api.NewServerError(fmt.Sprintf("creating upstream request: %s", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, mapNetworkError(err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		defer httpResp.Body.Close()
		return nil, mapHTTPError(httpResp)
	}

	return httpResp.Body, nil
}

// Close releases idle connections held by the client.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

func mapNetworkError(err error) *api.APIError {
	return api.NewUpstreamError(fmt.Sprintf("upstream connection error: %s", err))
}

func mapHTTPError(resp *http.Response) *api.APIError {
	message := extractErrorMessage(resp.Body)
	if message == "" {
		message = fmt.Sprintf("upstream returned HTTP %d", resp.StatusCode)
	}
	return api.NewUpstreamError(message)
}

// legacyErrorResponse mirrors the common {"error":{"message":...}} shape
// Legacy-compatible backends use for error bodies.
type legacyErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func extractErrorMessage(body io.Reader) string {
	if body == nil {
		return ""
	}
	data, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(data) == 0 {
		return ""
	}
	var errResp legacyErrorResponse
	if err := json.Unmarshal(data, &errResp); err == nil && errResp.Error.Message != "" {
		return errResp.Error.Message
	}
	return strings.TrimSpace(string(data))
}
