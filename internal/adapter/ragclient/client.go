// Package ragclient is the HTTP client for the external RAG backend.
package ragclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/xiaot623/supportiq/internal/domain"
)

// StatusError is returned when the backend answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("rag backend returned status %d: %s", e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error { return domain.ErrUpstreamUnavailable }

// Client opens streaming chat requests against the RAG backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client. timeout bounds the whole exchange, body
// included, so a stalled stream fails instead of hanging.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Open POSTs the turn to /chat/message and returns the SSE body. Any error
// wraps domain.ErrUpstreamUnavailable; the caller owns the returned body.
func (c *Client) Open(ctx context.Context, req *domain.RelayRequest) (io.ReadCloser, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("rag backend not configured: %w", domain.ErrUpstreamUnavailable)
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/message", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(bodyBytes))}
	}
	return resp.Body, nil
}
