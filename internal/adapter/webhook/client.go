// Package webhook delivers outbound automation notifications.
package webhook

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

// Client posts escalation events to {baseURL}/webhook/escalation.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a webhook client. An empty baseURL disables delivery.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Enabled reports whether a base URL is configured.
func (c *Client) Enabled() bool {
	return c.baseURL != ""
}

// NotifyEscalation posts e. The response status is ignored; only transport
// failures are returned.
func (c *Client) NotifyEscalation(ctx context.Context, e domain.Escalation) error {
	if !c.Enabled() {
		return nil
	}

	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal escalation: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/webhook/escalation", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post escalation webhook: %w", err)
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	return resp.Body.Close()
}
