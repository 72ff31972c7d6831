// Package ticket delivers the captured call summary to the ticket sink.
// Delivery is at-most-once: a failed POST is logged by the caller and never
// retried, so a sink outage loses the record rather than duplicating it.
package ticket

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Record is the ticket payload submitted after a call reason is captured.
type Record struct {
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Category   string `json:"category"`
	Urgency    string `json:"urgency"`
	ReasonText string `json:"reasonText"`
}

// Sink accepts one ticket record per call.
type Sink interface {
	Submit(ctx context.Context, rec Record) error
}

// Client posts ticket records to an HTTP sink.
type Client struct {
	url        string
	httpClient *http.Client
}

// NewClient creates a ticket sink client with a bounded request timeout.
func NewClient(url string, timeout time.Duration) *Client {
	return &Client{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Submit posts the record as JSON. A non-2xx response is an error; the
// caller decides what to do with it (by design: log and move on).
func (c *Client) Submit(ctx context.Context, rec Record) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal ticket: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create ticket request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ticket request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("ticket sink returned status %d", resp.StatusCode)
	}
	return nil
}
