// Package webhook implements the notify.Sender port over HTTP incoming
// webhooks, with automatic retries on transient failures.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	stdlog "log"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"sigherald/internal/notify"
)

// Client posts JSON payloads to incoming-webhook URLs.
type Client struct {
	http *retryablehttp.Client
}

func NewClient() *Client {
	retryClient := retryablehttp.NewClient()
	// retryablehttp's own logger is too chatty for a per-minute poller.
	retryClient.Logger = stdlog.New(io.Discard, "", 0)
	retryClient.RetryMax = 3
	retryClient.HTTPClient.Timeout = 15 * time.Second
	return &Client{http: retryClient}
}

// SendMessage posts payload to webhookURL and treats any non-2xx response as
// an error.
func (c *Client) SendMessage(ctx context.Context, webhookURL string, payload notify.Payload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Read a little of the body for diagnostics; webhook hosts return
		// short error strings.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("webhook returned %s: %s", resp.Status, string(snippet))
	}
	return nil
}
