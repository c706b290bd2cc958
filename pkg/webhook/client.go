package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client posts JSON payloads to subscriber webhooks. Authentication is a
// per-subscription bearer token; the idempotency key lets receivers suppress
// duplicate deliveries of the same message.
type Client interface {
	Post(ctx context.Context, url string, payload interface{}, bearerToken, idempotencyKey string) (int, error)
}

type client struct {
	httpClient *http.Client
}

func NewClient(timeout time.Duration) Client {
	return &client{
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Post sends the payload and returns the HTTP status code. A transport-level
// failure (no response at all) returns status 0 and the error.
func (c *client) Post(ctx context.Context, url string, payload interface{}, bearerToken, idempotencyKey string) (int, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if bearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+bearerToken)
	}
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	return resp.StatusCode, nil
}
