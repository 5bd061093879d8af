// Package push posts notification payloads to the configured push gateway.
// Delivery is best effort; callers decide whether a failure matters.
package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Client struct {
	endpoint string
	http     *http.Client
}

// NewClient returns nil when no endpoint is configured; a nil client is a
// valid no-op sender.
func NewClient(endpoint string) *Client {
	if strings.TrimSpace(endpoint) == "" {
		return nil
	}
	return &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: 5 * time.Second},
	}
}

type message struct {
	UserID  string `json:"user_id"`
	Title   string `json:"title"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

func (c *Client) Send(ctx context.Context, userID uuid.UUID, title, body, msgType string) error {
	if c == nil {
		return nil
	}
	raw, err := json.Marshal(message{
		UserID:  userID.String(),
		Title:   title,
		Message: body,
		Type:    msgType,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(raw))
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
		return fmt.Errorf("push gateway returned %d", resp.StatusCode)
	}
	return nil
}
