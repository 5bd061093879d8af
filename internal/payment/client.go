// Package payment wraps the payment provider's REST API: payment holds,
// payouts to connected accounts, refunds, and webhook verification.
package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type Provider interface {
	CreatePaymentIntent(ctx context.Context, req IntentRequest) (*Intent, error)
	CreateTransfer(ctx context.Context, req TransferRequest) (*Transfer, error)
	CreateRefund(ctx context.Context, paymentIntentID string) error
}

type Metadata struct {
	OrderID    string `json:"order_id"`
	FacilityID string `json:"facility_id,omitempty"`
}

type IntentRequest struct {
	AmountCents int64    `json:"amount"`
	Currency    string   `json:"currency"`
	Metadata    Metadata `json:"metadata"`
}

type Intent struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type TransferRequest struct {
	AmountCents int64    `json:"amount"`
	Currency    string   `json:"currency"`
	Destination string   `json:"destination"`
	Metadata    Metadata `json:"metadata"`
}

type Transfer struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) CreatePaymentIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	var out Intent
	if err := c.post(ctx, "/v1/payment_intents", req, &out); err != nil {
		return nil, err
	}
	if strings.TrimSpace(out.ID) == "" {
		return nil, fmt.Errorf("payment intent response missing id")
	}
	return &out, nil
}

func (c *Client) CreateTransfer(ctx context.Context, req TransferRequest) (*Transfer, error) {
	if strings.TrimSpace(req.Destination) == "" {
		return nil, fmt.Errorf("transfer destination required")
	}
	var out Transfer
	if err := c.post(ctx, "/v1/transfers", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateRefund(ctx context.Context, paymentIntentID string) error {
	if strings.TrimSpace(paymentIntentID) == "" {
		return fmt.Errorf("payment intent id required")
	}
	body := struct {
		PaymentIntent string `json:"payment_intent"`
	}{PaymentIntent: paymentIntentID}
	return c.post(ctx, "/v1/refunds", body, nil)
}

func (c *Client) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("payment provider error: %d %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(respBody, out)
}

// Webhook event types consumed by the service.
const (
	EventPaymentIntentSucceeded = "payment_intent.succeeded"
	EventAccountUpdated         = "account.updated"
)

type Event struct {
	ID   string    `json:"id"`
	Type string    `json:"type"`
	Data EventData `json:"data"`
}

type EventData struct {
	PaymentIntentID string `json:"payment_intent_id"`
	OrderID         string `json:"order_id,omitempty"`
	AccountID       string `json:"account_id,omitempty"`
}

// VerifySignature checks the hex-encoded HMAC-SHA256 of the raw webhook body.
func VerifySignature(secret string, body []byte, signature string) error {
	signature = strings.TrimSpace(signature)
	if signature == "" {
		return fmt.Errorf("signature header missing")
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(signature))) {
		return fmt.Errorf("signature mismatch")
	}
	return nil
}
