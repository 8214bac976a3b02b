// Package razorpay implements the payment gateway over Razorpay's Orders
// API.
package razorpay

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/ekaraca/storefront/internal/gateway"
	"github.com/ekaraca/storefront/pkg/httpclient"
)

const defaultBaseURL = "https://api.razorpay.com/v1"

// Config holds Razorpay API credentials.
type Config struct {
	KeyID     string
	KeySecret string
	BaseURL   string
}

// Client talks to the Razorpay Orders API through a circuit-broken HTTP
// client.
type Client struct {
	cfg  Config
	http *httpclient.BreakerClient
}

// New creates a Razorpay gateway client.
func New(cfg Config, http *httpclient.BreakerClient) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	return &Client{cfg: cfg, http: http}
}

type createOrderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

type createOrderResponse struct {
	ID string `json:"id"`
}

// CreateOrder registers a payment intent and returns Razorpay's order id.
// Amount is in minor currency units, as Razorpay expects.
func (c *Client) CreateOrder(ctx context.Context, amount int64, currency, receipt string) (string, error) {
	body, err := json.Marshal(createOrderRequest{
		Amount:   amount,
		Currency: currency,
		Receipt:  receipt,
	})
	if err != nil {
		return "", fmt.Errorf("encode order request: %w", err)
	}

	resp, err := c.http.Do(ctx, http.MethodPost, c.cfg.BaseURL+"/orders", body, map[string]string{
		"Content-Type":  "application/json",
		"Authorization": "Basic " + basicAuth(c.cfg.KeyID, c.cfg.KeySecret),
	})
	if err != nil {
		return "", fmt.Errorf("create gateway order: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("gateway returned %d: %s", resp.StatusCode, raw)
	}

	var out createOrderResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode gateway response: %w", err)
	}
	if out.ID == "" {
		return "", fmt.Errorf("gateway response missing order id")
	}
	return out.ID, nil
}

// VerifySignature checks the signature Razorpay's checkout returns to the
// client after payment.
func (c *Client) VerifySignature(gatewayOrderID, gatewayPaymentID, signature string) bool {
	return gateway.VerifySignature(c.cfg.KeySecret, gatewayOrderID, gatewayPaymentID, signature)
}

// KeyID returns the public API key the frontend needs to open checkout.
func (c *Client) KeyID() string {
	return c.cfg.KeyID
}

func basicAuth(user, pass string) string {
	return base64.StdEncoding.EncodeToString([]byte(user + ":" + pass))
}
