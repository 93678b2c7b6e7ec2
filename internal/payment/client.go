package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client creates payment-capture intents with a Stripe-compatible gateway.
// It never moves money itself: the returned client secret is confirmed by the
// storefront out-of-band before checkout persists anything.
type Client struct {
	BaseURL    string
	SecretKey  string
	HTTPClient *http.Client
}

func NewClient(baseURL, secretKey string) *Client {
	return &Client{
		BaseURL:    baseURL,
		SecretKey:  secretKey,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type intentResponse struct {
	ClientSecret string `json:"client_secret"`
	Error        *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// CreateIntent authorizes a capture for amountCents in USD and returns the
// client secret.
func (c *Client) CreateIntent(ctx context.Context, amountCents int64) (string, error) {
	if amountCents <= 0 {
		return "", fmt.Errorf("payment: amount must be a positive number of cents")
	}

	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amountCents, 10))
	form.Set("currency", "usd")
	form.Set("automatic_payment_methods[enabled]", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.BaseURL+"/v1/payment_intents", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("payment: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("payment: request failed: %w", err)
	}
	defer res.Body.Close()

	var resp intentResponse
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		return "", fmt.Errorf("payment: decode response: %w", err)
	}
	if resp.Error != nil {
		return "", fmt.Errorf("payment: upstream error: %s", resp.Error.Message)
	}
	if resp.ClientSecret == "" {
		return "", fmt.Errorf("payment: no client secret in response")
	}
	return resp.ClientSecret, nil
}
