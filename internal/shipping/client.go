package shipping

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/farmstead/storefront/internal/logging"
)

type Address struct {
	Street string `json:"street"`
	City   string `json:"city"`
	State  string `json:"state"`
	Zip    string `json:"zip"`
}

// CartItem is a rate-quote input line. The weight comes in as a string from
// the storefront and may be junk for legacy products; such lines are skipped,
// never fatal.
type CartItem struct {
	ProductID uint   `json:"productId"`
	Quantity  int    `json:"quantity"`
	Weight    string `json:"weight"`
}

type Rate struct {
	Carrier      string  `json:"carrier"`
	Service      string  `json:"service"`
	Rate         float64 `json:"rate"`
	DeliveryDays int     `json:"delivery_days"`
	RateID       string  `json:"rate_id"`
}

type VerifyResult struct {
	Valid      bool            `json:"valid"`
	Message    string          `json:"message,omitempty"`
	Normalized Address         `json:"address"`
	Raw        json.RawMessage `json:"raw,omitempty"`
}

// Client talks to an EasyPost-compatible address/shipment API.
type Client struct {
	BaseURL    string
	APIKey     string
	From       Address
	HTTPClient *http.Client
}

func NewClient(baseURL, apiKey string, from Address) *Client {
	return &Client{
		BaseURL:    baseURL,
		APIKey:     apiKey,
		From:       from,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type wireAddress struct {
	Street1 string   `json:"street1"`
	City    string   `json:"city"`
	State   string   `json:"state"`
	Zip     string   `json:"zip"`
	Country string   `json:"country"`
	Verify  []string `json:"verify,omitempty"`
}

func toWire(a Address, verify bool) wireAddress {
	w := wireAddress{
		Street1: a.Street,
		City:    a.City,
		State:   NormalizeState(a.State),
		Zip:     a.Zip,
		Country: "US",
	}
	if verify {
		w.Verify = []string{"delivery"}
	}
	return w
}

func (c *Client) post(ctx context.Context, path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("shipping: marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("shipping: build request: %w", err)
	}
	req.SetBasicAuth(c.APIKey, "")
	req.Header.Set("Content-Type", "application/json")

	res, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("shipping: request failed: %w", err)
	}
	defer res.Body.Close()

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("shipping: decode response: %w", err)
	}
	return nil
}

type verifyResponse struct {
	Verifications map[string]struct {
		Success bool `json:"success"`
		Errors  []struct {
			Message string `json:"message"`
		} `json:"errors"`
	} `json:"verifications"`
}

// VerifyAddress normalizes the state and asks the upstream for a delivery
// verification. An absent or empty verifications object is treated as valid:
// the sandbox API omits it, and blocking every checkout in that mode is worse
// than letting a typo through. This leniency is deliberate.
func (c *Client) VerifyAddress(ctx context.Context, addr Address) (*VerifyResult, error) {
	normalized := addr
	normalized.State = NormalizeState(addr.State)

	payload := map[string]interface{}{"address": toWire(addr, true)}

	var resp verifyResponse
	if err := c.post(ctx, "/v2/addresses", payload, &resp); err != nil {
		return nil, err
	}

	if len(resp.Verifications) == 0 {
		return &VerifyResult{Valid: true, Normalized: normalized}, nil
	}

	if d, ok := resp.Verifications["delivery"]; ok && d.Success {
		return &VerifyResult{Valid: true, Normalized: normalized}, nil
	}

	msg := "Invalid address"
	if d, ok := resp.Verifications["delivery"]; ok && len(d.Errors) > 0 {
		msg = d.Errors[0].Message
	}
	return &VerifyResult{Valid: false, Message: msg, Normalized: normalized}, nil
}

// ParcelWeightOz sums weight*quantity across the cart. Lines whose weight does
// not parse are logged and skipped rather than failing the quote.
func ParcelWeightOz(ctx context.Context, items []CartItem) float64 {
	l := logging.FromContext(ctx)
	var total float64
	for _, item := range items {
		w, err := strconv.ParseFloat(item.Weight, 64)
		if err != nil {
			l.Warn("rate_quote_skip_line", "product_id", item.ProductID, "weight", item.Weight)
			continue
		}
		qty := item.Quantity
		if qty < 1 {
			qty = 1
		}
		total += w * float64(qty)
	}
	return math.Round(total*100) / 100
}

type shipmentResponse struct {
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
	Rates []struct {
		ID           string `json:"id"`
		Carrier      string `json:"carrier"`
		Service      string `json:"service"`
		Rate         string `json:"rate"`
		DeliveryDays int    `json:"delivery_days"`
	} `json:"rates"`
}

// GetRates quotes carrier options for a synthetic parcel built from the cart:
// summed weight in a fixed 6x6x6 box. Callers treat a failure or an empty list
// as "offer local pickup only", not as a blocked checkout.
func (c *Client) GetRates(ctx context.Context, to Address, items []CartItem) ([]Rate, error) {
	parcel := map[string]interface{}{
		"weight": ParcelWeightOz(ctx, items),
		"length": 6,
		"width":  6,
		"height": 6,
	}
	payload := map[string]interface{}{
		"shipment": map[string]interface{}{
			"to_address":   toWire(to, false),
			"from_address": toWire(c.From, false),
			"parcel":       parcel,
		},
	}

	var resp shipmentResponse
	if err := c.post(ctx, "/v2/shipments", payload, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("shipping: upstream error: %s", resp.Error.Message)
	}

	rates := make([]Rate, 0, len(resp.Rates))
	for _, r := range resp.Rates {
		price, err := strconv.ParseFloat(r.Rate, 64)
		if err != nil {
			continue
		}
		rates = append(rates, Rate{
			Carrier:      r.Carrier,
			Service:      r.Service,
			Rate:         price,
			DeliveryDays: r.DeliveryDays,
			RateID:       r.ID,
		})
	}
	return rates, nil
}
