package paypal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	StatusApproved  = "APPROVED"
	StatusCompleted = "COMPLETED"
)

type Client struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	HTTPClient   *http.Client

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// APIError is a non-2xx answer from PayPal.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("paypal: status %d: %s", e.StatusCode, e.Body)
}

// Declined reports whether PayPal refused the request itself rather than failing.
func (e *APIError) Declined() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}

type Amount struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

type purchaseUnit struct {
	ReferenceID string  `json:"reference_id,omitempty"`
	Amount      *Amount `json:"amount,omitempty"`
	Payments    *struct {
		Captures []struct {
			ID     string `json:"id"`
			Status string `json:"status"`
			Amount Amount `json:"amount"`
		} `json:"captures"`
	} `json:"payments,omitempty"`
}

type orderResponse struct {
	ID            string         `json:"id"`
	Status        string         `json:"status"`
	PurchaseUnits []purchaseUnit `json:"purchase_units"`
}

// Capture is the outcome of capturing an approved order.
type Capture struct {
	OrderID       string
	Status        string
	TransactionID string
	Amount        decimal.Decimal
	Currency      string
}

func (c *Capture) Completed() bool {
	return c.Status == StatusCompleted
}

// Order is an uncaptured PayPal order and the amount the buyer approved.
type Order struct {
	ID       string
	Status   string
	Amount   decimal.Decimal
	Currency string
}

func NewClient(baseURL, clientID, clientSecret string) *Client {
	return &Client{
		BaseURL:      strings.TrimRight(baseURL, "/"),
		ClientID:     clientID,
		ClientSecret: clientSecret,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// CreateOrder opens a PayPal order for the amount and returns its id, which the
// buyer approves client-side before capture.
func (c *Client) CreateOrder(ctx context.Context, amount decimal.Decimal, currency, reference string) (string, error) {
	body := map[string]interface{}{
		"intent": "CAPTURE",
		"purchase_units": []purchaseUnit{{
			ReferenceID: reference,
			Amount:      &Amount{CurrencyCode: currency, Value: amount.StringFixed(2)},
		}},
	}
	var resp orderResponse
	if err := c.do(ctx, http.MethodPost, "/v2/checkout/orders", body, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", fmt.Errorf("paypal: create order returned no id")
	}
	return resp.ID, nil
}

// GetOrder looks up an order without capturing it.
func (c *Client) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	var resp orderResponse
	if err := c.do(ctx, http.MethodGet, "/v2/checkout/orders/"+url.PathEscape(orderID), nil, &resp); err != nil {
		return nil, err
	}

	order := &Order{ID: resp.ID, Status: resp.Status}
	if len(resp.PurchaseUnits) > 0 && resp.PurchaseUnits[0].Amount != nil {
		amount := resp.PurchaseUnits[0].Amount
		order.Currency = amount.CurrencyCode
		v, err := decimal.NewFromString(amount.Value)
		if err != nil {
			return nil, fmt.Errorf("paypal: order %s has unreadable amount %q: %w", resp.ID, amount.Value, err)
		}
		order.Amount = v
	}
	return order, nil
}

func (c *Client) CaptureOrder(ctx context.Context, orderID string) (*Capture, error) {
	var resp orderResponse
	if err := c.do(ctx, http.MethodPost, "/v2/checkout/orders/"+url.PathEscape(orderID)+"/capture", nil, &resp); err != nil {
		return nil, err
	}

	capture := &Capture{OrderID: resp.ID, Status: resp.Status}
	for _, unit := range resp.PurchaseUnits {
		if unit.Payments == nil || len(unit.Payments.Captures) == 0 {
			continue
		}
		first := unit.Payments.Captures[0]
		capture.TransactionID = first.ID
		capture.Currency = first.Amount.CurrencyCode
		if v, err := decimal.NewFromString(first.Amount.Value); err == nil {
			capture.Amount = v
		}
		break
	}
	return capture, nil
}

func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && time.Now().Before(c.tokenExpiry) {
		return c.token, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/oauth2/token",
		strings.NewReader("grant_type=client_credentials"))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.ClientID, c.ClientSecret)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to request token: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read token response: %w", err)
	}
	if resp.StatusCode/100 != 2 {
		return "", &APIError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var token struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(raw, &token); err != nil {
		return "", fmt.Errorf("failed to parse token response: %w", err)
	}
	c.token = token.AccessToken
	// refresh a minute early
	c.tokenExpiry = time.Now().Add(time.Duration(token.ExpiresIn)*time.Second - time.Minute)
	return c.token, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload, out interface{}) error {
	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}

	var body io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request data: %w", err)
		}
		body = bytes.NewReader(jsonData)
	}

	// Create HTTP request
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	// Set headers
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("PayPal-Request-Id", uuid.NewString())

	// Send request
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode/100 != 2 {
		return &APIError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
