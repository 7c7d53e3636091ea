package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	// BaseURL is the Stripe API base URL
	BaseURL = "https://api.stripe.com"
	// DefaultTimeout is the HTTP client timeout for Stripe API calls
	DefaultTimeout = 30 * time.Second
)

// PaymentStatusPaid is the session payment_status reported once the
// customer has completed checkout.
const PaymentStatusPaid = "paid"

// Client handles all Stripe API interactions. The key and base URL are
// injected at construction; nothing is read from process-wide state.
type Client struct {
	secretKey  string
	baseURL    string
	httpClient *http.Client
}

// Config holds configuration for the Stripe client
type Config struct {
	SecretKey string
	BaseURL   string
	Timeout   time.Duration
}

// NewClient creates a new Stripe API client
func NewClient(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = BaseURL
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}

	return &Client{
		secretKey: config.SecretKey,
		baseURL:   config.BaseURL,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// Product represents a Stripe product
type Product struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Price represents a Stripe price attached to a product
type Price struct {
	ID         string `json:"id"`
	Product    string `json:"product"`
	UnitAmount int64  `json:"unit_amount"`
	Currency   string `json:"currency"`
}

// CheckoutSession represents a Stripe checkout session
type CheckoutSession struct {
	ID            string `json:"id"`
	URL           string `json:"url"`
	PaymentStatus string `json:"payment_status"` // "paid", "unpaid", "no_payment_required"
	PaymentIntent string `json:"payment_intent"`
}

// APIError is the error payload Stripe returns on non-2xx responses
type APIError struct {
	StatusCode int
	Type       string `json:"type"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("stripe: %s (%d): %s", e.Type, e.StatusCode, e.Message)
}

// CreateProduct creates a product in Stripe
func (c *Client) CreateProduct(ctx context.Context, name, description string) (*Product, error) {
	form := url.Values{}
	form.Set("name", name)
	if description != "" {
		form.Set("description", description)
	}

	var product Product
	if err := c.post(ctx, "/v1/products", form, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// CreatePrice creates a price for a product. The amount is given in major
// currency units and converted to minor units for the API.
func (c *Client) CreatePrice(ctx context.Context, productID string, amount float64, currency string) (*Price, error) {
	form := url.Values{}
	form.Set("product", productID)
	form.Set("unit_amount", strconv.FormatInt(int64(math.Round(amount*100)), 10))
	form.Set("currency", currency)

	var price Price
	if err := c.post(ctx, "/v1/prices", form, &price); err != nil {
		return nil, err
	}
	return &price, nil
}

// CreateCheckoutSession creates a checkout session for a single price
func (c *Client) CreateCheckoutSession(ctx context.Context, priceID, successURL, cancelURL string, metadata map[string]string) (*CheckoutSession, error) {
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("line_items[0][price]", priceID)
	form.Set("line_items[0][quantity]", "1")
	form.Set("success_url", successURL)
	form.Set("cancel_url", cancelURL)
	for k, v := range metadata {
		form.Set(fmt.Sprintf("metadata[%s]", k), v)
	}

	var session CheckoutSession
	if err := c.post(ctx, "/v1/checkout/sessions", form, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// RetrieveSession fetches a checkout session by id
func (c *Client) RetrieveSession(ctx context.Context, sessionID string) (*CheckoutSession, error) {
	var session CheckoutSession
	if err := c.get(ctx, "/v1/checkout/sessions/"+url.PathEscape(sessionID), &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *Client) post(ctx context.Context, path string, form url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("stripe: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("stripe: failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var wrapper struct {
			Error APIError `json:"error"`
		}
		if err := json.Unmarshal(body, &wrapper); err != nil || wrapper.Error.Message == "" {
			return &APIError{StatusCode: resp.StatusCode, Type: "api_error", Message: string(body)}
		}
		apiErr := wrapper.Error
		apiErr.StatusCode = resp.StatusCode
		return &apiErr
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("stripe: failed to decode response: %w", err)
		}
	}

	return nil
}
