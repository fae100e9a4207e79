package razorpay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

const (
	DefaultBaseURL  = "https://api.razorpay.com"
	DefaultCurrency = "INR"
	defaultTimeout  = 10 * time.Second
)

var ErrNotConfigured = errors.New("razorpay credentials are not configured")

// Config holds the gateway credentials and endpoint.
type Config struct {
	KeyID     string
	KeySecret string
	BaseURL   string
	Timeout   time.Duration
}

// OrderRequest is the body of POST /v1/orders. Amount is in the smallest currency unit.
type OrderRequest struct {
	Amount         int64             `json:"amount"`
	Currency       string            `json:"currency"`
	Receipt        string            `json:"receipt"`
	PaymentCapture int               `json:"payment_capture"`
	Notes          map[string]string `json:"notes,omitempty"`
}

// Order is the gateway's view of a payment order.
type Order struct {
	ID         string            `json:"id"`
	Entity     string            `json:"entity"`
	Amount     int64             `json:"amount"`
	AmountPaid int64             `json:"amount_paid"`
	AmountDue  int64             `json:"amount_due"`
	Currency   string            `json:"currency"`
	Receipt    string            `json:"receipt"`
	Status     string            `json:"status"`
	Attempts   int               `json:"attempts"`
	Notes      map[string]string `json:"notes,omitempty"`
	CreatedAt  int64             `json:"created_at"`
}

// APIError is returned when the gateway answers with a non-2xx status.
type APIError struct {
	StatusCode  int
	Code        string `json:"code"`
	Description string `json:"description"`
}

func (e *APIError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("razorpay: status %d", e.StatusCode)
	}
	return fmt.Sprintf("razorpay: status %d: %s (%s)", e.StatusCode, e.Description, e.Code)
}

// Client talks to the Razorpay REST API through fiber's HTTP agent.
type Client struct {
	cfg Config
}

// NewClient creates a Razorpay API client. An empty BaseURL selects the live API.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Client{cfg: cfg}
}

// KeyID is the public key handed to checkout clients.
func (c *Client) KeyID() string {
	return c.cfg.KeyID
}

// ToPaise converts a rupee amount to paise, rounding half away from zero.
func ToPaise(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// CreateOrder registers a payment order with the gateway.
func (c *Client) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	if c.cfg.KeyID == "" || c.cfg.KeySecret == "" {
		return nil, ErrNotConfigured
	}
	if req.Currency == "" {
		req.Currency = DefaultCurrency
	}

	timeout := c.cfg.Timeout
	if deadline, ok := ctx.Deadline(); ok {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, ctx.Err()
		}
		if remaining < timeout {
			timeout = remaining
		}
	}

	agent := fiber.Post(c.cfg.BaseURL + "/v1/orders").
		BasicAuth(c.cfg.KeyID, c.cfg.KeySecret).
		JSON(req).
		Timeout(timeout)

	status, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return nil, fmt.Errorf("razorpay: create order: %w", errors.Join(errs...))
	}

	if status < fiber.StatusOK || status >= fiber.StatusMultipleChoices {
		apiErr := &APIError{StatusCode: status}
		var envelope struct {
			Error *APIError `json:"error"`
		}
		if json.Unmarshal(body, &envelope) == nil && envelope.Error != nil {
			apiErr.Code = envelope.Error.Code
			apiErr.Description = envelope.Error.Description
		}
		return nil, apiErr
	}

	var order Order
	if err := json.Unmarshal(body, &order); err != nil {
		return nil, fmt.Errorf("razorpay: decode order: %w", err)
	}
	return &order, nil
}
