package stripepay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

// ErrInvalidSignature is returned for every webhook that fails verification.
var ErrInvalidSignature = errors.New("Invalid webhook signature")

// ErrNotConfigured is returned by API calls when no secret key is set.
var ErrNotConfigured = errors.New("stripe is not configured")

type Config struct {
	SecretKey     string
	WebhookSecret string
	Currency      string
	// Tolerance bounds the age of a signed webhook timestamp.
	Tolerance time.Duration
	Logger    *slog.Logger
	// Backends overrides the Stripe API endpoints (tests).
	Backends *stripe.Backends
}

type Client struct {
	api           *client.API
	webhookSecret string
	currency      string
	tolerance     time.Duration
	logger        *slog.Logger
}

func NewClient(cfg Config) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	currency := strings.ToLower(strings.TrimSpace(cfg.Currency))
	if currency == "" {
		currency = string(stripe.CurrencyUSD)
	}
	tolerance := cfg.Tolerance
	if tolerance <= 0 {
		tolerance = webhook.DefaultTolerance
	}
	c := &Client{
		webhookSecret: cfg.WebhookSecret,
		currency:      currency,
		tolerance:     tolerance,
		logger:        logger.With("component", "stripe"),
	}
	if cfg.SecretKey != "" {
		c.api = client.New(cfg.SecretKey, cfg.Backends)
	}
	return c
}

func (c *Client) Currency() string { return c.currency }

// VerifyWebhookSignature checks the Stripe-Signature header against the raw
// body and returns the decoded event. It fails closed: a missing secret, a
// missing header or any verification problem yields ErrInvalidSignature.
func (c *Client) VerifyWebhookSignature(payload []byte, header string) (stripe.Event, error) {
	if c.webhookSecret == "" || header == "" {
		return stripe.Event{}, ErrInvalidSignature
	}
	event, err := webhook.ConstructEventWithOptions(payload, header, c.webhookSecret, webhook.ConstructEventOptions{
		Tolerance:                c.tolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		c.logger.Warn("webhook signature rejected", "err", err)
		return stripe.Event{}, ErrInvalidSignature
	}
	return event, nil
}

// CustomerRequest describes the Stripe customer of a client.
type CustomerRequest struct {
	ClientID string
	Email    string
	Name     string
}

// CreateCustomer creates a Stripe customer and returns its id.
func (c *Client) CreateCustomer(ctx context.Context, req CustomerRequest) (string, error) {
	if c.api == nil {
		return "", ErrNotConfigured
	}
	params := &stripe.CustomerParams{
		Email: stripe.String(req.Email),
		Name:  stripe.String(req.Name),
	}
	params.Context = ctx
	params.AddMetadata("client_id", req.ClientID)
	params.SetIdempotencyKey("customer-" + req.ClientID)

	cust, err := c.api.Customers.New(params)
	if err != nil {
		return "", fmt.Errorf("create customer: %w", err)
	}
	c.logger.Info("customer created", "client_id", req.ClientID, "customer_id", cust.ID)
	return cust.ID, nil
}

// IntentRequest describes a PaymentIntent for one payment.
type IntentRequest struct {
	Amount         decimal.Decimal
	CustomerID     string
	Description    string
	Metadata       map[string]string
	IdempotencyKey string
}

type Intent struct {
	ID           string `json:"payment_intent_id"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
	AmountCents  int64  `json:"amount_cents"`
	Currency     string `json:"currency"`
}

// CreatePaymentIntent creates a PaymentIntent. Metadata is what later lets
// the webhook find the payment.
func (c *Client) CreatePaymentIntent(ctx context.Context, req IntentRequest) (Intent, error) {
	if c.api == nil {
		return Intent{}, ErrNotConfigured
	}
	cents := ToCents(req.Amount)
	if cents <= 0 {
		return Intent{}, fmt.Errorf("create payment intent: amount must be positive, got %s", req.Amount)
	}
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(cents),
		Currency: stripe.String(c.currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	if req.CustomerID != "" {
		params.Customer = stripe.String(req.CustomerID)
	}
	if req.Description != "" {
		params.Description = stripe.String(req.Description)
	}
	params.Context = ctx
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	pi, err := c.api.PaymentIntents.New(params)
	if err != nil {
		return Intent{}, fmt.Errorf("create payment intent: %w", err)
	}
	c.logger.Info("payment intent created", "payment_intent_id", pi.ID, "amount_cents", cents)
	return Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
		AmountCents:  pi.Amount,
		Currency:     string(pi.Currency),
	}, nil
}

// ToCents converts a decimal amount to the smallest currency unit.
func ToCents(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// FromCents converts the smallest currency unit back to a decimal amount.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}
