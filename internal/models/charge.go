package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Charge is a row of the legacy charges table kept for older readers.
type Charge struct {
	ID                    string          `json:"id"`
	ClientID              *string         `json:"client_id,omitempty"`
	ContractID            string          `json:"contract_id"`
	PaymentID             string          `json:"payment_id"`
	Amount                decimal.Decimal `json:"amount"`
	Currency              string          `json:"currency"`
	StripePaymentIntentID *string         `json:"stripe_payment_intent_id,omitempty"`
	Status                string          `json:"status"`
	CreatedAt             time.Time       `json:"created_at"`
}

// PaymentMethod is a row of the legacy payment_methods table.
type PaymentMethod struct {
	ID                    string    `json:"id"`
	ClientID              string    `json:"client_id"`
	StripePaymentMethodID string    `json:"stripe_payment_method_id"`
	CreatedAt             time.Time `json:"created_at"`
}

// ProcessedWebhookEvent records a provider event id that was applied.
type ProcessedWebhookEvent struct {
	EventID     string    `json:"event_id"`
	EventType   string    `json:"event_type"`
	PaymentID   *string   `json:"payment_id,omitempty"`
	ProcessedAt time.Time `json:"processed_at"`
}
