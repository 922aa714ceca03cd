package stripepay

import (
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v76"
)

const (
	EventPaymentIntentSucceeded = "payment_intent.succeeded"
	EventPaymentIntentFailed    = "payment_intent.payment_failed"
	EventPaymentIntentCanceled  = "payment_intent.canceled"
)

// PaymentIntentEvent is the part of a payment_intent.* event reconciliation needs.
type PaymentIntentEvent struct {
	EventID         string
	Type            string
	IntentID        string
	ContractID      string
	PaymentID       string
	ClientID        string
	AmountCents     int64
	Currency        string
	CustomerID      string
	PaymentMethodID string
	FailureMessage  string
}

// Attributed reports whether the metadata names both the contract and the payment.
func (e PaymentIntentEvent) Attributed() bool {
	return e.ContractID != "" && e.PaymentID != ""
}

// ParsePaymentIntentEvent decodes the PaymentIntent carried by event.
func ParsePaymentIntentEvent(event stripe.Event) (PaymentIntentEvent, error) {
	out := PaymentIntentEvent{EventID: event.ID, Type: string(event.Type)}
	if event.Data == nil || len(event.Data.Raw) == 0 {
		return out, fmt.Errorf("event %s has no data object", event.ID)
	}
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return out, fmt.Errorf("decode payment intent of event %s: %w", event.ID, err)
	}
	out.IntentID = pi.ID
	out.AmountCents = pi.Amount
	out.Currency = string(pi.Currency)
	if pi.Metadata != nil {
		out.ContractID = pi.Metadata["contract_id"]
		out.PaymentID = pi.Metadata["payment_id"]
		out.ClientID = pi.Metadata["client_id"]
	}
	if pi.Customer != nil {
		out.CustomerID = pi.Customer.ID
	}
	if pi.PaymentMethod != nil {
		out.PaymentMethodID = pi.PaymentMethod.ID
	}
	if pi.LastPaymentError != nil {
		out.FailureMessage = pi.LastPaymentError.Msg
	}
	return out, nil
}
