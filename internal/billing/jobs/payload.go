package jobs

// LegacyChargePayload mirrors a succeeded payment into the charges table.
type LegacyChargePayload struct {
	PaymentID       string `json:"payment_id"`
	ContractID      string `json:"contract_id"`
	ClientID        string `json:"client_id,omitempty"`
	IntentID        string `json:"payment_intent_id,omitempty"`
	PaymentMethodID string `json:"payment_method_id,omitempty"`
	AmountCents     int64  `json:"amount_cents"`
	Currency        string `json:"currency"`
}

// QuickBooksReceiptPayload books a succeeded payment in QuickBooks.
type QuickBooksReceiptPayload struct {
	PaymentID  string `json:"payment_id"`
	ContractID string `json:"contract_id"`
	IntentID   string `json:"payment_intent_id,omitempty"`
}
