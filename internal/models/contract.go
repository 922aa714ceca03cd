package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type ContractStatus string

const (
	ContractStatusDraft            ContractStatus = "draft"
	ContractStatusSent             ContractStatus = "sent"
	ContractStatusSigned           ContractStatus = "signed"
	ContractStatusPaymentCompleted ContractStatus = "payment_completed"
	ContractStatusActive           ContractStatus = "active"
)

func (s ContractStatus) Valid() bool {
	switch s {
	case ContractStatusDraft, ContractStatusSent, ContractStatusSigned, ContractStatusPaymentCompleted, ContractStatusActive:
		return true
	}
	return false
}

// Contract is a service agreement between the business and a client.
type Contract struct {
	ID            string          `json:"id"`
	ClientID      string          `json:"client_id"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	DepositAmount decimal.Decimal `json:"deposit_amount"`
	Status        ContractStatus  `json:"status"`
	DocumentURL   *string         `json:"document_url,omitempty"`
	SignedAt      *time.Time      `json:"signed_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}
