package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusSucceeded PaymentStatus = "succeeded"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
	PaymentStatusCanceled  PaymentStatus = "canceled"
)

// Valid reports whether s is one of the known payment statuses.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusSucceeded, PaymentStatusFailed, PaymentStatusRefunded, PaymentStatusCanceled:
		return true
	}
	return false
}

// Open reports whether a payment in this status still has money outstanding.
func (s PaymentStatus) Open() bool {
	return s == PaymentStatusPending || s == PaymentStatusFailed
}

type PaymentType string

const (
	PaymentTypeDeposit     PaymentType = "deposit"
	PaymentTypeInstallment PaymentType = "installment"
	PaymentTypeFinal       PaymentType = "final"
)

func (t PaymentType) Valid() bool {
	return t == PaymentTypeDeposit || t == PaymentTypeInstallment || t == PaymentTypeFinal
}

// Payment is one due or paid amount of a contract (contract_payments row).
type Payment struct {
	ID                    string          `json:"id"`
	ContractID            string          `json:"contract_id"`
	ScheduleID            *string         `json:"schedule_id,omitempty"`
	Amount                decimal.Decimal `json:"amount"`
	PaymentType           PaymentType     `json:"payment_type"`
	DueDate               time.Time       `json:"due_date"`
	Status                PaymentStatus   `json:"status"`
	PaymentNumber         int             `json:"payment_number"`
	TotalPayments         int             `json:"total_payments"`
	IsOverdue             bool            `json:"is_overdue"`
	StripePaymentIntentID *string         `json:"stripe_payment_intent_id,omitempty"`
	Notes                 *string         `json:"notes,omitempty"`
	CompletedAt           *time.Time      `json:"completed_at,omitempty"`
	FailedAt              *time.Time      `json:"failed_at,omitempty"`
	RefundedAt            *time.Time      `json:"refunded_at,omitempty"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
}

// PaymentDetail is a payment joined with its contract and client for display.
type PaymentDetail struct {
	Payment
	ContractStatus ContractStatus `json:"contract_status"`
	ClientID       string         `json:"client_id"`
	ClientName     string         `json:"client_name"`
	ClientEmail    string         `json:"client_email"`
}

// PaymentStatusUpdate carries the fields of a status change.
type PaymentStatusUpdate struct {
	PaymentID             string
	Status                PaymentStatus
	StripePaymentIntentID *string
	Notes                 *string
}
