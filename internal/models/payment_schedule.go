package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type ScheduleStatus string

const (
	ScheduleStatusActive    ScheduleStatus = "active"
	ScheduleStatusCompleted ScheduleStatus = "completed"
	ScheduleStatusCanceled  ScheduleStatus = "canceled"
)

// PaymentSchedule is the installment plan generated for a contract.
type PaymentSchedule struct {
	ID                   string          `json:"id"`
	ContractID           string          `json:"contract_id"`
	ScheduleName         string          `json:"schedule_name"`
	TotalAmount          decimal.Decimal `json:"total_amount"`
	DepositAmount        decimal.Decimal `json:"deposit_amount"`
	NumberOfInstallments int             `json:"number_of_installments"`
	Frequency            string          `json:"frequency"`
	StartDate            time.Time       `json:"start_date"`
	Status               ScheduleStatus  `json:"status"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// ContractSchedule is the response of the contract schedule route.
type ContractSchedule struct {
	Schedules []PaymentSchedule `json:"schedules"`
	Payments  []Payment         `json:"payments"`
}
