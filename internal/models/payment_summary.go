package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentSummary aggregates the payments of one contract.
type PaymentSummary struct {
	ContractID    string          `json:"contract_id"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	TotalPaid     decimal.Decimal `json:"total_paid"`
	TotalRefunded decimal.Decimal `json:"total_refunded"`
	TotalDue      decimal.Decimal `json:"total_due"`
	TotalOverdue  decimal.Decimal `json:"total_overdue"`
	PaymentsCount int             `json:"payments_count"`
	PaidCount     int             `json:"paid_count"`
	OverdueCount  int             `json:"overdue_count"`
	NextDueDate   *time.Time      `json:"next_due_date,omitempty"`
}

// DashboardRow is one contract line of the payments dashboard.
type DashboardRow struct {
	PaymentSummary
	ClientID       string         `json:"client_id"`
	ClientName     string         `json:"client_name"`
	ContractStatus ContractStatus `json:"contract_status"`
}

// MaintenanceResult reports what a maintenance run changed.
type MaintenanceResult struct {
	OverdueFlagged     int64 `json:"overdue_flagged"`
	OverdueCleared     int64 `json:"overdue_cleared"`
	SchedulesCompleted int64 `json:"schedules_completed"`
	RemindersCreated   int64 `json:"reminders_created"`
}
