package models

import "time"

type ReminderType string

const (
	ReminderTypeUpcoming ReminderType = "upcoming"
	ReminderTypeDueToday ReminderType = "due_today"
	ReminderTypeOverdue  ReminderType = "overdue"
)

func (t ReminderType) Valid() bool {
	return t == ReminderTypeUpcoming || t == ReminderTypeDueToday || t == ReminderTypeOverdue
}

type ReminderStatus string

const (
	ReminderStatusPending ReminderStatus = "pending"
	ReminderStatusSent    ReminderStatus = "sent"
)

type PaymentReminder struct {
	ID           string         `json:"id"`
	PaymentID    string         `json:"payment_id"`
	ReminderType ReminderType   `json:"reminder_type"`
	ScheduledFor time.Time      `json:"scheduled_for"`
	Status       ReminderStatus `json:"status"`
	SentAt       *time.Time     `json:"sent_at,omitempty"`
	EmailSent    bool           `json:"email_sent"`
	SMSSent      bool           `json:"sms_sent"`
	CreatedAt    time.Time      `json:"created_at"`
}
