package models

import (
	"errors"
)

var (
	ErrNoRecord          = errors.New("models: no matching record found")
	ErrPaymentNotFound   = errors.New("payment not found")
	ErrContractNotFound  = errors.New("contract not found")
	ErrClientNotFound    = errors.New("client not found")
	ErrReminderNotFound  = errors.New("reminder not found")
	ErrScheduleExists    = errors.New("contract already has an active payment schedule")
	ErrDuplicateEvent    = errors.New("webhook event already processed")
	ErrDuplicateRecord   = errors.New("models: duplicate record")
	ErrInvalidReference  = errors.New("models: referenced record does not exist")
	ErrPaymentNotPayable = errors.New("payment is not open for collection")

	ErrStorageNotConfigured = errors.New("document storage is not configured")
)
