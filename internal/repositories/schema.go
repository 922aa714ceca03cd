package repositories

import (
	"context"
	"fmt"
)

// schema creates the payment tables. It is written in the subset of SQL shared
// by postgres, mysql and sqlite; foreign keys are table level because mysql
// ignores inline column references.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS clients (
		id VARCHAR(36) PRIMARY KEY,
		first_name VARCHAR(255) NOT NULL,
		last_name VARCHAR(255) NOT NULL,
		email VARCHAR(255) NOT NULL,
		phone VARCHAR(64) NULL,
		stripe_customer_id VARCHAR(255) NULL,
		quickbooks_customer_id VARCHAR(255) NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS contracts (
		id VARCHAR(36) PRIMARY KEY,
		client_id VARCHAR(36) NOT NULL,
		total_amount DECIMAL(12,2) NOT NULL,
		deposit_amount DECIMAL(12,2) NOT NULL,
		status VARCHAR(32) NOT NULL,
		document_url TEXT NULL,
		signed_at TIMESTAMP NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		FOREIGN KEY (client_id) REFERENCES clients (id)
	)`,
	`CREATE TABLE IF NOT EXISTS payment_schedules (
		id VARCHAR(36) PRIMARY KEY,
		contract_id VARCHAR(36) NOT NULL,
		schedule_name VARCHAR(255) NOT NULL,
		total_amount DECIMAL(12,2) NOT NULL,
		deposit_amount DECIMAL(12,2) NOT NULL,
		number_of_installments INTEGER NOT NULL,
		frequency VARCHAR(32) NOT NULL,
		start_date DATE NOT NULL,
		status VARCHAR(32) NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		FOREIGN KEY (contract_id) REFERENCES contracts (id)
	)`,
	`CREATE TABLE IF NOT EXISTS contract_payments (
		id VARCHAR(36) PRIMARY KEY,
		contract_id VARCHAR(36) NOT NULL,
		schedule_id VARCHAR(36) NULL,
		amount DECIMAL(12,2) NOT NULL,
		payment_type VARCHAR(32) NOT NULL,
		due_date DATE NOT NULL,
		status VARCHAR(32) NOT NULL,
		payment_number INTEGER NOT NULL,
		total_payments INTEGER NOT NULL,
		is_overdue BOOLEAN NOT NULL,
		stripe_payment_intent_id VARCHAR(255) NULL,
		notes TEXT NULL,
		completed_at TIMESTAMP NULL,
		failed_at TIMESTAMP NULL,
		refunded_at TIMESTAMP NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		FOREIGN KEY (contract_id) REFERENCES contracts (id),
		FOREIGN KEY (schedule_id) REFERENCES payment_schedules (id)
	)`,
	`CREATE TABLE IF NOT EXISTS payment_reminders (
		id VARCHAR(36) PRIMARY KEY,
		payment_id VARCHAR(36) NOT NULL,
		reminder_type VARCHAR(32) NOT NULL,
		scheduled_for TIMESTAMP NOT NULL,
		status VARCHAR(16) NOT NULL,
		sent_at TIMESTAMP NULL,
		email_sent BOOLEAN NOT NULL,
		sms_sent BOOLEAN NOT NULL,
		created_at TIMESTAMP NOT NULL,
		FOREIGN KEY (payment_id) REFERENCES contract_payments (id)
	)`,
	`CREATE TABLE IF NOT EXISTS processed_webhook_events (
		event_id VARCHAR(255) PRIMARY KEY,
		event_type VARCHAR(128) NOT NULL,
		payment_id VARCHAR(36) NULL,
		processed_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS charges (
		id VARCHAR(36) PRIMARY KEY,
		client_id VARCHAR(36) NULL,
		contract_id VARCHAR(36) NOT NULL,
		payment_id VARCHAR(36) NOT NULL,
		amount DECIMAL(12,2) NOT NULL,
		currency VARCHAR(8) NOT NULL,
		stripe_payment_intent_id VARCHAR(255) NULL,
		status VARCHAR(32) NOT NULL,
		created_at TIMESTAMP NOT NULL,
		UNIQUE (payment_id)
	)`,
	`CREATE TABLE IF NOT EXISTS payment_methods (
		id VARCHAR(36) PRIMARY KEY,
		client_id VARCHAR(36) NOT NULL,
		stripe_payment_method_id VARCHAR(255) NOT NULL,
		created_at TIMESTAMP NOT NULL,
		UNIQUE (stripe_payment_method_id)
	)`,
}

// EnsureSchema creates missing tables. Used for local setups and tests; the
// hosted database is migrated separately.
func EnsureSchema(ctx context.Context, db *DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i+1, err)
		}
	}
	return nil
}
