package fsm

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"doulaBack/internal/models"
)

// ErrConflict is returned by Apply when the row no longer has the expected
// status, i.e. a concurrent writer moved it first.
var ErrConflict = errors.New("payment status changed concurrently")

// TransitionError reports a status change the payment lifecycle forbids.
type TransitionError struct {
	From models.PaymentStatus
	To   models.PaymentStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid payment status transition: %s -> %s", e.From, e.To)
}

var transitions = map[models.PaymentStatus]map[models.PaymentStatus]struct{}{
	models.PaymentStatusPending: {
		models.PaymentStatusSucceeded: {},
		models.PaymentStatusFailed:    {},
		models.PaymentStatusCanceled:  {},
	},
	models.PaymentStatusFailed: {
		models.PaymentStatusPending: {},
	},
	models.PaymentStatusSucceeded: {
		models.PaymentStatusRefunded: {},
	},
	models.PaymentStatusRefunded: {},
	models.PaymentStatusCanceled: {},
}

// CanTransition returns whether a payment can move from the current status to the target status.
func CanTransition(from, to models.PaymentStatus) bool {
	if from == to {
		return from.Valid()
	}
	allowed, ok := transitions[from]
	if !ok {
		return false
	}
	_, ok = allowed[to]
	return ok
}

// Check returns a *TransitionError when the move is not allowed.
func Check(from, to models.PaymentStatus) error {
	if !CanTransition(from, to) {
		return &TransitionError{From: from, To: to}
	}
	return nil
}

// Terminal reports whether no transition leaves the status.
func Terminal(s models.PaymentStatus) bool {
	return len(transitions[s]) == 0
}

// Execer is satisfied by *sql.DB, *sql.Tx and the repositories' rebinding wrappers.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Change describes one guarded status write. Stamp columns are derived from To.
type Change struct {
	PaymentID             string
	From                  models.PaymentStatus
	To                    models.PaymentStatus
	StripePaymentIntentID *string
	Notes                 *string
	At                    time.Time
}

// Apply updates a payment status using optimistic validation.
func Apply(ctx context.Context, db Execer, c Change) error {
	if err := Check(c.From, c.To); err != nil {
		return err
	}
	if c.From == c.To {
		return nil
	}

	query := `UPDATE contract_payments SET status = ?, updated_at = ?`
	args := []any{string(c.To), c.At}
	switch c.To {
	case models.PaymentStatusSucceeded:
		query += `, completed_at = ?, is_overdue = ?`
		args = append(args, c.At, false)
	case models.PaymentStatusFailed:
		query += `, failed_at = ?`
		args = append(args, c.At)
	case models.PaymentStatusRefunded:
		query += `, refunded_at = ?`
		args = append(args, c.At)
	}
	if c.StripePaymentIntentID != nil {
		query += `, stripe_payment_intent_id = ?`
		args = append(args, *c.StripePaymentIntentID)
	}
	if c.Notes != nil {
		query += `, notes = ?`
		args = append(args, *c.Notes)
	}
	query += ` WHERE id = ? AND status = ?`
	args = append(args, c.PaymentID, string(c.From))

	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrConflict
	}
	return nil
}
