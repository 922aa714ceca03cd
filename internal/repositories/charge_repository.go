package repositories

import (
	"context"
	"database/sql"
	"errors"

	"doulaBack/internal/models"
)

// ChargeRepository writes the legacy charges and payment_methods tables.
type ChargeRepository struct {
	DB Querier
}

func NewChargeRepository(db Querier) *ChargeRepository {
	return &ChargeRepository{DB: db}
}

// Insert adds the compatibility row of a payment. It reports false when the
// payment already has one.
func (r *ChargeRepository) Insert(ctx context.Context, c models.Charge) (bool, error) {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO charges (id, client_id, contract_id, payment_id, amount, currency, stripe_payment_intent_id, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, nullString(c.ClientID), c.ContractID, c.PaymentID, c.Amount, c.Currency, nullString(c.StripePaymentIntentID), c.Status, c.CreatedAt.UTC())
	if err != nil {
		if isDuplicateKeyError(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// CountByPayment returns how many compatibility rows exist for a payment.
func (r *ChargeRepository) CountByPayment(ctx context.Context, paymentID string) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM charges WHERE payment_id = ?`, paymentID).Scan(&n)
	return n, err
}

func (r *ChargeRepository) GetByPayment(ctx context.Context, paymentID string) (models.Charge, error) {
	var (
		c                  models.Charge
		clientID, intentID sql.NullString
	)
	err := r.DB.QueryRowContext(ctx, `SELECT id, client_id, contract_id, payment_id, amount, currency, stripe_payment_intent_id, status, created_at
		FROM charges WHERE payment_id = ?`, paymentID).
		Scan(&c.ID, &clientID, &c.ContractID, &c.PaymentID, &c.Amount, &c.Currency, &intentID, &c.Status, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Charge{}, models.ErrNoRecord
		}
		return models.Charge{}, err
	}
	c.ClientID = stringPtr(clientID)
	c.StripePaymentIntentID = stringPtr(intentID)
	c.CreatedAt = c.CreatedAt.UTC()
	return c, nil
}

// SavePaymentMethod records a Stripe payment method for a client once.
func (r *ChargeRepository) SavePaymentMethod(ctx context.Context, pm models.PaymentMethod) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO payment_methods (id, client_id, stripe_payment_method_id, created_at) VALUES (?, ?, ?, ?)`,
		pm.ID, pm.ClientID, pm.StripePaymentMethodID, pm.CreatedAt.UTC())
	if isDuplicateKeyError(err) {
		return nil
	}
	return err
}
