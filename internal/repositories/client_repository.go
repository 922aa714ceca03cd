package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"doulaBack/internal/models"
)

const clientColumns = `id, first_name, last_name, email, phone, stripe_customer_id, quickbooks_customer_id, created_at, updated_at`

type ClientRepository struct {
	DB Querier
}

func NewClientRepository(db Querier) *ClientRepository {
	return &ClientRepository{DB: db}
}

func (r *ClientRepository) Create(ctx context.Context, c models.Client) error {
	var phone any
	if c.Phone != "" {
		phone = c.Phone
	}
	_, err := r.DB.ExecContext(ctx, `INSERT INTO clients (`+clientColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.FirstName, c.LastName, c.Email, phone, nullString(c.StripeCustomerID), nullString(c.QuickBooksCustomerID),
		c.CreatedAt.UTC(), c.UpdatedAt.UTC())
	return err
}

func (r *ClientRepository) GetByID(ctx context.Context, id string) (models.Client, error) {
	var (
		c                    models.Client
		phone, stripeID, qbo sql.NullString
	)
	err := r.DB.QueryRowContext(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = ?`, id).
		Scan(&c.ID, &c.FirstName, &c.LastName, &c.Email, &phone, &stripeID, &qbo, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Client{}, models.ErrClientNotFound
		}
		return models.Client{}, err
	}
	c.Phone = phone.String
	c.StripeCustomerID = stringPtr(stripeID)
	c.QuickBooksCustomerID = stringPtr(qbo)
	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()
	return c, nil
}

func (r *ClientRepository) SetStripeCustomerID(ctx context.Context, id, customerID string, now time.Time) error {
	_, err := r.DB.ExecContext(ctx, `UPDATE clients SET stripe_customer_id = ?, updated_at = ? WHERE id = ?`, customerID, now.UTC(), id)
	return err
}

func (r *ClientRepository) SetQuickBooksCustomerID(ctx context.Context, id, customerID string, now time.Time) error {
	_, err := r.DB.ExecContext(ctx, `UPDATE clients SET quickbooks_customer_id = ?, updated_at = ? WHERE id = ?`, customerID, now.UTC(), id)
	return err
}
