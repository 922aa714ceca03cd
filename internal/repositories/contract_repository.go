package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"doulaBack/internal/models"
)

const contractColumns = `id, client_id, total_amount, deposit_amount, status, document_url, signed_at, created_at, updated_at`

type ContractRepository struct {
	DB Querier
}

func NewContractRepository(db Querier) *ContractRepository {
	return &ContractRepository{DB: db}
}

func (r *ContractRepository) WithTx(tx *Tx) *ContractRepository {
	return &ContractRepository{DB: tx}
}

func (r *ContractRepository) Create(ctx context.Context, c models.Contract) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO contracts (`+contractColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.ClientID, c.TotalAmount, c.DepositAmount, string(c.Status), nullString(c.DocumentURL), nullTime(c.SignedAt),
		c.CreatedAt.UTC(), c.UpdatedAt.UTC())
	if isForeignKeyConstraintError(err) {
		return models.ErrClientNotFound
	}
	return err
}

func (r *ContractRepository) GetByID(ctx context.Context, id string) (models.Contract, error) {
	var (
		c        models.Contract
		status   string
		document sql.NullString
		signedAt sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx, `SELECT `+contractColumns+` FROM contracts WHERE id = ?`, id).
		Scan(&c.ID, &c.ClientID, &c.TotalAmount, &c.DepositAmount, &status, &document, &signedAt, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Contract{}, models.ErrContractNotFound
		}
		return models.Contract{}, err
	}
	c.Status = models.ContractStatus(status)
	c.DocumentURL = stringPtr(document)
	c.SignedAt = timePtr(signedAt)
	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()
	return c, nil
}

// SetStatus changes the contract status. It reports false when the contract
// already had that status.
func (r *ContractRepository) SetStatus(ctx context.Context, id string, status models.ContractStatus, now time.Time) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `UPDATE contracts SET status = ?, updated_at = ? WHERE id = ? AND status <> ?`,
		string(status), now.UTC(), id, string(status))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MarkSigned sets the signed status and timestamp.
func (r *ContractRepository) MarkSigned(ctx context.Context, id string, signedAt time.Time) error {
	_, err := r.DB.ExecContext(ctx, `UPDATE contracts SET status = ?, signed_at = ?, updated_at = ? WHERE id = ?`,
		string(models.ContractStatusSigned), signedAt.UTC(), signedAt.UTC(), id)
	return err
}

func (r *ContractRepository) SetDocumentURL(ctx context.Context, id, url string, now time.Time) error {
	_, err := r.DB.ExecContext(ctx, `UPDATE contracts SET document_url = ?, updated_at = ? WHERE id = ?`, url, now.UTC(), id)
	return err
}
