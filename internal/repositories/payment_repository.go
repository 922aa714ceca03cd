package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"doulaBack/internal/billing/fsm"
	"doulaBack/internal/models"
)

const paymentColumns = `id, contract_id, schedule_id, amount, payment_type, due_date, status, payment_number, total_payments, is_overdue, stripe_payment_intent_id, notes, completed_at, failed_at, refunded_at, created_at, updated_at`

var paymentDetailSelect = `SELECT ` + prefixColumns("p", paymentColumns) + `,
	COALESCE(c.status, ''), COALESCE(c.client_id, ''), COALESCE(cl.first_name, ''), COALESCE(cl.last_name, ''), COALESCE(cl.email, '')
	FROM contract_payments p
	LEFT JOIN contracts c ON c.id = p.contract_id
	LEFT JOIN clients cl ON cl.id = c.client_id`

type PaymentRepository struct {
	DB Querier
}

func NewPaymentRepository(db Querier) *PaymentRepository {
	return &PaymentRepository{DB: db}
}

// WithTx returns a repository bound to tx.
func (r *PaymentRepository) WithTx(tx *Tx) *PaymentRepository {
	return &PaymentRepository{DB: tx}
}

func (r *PaymentRepository) Create(ctx context.Context, p models.Payment) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO contract_payments (`+paymentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.ContractID, nullString(p.ScheduleID), p.Amount, string(p.PaymentType), p.DueDate.UTC(), string(p.Status),
		p.PaymentNumber, p.TotalPayments, p.IsOverdue, nullString(p.StripePaymentIntentID), nullString(p.Notes),
		nullTime(p.CompletedAt), nullTime(p.FailedAt), nullTime(p.RefundedAt), p.CreatedAt.UTC(), p.UpdatedAt.UTC())
	if isForeignKeyConstraintError(err) {
		return models.ErrInvalidReference
	}
	return err
}

func (r *PaymentRepository) GetByID(ctx context.Context, id string) (models.Payment, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM contract_payments WHERE id = ?`, id)
	var pr paymentRow
	if err := row.Scan(pr.dest()...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Payment{}, models.ErrPaymentNotFound
		}
		return models.Payment{}, err
	}
	return pr.payment(), nil
}

// ListByContract returns the payments of a contract in schedule order.
func (r *PaymentRepository) ListByContract(ctx context.Context, contractID string) ([]models.Payment, error) {
	return r.list(ctx, `SELECT `+paymentColumns+` FROM contract_payments WHERE contract_id = ? ORDER BY payment_number, due_date`, contractID)
}

// ListHistory returns the payments of a contract that left pending, latest change first.
func (r *PaymentRepository) ListHistory(ctx context.Context, contractID string) ([]models.Payment, error) {
	return r.list(ctx, `SELECT `+paymentColumns+` FROM contract_payments
		WHERE contract_id = ? AND status <> 'pending'
		ORDER BY updated_at DESC, payment_number DESC`, contractID)
}

// CountByContract returns how many payments the contract has.
func (r *PaymentRepository) CountByContract(ctx context.Context, contractID string) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM contract_payments WHERE contract_id = ?`, contractID).Scan(&n)
	return n, err
}

// SetTotalPayments renumbers the payment count shown on every payment of a contract.
func (r *PaymentRepository) SetTotalPayments(ctx context.Context, contractID string, total int, now time.Time) error {
	_, err := r.DB.ExecContext(ctx, `UPDATE contract_payments SET total_payments = ?, updated_at = ? WHERE contract_id = ?`, total, now.UTC(), contractID)
	return err
}

// ApplyStatus performs a guarded status write.
func (r *PaymentRepository) ApplyStatus(ctx context.Context, c fsm.Change) error {
	c.At = c.At.UTC()
	return fsm.Apply(ctx, r.DB, c)
}

// UpdateOverdueFlags flags open payments due before today and clears the flag
// everywhere else. Rows that already hold the right value are not touched.
func (r *PaymentRepository) UpdateOverdueFlags(ctx context.Context, today, now time.Time) (flagged, cleared int64, err error) {
	res, err := r.DB.ExecContext(ctx, `UPDATE contract_payments SET is_overdue = ?, updated_at = ?
		WHERE is_overdue = ? AND status IN ('pending', 'failed') AND due_date < ?`,
		true, now.UTC(), false, today.UTC())
	if err != nil {
		return 0, 0, err
	}
	if flagged, err = res.RowsAffected(); err != nil {
		return 0, 0, err
	}

	res, err = r.DB.ExecContext(ctx, `UPDATE contract_payments SET is_overdue = ?, updated_at = ?
		WHERE is_overdue = ? AND (status NOT IN ('pending', 'failed') OR due_date >= ?)`,
		false, now.UTC(), true, today.UTC())
	if err != nil {
		return flagged, 0, err
	}
	if cleared, err = res.RowsAffected(); err != nil {
		return flagged, 0, err
	}
	return flagged, cleared, nil
}

// ListOverdue returns open payments due before today, oldest first.
func (r *PaymentRepository) ListOverdue(ctx context.Context, today time.Time) ([]models.PaymentDetail, error) {
	return r.listDetails(ctx, paymentDetailSelect+`
		WHERE p.status IN ('pending', 'failed') AND p.due_date < ?
		ORDER BY p.due_date ASC, p.payment_number ASC`, today.UTC())
}

func (r *PaymentRepository) ListByStatus(ctx context.Context, status models.PaymentStatus) ([]models.PaymentDetail, error) {
	return r.listDetails(ctx, paymentDetailSelect+`
		WHERE p.status = ?
		ORDER BY p.due_date ASC, p.payment_number ASC`, string(status))
}

// ListDueBetween returns open payments with a due date in [start, end], earliest first.
func (r *PaymentRepository) ListDueBetween(ctx context.Context, start, end time.Time) ([]models.PaymentDetail, error) {
	return r.listDetails(ctx, paymentDetailSelect+`
		WHERE p.status IN ('pending', 'failed') AND p.due_date >= ? AND p.due_date <= ?
		ORDER BY p.due_date ASC, p.payment_number ASC`, start.UTC(), end.UTC())
}

// ListAllDetails returns every payment joined to its contract and client.
func (r *PaymentRepository) ListAllDetails(ctx context.Context) ([]models.PaymentDetail, error) {
	return r.listDetails(ctx, paymentDetailSelect+` ORDER BY p.contract_id, p.payment_number`)
}

func (r *PaymentRepository) list(ctx context.Context, query string, args ...any) ([]models.Payment, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := []models.Payment{}
	for rows.Next() {
		var pr paymentRow
		if err := rows.Scan(pr.dest()...); err != nil {
			return nil, err
		}
		payments = append(payments, pr.payment())
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *PaymentRepository) listDetails(ctx context.Context, query string, args ...any) ([]models.PaymentDetail, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	details := []models.PaymentDetail{}
	for rows.Next() {
		var (
			pr                         paymentRow
			contractStatus, clientID   string
			firstName, lastName, email string
		)
		dest := append(pr.dest(), &contractStatus, &clientID, &firstName, &lastName, &email)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		client := models.Client{FirstName: firstName, LastName: lastName}
		details = append(details, models.PaymentDetail{
			Payment:        pr.payment(),
			ContractStatus: models.ContractStatus(contractStatus),
			ClientID:       clientID,
			ClientName:     client.FullName(),
			ClientEmail:    email,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return details, nil
}

type paymentRow struct {
	p                           models.Payment
	paymentType, status         string
	scheduleID, intentID, notes sql.NullString
	completed, failed, refunded sql.NullTime
}

func (pr *paymentRow) dest() []any {
	return []any{
		&pr.p.ID, &pr.p.ContractID, &pr.scheduleID, &pr.p.Amount, &pr.paymentType, &pr.p.DueDate, &pr.status,
		&pr.p.PaymentNumber, &pr.p.TotalPayments, &pr.p.IsOverdue, &pr.intentID, &pr.notes,
		&pr.completed, &pr.failed, &pr.refunded, &pr.p.CreatedAt, &pr.p.UpdatedAt,
	}
}

func (pr *paymentRow) payment() models.Payment {
	p := pr.p
	p.PaymentType = models.PaymentType(pr.paymentType)
	p.Status = models.PaymentStatus(pr.status)
	p.ScheduleID = stringPtr(pr.scheduleID)
	p.StripePaymentIntentID = stringPtr(pr.intentID)
	p.Notes = stringPtr(pr.notes)
	p.CompletedAt = timePtr(pr.completed)
	p.FailedAt = timePtr(pr.failed)
	p.RefundedAt = timePtr(pr.refunded)
	p.DueDate = p.DueDate.UTC()
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return p
}
