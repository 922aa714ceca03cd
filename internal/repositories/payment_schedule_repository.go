package repositories

import (
	"context"
	"time"

	"doulaBack/internal/models"
)

const scheduleColumns = `id, contract_id, schedule_name, total_amount, deposit_amount, number_of_installments, frequency, start_date, status, created_at, updated_at`

type PaymentScheduleRepository struct {
	DB Querier
}

func NewPaymentScheduleRepository(db Querier) *PaymentScheduleRepository {
	return &PaymentScheduleRepository{DB: db}
}

func (r *PaymentScheduleRepository) WithTx(tx *Tx) *PaymentScheduleRepository {
	return &PaymentScheduleRepository{DB: tx}
}

func (r *PaymentScheduleRepository) Create(ctx context.Context, s models.PaymentSchedule) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO payment_schedules (`+scheduleColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.ContractID, s.ScheduleName, s.TotalAmount, s.DepositAmount, s.NumberOfInstallments, s.Frequency,
		s.StartDate.UTC(), string(s.Status), s.CreatedAt.UTC(), s.UpdatedAt.UTC())
	if isForeignKeyConstraintError(err) {
		return models.ErrContractNotFound
	}
	return err
}

// ListByContract returns the schedules of a contract, most recent first.
func (r *PaymentScheduleRepository) ListByContract(ctx context.Context, contractID string) ([]models.PaymentSchedule, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+scheduleColumns+` FROM payment_schedules WHERE contract_id = ? ORDER BY created_at DESC`, contractID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	schedules := []models.PaymentSchedule{}
	for rows.Next() {
		var (
			s      models.PaymentSchedule
			status string
		)
		if err := rows.Scan(&s.ID, &s.ContractID, &s.ScheduleName, &s.TotalAmount, &s.DepositAmount, &s.NumberOfInstallments,
			&s.Frequency, &s.StartDate, &status, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		s.Status = models.ScheduleStatus(status)
		s.StartDate = s.StartDate.UTC()
		s.CreatedAt = s.CreatedAt.UTC()
		s.UpdatedAt = s.UpdatedAt.UTC()
		schedules = append(schedules, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return schedules, nil
}

// HasActive reports whether the contract already owns an active schedule.
func (r *PaymentScheduleRepository) HasActive(ctx context.Context, contractID string) (bool, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM payment_schedules WHERE contract_id = ? AND status = ?`,
		contractID, string(models.ScheduleStatusActive)).Scan(&n)
	return n > 0, err
}

// CompleteSettled marks active schedules completed once none of their payments
// is open and at least one succeeded.
func (r *PaymentScheduleRepository) CompleteSettled(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `UPDATE payment_schedules SET status = ?, updated_at = ?
		WHERE status = ?
		AND NOT EXISTS (SELECT 1 FROM contract_payments p WHERE p.schedule_id = payment_schedules.id AND p.status IN ('pending', 'failed'))
		AND EXISTS (SELECT 1 FROM contract_payments p WHERE p.schedule_id = payment_schedules.id AND p.status = 'succeeded')`,
		string(models.ScheduleStatusCompleted), now.UTC(), string(models.ScheduleStatusActive))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
