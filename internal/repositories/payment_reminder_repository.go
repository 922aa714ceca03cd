package repositories

import (
	"context"
	"database/sql"
	"time"

	"doulaBack/internal/models"
)

const reminderColumns = `id, payment_id, reminder_type, scheduled_for, status, sent_at, email_sent, sms_sent, created_at`

type PaymentReminderRepository struct {
	DB Querier
}

func NewPaymentReminderRepository(db Querier) *PaymentReminderRepository {
	return &PaymentReminderRepository{DB: db}
}

func (r *PaymentReminderRepository) WithTx(tx *Tx) *PaymentReminderRepository {
	return &PaymentReminderRepository{DB: tx}
}

func (r *PaymentReminderRepository) Create(ctx context.Context, rem models.PaymentReminder) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO payment_reminders (`+reminderColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rem.ID, rem.PaymentID, string(rem.ReminderType), rem.ScheduledFor.UTC(), string(rem.Status), nullTime(rem.SentAt),
		rem.EmailSent, rem.SMSSent, rem.CreatedAt.UTC())
	if isForeignKeyConstraintError(err) {
		return models.ErrPaymentNotFound
	}
	return err
}

func (r *PaymentReminderRepository) GetByID(ctx context.Context, id string) (models.PaymentReminder, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+reminderColumns+` FROM payment_reminders WHERE id = ?`, id)
	if err != nil {
		return models.PaymentReminder{}, err
	}
	reminders, err := scanReminders(rows)
	if err != nil {
		return models.PaymentReminder{}, err
	}
	if len(reminders) == 0 {
		return models.PaymentReminder{}, models.ErrReminderNotFound
	}
	return reminders[0], nil
}

func (r *PaymentReminderRepository) ListByPayment(ctx context.Context, paymentID string) ([]models.PaymentReminder, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+reminderColumns+` FROM payment_reminders WHERE payment_id = ? ORDER BY scheduled_for ASC`, paymentID)
	if err != nil {
		return nil, err
	}
	return scanReminders(rows)
}

// ListDue returns pending reminders scheduled at or before now.
func (r *PaymentReminderRepository) ListDue(ctx context.Context, now time.Time) ([]models.PaymentReminder, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+reminderColumns+` FROM payment_reminders
		WHERE status = ? AND scheduled_for <= ? ORDER BY scheduled_for ASC`, string(models.ReminderStatusPending), now.UTC())
	if err != nil {
		return nil, err
	}
	return scanReminders(rows)
}

// MarkSent moves a pending reminder to sent. It reports false when the
// reminder was not pending.
func (r *PaymentReminderRepository) MarkSent(ctx context.Context, id string, sentAt time.Time, emailSent, smsSent bool) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `UPDATE payment_reminders SET status = ?, sent_at = ?, email_sent = ?, sms_sent = ?
		WHERE id = ? AND status = ?`,
		string(models.ReminderStatusSent), sentAt.UTC(), emailSent, smsSent, id, string(models.ReminderStatusPending))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ReminderCandidate is an open payment lacking a reminder of some type.
type ReminderCandidate struct {
	PaymentID string
	DueDate   time.Time
}

// ListWithoutReminder returns open payments due in [from, to] that have no
// reminder of the given type yet.
func (r *PaymentReminderRepository) ListWithoutReminder(ctx context.Context, reminderType models.ReminderType, from, to time.Time) ([]ReminderCandidate, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT p.id, p.due_date FROM contract_payments p
		WHERE p.status IN ('pending', 'failed') AND p.due_date >= ? AND p.due_date <= ?
		AND NOT EXISTS (SELECT 1 FROM payment_reminders r WHERE r.payment_id = p.id AND r.reminder_type = ?)
		ORDER BY p.due_date ASC`, from.UTC(), to.UTC(), string(reminderType))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ReminderCandidate
	for rows.Next() {
		var c ReminderCandidate
		if err := rows.Scan(&c.PaymentID, &c.DueDate); err != nil {
			return nil, err
		}
		c.DueDate = c.DueDate.UTC()
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanReminders(rows *sql.Rows) ([]models.PaymentReminder, error) {
	defer rows.Close()
	reminders := []models.PaymentReminder{}
	for rows.Next() {
		var (
			rem                  models.PaymentReminder
			reminderType, status string
			sentAt               sql.NullTime
		)
		if err := rows.Scan(&rem.ID, &rem.PaymentID, &reminderType, &rem.ScheduledFor, &status, &sentAt,
			&rem.EmailSent, &rem.SMSSent, &rem.CreatedAt); err != nil {
			return nil, err
		}
		rem.ReminderType = models.ReminderType(reminderType)
		rem.Status = models.ReminderStatus(status)
		rem.SentAt = timePtr(sentAt)
		rem.ScheduledFor = rem.ScheduledFor.UTC()
		rem.CreatedAt = rem.CreatedAt.UTC()
		reminders = append(reminders, rem)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return reminders, nil
}
