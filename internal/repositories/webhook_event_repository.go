package repositories

import (
	"context"
	"time"

	"doulaBack/internal/models"
)

// WebhookEventRepository stores provider event ids already applied.
type WebhookEventRepository struct {
	DB Querier
}

func NewWebhookEventRepository(db Querier) *WebhookEventRepository {
	return &WebhookEventRepository{DB: db}
}

func (r *WebhookEventRepository) WithTx(tx *Tx) *WebhookEventRepository {
	return &WebhookEventRepository{DB: tx}
}

// Record claims an event id. A second claim of the same id fails with
// models.ErrDuplicateEvent.
func (r *WebhookEventRepository) Record(ctx context.Context, e models.ProcessedWebhookEvent) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO processed_webhook_events (event_id, event_type, payment_id, processed_at) VALUES (?, ?, ?, ?)`,
		e.EventID, e.EventType, nullString(e.PaymentID), e.ProcessedAt.UTC())
	if isDuplicateKeyError(err) {
		return models.ErrDuplicateEvent
	}
	return err
}

func (r *WebhookEventRepository) Exists(ctx context.Context, eventID string) (bool, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM processed_webhook_events WHERE event_id = ?`, eventID).Scan(&n)
	return n > 0, err
}

// DeleteOlderThan prunes event ids past the provider's retry window.
func (r *WebhookEventRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM processed_webhook_events WHERE processed_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
