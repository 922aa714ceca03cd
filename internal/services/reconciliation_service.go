package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"doulaBack/internal/billing/fsm"
	"doulaBack/internal/billing/jobs"
	"doulaBack/internal/billing/stripepay"
	"doulaBack/internal/models"
	"doulaBack/internal/repositories"
)

var webhookTargets = map[string]models.PaymentStatus{
	stripepay.EventPaymentIntentSucceeded: models.PaymentStatusSucceeded,
	stripepay.EventPaymentIntentFailed:    models.PaymentStatusFailed,
	stripepay.EventPaymentIntentCanceled:  models.PaymentStatusCanceled,
}

// ReconciliationService applies provider payment events to payments.
type ReconciliationService struct {
	DB          *repositories.DB
	PaymentRepo *repositories.PaymentRepository
	EventRepo   *repositories.WebhookEventRepository
	Payments    *PaymentService
	Jobs        jobs.Enqueuer

	QuickBooksEnabled bool

	Logger *slog.Logger
	Clock  func() time.Time
}

func NewReconciliationService(db *repositories.DB, payments *PaymentService, queue jobs.Enqueuer, logger *slog.Logger) *ReconciliationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReconciliationService{
		DB:          db,
		PaymentRepo: repositories.NewPaymentRepository(db),
		EventRepo:   repositories.NewWebhookEventRepository(db),
		Payments:    payments,
		Jobs:        queue,
		Logger:      logger.With("component", "reconciliation"),
	}
}

// HandlePaymentWebhook applies one payment_intent event. The event id and the
// status change commit together, so a replayed event is a no-op and a failed
// attempt is retried whole by the provider.
func (s *ReconciliationService) HandlePaymentWebhook(ctx context.Context, ev stripepay.PaymentIntentEvent) error {
	logger := s.Logger.With("op", "HandlePaymentWebhook", "event_id", ev.EventID, "type", ev.Type)

	target, ok := webhookTargets[ev.Type]
	if !ok {
		logger.Info("ignoring webhook event")
		return nil
	}
	if !ev.Attributed() {
		logger.Warn("payment intent without contract_id/payment_id metadata", "payment_intent_id", ev.IntentID)
		return nil
	}
	logger = logger.With("payment_id", ev.PaymentID, "contract_id", ev.ContractID)

	now := clockOrNow(s.Clock).UTC()
	var (
		payment models.Payment
		changed bool
	)
	err := s.DB.InTx(ctx, func(tx *repositories.Tx) error {
		paymentID := ev.PaymentID
		err := s.EventRepo.WithTx(tx).Record(ctx, models.ProcessedWebhookEvent{
			EventID:     ev.EventID,
			EventType:   ev.Type,
			PaymentID:   &paymentID,
			ProcessedAt: now,
		})
		if err != nil {
			return err
		}

		payments := s.PaymentRepo.WithTx(tx)
		payment, err = payments.GetByID(ctx, ev.PaymentID)
		if err != nil {
			return err
		}
		if payment.ContractID != ev.ContractID {
			// the payment row owns the contract; the charge is still reconciled
			logger.Warn("intent metadata names another contract", "actual_contract_id", payment.ContractID)
		}
		if payment.Status == target {
			return nil
		}

		from := payment.Status
		// a new attempt succeeded after an earlier failure
		if target == models.PaymentStatusSucceeded && from == models.PaymentStatusFailed {
			if err := payments.ApplyStatus(ctx, fsm.Change{
				PaymentID: payment.ID,
				From:      from,
				To:        models.PaymentStatusPending,
				At:        now,
			}); err != nil {
				return err
			}
			from = models.PaymentStatusPending
		}
		if err := fsm.Check(from, target); err != nil {
			logger.Error("event does not apply to payment", "status", payment.Status, "err", err)
			return nil
		}

		change := fsm.Change{PaymentID: payment.ID, From: from, To: target, At: now}
		if ev.IntentID != "" {
			intentID := ev.IntentID
			change.StripePaymentIntentID = &intentID
		}
		if target == models.PaymentStatusFailed && ev.FailureMessage != "" {
			msg := ev.FailureMessage
			change.Notes = &msg
		}
		if err := payments.ApplyStatus(ctx, change); err != nil {
			return err
		}
		changed = true
		return nil
	})
	switch {
	case errors.Is(err, models.ErrDuplicateEvent):
		logger.Info("webhook event already processed")
		return nil
	case errors.Is(err, models.ErrPaymentNotFound):
		logger.Warn("webhook event for unknown payment")
		return nil
	case err != nil:
		return fmt.Errorf("Failed to process payment webhook: %w", err)
	}
	if !changed {
		return nil
	}
	logger.Info("payment status reconciled", "from", payment.Status, "to", target)

	if target == models.PaymentStatusSucceeded {
		s.enqueueSideEffects(ctx, logger, payment, ev)
		if _, err := s.Payments.CheckAndUpdateContractStatus(ctx, payment.ContractID); err != nil {
			logger.Error("contract status check failed", "err", err)
		}
	}
	return nil
}

func (s *ReconciliationService) enqueueSideEffects(ctx context.Context, logger *slog.Logger, p models.Payment, ev stripepay.PaymentIntentEvent) {
	if s.Jobs == nil {
		return
	}
	cents := ev.AmountCents
	if cents == 0 {
		cents = stripepay.ToCents(p.Amount)
	}
	if _, err := s.Jobs.Enqueue(ctx, jobs.TypeLegacyCharge, jobs.LegacyChargePayload{
		PaymentID:       p.ID,
		ContractID:      p.ContractID,
		ClientID:        ev.ClientID,
		IntentID:        ev.IntentID,
		PaymentMethodID: ev.PaymentMethodID,
		AmountCents:     cents,
		Currency:        ev.Currency,
	}); err != nil {
		logger.Error("enqueue legacy charge failed", "err", err)
	}
	if !s.QuickBooksEnabled {
		return
	}
	if _, err := s.Jobs.Enqueue(ctx, jobs.TypeQuickBooksSalesReceipt, jobs.QuickBooksReceiptPayload{
		PaymentID:  p.ID,
		ContractID: p.ContractID,
		IntentID:   ev.IntentID,
	}); err != nil {
		logger.Error("enqueue quickbooks receipt failed", "err", err)
	}
}
