package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"doulaBack/internal/billing/fsm"
	"doulaBack/internal/billing/stripepay"
	"doulaBack/internal/models"
	"doulaBack/internal/repositories"
)

// StripeProvider is the part of the Stripe client payment collection uses.
type StripeProvider interface {
	CreateCustomer(ctx context.Context, req stripepay.CustomerRequest) (string, error)
	CreatePaymentIntent(ctx context.Context, req stripepay.IntentRequest) (stripepay.Intent, error)
}

type StripePaymentService struct {
	PaymentRepo  *repositories.PaymentRepository
	ContractRepo *repositories.ContractRepository
	ClientRepo   *repositories.ClientRepository
	Stripe       StripeProvider
	Logger       *slog.Logger
	Clock        func() time.Time
}

func NewStripePaymentService(db *repositories.DB, stripe StripeProvider, logger *slog.Logger) *StripePaymentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &StripePaymentService{
		PaymentRepo:  repositories.NewPaymentRepository(db),
		ContractRepo: repositories.NewContractRepository(db),
		ClientRepo:   repositories.NewClientRepository(db),
		Stripe:       stripe,
		Logger:       logger.With("component", "stripe_payments"),
	}
}

// CreatePaymentIntent opens a collection attempt for an open payment. A
// failed payment goes back to pending first.
func (s *StripePaymentService) CreatePaymentIntent(ctx context.Context, paymentID string) (stripepay.Intent, error) {
	if s.Stripe == nil {
		return stripepay.Intent{}, stripepay.ErrNotConfigured
	}
	p, err := s.PaymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		return stripepay.Intent{}, fmt.Errorf("Failed to create payment intent: %w", err)
	}
	if !p.Status.Open() {
		return stripepay.Intent{}, fmt.Errorf("%w: status is %s", models.ErrPaymentNotPayable, p.Status)
	}
	contract, err := s.ContractRepo.GetByID(ctx, p.ContractID)
	if err != nil {
		return stripepay.Intent{}, fmt.Errorf("Failed to create payment intent: %w", err)
	}
	client, err := s.ClientRepo.GetByID(ctx, contract.ClientID)
	if err != nil {
		return stripepay.Intent{}, fmt.Errorf("Failed to create payment intent: %w", err)
	}

	now := clockOrNow(s.Clock).UTC()
	if p.Status == models.PaymentStatusFailed {
		err := s.PaymentRepo.ApplyStatus(ctx, fsm.Change{
			PaymentID: p.ID,
			From:      models.PaymentStatusFailed,
			To:        models.PaymentStatusPending,
			At:        now,
		})
		if err != nil {
			return stripepay.Intent{}, fmt.Errorf("Failed to create payment intent: %w", err)
		}
		p.Status = models.PaymentStatusPending
	}

	customerID, err := s.ensureCustomer(ctx, client, now)
	if err != nil {
		return stripepay.Intent{}, fmt.Errorf("Failed to create payment intent: %w", err)
	}

	intent, err := s.Stripe.CreatePaymentIntent(ctx, stripepay.IntentRequest{
		Amount:      p.Amount,
		CustomerID:  customerID,
		Description: fmt.Sprintf("Payment %d of %d", p.PaymentNumber, p.TotalPayments),
		Metadata: map[string]string{
			"contract_id": p.ContractID,
			"payment_id":  p.ID,
			"client_id":   client.ID,
		},
		IdempotencyKey: intentIdempotencyKey(p),
	})
	if err != nil {
		return stripepay.Intent{}, fmt.Errorf("Failed to create payment intent: %w", err)
	}
	s.Logger.Info("payment intent opened", "payment_id", p.ID, "payment_intent_id", intent.ID)
	return intent, nil
}

// intentIdempotencyKey is stable for one collection attempt. A new attempt
// only starts after a failure, which moves failed_at.
func intentIdempotencyKey(p models.Payment) string {
	var attempt int64
	if p.FailedAt != nil {
		attempt = p.FailedAt.UnixNano()
	}
	return fmt.Sprintf("payment-%s-%d", p.ID, attempt)
}

func (s *StripePaymentService) ensureCustomer(ctx context.Context, client models.Client, now time.Time) (string, error) {
	if client.StripeCustomerID != nil && *client.StripeCustomerID != "" {
		return *client.StripeCustomerID, nil
	}
	id, err := s.Stripe.CreateCustomer(ctx, stripepay.CustomerRequest{
		ClientID: client.ID,
		Email:    client.Email,
		Name:     client.FullName(),
	})
	if err != nil {
		return "", err
	}
	if err := s.ClientRepo.SetStripeCustomerID(ctx, client.ID, id, now); err != nil {
		return "", err
	}
	return id, nil
}
