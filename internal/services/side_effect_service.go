package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"doulaBack/internal/billing/jobs"
	"doulaBack/internal/billing/quickbooks"
	"doulaBack/internal/billing/stripepay"
	"doulaBack/internal/billing/timeutil"
	"doulaBack/internal/models"
	"doulaBack/internal/repositories"
)

// QuickBooksAPI is the part of the QuickBooks client the receipt job uses.
type QuickBooksAPI interface {
	FindCustomerByDisplayName(ctx context.Context, name string) (*quickbooks.Customer, error)
	CreateCustomer(ctx context.Context, cust quickbooks.Customer) (*quickbooks.Customer, error)
	CreateSalesReceipt(ctx context.Context, requestID string, receipt quickbooks.SalesReceipt) (*quickbooks.SalesReceipt, error)
}

// SideEffectService executes the jobs queued after a successful payment.
type SideEffectService struct {
	ChargeRepo   *repositories.ChargeRepository
	PaymentRepo  *repositories.PaymentRepository
	ContractRepo *repositories.ContractRepository
	ClientRepo   *repositories.ClientRepository
	QuickBooks   QuickBooksAPI
	Currency     string
	Logger       *slog.Logger
	Clock        func() time.Time
}

func NewSideEffectService(db *repositories.DB, qb QuickBooksAPI, currency string, logger *slog.Logger) *SideEffectService {
	if logger == nil {
		logger = slog.Default()
	}
	if currency == "" {
		currency = "usd"
	}
	return &SideEffectService{
		ChargeRepo:   repositories.NewChargeRepository(db),
		PaymentRepo:  repositories.NewPaymentRepository(db),
		ContractRepo: repositories.NewContractRepository(db),
		ClientRepo:   repositories.NewClientRepository(db),
		QuickBooks:   qb,
		Currency:     currency,
		Logger:       logger.With("component", "side_effects"),
	}
}

// Handlers maps every job type to its executor.
func (s *SideEffectService) Handlers() jobs.Handlers {
	h := jobs.Handlers{
		jobs.TypeLegacyCharge: s.RecordLegacyCharge,
	}
	if s.QuickBooks != nil {
		h[jobs.TypeQuickBooksSalesReceipt] = s.SyncQuickBooksReceipt
	}
	return h
}

// RecordLegacyCharge writes the charges and payment_methods rows older
// readers still query. A charge that already exists counts as done.
func (s *SideEffectService) RecordLegacyCharge(ctx context.Context, job *jobs.Job) error {
	var p jobs.LegacyChargePayload
	if err := job.Decode(&p); err != nil {
		return fmt.Errorf("%w: %v", jobs.ErrPermanent, err)
	}
	if p.PaymentID == "" || p.ContractID == "" {
		return fmt.Errorf("%w: payment_id and contract_id are required", jobs.ErrPermanent)
	}

	clientID := p.ClientID
	if clientID == "" {
		contract, err := s.ContractRepo.GetByID(ctx, p.ContractID)
		switch {
		case err == nil:
			clientID = contract.ClientID
		case !errors.Is(err, models.ErrContractNotFound):
			return err
		}
	}
	currency := p.Currency
	if currency == "" {
		currency = s.Currency
	}

	now := clockOrNow(s.Clock).UTC()
	charge := models.Charge{
		ID:         uuid.NewString(),
		ContractID: p.ContractID,
		PaymentID:  p.PaymentID,
		Amount:     stripepay.FromCents(p.AmountCents),
		Currency:   currency,
		Status:     string(models.PaymentStatusSucceeded),
		CreatedAt:  now,
	}
	if clientID != "" {
		charge.ClientID = &clientID
	}
	if p.IntentID != "" {
		charge.StripePaymentIntentID = &p.IntentID
	}
	created, err := s.ChargeRepo.Insert(ctx, charge)
	if err != nil {
		return fmt.Errorf("insert charge: %w", err)
	}
	if !created {
		s.Logger.Info("legacy charge already recorded", "payment_id", p.PaymentID)
	}

	if p.PaymentMethodID != "" && clientID != "" {
		err := s.ChargeRepo.SavePaymentMethod(ctx, models.PaymentMethod{
			ID:                    uuid.NewString(),
			ClientID:              clientID,
			StripePaymentMethodID: p.PaymentMethodID,
			CreatedAt:             now,
		})
		if err != nil {
			return fmt.Errorf("save payment method: %w", err)
		}
	}
	return nil
}

// SyncQuickBooksReceipt books a succeeded payment as a sales receipt. The
// payment id is the QuickBooks request id, so a retried job cannot book twice.
func (s *SideEffectService) SyncQuickBooksReceipt(ctx context.Context, job *jobs.Job) error {
	if s.QuickBooks == nil {
		return fmt.Errorf("%w: quickbooks is not configured", jobs.ErrPermanent)
	}
	var in jobs.QuickBooksReceiptPayload
	if err := job.Decode(&in); err != nil {
		return fmt.Errorf("%w: %v", jobs.ErrPermanent, err)
	}

	payment, err := s.PaymentRepo.GetByID(ctx, in.PaymentID)
	if err != nil {
		return permanentIfNotFound(err)
	}
	contract, err := s.ContractRepo.GetByID(ctx, payment.ContractID)
	if err != nil {
		return permanentIfNotFound(err)
	}
	client, err := s.ClientRepo.GetByID(ctx, contract.ClientID)
	if err != nil {
		return permanentIfNotFound(err)
	}

	customerID, err := s.quickBooksCustomer(ctx, client)
	if err != nil {
		return classifyQuickBooksError(err)
	}

	txnDate := payment.UpdatedAt
	if payment.CompletedAt != nil {
		txnDate = *payment.CompletedAt
	}
	receipt := quickbooks.SalesReceipt{
		CustomerRef: quickbooks.Ref{Value: customerID},
		TxnDate:     txnDate.In(timeutil.Location()).Format(timeutil.DateLayout),
		PrivateNote: fmt.Sprintf("Contract %s, payment %d of %d, Stripe %s", contract.ID, payment.PaymentNumber, payment.TotalPayments, in.IntentID),
		Line: []quickbooks.Line{{
			Amount:              payment.Amount.InexactFloat64(),
			Description:         fmt.Sprintf("Doula services (%s payment)", payment.PaymentType),
			DetailType:          "SalesItemLineDetail",
			SalesItemLineDetail: &quickbooks.SalesItemLineDetail{},
		}},
		TotalAmt: payment.Amount.InexactFloat64(),
	}
	if _, err := s.QuickBooks.CreateSalesReceipt(ctx, payment.ID, receipt); err != nil {
		return classifyQuickBooksError(err)
	}
	return nil
}

func (s *SideEffectService) quickBooksCustomer(ctx context.Context, client models.Client) (string, error) {
	if client.QuickBooksCustomerID != nil && *client.QuickBooksCustomerID != "" {
		return *client.QuickBooksCustomerID, nil
	}
	// display names are unique in QuickBooks; the email keeps namesakes apart
	displayName := fmt.Sprintf("%s (%s)", client.FullName(), client.Email)
	cust, err := s.QuickBooks.FindCustomerByDisplayName(ctx, displayName)
	if err != nil {
		return "", err
	}
	if cust == nil {
		cust, err = s.QuickBooks.CreateCustomer(ctx, quickbooks.Customer{
			DisplayName:      displayName,
			GivenName:        client.FirstName,
			FamilyName:       client.LastName,
			PrimaryEmailAddr: &quickbooks.EmailAddress{Address: client.Email},
		})
		if err != nil {
			return "", err
		}
	}
	if err := s.ClientRepo.SetQuickBooksCustomerID(ctx, client.ID, cust.ID, clockOrNow(s.Clock).UTC()); err != nil {
		return "", err
	}
	return cust.ID, nil
}

func permanentIfNotFound(err error) error {
	if isNotFound(err) {
		return fmt.Errorf("%w: %v", jobs.ErrPermanent, err)
	}
	return err
}

// classifyQuickBooksError marks client errors other than throttling as permanent.
func classifyQuickBooksError(err error) error {
	var apiErr *quickbooks.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 &&
		apiErr.StatusCode != http.StatusTooManyRequests && apiErr.StatusCode != http.StatusUnauthorized {
		return fmt.Errorf("%w: %v", jobs.ErrPermanent, err)
	}
	return err
}
