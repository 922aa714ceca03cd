package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"doulaBack/internal/billing/fsm"
	"doulaBack/internal/billing/summary"
	"doulaBack/internal/billing/timeutil"
	"doulaBack/internal/models"
	"doulaBack/internal/repositories"
)

const (
	DefaultReminderLeadDays = 3
	DefaultUpcomingDays     = 7
)

// ManualPaymentInput is an admin-entered payment outside the generated schedule.
type ManualPaymentInput struct {
	Amount      decimal.Decimal
	PaymentType models.PaymentType
	DueDate     time.Time
	Notes       string
}

type PaymentService struct {
	DB           *repositories.DB
	PaymentRepo  *repositories.PaymentRepository
	ContractRepo *repositories.ContractRepository
	ScheduleRepo *repositories.PaymentScheduleRepository
	ReminderRepo *repositories.PaymentReminderRepository
	EventRepo    *repositories.WebhookEventRepository

	ReminderLeadDays int
	// EventRetention bounds how long processed webhook ids are kept; zero keeps them forever.
	EventRetention time.Duration

	Logger *slog.Logger
	Clock  func() time.Time
}

func NewPaymentService(db *repositories.DB, logger *slog.Logger) *PaymentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &PaymentService{
		DB:               db,
		PaymentRepo:      repositories.NewPaymentRepository(db),
		ContractRepo:     repositories.NewContractRepository(db),
		ScheduleRepo:     repositories.NewPaymentScheduleRepository(db),
		ReminderRepo:     repositories.NewPaymentReminderRepository(db),
		EventRepo:        repositories.NewWebhookEventRepository(db),
		ReminderLeadDays: DefaultReminderLeadDays,
		Logger:           logger.With("component", "payments"),
	}
}

func (s *PaymentService) now() time.Time {
	return clockOrNow(s.Clock).UTC()
}

func (s *PaymentService) today() time.Time {
	return timeutil.Today(clockOrNow(s.Clock))
}

// UpdatePaymentStatus moves a payment through its lifecycle and returns the
// stored row. Writing the current status again changes nothing.
func (s *PaymentService) UpdatePaymentStatus(ctx context.Context, upd models.PaymentStatusUpdate) (models.Payment, error) {
	if !upd.Status.Valid() {
		return models.Payment{}, invalidInput("invalid payment status %q", upd.Status)
	}
	current, err := s.PaymentRepo.GetByID(ctx, upd.PaymentID)
	if err != nil {
		return models.Payment{}, fmt.Errorf("Failed to update payment status: %w", err)
	}

	err = s.PaymentRepo.ApplyStatus(ctx, fsm.Change{
		PaymentID:             upd.PaymentID,
		From:                  current.Status,
		To:                    upd.Status,
		StripePaymentIntentID: upd.StripePaymentIntentID,
		Notes:                 upd.Notes,
		At:                    s.now(),
	})
	if err != nil {
		return models.Payment{}, fmt.Errorf("Failed to update payment status: %w", err)
	}
	if current.Status == upd.Status {
		return current, nil
	}

	updated, err := s.PaymentRepo.GetByID(ctx, upd.PaymentID)
	if err != nil {
		return models.Payment{}, fmt.Errorf("Failed to update payment status: %w", err)
	}
	s.Logger.Info("payment status updated", "payment_id", updated.ID, "from", current.Status, "to", updated.Status)

	if updated.Status == models.PaymentStatusSucceeded {
		if _, err := s.CheckAndUpdateContractStatus(ctx, updated.ContractID); err != nil {
			s.Logger.Error("contract status check failed", "contract_id", updated.ContractID, "err", err)
		}
	}
	return updated, nil
}

// CreateManualPayment appends a pending payment to a contract and renumbers
// the payment count of its siblings.
func (s *PaymentService) CreateManualPayment(ctx context.Context, contractID string, in ManualPaymentInput) (models.Payment, error) {
	if !in.Amount.IsPositive() {
		return models.Payment{}, invalidInput("amount must be greater than zero")
	}
	if in.PaymentType == "" {
		in.PaymentType = models.PaymentTypeFinal
	}
	if !in.PaymentType.Valid() {
		return models.Payment{}, invalidInput("invalid payment_type %q", in.PaymentType)
	}
	if in.DueDate.IsZero() {
		return models.Payment{}, invalidInput("due_date is required")
	}
	if _, err := s.ContractRepo.GetByID(ctx, contractID); err != nil {
		return models.Payment{}, fmt.Errorf("Failed to create payment: %w", err)
	}

	now := s.now()
	p := models.Payment{
		ID:          uuid.NewString(),
		ContractID:  contractID,
		Amount:      in.Amount,
		PaymentType: in.PaymentType,
		DueDate:     timeutil.DateOf(in.DueDate),
		Status:      models.PaymentStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if notes := strings.TrimSpace(in.Notes); notes != "" {
		p.Notes = &notes
	}

	err := s.DB.InTx(ctx, func(tx *repositories.Tx) error {
		payments := s.PaymentRepo.WithTx(tx)
		n, err := payments.CountByContract(ctx, contractID)
		if err != nil {
			return err
		}
		p.PaymentNumber = n + 1
		p.TotalPayments = n + 1
		if err := payments.Create(ctx, p); err != nil {
			return err
		}
		return payments.SetTotalPayments(ctx, contractID, p.TotalPayments, now)
	})
	if err != nil {
		return models.Payment{}, fmt.Errorf("Failed to create payment: %w", err)
	}
	return p, nil
}

// UpdateOverdueFlags recomputes is_overdue for every payment as of today.
func (s *PaymentService) UpdateOverdueFlags(ctx context.Context) (models.MaintenanceResult, error) {
	flagged, cleared, err := s.PaymentRepo.UpdateOverdueFlags(ctx, s.today(), s.now())
	if err != nil {
		return models.MaintenanceResult{}, fmt.Errorf("Failed to update overdue flags: %w", err)
	}
	return models.MaintenanceResult{OverdueFlagged: flagged, OverdueCleared: cleared}, nil
}

// RunDailyMaintenance refreshes overdue flags, completes settled schedules,
// creates missing reminders and prunes old webhook event ids. A second run on
// the same day changes nothing.
func (s *PaymentService) RunDailyMaintenance(ctx context.Context) (models.MaintenanceResult, error) {
	res, err := s.UpdateOverdueFlags(ctx)
	if err != nil {
		return res, err
	}
	now := s.now()
	today := s.today()

	res.SchedulesCompleted, err = s.ScheduleRepo.CompleteSettled(ctx, now)
	if err != nil {
		return res, fmt.Errorf("Failed to complete schedules: %w", err)
	}

	lead := s.ReminderLeadDays
	if lead < 0 {
		lead = 0
	}
	windows := []struct {
		kind     models.ReminderType
		from, to time.Time
	}{
		{models.ReminderTypeOverdue, time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC), today.AddDate(0, 0, -1)},
		{models.ReminderTypeDueToday, today, today},
		{models.ReminderTypeUpcoming, today.AddDate(0, 0, 1), today.AddDate(0, 0, lead)},
	}
	for _, w := range windows {
		if w.to.Before(w.from) {
			continue
		}
		n, err := s.createReminders(ctx, w.kind, w.from, w.to, now)
		res.RemindersCreated += n
		if err != nil {
			return res, fmt.Errorf("Failed to create %s reminders: %w", w.kind, err)
		}
	}

	if s.EventRetention > 0 {
		pruned, err := s.EventRepo.DeleteOlderThan(ctx, now.Add(-s.EventRetention))
		if err != nil {
			s.Logger.Error("prune webhook events failed", "err", err)
		} else if pruned > 0 {
			s.Logger.Info("pruned webhook events", "count", pruned)
		}
	}

	s.Logger.Info("daily maintenance finished",
		"overdue_flagged", res.OverdueFlagged,
		"overdue_cleared", res.OverdueCleared,
		"schedules_completed", res.SchedulesCompleted,
		"reminders_created", res.RemindersCreated,
	)
	return res, nil
}

func (s *PaymentService) createReminders(ctx context.Context, kind models.ReminderType, from, to, now time.Time) (int64, error) {
	candidates, err := s.ReminderRepo.ListWithoutReminder(ctx, kind, from, to)
	if err != nil {
		return 0, err
	}
	var created int64
	for _, c := range candidates {
		err := s.ReminderRepo.Create(ctx, models.PaymentReminder{
			ID:           uuid.NewString(),
			PaymentID:    c.PaymentID,
			ReminderType: kind,
			ScheduledFor: now,
			Status:       models.ReminderStatusPending,
			CreatedAt:    now,
		})
		if err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

func (s *PaymentService) GetOverduePayments(ctx context.Context) ([]models.PaymentDetail, error) {
	return s.PaymentRepo.ListOverdue(ctx, s.today())
}

func (s *PaymentService) GetPaymentsByStatus(ctx context.Context, status models.PaymentStatus) ([]models.PaymentDetail, error) {
	if !status.Valid() {
		return nil, invalidInput("invalid payment status %q", status)
	}
	return s.PaymentRepo.ListByStatus(ctx, status)
}

// GetPaymentsDueBetween lists open payments due in the inclusive range
// [start, end], both YYYY-MM-DD.
func (s *PaymentService) GetPaymentsDueBetween(ctx context.Context, start, end string) ([]models.PaymentDetail, error) {
	if start == "" || end == "" {
		return nil, invalidInput("start_date and end_date are required")
	}
	from, err := timeutil.ParseDate(start)
	if err != nil {
		return nil, invalidInput("invalid start_date %q, expected YYYY-MM-DD", start)
	}
	to, err := timeutil.ParseDate(end)
	if err != nil {
		return nil, invalidInput("invalid end_date %q, expected YYYY-MM-DD", end)
	}
	if from.After(to) {
		return nil, invalidInput("start_date must not be after end_date")
	}
	return s.PaymentRepo.ListDueBetween(ctx, from, to)
}

// GetUpcomingPayments lists open payments due from today through days ahead.
func (s *PaymentService) GetUpcomingPayments(ctx context.Context, days int) ([]models.PaymentDetail, error) {
	if days < 0 {
		return nil, invalidInput("days must not be negative")
	}
	today := s.today()
	return s.PaymentRepo.ListDueBetween(ctx, today, today.AddDate(0, 0, days))
}

func (s *PaymentService) GetPaymentHistory(ctx context.Context, contractID string) ([]models.Payment, error) {
	if _, err := s.ContractRepo.GetByID(ctx, contractID); err != nil {
		return nil, err
	}
	return s.PaymentRepo.ListHistory(ctx, contractID)
}

func (s *PaymentService) GetDashboard(ctx context.Context) ([]models.DashboardRow, error) {
	details, err := s.PaymentRepo.ListAllDetails(ctx)
	if err != nil {
		return nil, err
	}
	return summary.Dashboard(details, s.today()), nil
}

// CheckAndUpdateContractStatus activates a contract once nothing is due and
// something was paid. It reports whether the status changed.
func (s *PaymentService) CheckAndUpdateContractStatus(ctx context.Context, contractID string) (bool, error) {
	payments, err := s.PaymentRepo.ListByContract(ctx, contractID)
	if err != nil {
		return false, err
	}
	sum := summary.Summarize(contractID, payments, s.today())
	if !summary.FullyPaid(sum) {
		return false, nil
	}
	changed, err := s.ContractRepo.SetStatus(ctx, contractID, models.ContractStatusActive, s.now())
	if err != nil {
		return false, err
	}
	if changed {
		s.Logger.Info("contract activated", "contract_id", contractID, "total_paid", sum.TotalPaid.StringFixed(2))
	}
	return changed, nil
}

// isNotFound reports errors handlers answer with 404.
func isNotFound(err error) bool {
	return errors.Is(err, models.ErrPaymentNotFound) ||
		errors.Is(err, models.ErrContractNotFound) ||
		errors.Is(err, models.ErrClientNotFound) ||
		errors.Is(err, models.ErrReminderNotFound)
}
