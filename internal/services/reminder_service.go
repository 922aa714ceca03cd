package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"doulaBack/internal/models"
	"doulaBack/internal/repositories"
)

type CreateReminderInput struct {
	ReminderType models.ReminderType
	// ScheduledFor defaults to now.
	ScheduledFor time.Time
}

type ReminderService struct {
	ReminderRepo *repositories.PaymentReminderRepository
	PaymentRepo  *repositories.PaymentRepository
	Clock        func() time.Time
}

func NewReminderService(db *repositories.DB) *ReminderService {
	return &ReminderService{
		ReminderRepo: repositories.NewPaymentReminderRepository(db),
		PaymentRepo:  repositories.NewPaymentRepository(db),
	}
}

func (s *ReminderService) CreateReminder(ctx context.Context, paymentID string, in CreateReminderInput) (models.PaymentReminder, error) {
	if !in.ReminderType.Valid() {
		return models.PaymentReminder{}, invalidInput("invalid reminder_type %q", in.ReminderType)
	}
	if _, err := s.PaymentRepo.GetByID(ctx, paymentID); err != nil {
		return models.PaymentReminder{}, err
	}
	now := clockOrNow(s.Clock).UTC()
	if in.ScheduledFor.IsZero() {
		in.ScheduledFor = now
	}
	rem := models.PaymentReminder{
		ID:           uuid.NewString(),
		PaymentID:    paymentID,
		ReminderType: in.ReminderType,
		ScheduledFor: in.ScheduledFor.UTC(),
		Status:       models.ReminderStatusPending,
		CreatedAt:    now,
	}
	if err := s.ReminderRepo.Create(ctx, rem); err != nil {
		return models.PaymentReminder{}, fmt.Errorf("Failed to create reminder: %w", err)
	}
	return rem, nil
}

func (s *ReminderService) ListReminders(ctx context.Context, paymentID string) ([]models.PaymentReminder, error) {
	if _, err := s.PaymentRepo.GetByID(ctx, paymentID); err != nil {
		return nil, err
	}
	return s.ReminderRepo.ListByPayment(ctx, paymentID)
}

// ListDueReminders returns pending reminders whose time has come.
func (s *ReminderService) ListDueReminders(ctx context.Context) ([]models.PaymentReminder, error) {
	return s.ReminderRepo.ListDue(ctx, clockOrNow(s.Clock).UTC())
}

// MarkSent records delivery. A reminder already sent keeps its first stamp.
func (s *ReminderService) MarkSent(ctx context.Context, id string, emailSent, smsSent bool) (models.PaymentReminder, error) {
	if _, err := s.ReminderRepo.MarkSent(ctx, id, clockOrNow(s.Clock).UTC(), emailSent, smsSent); err != nil {
		return models.PaymentReminder{}, fmt.Errorf("Failed to mark reminder sent: %w", err)
	}
	return s.ReminderRepo.GetByID(ctx, id)
}
