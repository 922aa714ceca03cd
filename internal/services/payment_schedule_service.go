package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"doulaBack/internal/billing/schedule"
	"doulaBack/internal/billing/summary"
	"doulaBack/internal/billing/timeutil"
	"doulaBack/internal/models"
	"doulaBack/internal/repositories"
)

// CreateScheduleInput is the payload of a schedule creation.
type CreateScheduleInput struct {
	ContractID           string
	ScheduleName         string
	TotalAmount          decimal.Decimal
	DepositAmount        decimal.Decimal
	NumberOfInstallments int
	Frequency            schedule.Frequency
	// StartDate defaults to today in the business timezone.
	StartDate time.Time
}

type PaymentScheduleService struct {
	DB           *repositories.DB
	ScheduleRepo *repositories.PaymentScheduleRepository
	PaymentRepo  *repositories.PaymentRepository
	ContractRepo *repositories.ContractRepository
	Clock        func() time.Time
}

func NewPaymentScheduleService(db *repositories.DB) *PaymentScheduleService {
	return &PaymentScheduleService{
		DB:           db,
		ScheduleRepo: repositories.NewPaymentScheduleRepository(db),
		PaymentRepo:  repositories.NewPaymentRepository(db),
		ContractRepo: repositories.NewContractRepository(db),
	}
}

// CreatePaymentSchedule generates the payments of a plan and stores the
// schedule with all of them in one transaction. It returns the schedule id.
func (s *PaymentScheduleService) CreatePaymentSchedule(ctx context.Context, in CreateScheduleInput) (string, error) {
	if strings.TrimSpace(in.ContractID) == "" {
		return "", invalidInput("contract_id is required")
	}
	now := clockOrNow(s.Clock)
	if in.StartDate.IsZero() {
		in.StartDate = timeutil.Today(now)
	} else {
		in.StartDate = timeutil.DateOf(in.StartDate)
	}
	plan := schedule.Plan{
		TotalAmount:   in.TotalAmount,
		DepositAmount: in.DepositAmount,
		Installments:  in.NumberOfInstallments,
		Frequency:     in.Frequency,
		StartDate:     in.StartDate,
	}.Normalize()
	lines, err := schedule.Generate(plan)
	if err != nil {
		return "", err
	}

	if _, err := s.ContractRepo.GetByID(ctx, in.ContractID); err != nil {
		return "", fmt.Errorf("Failed to create payment schedule: %w", err)
	}

	name := strings.TrimSpace(in.ScheduleName)
	if name == "" {
		name = defaultScheduleName(plan)
	}
	sched := models.PaymentSchedule{
		ID:                   uuid.NewString(),
		ContractID:           in.ContractID,
		ScheduleName:         name,
		TotalAmount:          plan.TotalAmount,
		DepositAmount:        plan.DepositAmount,
		NumberOfInstallments: plan.Installments,
		Frequency:            string(plan.Frequency),
		StartDate:            plan.StartDate,
		Status:               models.ScheduleStatusActive,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	err = s.DB.InTx(ctx, func(tx *repositories.Tx) error {
		schedules := s.ScheduleRepo.WithTx(tx)
		payments := s.PaymentRepo.WithTx(tx)

		active, err := schedules.HasActive(ctx, in.ContractID)
		if err != nil {
			return err
		}
		if active {
			return models.ErrScheduleExists
		}
		if err := schedules.Create(ctx, sched); err != nil {
			return err
		}

		existing, err := payments.CountByContract(ctx, in.ContractID)
		if err != nil {
			return err
		}
		total := existing + len(lines)
		for _, l := range lines {
			scheduleID := sched.ID
			p := models.Payment{
				ID:            uuid.NewString(),
				ContractID:    in.ContractID,
				ScheduleID:    &scheduleID,
				Amount:        l.Amount,
				PaymentType:   l.Type,
				DueDate:       l.DueDate,
				Status:        models.PaymentStatusPending,
				PaymentNumber: existing + l.Number,
				TotalPayments: total,
				CreatedAt:     now,
				UpdatedAt:     now,
			}
			if err := payments.Create(ctx, p); err != nil {
				return err
			}
		}
		if existing > 0 {
			return payments.SetTotalPayments(ctx, in.ContractID, total, now)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("Failed to create payment schedule: %w", err)
	}
	return sched.ID, nil
}

func defaultScheduleName(p schedule.Plan) string {
	if p.Installments == 0 {
		return "Payment plan"
	}
	return fmt.Sprintf("%d %s installments", p.Installments, p.Frequency)
}

// GetPaymentSchedule lists the schedules of a contract, most recent first.
func (s *PaymentScheduleService) GetPaymentSchedule(ctx context.Context, contractID string) ([]models.PaymentSchedule, error) {
	return s.ScheduleRepo.ListByContract(ctx, contractID)
}

// GetContractSchedule returns the schedules of a contract with its payments.
func (s *PaymentScheduleService) GetContractSchedule(ctx context.Context, contractID string) (models.ContractSchedule, error) {
	schedules, err := s.ScheduleRepo.ListByContract(ctx, contractID)
	if err != nil {
		return models.ContractSchedule{}, err
	}
	payments, err := s.PaymentRepo.ListByContract(ctx, contractID)
	if err != nil {
		return models.ContractSchedule{}, err
	}
	return models.ContractSchedule{Schedules: schedules, Payments: payments}, nil
}

// GetPaymentSummary aggregates the payments of an existing contract.
func (s *PaymentScheduleService) GetPaymentSummary(ctx context.Context, contractID string) (models.PaymentSummary, error) {
	if _, err := s.ContractRepo.GetByID(ctx, contractID); err != nil {
		if errors.Is(err, models.ErrContractNotFound) {
			return models.PaymentSummary{}, err
		}
		return models.PaymentSummary{}, fmt.Errorf("Failed to get payment summary: %w", err)
	}
	payments, err := s.PaymentRepo.ListByContract(ctx, contractID)
	if err != nil {
		return models.PaymentSummary{}, fmt.Errorf("Failed to get payment summary: %w", err)
	}
	return summary.Summarize(contractID, payments, timeutil.Today(clockOrNow(s.Clock))), nil
}
