package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doulaBack/internal/billing/fsm"
	"doulaBack/internal/models"
)

func payAll(t *testing.T, f *fixture, payments []models.Payment) {
	t.Helper()
	for _, p := range payments {
		_, err := f.payments.UpdatePaymentStatus(context.Background(), models.PaymentStatusUpdate{PaymentID: p.ID, Status: models.PaymentStatusSucceeded})
		require.NoError(t, err)
	}
}

func TestUpdatePaymentStatusActivatesContractWhenFullyPaid(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	contract := f.seedContract(t)
	payments := f.seedSchedule(t, contract.ID, day(2024, 1, 1))

	payAll(t, f, payments[:4])
	c, err := f.contracts.GetContract(ctx, contract.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ContractStatusDraft, c.Status)

	intent := "pi_last"
	updated, err := f.payments.UpdatePaymentStatus(ctx, models.PaymentStatusUpdate{
		PaymentID:             payments[4].ID,
		Status:                models.PaymentStatusSucceeded,
		StripePaymentIntentID: &intent,
	})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusSucceeded, updated.Status)
	require.NotNil(t, updated.CompletedAt)
	assert.Equal(t, "pi_last", *updated.StripePaymentIntentID)

	c, err = f.contracts.GetContract(ctx, contract.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ContractStatusActive, c.Status)
}

func TestUpdatePaymentStatusSameStateIsNoop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	contract := f.seedContract(t)
	p := f.seedSchedule(t, contract.ID, day(2024, 1, 1))[0]

	first, err := f.payments.UpdatePaymentStatus(ctx, models.PaymentStatusUpdate{PaymentID: p.ID, Status: models.PaymentStatusSucceeded})
	require.NoError(t, err)

	f.payments.Clock = func() time.Time { return testNow.Add(time.Hour) }
	second, err := f.payments.UpdatePaymentStatus(ctx, models.PaymentStatusUpdate{PaymentID: p.ID, Status: models.PaymentStatusSucceeded})
	require.NoError(t, err)
	assert.Equal(t, *first.CompletedAt, *second.CompletedAt)
	assert.Equal(t, first.UpdatedAt, second.UpdatedAt)
}

func TestUpdatePaymentStatusRejectsIllegalTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	contract := f.seedContract(t)
	p := f.seedSchedule(t, contract.ID, day(2024, 1, 1))[0]

	_, err := f.payments.UpdatePaymentStatus(ctx, models.PaymentStatusUpdate{PaymentID: p.ID, Status: models.PaymentStatusSucceeded})
	require.NoError(t, err)

	_, err = f.payments.UpdatePaymentStatus(ctx, models.PaymentStatusUpdate{PaymentID: p.ID, Status: models.PaymentStatusPending})
	var terr *fsm.TransitionError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, models.PaymentStatusSucceeded, terr.From)
	assert.Contains(t, err.Error(), "Failed to update payment status")

	got, err := f.payments.PaymentRepo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusSucceeded, got.Status)

	_, err = f.payments.UpdatePaymentStatus(ctx, models.PaymentStatusUpdate{PaymentID: p.ID, Status: "paid"})
	var inErr *InputError
	assert.ErrorAs(t, err, &inErr)

	_, err = f.payments.UpdatePaymentStatus(ctx, models.PaymentStatusUpdate{PaymentID: "missing", Status: models.PaymentStatusFailed})
	assert.ErrorIs(t, err, models.ErrPaymentNotFound)
}

func TestCreateManualPaymentRenumbers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	contract := f.seedContract(t)
	f.seedSchedule(t, contract.ID, day(2024, 1, 1))

	p, err := f.payments.CreateManualPayment(ctx, contract.ID, ManualPaymentInput{
		Amount:  decimal.NewFromInt(150),
		DueDate: day(2024, 6, 1),
		Notes:   "extra postpartum visit",
	})
	require.NoError(t, err)
	assert.Equal(t, 6, p.PaymentNumber)
	assert.Equal(t, models.PaymentTypeFinal, p.PaymentType)

	payments, err := f.payments.PaymentRepo.ListByContract(ctx, contract.ID)
	require.NoError(t, err)
	require.Len(t, payments, 6)
	for _, p := range payments {
		assert.Equal(t, 6, p.TotalPayments)
	}

	_, err = f.payments.CreateManualPayment(ctx, contract.ID, ManualPaymentInput{Amount: decimal.Zero, DueDate: day(2024, 6, 1)})
	var inErr *InputError
	assert.ErrorAs(t, err, &inErr)

	_, err = f.payments.CreateManualPayment(ctx, "missing", ManualPaymentInput{Amount: decimal.NewFromInt(1), DueDate: day(2024, 6, 1)})
	assert.ErrorIs(t, err, models.ErrContractNotFound)
}

func TestRunDailyMaintenanceIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	contract := f.seedContract(t)
	// deposit 2024-02-15, installments 03-15, 04-15, 05-15, 06-15
	f.seedSchedule(t, contract.ID, day(2024, 2, 15))
	f.payments.ReminderLeadDays = 31

	res, err := f.payments.RunDailyMaintenance(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.OverdueFlagged)
	assert.Zero(t, res.OverdueCleared)
	// overdue deposit, due today, upcoming 04-15
	assert.Equal(t, int64(3), res.RemindersCreated)

	res, err = f.payments.RunDailyMaintenance(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.MaintenanceResult{}, res)

	overdue, err := f.payments.GetOverduePayments(ctx)
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, day(2024, 2, 15), overdue[0].DueDate)
	assert.True(t, overdue[0].IsOverdue)
	assert.Equal(t, "Maya Angel", overdue[0].ClientName)
}

func TestRunDailyMaintenanceCompletesSettledSchedules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	contract := f.seedContract(t)
	payments := f.seedSchedule(t, contract.ID, day(2024, 1, 1))
	payAll(t, f, payments)

	res, err := f.payments.RunDailyMaintenance(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.SchedulesCompleted)
	assert.Zero(t, res.RemindersCreated)

	schedules, err := f.schedules.GetPaymentSchedule(ctx, contract.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ScheduleStatusCompleted, schedules[0].Status)
}

func TestUpdateOverdueFlagsClearsPaidPayments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	contract := f.seedContract(t)
	payments := f.seedSchedule(t, contract.ID, day(2024, 1, 1))

	res, err := f.payments.UpdateOverdueFlags(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.OverdueFlagged)

	_, err = f.payments.UpdatePaymentStatus(ctx, models.PaymentStatusUpdate{PaymentID: payments[0].ID, Status: models.PaymentStatusSucceeded})
	require.NoError(t, err)
	got, err := f.payments.PaymentRepo.GetByID(ctx, payments[0].ID)
	require.NoError(t, err)
	assert.False(t, got.IsOverdue)

	res, err = f.payments.UpdateOverdueFlags(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.MaintenanceResult{}, res)
}

func TestPaymentReadProjections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	contract := f.seedContract(t)
	payments := f.seedSchedule(t, contract.ID, day(2024, 3, 1))
	// due 03-01, 04-01, 05-01, 06-01, 07-01

	due, err := f.payments.GetPaymentsDueBetween(ctx, "2024-04-01", "2024-05-01")
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, payments[1].ID, due[0].ID)
	assert.Equal(t, payments[2].ID, due[1].ID)

	for _, bad := range [][2]string{{"", "2024-05-01"}, {"2024-13-01", "2024-05-01"}, {"2024-05-02", "2024-05-01"}} {
		_, err := f.payments.GetPaymentsDueBetween(ctx, bad[0], bad[1])
		var inErr *InputError
		assert.ErrorAs(t, err, &inErr, "range %v", bad)
	}

	upcoming, err := f.payments.GetUpcomingPayments(ctx, 30)
	require.NoError(t, err)
	require.Len(t, upcoming, 1)
	assert.Equal(t, day(2024, 4, 1), upcoming[0].DueDate)

	_, err = f.payments.UpdatePaymentStatus(ctx, models.PaymentStatusUpdate{PaymentID: payments[0].ID, Status: models.PaymentStatusSucceeded})
	require.NoError(t, err)
	_, err = f.payments.UpdatePaymentStatus(ctx, models.PaymentStatusUpdate{PaymentID: payments[1].ID, Status: models.PaymentStatusFailed})
	require.NoError(t, err)

	succeeded, err := f.payments.GetPaymentsByStatus(ctx, models.PaymentStatusSucceeded)
	require.NoError(t, err)
	require.Len(t, succeeded, 1)
	assert.Equal(t, payments[0].ID, succeeded[0].ID)

	_, err = f.payments.GetPaymentsByStatus(ctx, "bogus")
	var inErr *InputError
	assert.ErrorAs(t, err, &inErr)

	history, err := f.payments.GetPaymentHistory(ctx, contract.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)

	dashboard, err := f.payments.GetDashboard(ctx)
	require.NoError(t, err)
	require.Len(t, dashboard, 1)
	row := dashboard[0]
	assert.Equal(t, contract.ID, row.ContractID)
	assert.Equal(t, "Maya Angel", row.ClientName)
	assert.True(t, row.TotalPaid.Equal(decimal.NewFromInt(200)))
	assert.True(t, row.TotalDue.Equal(decimal.NewFromInt(800)))
	assert.Equal(t, 1, row.PaidCount)
}
