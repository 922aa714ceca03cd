package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"doulaBack/internal/billing/jobs"
	"doulaBack/internal/billing/schedule"
	"doulaBack/internal/logging"
	"doulaBack/internal/models"
	"doulaBack/internal/repositories"
)

var testNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newTestDB(t *testing.T) *repositories.DB {
	t.Helper()
	ctx := context.Background()
	db, err := repositories.Open(ctx, "sqlite", filepath.Join(t.TempDir(), "services.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, repositories.EnsureSchema(ctx, db))
	return db
}

type fixture struct {
	db        *repositories.DB
	clients   *ClientService
	contracts *ContractService
	schedules *PaymentScheduleService
	payments  *PaymentService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)
	f := &fixture{
		db:        db,
		clients:   NewClientService(db),
		contracts: NewContractService(db, nil, logging.Discard()),
		schedules: NewPaymentScheduleService(db),
		payments:  NewPaymentService(db, logging.Discard()),
	}
	f.clients.Clock = fixedClock
	f.contracts.Clock = fixedClock
	f.schedules.Clock = fixedClock
	f.payments.Clock = fixedClock
	return f
}

func (f *fixture) seedContract(t *testing.T) models.Contract {
	t.Helper()
	ctx := context.Background()
	client, err := f.clients.CreateClient(ctx, CreateClientInput{FirstName: "Maya", LastName: "Angel", Email: "maya@example.com"})
	require.NoError(t, err)
	contract, err := f.contracts.CreateContract(ctx, CreateContractInput{
		ClientID:      client.ID,
		TotalAmount:   decimal.NewFromInt(1000),
		DepositAmount: decimal.NewFromInt(200),
	})
	require.NoError(t, err)
	return contract
}

// seedSchedule creates the 1000 total / 200 deposit / 4 monthly plan starting
// on the first of the month.
func (f *fixture) seedSchedule(t *testing.T, contractID string, start time.Time) []models.Payment {
	t.Helper()
	ctx := context.Background()
	_, err := f.schedules.CreatePaymentSchedule(ctx, CreateScheduleInput{
		ContractID:           contractID,
		TotalAmount:          decimal.NewFromInt(1000),
		DepositAmount:        decimal.NewFromInt(200),
		NumberOfInstallments: 4,
		Frequency:            schedule.FrequencyMonthly,
		StartDate:            start,
	})
	require.NoError(t, err)
	payments, err := f.payments.PaymentRepo.ListByContract(ctx, contractID)
	require.NoError(t, err)
	return payments
}

type enqueued struct {
	Type    jobs.Type
	Payload any
}

type recordingQueue struct {
	mu   sync.Mutex
	jobs []enqueued
}

func (q *recordingQueue) Enqueue(ctx context.Context, t jobs.Type, payload any) (*jobs.Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, enqueued{Type: t, Payload: payload})
	return &jobs.Job{Type: t}, nil
}

func (q *recordingQueue) types() []jobs.Type {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]jobs.Type, 0, len(q.jobs))
	for _, j := range q.jobs {
		out = append(out, j.Type)
	}
	return out
}
