package repositories

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"doulaBack/internal/models"
)

var testNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	ctx := context.Background()
	db, err := Open(ctx, "sqlite", filepath.Join(t.TempDir(), "payments.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, EnsureSchema(ctx, db))
	return db
}

func seedContract(t *testing.T, db *DB) models.Contract {
	t.Helper()
	ctx := context.Background()
	client := models.Client{
		ID:        uuid.NewString(),
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		CreatedAt: testNow,
		UpdatedAt: testNow,
	}
	require.NoError(t, NewClientRepository(db).Create(ctx, client))
	contract := models.Contract{
		ID:            uuid.NewString(),
		ClientID:      client.ID,
		TotalAmount:   decimal.NewFromInt(1000),
		DepositAmount: decimal.NewFromInt(200),
		Status:        models.ContractStatusSigned,
		CreatedAt:     testNow,
		UpdatedAt:     testNow,
	}
	require.NoError(t, NewContractRepository(db).Create(ctx, contract))
	return contract
}

func seedPayment(t *testing.T, db *DB, contractID string, number int, status models.PaymentStatus, due time.Time) models.Payment {
	t.Helper()
	p := models.Payment{
		ID:            uuid.NewString(),
		ContractID:    contractID,
		Amount:        decimal.NewFromInt(200),
		PaymentType:   models.PaymentTypeInstallment,
		DueDate:       due,
		Status:        status,
		PaymentNumber: number,
		TotalPayments: 5,
		CreatedAt:     testNow,
		UpdatedAt:     testNow,
	}
	require.NoError(t, NewPaymentRepository(db).Create(context.Background(), p))
	return p
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
