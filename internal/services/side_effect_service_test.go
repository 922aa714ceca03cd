package services

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doulaBack/internal/billing/jobs"
	"doulaBack/internal/billing/quickbooks"
	"doulaBack/internal/logging"
	"doulaBack/internal/models"
)

type fakeQuickBooks struct {
	existing  *quickbooks.Customer
	created   []quickbooks.Customer
	receipts  []quickbooks.SalesReceipt
	requestID []string
	err       error
}

func (f *fakeQuickBooks) FindCustomerByDisplayName(ctx context.Context, name string) (*quickbooks.Customer, error) {
	if f.existing != nil && f.existing.DisplayName == name {
		return f.existing, nil
	}
	return nil, nil
}

func (f *fakeQuickBooks) CreateCustomer(ctx context.Context, cust quickbooks.Customer) (*quickbooks.Customer, error) {
	cust.ID = "qb-cust-1"
	f.created = append(f.created, cust)
	return &cust, nil
}

func (f *fakeQuickBooks) CreateSalesReceipt(ctx context.Context, requestID string, receipt quickbooks.SalesReceipt) (*quickbooks.SalesReceipt, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.requestID = append(f.requestID, requestID)
	f.receipts = append(f.receipts, receipt)
	receipt.ID = "sr-1"
	return &receipt, nil
}

func TestSyncQuickBooksReceipt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	contract := f.seedContract(t)
	p := f.seedSchedule(t, contract.ID, day(2024, 1, 1))[0]
	_, err := f.payments.UpdatePaymentStatus(ctx, models.PaymentStatusUpdate{PaymentID: p.ID, Status: models.PaymentStatusSucceeded})
	require.NoError(t, err)

	qb := &fakeQuickBooks{}
	svc := NewSideEffectService(f.db, qb, "usd", logging.Discard())
	svc.Clock = fixedClock
	job := asJob(t, enqueued{Type: jobs.TypeQuickBooksSalesReceipt, Payload: jobs.QuickBooksReceiptPayload{PaymentID: p.ID, ContractID: contract.ID, IntentID: "pi_1"}})

	require.NoError(t, svc.SyncQuickBooksReceipt(ctx, job))
	require.Len(t, qb.created, 1)
	assert.Equal(t, "Maya Angel (maya@example.com)", qb.created[0].DisplayName)
	require.Len(t, qb.receipts, 1)
	assert.Equal(t, []string{p.ID}, qb.requestID)
	assert.Equal(t, "qb-cust-1", qb.receipts[0].CustomerRef.Value)
	assert.Equal(t, "2024-03-15", qb.receipts[0].TxnDate)
	assert.InDelta(t, 200.0, qb.receipts[0].TotalAmt, 0.001)

	client, err := f.clients.GetClient(ctx, contract.ClientID)
	require.NoError(t, err)
	require.NotNil(t, client.QuickBooksCustomerID)
	assert.Equal(t, "qb-cust-1", *client.QuickBooksCustomerID)

	// the linked customer is reused
	require.NoError(t, svc.SyncQuickBooksReceipt(ctx, job))
	assert.Len(t, qb.created, 1)
}

func TestSyncQuickBooksReceiptErrorClassification(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	contract := f.seedContract(t)
	p := f.seedSchedule(t, contract.ID, day(2024, 1, 1))[0]

	qb := &fakeQuickBooks{err: &quickbooks.APIError{StatusCode: http.StatusBadRequest, Status: "400 Bad Request"}}
	svc := NewSideEffectService(f.db, qb, "usd", logging.Discard())
	job := asJob(t, enqueued{Type: jobs.TypeQuickBooksSalesReceipt, Payload: jobs.QuickBooksReceiptPayload{PaymentID: p.ID}})
	assert.ErrorIs(t, svc.SyncQuickBooksReceipt(ctx, job), jobs.ErrPermanent)

	qb.err = &quickbooks.APIError{StatusCode: http.StatusServiceUnavailable, Status: "503"}
	err := svc.SyncQuickBooksReceipt(ctx, job)
	require.Error(t, err)
	assert.False(t, errors.Is(err, jobs.ErrPermanent))

	missing := asJob(t, enqueued{Type: jobs.TypeQuickBooksSalesReceipt, Payload: jobs.QuickBooksReceiptPayload{PaymentID: "missing"}})
	assert.ErrorIs(t, svc.SyncQuickBooksReceipt(ctx, missing), jobs.ErrPermanent)
}

func TestSideEffectHandlers(t *testing.T) {
	f := newFixture(t)
	without := NewSideEffectService(f.db, nil, "", logging.Discard()).Handlers()
	assert.Contains(t, without, jobs.TypeLegacyCharge)
	assert.NotContains(t, without, jobs.TypeQuickBooksSalesReceipt)

	with := NewSideEffectService(f.db, &fakeQuickBooks{}, "usd", logging.Discard()).Handlers()
	assert.Contains(t, with, jobs.TypeQuickBooksSalesReceipt)
}
