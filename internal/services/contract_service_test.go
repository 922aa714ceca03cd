package services

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doulaBack/internal/logging"
	"doulaBack/internal/models"
)

type memoryStore struct {
	folder, name, contentType string
	data                      []byte
}

func (m *memoryStore) Upload(ctx context.Context, folder, fileName, contentType string, file []byte) (string, error) {
	m.folder, m.name, m.contentType, m.data = folder, fileName, contentType, file
	return "https://files.example.com/" + folder + "/" + fileName, nil
}

func TestContractLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	contract := f.seedContract(t)
	assert.Equal(t, models.ContractStatusDraft, contract.Status)

	c, err := f.contracts.UpdateContractStatus(ctx, contract.ID, models.ContractStatusSent)
	require.NoError(t, err)
	assert.Equal(t, models.ContractStatusSent, c.Status)

	c, err = f.contracts.UpdateContractStatus(ctx, contract.ID, models.ContractStatusSigned)
	require.NoError(t, err)
	assert.Equal(t, models.ContractStatusSigned, c.Status)
	require.NotNil(t, c.SignedAt)
	assert.Equal(t, testNow, *c.SignedAt)

	_, err = f.contracts.UpdateContractStatus(ctx, contract.ID, models.ContractStatusActive)
	var inErr *InputError
	assert.ErrorAs(t, err, &inErr)

	_, err = f.contracts.UpdateContractStatus(ctx, "missing", models.ContractStatusSent)
	assert.ErrorIs(t, err, models.ErrContractNotFound)
}

func TestCreateContractValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.contracts.CreateContract(ctx, CreateContractInput{ClientID: "x", TotalAmount: decimal.NewFromInt(100), DepositAmount: decimal.NewFromInt(200)})
	var inErr *InputError
	assert.ErrorAs(t, err, &inErr)

	_, err = f.contracts.CreateContract(ctx, CreateContractInput{ClientID: "missing", TotalAmount: decimal.NewFromInt(100)})
	assert.ErrorIs(t, err, models.ErrClientNotFound)
}

func TestUploadDocument(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	contract := f.seedContract(t)
	store := &memoryStore{}
	svc := NewContractService(f.db, store, logging.Discard())
	svc.Clock = fixedClock

	c, err := svc.UploadDocument(ctx, contract.ID, "Signed Contract.PDF", "application/pdf", []byte("%PDF-1.7"))
	require.NoError(t, err)
	require.NotNil(t, c.DocumentURL)
	assert.Equal(t, "contracts/"+contract.ID, store.folder)
	assert.Contains(t, store.name, ".pdf")
	assert.Equal(t, "https://files.example.com/contracts/"+contract.ID+"/"+store.name, *c.DocumentURL)

	_, err = svc.UploadDocument(ctx, contract.ID, "a.pdf", "application/pdf", nil)
	var inErr *InputError
	assert.ErrorAs(t, err, &inErr)

	_, err = f.contracts.UploadDocument(ctx, contract.ID, "a.pdf", "application/pdf", []byte("x"))
	assert.ErrorIs(t, err, models.ErrStorageNotConfigured)
}

func TestClientService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.clients.CreateClient(ctx, CreateClientInput{FirstName: " June ", LastName: "Carter", Email: "june@example.com", Phone: "555-0100"})
	require.NoError(t, err)
	assert.Equal(t, "June", c.FirstName)

	got, err := f.clients.GetClient(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "June Carter", got.FullName())
	assert.Equal(t, "555-0100", got.Phone)

	_, err = f.clients.CreateClient(ctx, CreateClientInput{FirstName: "A", Email: "not-an-email"})
	var inErr *InputError
	assert.ErrorAs(t, err, &inErr)

	_, err = f.clients.GetClient(ctx, "missing")
	assert.ErrorIs(t, err, models.ErrClientNotFound)
}
