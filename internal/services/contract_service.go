package services

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"doulaBack/internal/models"
	"doulaBack/internal/repositories"
)

// DocumentStore keeps uploaded contract documents.
type DocumentStore interface {
	Upload(ctx context.Context, folder, fileName, contentType string, file []byte) (string, error)
}

type CreateContractInput struct {
	ClientID      string
	TotalAmount   decimal.Decimal
	DepositAmount decimal.Decimal
}

type ContractService struct {
	ContractRepo *repositories.ContractRepository
	ClientRepo   *repositories.ClientRepository
	Documents    DocumentStore
	Logger       *slog.Logger
	Clock        func() time.Time
}

func NewContractService(db *repositories.DB, docs DocumentStore, logger *slog.Logger) *ContractService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ContractService{
		ContractRepo: repositories.NewContractRepository(db),
		ClientRepo:   repositories.NewClientRepository(db),
		Documents:    docs,
		Logger:       logger.With("component", "contracts"),
	}
}

func (s *ContractService) CreateContract(ctx context.Context, in CreateContractInput) (models.Contract, error) {
	if !in.TotalAmount.IsPositive() {
		return models.Contract{}, invalidInput("total_amount must be greater than zero")
	}
	if in.DepositAmount.IsNegative() || in.DepositAmount.GreaterThan(in.TotalAmount) {
		return models.Contract{}, invalidInput("deposit_amount must be between 0 and total_amount")
	}
	if _, err := s.ClientRepo.GetByID(ctx, in.ClientID); err != nil {
		return models.Contract{}, fmt.Errorf("Failed to create contract: %w", err)
	}

	now := clockOrNow(s.Clock).UTC()
	c := models.Contract{
		ID:            uuid.NewString(),
		ClientID:      in.ClientID,
		TotalAmount:   in.TotalAmount,
		DepositAmount: in.DepositAmount,
		Status:        models.ContractStatusDraft,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.ContractRepo.Create(ctx, c); err != nil {
		return models.Contract{}, fmt.Errorf("Failed to create contract: %w", err)
	}
	return c, nil
}

func (s *ContractService) GetContract(ctx context.Context, id string) (models.Contract, error) {
	return s.ContractRepo.GetByID(ctx, id)
}

// UpdateContractStatus sets a manual contract status. Activation is left to
// payment reconciliation.
func (s *ContractService) UpdateContractStatus(ctx context.Context, id string, status models.ContractStatus) (models.Contract, error) {
	switch status {
	case models.ContractStatusDraft, models.ContractStatusSent, models.ContractStatusSigned, models.ContractStatusPaymentCompleted:
	default:
		return models.Contract{}, invalidInput("invalid contract status %q", status)
	}
	if _, err := s.ContractRepo.GetByID(ctx, id); err != nil {
		return models.Contract{}, err
	}

	now := clockOrNow(s.Clock).UTC()
	var err error
	if status == models.ContractStatusSigned {
		err = s.ContractRepo.MarkSigned(ctx, id, now)
	} else {
		_, err = s.ContractRepo.SetStatus(ctx, id, status, now)
	}
	if err != nil {
		return models.Contract{}, fmt.Errorf("Failed to update contract status: %w", err)
	}
	return s.ContractRepo.GetByID(ctx, id)
}

// UploadDocument stores the signed contract file and links it on the contract.
func (s *ContractService) UploadDocument(ctx context.Context, id, fileName, contentType string, file []byte) (models.Contract, error) {
	if s.Documents == nil {
		return models.Contract{}, fmt.Errorf("Failed to upload contract document: %w", models.ErrStorageNotConfigured)
	}
	if len(file) == 0 {
		return models.Contract{}, invalidInput("file is required")
	}
	if _, err := s.ContractRepo.GetByID(ctx, id); err != nil {
		return models.Contract{}, err
	}

	ext := strings.ToLower(path.Ext(fileName))
	if ext == "" {
		ext = ".pdf"
	}
	name := fmt.Sprintf("%s%s", uuid.NewString(), ext)
	url, err := s.Documents.Upload(ctx, path.Join("contracts", id), name, contentType, file)
	if err != nil {
		return models.Contract{}, fmt.Errorf("Failed to upload contract document: %w", err)
	}
	if err := s.ContractRepo.SetDocumentURL(ctx, id, url, clockOrNow(s.Clock).UTC()); err != nil {
		return models.Contract{}, fmt.Errorf("Failed to upload contract document: %w", err)
	}
	s.Logger.Info("contract document uploaded", "contract_id", id, "url", url)
	return s.ContractRepo.GetByID(ctx, id)
}
