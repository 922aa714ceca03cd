package services

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"doulaBack/internal/models"
	"doulaBack/internal/repositories"
)

type CreateClientInput struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

type ClientService struct {
	ClientRepo *repositories.ClientRepository
	Clock      func() time.Time
}

func NewClientService(db *repositories.DB) *ClientService {
	return &ClientService{ClientRepo: repositories.NewClientRepository(db)}
}

func (s *ClientService) CreateClient(ctx context.Context, in CreateClientInput) (models.Client, error) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = strings.TrimSpace(in.Email)
	if in.FirstName == "" && in.LastName == "" {
		return models.Client{}, invalidInput("first_name or last_name is required")
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return models.Client{}, invalidInput("invalid email %q", in.Email)
	}

	now := clockOrNow(s.Clock).UTC()
	c := models.Client{
		ID:        uuid.NewString(),
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Phone:     strings.TrimSpace(in.Phone),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.ClientRepo.Create(ctx, c); err != nil {
		return models.Client{}, fmt.Errorf("Failed to create client: %w", err)
	}
	return c, nil
}

func (s *ClientService) GetClient(ctx context.Context, id string) (models.Client, error) {
	return s.ClientRepo.GetByID(ctx, id)
}
