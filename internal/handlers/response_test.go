package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"doulaBack/internal/billing/fsm"
	"doulaBack/internal/billing/schedule"
	"doulaBack/internal/billing/stripepay"
	"doulaBack/internal/models"
	"doulaBack/internal/services"
)

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"input", &services.InputError{Msg: "bad"}, http.StatusBadRequest},
		{"plan", fmt.Errorf("Failed to create payment schedule: %w", &schedule.ValidationError{Problems: []string{"x"}}), http.StatusBadRequest},
		{"signature", stripepay.ErrInvalidSignature, http.StatusBadRequest},
		{"payment missing", fmt.Errorf("wrap: %w", models.ErrPaymentNotFound), http.StatusNotFound},
		{"contract missing", models.ErrContractNotFound, http.StatusNotFound},
		{"transition", &fsm.TransitionError{From: models.PaymentStatusCanceled, To: models.PaymentStatusSucceeded}, http.StatusConflict},
		{"schedule exists", fmt.Errorf("Failed to create payment schedule: %w", models.ErrScheduleExists), http.StatusConflict},
		{"not payable", models.ErrPaymentNotPayable, http.StatusConflict},
		{"stripe off", stripepay.ErrNotConfigured, http.StatusServiceUnavailable},
		{"storage off", fmt.Errorf("Failed to upload contract document: %w", models.ErrStorageNotConfigured), http.StatusServiceUnavailable},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errorStatus(tt.err))
		})
	}
}

func TestToSnake(t *testing.T) {
	assert.Equal(t, "total_amount", toSnake("TotalAmount"))
	assert.Equal(t, "stripe_payment_intent_id", toSnake("StripePaymentIntentID"))
	assert.Equal(t, "status", toSnake("Status"))
}
