package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/stripe/stripe-go/v76"

	"doulaBack/internal/billing/stripepay"
)

const maxWebhookBody = 65536

type WebhookVerifier interface {
	VerifyWebhookSignature(payload []byte, header string) (stripe.Event, error)
}

type IntentCreator interface {
	CreatePaymentIntent(ctx context.Context, paymentID string) (stripepay.Intent, error)
}

type WebhookReconciler interface {
	HandlePaymentWebhook(ctx context.Context, ev stripepay.PaymentIntentEvent) error
}

type StripeHandler struct {
	Verifier   WebhookVerifier
	Intents    IntentCreator
	Reconciler WebhookReconciler
	Logger     *slog.Logger
}

func NewStripeHandler(verifier WebhookVerifier, intents IntentCreator, reconciler WebhookReconciler, logger *slog.Logger) *StripeHandler {
	return &StripeHandler{Verifier: verifier, Intents: intents, Reconciler: reconciler, Logger: logger}
}

func (h *StripeHandler) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	intent, err := h.Intents.CreatePaymentIntent(r.Context(), getParam(r, "paymentId"))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, intent)
}

// Webhook verifies the provider signature over the raw body before anything
// else is parsed. Reconciliation failures return 500 so the provider retries.
func (h *StripeHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	if h.Verifier == nil {
		writeError(w, http.StatusServiceUnavailable, "payments provider is not configured")
		return
	}

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	event, err := h.Verifier.VerifyWebhookSignature(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		if errors.Is(err, stripepay.ErrInvalidSignature) {
			writeError(w, http.StatusBadRequest, "Invalid webhook signature")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	logger := h.Logger.With("event_id", event.ID, "event_type", event.Type)
	if !strings.HasPrefix(string(event.Type), "payment_intent.") {
		logger.Info("webhook event ignored")
		writeReceived(w)
		return
	}

	ev, err := stripepay.ParsePaymentIntentEvent(event)
	if err != nil {
		logger.Warn("webhook payload rejected", "error", err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.Reconciler.HandlePaymentWebhook(r.Context(), ev); err != nil {
		logger.Error("webhook reconciliation failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeReceived(w)
}

func writeReceived(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]bool{"received": true})
}
