package handlers

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"doulaBack/internal/billing/schedule"
	"doulaBack/internal/billing/timeutil"
	"doulaBack/internal/models"
	"doulaBack/internal/services"
)

type PaymentHandler struct {
	Schedules *services.PaymentScheduleService
	Payments  *services.PaymentService
}

func NewPaymentHandler(schedules *services.PaymentScheduleService, payments *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{Schedules: schedules, Payments: payments}
}

type createScheduleRequest struct {
	ScheduleName         string           `json:"schedule_name" validate:"omitempty,max=255"`
	TotalAmount          *decimal.Decimal `json:"total_amount" validate:"required"`
	DepositAmount        decimal.Decimal  `json:"deposit_amount"`
	NumberOfInstallments int              `json:"number_of_installments" validate:"gte=0"`
	Frequency            string           `json:"frequency" validate:"omitempty,oneof=one-time weekly biweekly monthly quarterly"`
	StartDate            string           `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
}

type manualPaymentRequest struct {
	Amount      *decimal.Decimal `json:"amount" validate:"required"`
	PaymentType string           `json:"payment_type" validate:"omitempty,oneof=deposit installment final"`
	DueDate     string           `json:"due_date" validate:"required,datetime=2006-01-02"`
	Notes       string           `json:"notes"`
}

type updateStatusRequest struct {
	Status                string  `json:"status" validate:"required"`
	StripePaymentIntentID *string `json:"stripe_payment_intent_id"`
	Notes                 *string `json:"notes"`
}

func (h *PaymentHandler) CreateSchedule(w http.ResponseWriter, r *http.Request) {
	var req createScheduleRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, err)
		return
	}
	var start time.Time
	if req.StartDate != "" {
		start, _ = timeutil.ParseDate(req.StartDate)
	}

	id, err := h.Schedules.CreatePaymentSchedule(r.Context(), services.CreateScheduleInput{
		ContractID:           getParam(r, "contractId"),
		ScheduleName:         req.ScheduleName,
		TotalAmount:          *req.TotalAmount,
		DepositAmount:        req.DepositAmount,
		NumberOfInstallments: req.NumberOfInstallments,
		Frequency:            schedule.Frequency(req.Frequency),
		StartDate:            start,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"schedule_id": id})
}

func (h *PaymentHandler) CreateManualPayment(w http.ResponseWriter, r *http.Request) {
	var req manualPaymentRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, err)
		return
	}
	due, _ := timeutil.ParseDate(req.DueDate)

	p, err := h.Payments.CreateManualPayment(r.Context(), getParam(r, "contractId"), services.ManualPaymentInput{
		Amount:      *req.Amount,
		PaymentType: models.PaymentType(req.PaymentType),
		DueDate:     due,
		Notes:       req.Notes,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *PaymentHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, err)
		return
	}

	p, err := h.Payments.UpdatePaymentStatus(r.Context(), models.PaymentStatusUpdate{
		PaymentID:             getParam(r, "paymentId"),
		Status:                models.PaymentStatus(req.Status),
		StripePaymentIntentID: req.StripePaymentIntentID,
		Notes:                 req.Notes,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *PaymentHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	s, err := h.Schedules.GetPaymentSummary(r.Context(), getParam(r, "contractId"))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *PaymentHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	s, err := h.Schedules.GetContractSchedule(r.Context(), getParam(r, "contractId"))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *PaymentHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.Payments.GetPaymentHistory(r.Context(), getParam(r, "contractId"))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func (h *PaymentHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Payments.GetDashboard(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *PaymentHandler) GetOverdue(w http.ResponseWriter, r *http.Request) {
	payments, err := h.Payments.GetOverduePayments(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payments)
}

func (h *PaymentHandler) GetUpcoming(w http.ResponseWriter, r *http.Request) {
	days, err := queryInt(r, "days", services.DefaultUpcomingDays)
	if err != nil {
		writeError(w, http.StatusBadRequest, "days must be an integer")
		return
	}
	payments, err := h.Payments.GetUpcomingPayments(r.Context(), days)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payments)
}

func (h *PaymentHandler) GetByStatus(w http.ResponseWriter, r *http.Request) {
	payments, err := h.Payments.GetPaymentsByStatus(r.Context(), models.PaymentStatus(getParam(r, "status")))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payments)
}

func (h *PaymentHandler) GetDueBetween(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	payments, err := h.Payments.GetPaymentsDueBetween(r.Context(), q.Get("start_date"), q.Get("end_date"))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payments)
}

func (h *PaymentHandler) RunDailyMaintenance(w http.ResponseWriter, r *http.Request) {
	res, err := h.Payments.RunDailyMaintenance(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *PaymentHandler) UpdateOverdueFlags(w http.ResponseWriter, r *http.Request) {
	res, err := h.Payments.UpdateOverdueFlags(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
