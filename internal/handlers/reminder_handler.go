package handlers

import (
	"net/http"
	"time"

	"doulaBack/internal/models"
	"doulaBack/internal/services"
)

type ReminderHandler struct {
	Service *services.ReminderService
}

func NewReminderHandler(service *services.ReminderService) *ReminderHandler {
	return &ReminderHandler{Service: service}
}

type createReminderRequest struct {
	ReminderType string     `json:"reminder_type" validate:"required,oneof=upcoming due_today overdue"`
	ScheduledFor *time.Time `json:"scheduled_for"`
}

type markSentRequest struct {
	EmailSent bool `json:"email_sent"`
	SMSSent   bool `json:"sms_sent"`
}

func (h *ReminderHandler) CreateReminder(w http.ResponseWriter, r *http.Request) {
	var req createReminderRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, err)
		return
	}
	in := services.CreateReminderInput{ReminderType: models.ReminderType(req.ReminderType)}
	if req.ScheduledFor != nil {
		in.ScheduledFor = *req.ScheduledFor
	}
	rem, err := h.Service.CreateReminder(r.Context(), getParam(r, "paymentId"), in)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rem)
}

func (h *ReminderHandler) ListReminders(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.ListReminders(r.Context(), getParam(r, "paymentId"))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *ReminderHandler) ListDue(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.ListDueReminders(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *ReminderHandler) MarkSent(w http.ResponseWriter, r *http.Request) {
	var req markSentRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, err)
		return
	}
	rem, err := h.Service.MarkSent(r.Context(), getParam(r, "reminderId"), req.EmailSent, req.SMSSent)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rem)
}
