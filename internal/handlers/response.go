package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"doulaBack/internal/billing/fsm"
	"doulaBack/internal/billing/schedule"
	"doulaBack/internal/billing/stripepay"
	"doulaBack/internal/models"
	"doulaBack/internal/services"
)

var validate = validator.New()

type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: false, Error: msg})
}

// respondError writes err with the status its kind maps to.
func respondError(w http.ResponseWriter, err error) {
	writeError(w, errorStatus(err), errorMessage(err))
}

func errorStatus(err error) int {
	var (
		inputErr      *services.InputError
		planErr       *schedule.ValidationError
		validationErr validator.ValidationErrors
		transitionErr *fsm.TransitionError
	)
	switch {
	case errors.As(err, &inputErr), errors.As(err, &planErr), errors.As(err, &validationErr),
		errors.Is(err, stripepay.ErrInvalidSignature):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrPaymentNotFound), errors.Is(err, models.ErrContractNotFound),
		errors.Is(err, models.ErrClientNotFound), errors.Is(err, models.ErrReminderNotFound),
		errors.Is(err, models.ErrNoRecord):
		return http.StatusNotFound
	case errors.As(err, &transitionErr), errors.Is(err, fsm.ErrConflict),
		errors.Is(err, models.ErrScheduleExists), errors.Is(err, models.ErrPaymentNotPayable):
		return http.StatusConflict
	case errors.Is(err, stripepay.ErrNotConfigured), errors.Is(err, models.ErrStorageNotConfigured):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func errorMessage(err error) string {
	var validationErr validator.ValidationErrors
	if errors.As(err, &validationErr) {
		problems := make([]string, 0, len(validationErr))
		for _, fe := range validationErr {
			problems = append(problems, fieldProblem(fe))
		}
		return strings.Join(problems, "; ")
	}
	return err.Error()
}

func fieldProblem(fe validator.FieldError) string {
	field := toSnake(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "datetime":
		return field + " must be a date in YYYY-MM-DD format"
	case "email":
		return field + " must be a valid email"
	}
	return fmt.Sprintf("%s failed %q validation", field, fe.Tag())
}

func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 && (s[i-1] < 'A' || s[i-1] > 'Z') {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

// decodeAndValidate reads a JSON body into dst and runs its validate tags.
func decodeAndValidate(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return &services.InputError{Msg: "invalid JSON body: " + err.Error()}
	}
	return validate.Struct(dst)
}
