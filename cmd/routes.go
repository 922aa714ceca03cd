package main

import (
	"net/http"

	"github.com/bmizerany/pat"
	"github.com/justinas/alice"

	"doulaBack/internal/models"
)

func (app *application) JWTMiddlewareWithRole(requiredRole string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return app.JWTMiddleware(next, requiredRole)
	}
}

func (app *application) routes() http.Handler {
	standardMiddleware := alice.New(app.recoverPanic, app.logRequest, secureHeaders, makeResponseJSON)
	authMiddleware := standardMiddleware.Append(app.JWTMiddlewareWithRole(models.RoleAuthenticated))
	adminAuthMiddleware := standardMiddleware.Append(app.JWTMiddlewareWithRole(models.RoleAdmin))

	mux := pat.New()

	mux.Get("/healthz", standardMiddleware.ThenFunc(app.healthz))

	// Payments
	mux.Get("/payments/dashboard", authMiddleware.ThenFunc(app.paymentHandler.GetDashboard))
	mux.Get("/payments/overdue", authMiddleware.ThenFunc(app.paymentHandler.GetOverdue))
	mux.Get("/payments/upcoming", authMiddleware.ThenFunc(app.paymentHandler.GetUpcoming))
	mux.Get("/payments/due-between", authMiddleware.ThenFunc(app.paymentHandler.GetDueBetween))
	mux.Get("/payments/status/:status", authMiddleware.ThenFunc(app.paymentHandler.GetByStatus))
	mux.Get("/payments/contract/:contractId/summary", authMiddleware.ThenFunc(app.paymentHandler.GetSummary))
	mux.Get("/payments/contract/:contractId/schedule", authMiddleware.ThenFunc(app.paymentHandler.GetSchedule))
	mux.Get("/payments/contract/:contractId/history", authMiddleware.ThenFunc(app.paymentHandler.GetHistory))
	mux.Post("/payments/contract/:contractId/schedule", adminAuthMiddleware.ThenFunc(app.paymentHandler.CreateSchedule))
	mux.Post("/payments/contract/:contractId/payment", adminAuthMiddleware.ThenFunc(app.paymentHandler.CreateManualPayment))
	mux.Put("/payments/payment/:paymentId/status", adminAuthMiddleware.ThenFunc(app.paymentHandler.UpdateStatus))
	mux.Post("/payments/maintenance/daily", adminAuthMiddleware.ThenFunc(app.paymentHandler.RunDailyMaintenance))
	mux.Post("/payments/maintenance/overdue-flags", adminAuthMiddleware.ThenFunc(app.paymentHandler.UpdateOverdueFlags))

	// Reminders
	mux.Get("/payments/reminders/due", authMiddleware.ThenFunc(app.reminderHandler.ListDue))
	mux.Put("/payments/reminders/:reminderId/sent", adminAuthMiddleware.ThenFunc(app.reminderHandler.MarkSent))
	mux.Get("/payments/payment/:paymentId/reminders", authMiddleware.ThenFunc(app.reminderHandler.ListReminders))
	mux.Post("/payments/payment/:paymentId/reminders", adminAuthMiddleware.ThenFunc(app.reminderHandler.CreateReminder))

	// Stripe
	mux.Post("/stripe-payments/payment/:paymentId/intent", authMiddleware.ThenFunc(app.stripeHandler.CreatePaymentIntent))
	mux.Post("/stripe-payments/webhook", alice.New(app.recoverPanic, app.logRequest).ThenFunc(app.stripeHandler.Webhook))

	// Clients
	mux.Post("/clients", adminAuthMiddleware.ThenFunc(app.clientHandler.CreateClient))
	mux.Get("/clients/:clientId", authMiddleware.ThenFunc(app.clientHandler.GetClient))

	// Contracts
	mux.Post("/contracts", adminAuthMiddleware.ThenFunc(app.contractHandler.CreateContract))
	mux.Get("/contracts/:contractId", authMiddleware.ThenFunc(app.contractHandler.GetContract))
	mux.Put("/contracts/:contractId/status", adminAuthMiddleware.ThenFunc(app.contractHandler.UpdateStatus))
	mux.Post("/contracts/:contractId/document", adminAuthMiddleware.ThenFunc(app.contractHandler.UploadDocument))

	return mux
}
