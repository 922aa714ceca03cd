package summary

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"doulaBack/internal/models"
)

// IsOverdue is the overdue rule: an open payment whose due date is before today.
// dueDate and today are calendar dates (midnight UTC).
func IsOverdue(status models.PaymentStatus, dueDate, today time.Time) bool {
	return status.Open() && dueDate.Before(today)
}

// Summarize aggregates the payments of one contract as of today.
func Summarize(contractID string, payments []models.Payment, today time.Time) models.PaymentSummary {
	s := models.PaymentSummary{
		ContractID:    contractID,
		TotalAmount:   decimal.Zero,
		TotalPaid:     decimal.Zero,
		TotalRefunded: decimal.Zero,
		TotalDue:      decimal.Zero,
		TotalOverdue:  decimal.Zero,
	}
	for _, p := range payments {
		s.PaymentsCount++
		if p.Status != models.PaymentStatusCanceled {
			s.TotalAmount = s.TotalAmount.Add(p.Amount)
		}
		switch p.Status {
		case models.PaymentStatusSucceeded:
			s.TotalPaid = s.TotalPaid.Add(p.Amount)
			s.PaidCount++
		case models.PaymentStatusRefunded:
			s.TotalRefunded = s.TotalRefunded.Add(p.Amount)
		case models.PaymentStatusPending, models.PaymentStatusFailed:
			s.TotalDue = s.TotalDue.Add(p.Amount)
			if s.NextDueDate == nil || p.DueDate.Before(*s.NextDueDate) {
				due := p.DueDate
				s.NextDueDate = &due
			}
		}
		if IsOverdue(p.Status, p.DueDate, today) {
			s.TotalOverdue = s.TotalOverdue.Add(p.Amount)
			s.OverdueCount++
		}
	}
	return s
}

// FullyPaid is the contract activation rule: nothing left to pay and something paid.
func FullyPaid(s models.PaymentSummary) bool {
	return s.TotalDue.IsZero() && s.TotalPaid.IsPositive()
}

// Dashboard groups payment details by contract and summarizes each group.
// Contracts without payments are not listed. Rows are ordered by next due
// date, contracts with nothing due last.
func Dashboard(details []models.PaymentDetail, today time.Time) []models.DashboardRow {
	type group struct {
		first    models.PaymentDetail
		payments []models.Payment
	}
	groups := make(map[string]*group)
	var order []string
	for _, d := range details {
		g, ok := groups[d.ContractID]
		if !ok {
			g = &group{first: d}
			groups[d.ContractID] = g
			order = append(order, d.ContractID)
		}
		g.payments = append(g.payments, d.Payment)
	}

	rows := make([]models.DashboardRow, 0, len(order))
	for _, id := range order {
		g := groups[id]
		rows = append(rows, models.DashboardRow{
			PaymentSummary: Summarize(id, g.payments, today),
			ClientID:       g.first.ClientID,
			ClientName:     g.first.ClientName,
			ContractStatus: g.first.ContractStatus,
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].NextDueDate, rows[j].NextDueDate
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		}
		return a.Before(*b)
	})
	return rows
}
