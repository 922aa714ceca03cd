package summary

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doulaBack/internal/models"
)

func day(m time.Month, d int) time.Time {
	return time.Date(2024, m, d, 0, 0, 0, 0, time.UTC)
}

func payment(status models.PaymentStatus, amount int64, due time.Time) models.Payment {
	return models.Payment{Status: status, Amount: decimal.NewFromInt(amount), DueDate: due}
}

func TestIsOverdue(t *testing.T) {
	today := day(3, 10)
	assert.True(t, IsOverdue(models.PaymentStatusPending, day(3, 9), today))
	assert.True(t, IsOverdue(models.PaymentStatusFailed, day(1, 1), today))
	assert.False(t, IsOverdue(models.PaymentStatusPending, day(3, 10), today), "due today is not overdue")
	assert.False(t, IsOverdue(models.PaymentStatusSucceeded, day(1, 1), today))
	assert.False(t, IsOverdue(models.PaymentStatusCanceled, day(1, 1), today))
	assert.False(t, IsOverdue(models.PaymentStatusRefunded, day(1, 1), today))
}

func TestSummarize(t *testing.T) {
	payments := []models.Payment{
		payment(models.PaymentStatusSucceeded, 200, day(1, 1)),
		payment(models.PaymentStatusFailed, 200, day(2, 1)),
		payment(models.PaymentStatusPending, 200, day(3, 1)),
		payment(models.PaymentStatusPending, 200, day(4, 1)),
		payment(models.PaymentStatusCanceled, 50, day(4, 1)),
		payment(models.PaymentStatusRefunded, 30, day(1, 5)),
	}
	s := Summarize("c1", payments, day(3, 15))

	assert.Equal(t, "c1", s.ContractID)
	assert.Equal(t, "830", s.TotalAmount.String())
	assert.Equal(t, "200", s.TotalPaid.String())
	assert.Equal(t, "30", s.TotalRefunded.String())
	assert.Equal(t, "600", s.TotalDue.String())
	assert.Equal(t, "400", s.TotalOverdue.String())
	assert.Equal(t, 6, s.PaymentsCount)
	assert.Equal(t, 1, s.PaidCount)
	assert.Equal(t, 2, s.OverdueCount)
	require.NotNil(t, s.NextDueDate)
	assert.Equal(t, day(2, 1), *s.NextDueDate)
	assert.False(t, FullyPaid(s))
}

func TestFullyPaid(t *testing.T) {
	paid := Summarize("c1", []models.Payment{
		payment(models.PaymentStatusSucceeded, 500, day(1, 1)),
		payment(models.PaymentStatusCanceled, 500, day(2, 1)),
	}, day(3, 1))
	assert.True(t, FullyPaid(paid))
	assert.Nil(t, paid.NextDueDate)

	assert.False(t, FullyPaid(Summarize("c2", nil, day(3, 1))), "nothing paid")
	assert.False(t, FullyPaid(Summarize("c3", []models.Payment{
		payment(models.PaymentStatusCanceled, 100, day(1, 1)),
	}, day(3, 1))))
}

func TestDashboardGroupsByContract(t *testing.T) {
	detail := func(contract string, p models.Payment) models.PaymentDetail {
		p.ContractID = contract
		return models.PaymentDetail{Payment: p, ClientName: "Client " + contract, ContractStatus: models.ContractStatusSigned}
	}
	rows := Dashboard([]models.PaymentDetail{
		detail("paid", payment(models.PaymentStatusSucceeded, 100, day(1, 1))),
		detail("late", payment(models.PaymentStatusPending, 100, day(5, 1))),
		detail("late", payment(models.PaymentStatusPending, 100, day(2, 1))),
		detail("soon", payment(models.PaymentStatusPending, 100, day(3, 1))),
	}, day(2, 15))

	require.Len(t, rows, 3)
	assert.Equal(t, "late", rows[0].ContractID)
	assert.Equal(t, "soon", rows[1].ContractID)
	assert.Equal(t, "paid", rows[2].ContractID)
	assert.Equal(t, "Client late", rows[0].ClientName)
	assert.Equal(t, 1, rows[0].OverdueCount)
	assert.Equal(t, "200", rows[0].TotalDue.String())
}
