package schedule

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doulaBack/internal/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestGenerateDepositAndMonthlyInstallments(t *testing.T) {
	lines, err := Generate(Plan{
		TotalAmount:   decimal.NewFromInt(1000),
		DepositAmount: decimal.NewFromInt(200),
		Installments:  4,
		Frequency:     FrequencyMonthly,
		StartDate:     date(2024, 1, 1),
	})
	require.NoError(t, err)
	require.Len(t, lines, 5)

	assert.Equal(t, models.PaymentTypeDeposit, lines[0].Type)
	assert.Equal(t, date(2024, 1, 1), lines[0].DueDate)

	wantDue := []time.Time{date(2024, 2, 1), date(2024, 3, 1), date(2024, 4, 1), date(2024, 5, 1)}
	for i, l := range lines[1:] {
		assert.Equal(t, models.PaymentTypeInstallment, l.Type)
		assert.Equal(t, wantDue[i], l.DueDate)
	}
	for i, l := range lines {
		assert.Equal(t, i+1, l.Number)
		assert.True(t, l.Amount.Equal(decimal.NewFromInt(200)), "line %d amount %s", i, l.Amount)
	}
	assert.True(t, Total(lines).Equal(decimal.NewFromInt(1000)))
}

func TestGenerateSumEqualsTotal(t *testing.T) {
	cases := []Plan{
		{TotalAmount: decimal.NewFromInt(100), Installments: 3, Frequency: FrequencyWeekly},
		{TotalAmount: decimal.RequireFromString("1234.57"), DepositAmount: decimal.RequireFromString("99.99"), Installments: 7, Frequency: FrequencyBiweekly},
		{TotalAmount: decimal.RequireFromString("0.05"), Installments: 3, Frequency: FrequencyMonthly},
		{TotalAmount: decimal.NewFromInt(500), DepositAmount: decimal.NewFromInt(500), Installments: 2, Frequency: FrequencyMonthly},
		{TotalAmount: decimal.NewFromInt(2500), DepositAmount: decimal.NewFromInt(250)},
		{TotalAmount: decimal.NewFromInt(999), Installments: 12, Frequency: FrequencyQuarterly},
	}
	for _, p := range cases {
		p.StartDate = date(2024, 1, 31)
		lines, err := Generate(p)
		require.NoError(t, err)
		assert.True(t, Total(lines).Equal(p.TotalAmount), "plan %+v sums to %s", p, Total(lines))
		for _, l := range lines {
			assert.False(t, l.Amount.IsNegative())
			assert.True(t, l.Amount.Equal(l.Amount.Round(2)), "amount %s has sub-cent precision", l.Amount)
		}
	}
}

func TestGenerateUnevenSplitPutsRemainderLast(t *testing.T) {
	lines, err := Generate(Plan{
		TotalAmount:  decimal.NewFromInt(100),
		Installments: 3,
		Frequency:    FrequencyMonthly,
		StartDate:    date(2024, 1, 1),
	})
	require.NoError(t, err)
	require.Len(t, lines, 3)
	assert.Equal(t, "33.33", lines[0].Amount.StringFixed(2))
	assert.Equal(t, "33.33", lines[1].Amount.StringFixed(2))
	assert.Equal(t, "33.34", lines[2].Amount.StringFixed(2))
	// Without a deposit the first installment is due on the start date.
	assert.Equal(t, date(2024, 1, 1), lines[0].DueDate)
}

func TestGenerateLumpSumDefaults(t *testing.T) {
	lines, err := Generate(Plan{TotalAmount: decimal.NewFromInt(750), StartDate: date(2024, 6, 15)})
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, models.PaymentTypeFinal, lines[0].Type)
	assert.Equal(t, date(2024, 6, 15), lines[0].DueDate)

	lines, err = Generate(Plan{TotalAmount: decimal.NewFromInt(750), DepositAmount: decimal.NewFromInt(250), StartDate: date(2024, 6, 15)})
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, date(2024, 7, 15), lines[1].DueDate)
	assert.Equal(t, "500.00", lines[1].Amount.StringFixed(2))
}

func TestGenerateDepositEqualsTotal(t *testing.T) {
	lines, err := Generate(Plan{
		TotalAmount:   decimal.NewFromInt(300),
		DepositAmount: decimal.NewFromInt(300),
		Installments:  3,
		Frequency:     FrequencyMonthly,
		StartDate:     date(2024, 1, 1),
	})
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, models.PaymentTypeDeposit, lines[0].Type)
}

func TestGenerateRejectsInvalidPlans(t *testing.T) {
	cases := map[string]Plan{
		"deposit above total": {TotalAmount: decimal.NewFromInt(100), DepositAmount: decimal.NewFromInt(101), StartDate: date(2024, 1, 1)},
		"zero total":          {TotalAmount: decimal.Zero, StartDate: date(2024, 1, 1)},
		"negative count":      {TotalAmount: decimal.NewFromInt(100), Installments: -1, Frequency: FrequencyMonthly, StartDate: date(2024, 1, 1)},
		"unknown frequency":   {TotalAmount: decimal.NewFromInt(100), Installments: 2, Frequency: "daily", StartDate: date(2024, 1, 1)},
		"one-time split":      {TotalAmount: decimal.NewFromInt(100), Installments: 2, StartDate: date(2024, 1, 1)},
		"missing start":       {TotalAmount: decimal.NewFromInt(100)},
	}
	for name, p := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Generate(p)
			var ve *ValidationError
			require.True(t, errors.As(err, &ve), "got %v", err)
			assert.NotEmpty(t, ve.Problems)
		})
	}
}

func TestDueDateClampsMonthEnd(t *testing.T) {
	start := date(2024, 1, 31)
	assert.Equal(t, date(2024, 2, 29), DueDate(start, FrequencyMonthly, 1))
	assert.Equal(t, date(2024, 3, 31), DueDate(start, FrequencyMonthly, 2))
	assert.Equal(t, date(2024, 4, 30), DueDate(start, FrequencyMonthly, 3))
	assert.Equal(t, date(2025, 1, 31), DueDate(start, FrequencyMonthly, 12))
	assert.Equal(t, date(2024, 4, 30), DueDate(start, FrequencyQuarterly, 1))
	assert.Equal(t, date(2024, 2, 14), DueDate(start, FrequencyBiweekly, 1))
	assert.Equal(t, date(2024, 2, 7), DueDate(start, FrequencyWeekly, 1))
}
