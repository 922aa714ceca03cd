package schedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"doulaBack/internal/models"
)

// Plan is the input of Generate.
type Plan struct {
	TotalAmount   decimal.Decimal
	DepositAmount decimal.Decimal
	Installments  int
	Frequency     Frequency
	StartDate     time.Time
}

// Line is one generated payment.
type Line struct {
	Number  int
	Type    models.PaymentType
	Amount  decimal.Decimal
	DueDate time.Time
}

// ValidationError lists everything wrong with a plan.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid payment schedule: " + strings.Join(e.Problems, "; ")
}

// Normalize fills the defaults: one-time frequency and a zero deposit.
func (p Plan) Normalize() Plan {
	if p.Frequency == "" {
		p.Frequency = FrequencyOneTime
	}
	return p
}

// Validate checks the arithmetic preconditions of Generate.
func (p Plan) Validate() error {
	var problems []string
	if !p.TotalAmount.IsPositive() {
		problems = append(problems, "total_amount must be greater than zero")
	}
	if p.DepositAmount.IsNegative() {
		problems = append(problems, "deposit_amount must not be negative")
	}
	if p.DepositAmount.GreaterThan(p.TotalAmount) {
		problems = append(problems, "deposit_amount must not exceed total_amount")
	}
	if p.Installments < 0 {
		problems = append(problems, "number_of_installments must not be negative")
	}
	if !p.Frequency.Valid() {
		problems = append(problems, fmt.Sprintf("unknown frequency %q", p.Frequency))
	}
	if p.Frequency == FrequencyOneTime && p.Installments > 1 {
		problems = append(problems, "frequency one-time allows at most one installment")
	}
	if p.StartDate.IsZero() {
		problems = append(problems, "start_date is required")
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// Generate computes the payment lines of a plan. The amounts always add up to
// TotalAmount: installments are rounded down to cents and the last one takes
// the leftover.
func Generate(p Plan) ([]Line, error) {
	p = p.Normalize()
	if err := p.Validate(); err != nil {
		return nil, err
	}

	var lines []Line
	offset := 0
	if p.DepositAmount.IsPositive() {
		lines = append(lines, Line{
			Type:    models.PaymentTypeDeposit,
			Amount:  p.DepositAmount,
			DueDate: p.StartDate,
		})
		offset = 1
	}

	remainder := p.TotalAmount.Sub(p.DepositAmount)
	switch {
	case !remainder.IsPositive():
	case p.Installments == 0:
		lines = append(lines, Line{
			Type:    models.PaymentTypeFinal,
			Amount:  remainder,
			DueDate: DueDate(p.StartDate, p.Frequency, offset),
		})
	default:
		n := decimal.NewFromInt(int64(p.Installments))
		each := remainder.Div(n).RoundDown(2)
		last := remainder.Sub(each.Mul(decimal.NewFromInt(int64(p.Installments - 1))))
		for i := 0; i < p.Installments; i++ {
			amount := each
			if i == p.Installments-1 {
				amount = last
			}
			lines = append(lines, Line{
				Type:    models.PaymentTypeInstallment,
				Amount:  amount,
				DueDate: DueDate(p.StartDate, p.Frequency, offset+i),
			})
		}
	}

	for i := range lines {
		lines[i].Number = i + 1
	}
	return lines, nil
}

// Total sums the line amounts.
func Total(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Amount)
	}
	return sum
}
