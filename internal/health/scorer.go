// Package health scores a financial snapshot on a fixed 100-point rubric.
//
// The rubric sums four independent sub-scores: savings rate (40), positive
// savings (20), EMI burden (20) and expense concentration (20). The result
// is clamped to [0,100] and mapped to a status label and display color.
package health

import (
	"github.com/shopspring/decimal"

	"finadvisor/internal/core"
)

// Result is the displayable outcome of scoring a snapshot. It is
// recomputed on demand and never persisted independently.
type Result struct {
	Score  int    `json:"score"`
	Status string `json:"status"`
	Color  string `json:"color"`
}

// ErrorResult is returned whenever a snapshot cannot be scored. The
// contract is "always return a displayable result": callers never see a
// hard failure from the scorer.
var ErrorResult = Result{Score: 0, Status: "Error", Color: "gray"}

var (
	hundred = decimal.NewFromInt(100)
	d5      = decimal.NewFromInt(5)
	d10     = decimal.NewFromInt(10)
	d20     = decimal.NewFromInt(20)
	d30     = decimal.NewFromInt(30)
	d40     = decimal.NewFromInt(40)
	d50     = decimal.NewFromInt(50)
	d60     = decimal.NewFromInt(60)
)

// Score computes the health rubric for a snapshot.
//
// A malformed snapshot (missing expense map) yields ErrorResult rather
// than an error. Note the zero-income edge: with income 0 and all
// amounts 0 the rubric still awards the near-break-even savings points
// and the zero-EMI points, matching the established product behavior.
func Score(s core.Snapshot) Result {
	if s.Expenses == nil {
		return ErrorResult
	}

	score := savingsRatePoints(s.SavingsRate) +
		savingsPoints(s.Savings, s.Income) +
		emiPoints(s.Expense("EMI"), s.Income) +
		concentrationPoints(s.Expenses, s.Income)

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	status, color := statusFor(score)
	return Result{Score: score, Status: status, Color: color}
}

// savingsRatePoints awards up to 40 points by savings-rate bucket.
func savingsRatePoints(rate decimal.Decimal) int {
	switch {
	case rate.GreaterThanOrEqual(d30):
		return 40
	case rate.GreaterThanOrEqual(d20):
		return 30
	case rate.GreaterThanOrEqual(d10):
		return 20
	case rate.GreaterThanOrEqual(d5):
		return 10
	default:
		return 0
	}
}

// savingsPoints awards 20 points for positive savings and 10 when the
// deficit stays within 10% of income.
func savingsPoints(savings, income decimal.Decimal) int {
	if savings.IsPositive() {
		return 20
	}
	floor := income.Mul(decimal.NewFromFloat(-0.1))
	if savings.GreaterThanOrEqual(floor) {
		return 10
	}
	return 0
}

// emiPoints awards up to 20 points by EMI share of income. With zero
// income the share computes to zero, which pays the full 20.
func emiPoints(emi, income decimal.Decimal) int {
	pct := decimal.Zero
	if income.IsPositive() {
		pct = emi.Div(income).Mul(hundred)
	}
	switch {
	case pct.IsZero():
		return 20
	case pct.LessThanOrEqual(d30):
		return 15
	case pct.LessThanOrEqual(d40):
		return 10
	case pct.LessThanOrEqual(d50):
		return 5
	default:
		return 0
	}
}

// concentrationPoints awards up to 20 points based on the largest single
// positive expense as a share of income. It contributes nothing when
// income is zero or no positive expense exists.
func concentrationPoints(expenses map[string]decimal.Decimal, income decimal.Decimal) int {
	if !income.IsPositive() {
		return 0
	}
	max := decimal.Zero
	found := false
	for _, amount := range expenses {
		if amount.IsPositive() && amount.GreaterThan(max) {
			max = amount
			found = true
		}
	}
	if !found {
		return 0
	}
	pct := max.Div(income).Mul(hundred)
	switch {
	case pct.LessThanOrEqual(d30):
		return 20
	case pct.LessThanOrEqual(d40):
		return 15
	case pct.LessThanOrEqual(d50):
		return 10
	case pct.LessThanOrEqual(d60):
		return 5
	default:
		return 0
	}
}

func statusFor(score int) (status, color string) {
	switch {
	case score >= 80:
		return "Excellent", "green"
	case score >= 60:
		return "Good", "lightgreen"
	case score >= 40:
		return "Fair", "orange"
	default:
		return "Needs Improvement", "red"
	}
}
