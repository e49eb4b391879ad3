// Package core holds the category schema and the metrics engine that
// turns raw ingestion output into a normalized financial snapshot.
//
// All derived percentages are rounded to two decimal places using
// decimal.Round, which rounds half away from zero. The exact mode is
// not load-bearing but it is applied consistently everywhere.
package core

import (
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// BuildSnapshot computes the derived metrics for a raw input.
//
// It is a pure transform: every schema category appears in the output
// maps (defaulting to zero), savings may go negative, and when income
// is zero the savings rate and all percentages are exactly zero rather
// than a division error. The caller is responsible for rejecting
// negative income before calling.
func BuildSnapshot(in RawInput, src Source) Snapshot {
	expenses := make(map[string]decimal.Decimal, len(expenseCategories))
	total := decimal.Zero
	for _, c := range expenseCategories {
		amount := in.Expenses[c]
		expenses[c] = amount
		total = total.Add(amount)
	}

	savings := in.Income.Sub(total)

	rate := decimal.Zero
	percentages := make(map[string]decimal.Decimal, len(expenseCategories))
	if in.Income.IsPositive() {
		rate = savings.Div(in.Income).Mul(hundred).Round(2)
		for _, c := range expenseCategories {
			percentages[c] = expenses[c].Div(in.Income).Mul(hundred).Round(2)
		}
	} else {
		for _, c := range expenseCategories {
			percentages[c] = decimal.Zero
		}
	}

	month := in.Month
	if month == "" {
		month = DefaultMonthLabel(time.Now())
	}

	return Snapshot{
		Income:             in.Income,
		Expenses:           expenses,
		TotalExpenses:      total,
		Savings:            savings,
		SavingsRate:        rate,
		ExpensePercentages: percentages,
		Month:              month,
		Timestamp:          time.Now().UTC(),
		Source:             src,
	}
}
