package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Source identifies the ingestion path that produced a snapshot.
type Source string

const (
	SourceManual Source = "manual"
	SourceCSV    Source = "csv"
)

var (
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrNegativeIncome = errors.New("income cannot be negative")
)

type (
	// RawInput is the common shape both ingestion adapters produce:
	// an income figure plus whatever category amounts the input carried.
	// Missing categories are filled in by BuildSnapshot.
	RawInput struct {
		Income   decimal.Decimal
		Expenses map[string]decimal.Decimal
		Month    string
	}

	// Snapshot is the normalized financial state computed from one
	// ingestion event. Expenses and ExpensePercentages always contain
	// every schema category as a key, zero-valued when absent from the
	// raw input; the health scorer and the advisor rely on this.
	Snapshot struct {
		Income             decimal.Decimal            `json:"income"`
		Expenses           map[string]decimal.Decimal `json:"expenses"`
		TotalExpenses      decimal.Decimal            `json:"total_expenses"`
		Savings            decimal.Decimal            `json:"savings"`
		SavingsRate        decimal.Decimal            `json:"savings_rate"`
		ExpensePercentages map[string]decimal.Decimal `json:"expense_percentages"`
		Month              string                     `json:"month"`
		Timestamp          time.Time                  `json:"timestamp"`
		Source             Source                     `json:"source"`
	}
)

// ParseAmount parses a monetary amount from its string form.
// It accepts plain decimal notation with an optional sign.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// IsEmpty reports whether the snapshot is the zero value, i.e. no
// ingestion event has produced it.
func (s Snapshot) IsEmpty() bool {
	return s.Expenses == nil && s.Timestamp.IsZero()
}

// Expense returns the amount recorded for a schema category,
// zero when the category is unknown.
func (s Snapshot) Expense(category string) decimal.Decimal {
	return s.Expenses[category]
}

// DefaultMonthLabel is the month label applied when the input does not
// carry one, e.g. "January 2006".
func DefaultMonthLabel(now time.Time) string {
	return now.Format("January 2006")
}
