// Package ingest translates the two raw external shapes (manual form
// submissions and uploaded CSV files) into the common RawInput consumed
// by the metrics engine.
//
// The two adapters deliberately carry different failure policies: a
// malformed manual submission fails as a whole, while a malformed CSV
// row contributes zero and processing continues. See the doc comments
// on Manual and CSV.
package ingest

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"finadvisor/internal/core"
)

// Manual converts a manually entered field map into a RawInput.
//
// Field names are matched case-insensitively: "income", optionally
// "month", and one field per schema category (absent categories default
// to zero). The policy is strict: any non-numeric income or category
// amount fails the whole submission with a descriptive error, so the
// caller knows ingestion failed entirely.
func Manual(fields map[string]string) (core.RawInput, error) {
	norm := make(map[string]string, len(fields))
	for k, v := range fields {
		norm[strings.ToLower(strings.TrimSpace(k))] = strings.TrimSpace(v)
	}

	income := decimal.Zero
	if v, ok := norm["income"]; ok && v != "" {
		parsed, err := core.ParseAmount(v)
		if err != nil {
			return core.RawInput{}, fmt.Errorf("invalid income value %q: %w", v, err)
		}
		income = parsed
	}
	if income.IsNegative() {
		return core.RawInput{}, core.ErrNegativeIncome
	}

	expenses := make(map[string]decimal.Decimal)
	for _, category := range core.Categories() {
		v, ok := norm[strings.ToLower(category)]
		if !ok || v == "" {
			continue
		}
		amount, err := core.ParseAmount(v)
		if err != nil {
			return core.RawInput{}, fmt.Errorf("invalid amount %q for category %s: %w", v, category, err)
		}
		expenses[category] = amount
	}

	return core.RawInput{
		Income:   income,
		Expenses: expenses,
		Month:    norm["month"],
	}, nil
}
