package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"finadvisor/internal/core"
)

var (
	ErrEmptyCSV      = errors.New("CSV file is empty")
	ErrMissingColumn = errors.New("CSV must have Category and Amount columns")
)

// CSV converts a two-column tabular file into a RawInput.
//
// The header row is required; column names are matched
// case-insensitively after trimming. Each row's category is title-cased:
// the literal "Income" sets total income (last such row wins, no
// summation), a schema category accumulates into its bucket, and
// anything else folds into Others. The per-row policy is lenient: an
// unparseable amount counts as zero for that row only and never aborts
// the rest of the file.
func CSV(r io.Reader) (core.RawInput, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return core.RawInput{}, fmt.Errorf("reading CSV: %w", err)
	}
	if len(records) == 0 {
		return core.RawInput{}, ErrEmptyCSV
	}

	catIdx, amtIdx := -1, -1
	for i, col := range records[0] {
		switch strings.ToLower(strings.TrimSpace(col)) {
		case "category":
			catIdx = i
		case "amount":
			amtIdx = i
		}
	}
	if catIdx < 0 || amtIdx < 0 {
		return core.RawInput{}, ErrMissingColumn
	}

	income := decimal.Zero
	expenses := make(map[string]decimal.Decimal)

	for _, rec := range records[1:] {
		if catIdx >= len(rec) {
			continue
		}
		label := titleCase(strings.TrimSpace(rec[catIdx]))

		amount := decimal.Zero
		if amtIdx < len(rec) {
			if parsed, err := core.ParseAmount(rec[amtIdx]); err == nil {
				amount = parsed
			}
		}

		if label == "Income" {
			income = amount
			continue
		}
		if category, ok := core.CanonicalCategory(label); ok {
			expenses[category] = expenses[category].Add(amount)
		} else {
			expenses[core.FallbackCategory] = expenses[core.FallbackCategory].Add(amount)
		}
	}

	if income.IsNegative() {
		return core.RawInput{}, core.ErrNegativeIncome
	}

	return core.RawInput{
		Income:   income,
		Expenses: expenses,
		Month:    core.DefaultMonthLabel(time.Now()),
	}, nil
}

// titleCase uppercases the first letter of each space-separated word and
// lowercases the rest, mirroring how category labels are normalized.
func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
