package core

import "strings"

// FallbackCategory is the catch-all bucket for amounts whose category
// is not recognized by the schema.
const FallbackCategory = "Others"

// expenseCategories is the fixed, ordered set of expense buckets the
// system recognizes. It is immutable for the lifetime of the process.
var expenseCategories = []string{
	"Rent",
	"Food",
	"Transportation",
	"Shopping",
	"Entertainment",
	"EMI",
	"Utilities",
	"Healthcare",
	FallbackCategory,
}

// Categories returns the schema's category names in their fixed order.
// Callers receive a copy and may not mutate the schema.
func Categories() []string {
	out := make([]string, len(expenseCategories))
	copy(out, expenseCategories)
	return out
}

// CanonicalCategory resolves a label to its schema category name using a
// case-insensitive match. The second return value reports whether the
// label names a schema category at all.
func CanonicalCategory(label string) (string, bool) {
	label = strings.TrimSpace(label)
	for _, c := range expenseCategories {
		if strings.EqualFold(c, label) {
			return c, true
		}
	}
	return "", false
}
