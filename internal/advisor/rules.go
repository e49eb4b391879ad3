package advisor

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"finadvisor/internal/core"
)

var (
	hundred = decimal.NewFromInt(100)
	d10     = decimal.NewFromInt(10)
	d20     = decimal.NewFromInt(20)
	d40     = decimal.NewFromInt(40)
)

// RuleBasedAnalysis produces the deterministic advice report. It always
// succeeds and serves both as the universal fallback for the AI strategy
// and as the sole mode when the integration is not configured.
func RuleBasedAnalysis(s core.Snapshot) string {
	var b strings.Builder

	b.WriteString("## Financial Analysis Report\n\n")
	b.WriteString("### Overall Financial Health\n\n")

	rate := s.SavingsRate
	switch {
	case rate.GreaterThanOrEqual(d20):
		b.WriteString("Excellent! You're saving " + rate.StringFixed(1) + "% of your income.\n\n")
	case rate.GreaterThanOrEqual(d10):
		b.WriteString("Good job! You're saving " + rate.StringFixed(1) + "% of your income. Aim for 20%.\n\n")
	case rate.IsPositive():
		b.WriteString("You're saving " + rate.StringFixed(1) + "% of your income. Try increasing this.\n\n")
	default:
		b.WriteString("Warning: you're currently not saving. Consider reducing expenses.\n\n")
	}

	b.WriteString("### Key Recommendations\n\n")
	var recommendations []string

	emi := s.Expense("EMI")
	if emi.IsPositive() && s.Income.IsPositive() {
		emiPct := emi.Div(s.Income).Mul(hundred)
		if emiPct.GreaterThan(d40) {
			recommendations = append(recommendations,
				"Reduce EMI burden: EMI is "+emiPct.StringFixed(1)+"% of income.")
		}
	}
	if rate.LessThan(d20) && s.Income.IsPositive() {
		recommendations = append(recommendations,
			"Increase savings gradually to reach at least 20% of income.")
	}

	if len(recommendations) > 3 {
		recommendations = recommendations[:3]
	}
	for i, rec := range recommendations {
		b.WriteString(strconv.Itoa(i+1) + ". " + rec + "\n")
	}

	b.WriteString("\n### Positive Highlights\n\n")
	if s.Savings.IsPositive() {
		b.WriteString("- You save ₹" + s.Savings.StringFixed(0) + " every month. Great discipline!\n")
	} else {
		b.WriteString("- Tracking your finances is a great first step.\n")
	}

	return b.String()
}
