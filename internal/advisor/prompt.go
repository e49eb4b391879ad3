package advisor

import (
	"strings"

	"finadvisor/internal/core"
)

const analysisSystemPrompt = "You are an expert financial advisor specializing in " +
	"personal finance for Indian households. Provide practical, actionable advice."

const chatSystemPrompt = "You are a friendly financial advisor chatbot. " +
	"Answer questions about budgeting, savings, and investments " +
	"using Indian context and ₹ currency. Be concise and practical."

// analysisPrompt renders the structured snapshot summary sent to the
// completion API. Categories appear in schema order so the prompt is
// deterministic for a given snapshot.
func analysisPrompt(s core.Snapshot) string {
	var b strings.Builder

	b.WriteString("You are a professional financial advisor. Analyze the following financial data and provide personalized advice.\n\n")
	b.WriteString("**Financial Summary:**\n")
	b.WriteString("- Monthly Income: ₹" + s.Income.StringFixed(2) + "\n")
	b.WriteString("- Total Expenses: ₹" + s.TotalExpenses.StringFixed(2) + "\n")
	b.WriteString("- Monthly Savings: ₹" + s.Savings.StringFixed(2) + "\n")
	b.WriteString("- Savings Rate: " + s.SavingsRate.StringFixed(2) + "%\n\n")

	b.WriteString("**Expense Breakdown:**\n")
	for _, category := range core.Categories() {
		amount := s.Expense(category)
		if !amount.IsPositive() {
			continue
		}
		pct := s.ExpensePercentages[category]
		b.WriteString("- " + category + ": ₹" + amount.StringFixed(2) +
			" (" + pct.StringFixed(1) + "% of income)\n")
	}

	b.WriteString("\nPlease provide:\n")
	b.WriteString("1. **Overall Financial Health Assessment** (2-3 sentences)\n")
	b.WriteString("2. **Top 3 Specific Recommendations** (actionable advice)\n")
	b.WriteString("3. **Warning Signs** (if any concerning patterns)\n")
	b.WriteString("4. **Positive Highlights** (what they're doing well)\n\n")
	b.WriteString("Keep the tone friendly, professional, and encouraging.\n")
	b.WriteString("Use Indian financial context and currency (₹).\n")

	return b.String()
}

// chatPrompt wraps a free-form user question with a short snapshot
// context. An empty snapshot produces zero figures and no expense list.
func chatPrompt(userMessage string, s core.Snapshot) string {
	var parts []string
	for _, category := range core.Categories() {
		amount := s.Expense(category)
		if amount.IsPositive() {
			parts = append(parts, category+": ₹"+amount.StringFixed(0))
		}
	}

	var b strings.Builder
	b.WriteString("User Financial Context:\n")
	b.WriteString("- Monthly Income: ₹" + s.Income.StringFixed(2) + "\n")
	b.WriteString("- Monthly Savings: ₹" + s.Savings.StringFixed(2) + "\n")
	b.WriteString("- Key Expenses: " + strings.Join(parts, ", ") + "\n\n")
	b.WriteString("User Question:\n")
	b.WriteString(userMessage + "\n")
	return b.String()
}
