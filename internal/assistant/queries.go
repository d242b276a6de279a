package assistant

import (
	"context"
	"fmt"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/log"
)

const (
	breakdownLimit = 50
	topCategories  = 5
	recentCount    = 5
)

// Aggregate reads degrade to zero or empty on store errors; the failure is
// logged, never shown.

func (a *Assistant) sumExpenses(ctx context.Context, userID int64, category string) core.Money {
	m, err := a.ledger.SumExpenses(ctx, userID, category, ledger.AllTime)
	if err != nil {
		a.degraded(ctx, "sum expenses", userID, err)
		return core.Money{}
	}
	return m
}

func (a *Assistant) sumIncome(ctx context.Context, userID int64) core.Money {
	m, err := a.ledger.SumIncome(ctx, userID, ledger.AllTime)
	if err != nil {
		a.degraded(ctx, "sum income", userID, err)
		return core.Money{}
	}
	return m
}

func (a *Assistant) breakdown(ctx context.Context, userID int64) []core.CategoryAmount {
	rows, err := a.ledger.ExpenseBreakdown(ctx, userID, breakdownLimit)
	if err != nil {
		a.degraded(ctx, "expense breakdown", userID, err)
		return nil
	}
	return rows
}

func (a *Assistant) recent(ctx context.Context, userID int64) []core.Transaction {
	txs, err := a.ledger.RecentTransactions(ctx, userID, recentCount)
	if err != nil {
		a.degraded(ctx, "recent transactions", userID, err)
		return nil
	}
	return txs
}

func (a *Assistant) degraded(ctx context.Context, query string, userID int64, err error) {
	a.logger.WarnContext(ctx, "Ledger query failed, answering with empty result",
		log.FieldOperation, log.OpRead,
		"query", query,
		log.FieldUserID, userID,
		log.FieldError, err)
}

func categoryFacts(category string, total core.Money) string {
	return fmt.Sprintf("Total spent on %s: %s (verified from your database).", category, total.Format())
}

func incomeFacts(total core.Money) string {
	return fmt.Sprintf("Total Income: %s (verified from your database).", total.Format())
}

func summaryFacts(s core.Summary, recent []core.Transaction) string {
	lines := []string{
		"Total Income: " + s.TotalIncome.Format(),
		"Total Expenses: " + s.TotalExpenses.Format(),
		"Balance: " + s.Balance.Format(),
		"",
		"Top expense categories (top 5):",
	}
	if len(s.ByCategory) == 0 {
		lines = append(lines, "None")
	}
	for i, c := range s.ByCategory {
		if i >= topCategories {
			break
		}
		lines = append(lines, fmt.Sprintf("%s: %s", c.Name, c.Amount.Format()))
	}

	lines = append(lines, "", "Recent transactions (latest 5):")
	if len(recent) == 0 {
		lines = append(lines, "None")
	}
	for _, t := range recent {
		lines = append(lines, transactionLine(t))
	}
	return strings.Join(lines, "\n")
}

func transactionLine(t core.Transaction) string {
	return fmt.Sprintf("%s - %s - %s - %s%s", t.Date, t.Type, t.Category, core.CurrencySymbol, t.Amount)
}

func recentReply(txs []core.Transaction) string {
	if len(txs) == 0 {
		return "No recent transactions found."
	}
	var b strings.Builder
	b.WriteString("Recent transactions:")
	for _, t := range txs {
		fmt.Fprintf(&b, "\n%s (%s)", transactionLine(t), t.Description)
	}
	return b.String()
}
