package core

import "sort"

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string `json:"name"`
	Amount Money  `json:"amount"`
}

// Summary is the overall position of one user.
type Summary struct {
	TotalIncome   Money            `json:"total_income"`
	TotalExpenses Money            `json:"total_expenses"`
	Balance       Money            `json:"balance"`
	ByCategory    []CategoryAmount `json:"by_category"`
}

// NewSummary derives the balance from the two totals.
func NewSummary(income, expenses Money, byCategory []CategoryAmount) Summary {
	return Summary{
		TotalIncome:   income,
		TotalExpenses: expenses,
		Balance:       income.Sub(expenses),
		ByCategory:    byCategory,
	}
}

// ChartData maps category names to major-unit amounts.
func (s Summary) ChartData() map[string]float64 {
	return ChartData(s.ByCategory)
}

// ChartData maps category names to major-unit amounts.
func ChartData(rows []CategoryAmount) map[string]float64 {
	if len(rows) == 0 {
		return nil
	}
	out := make(map[string]float64, len(rows))
	for _, r := range rows {
		out[r.Name] = r.Amount.Float()
	}
	return out
}

// DailyTotals groups the transactions of one calendar day.
type DailyTotals struct {
	Date         Date          `json:"date"`
	Income       Money         `json:"income"`
	Expense      Money         `json:"expense"`
	Net          Money         `json:"net"`
	Transactions []Transaction `json:"transactions"`
}

// GroupByDay buckets transactions per day, newest day first. Transactions
// keep their input order inside a bucket.
func GroupByDay(txs []Transaction) []DailyTotals {
	index := map[string]int{}
	var days []DailyTotals
	for _, tx := range txs {
		key := tx.Date.String()
		i, ok := index[key]
		if !ok {
			i = len(days)
			index[key] = i
			days = append(days, DailyTotals{Date: tx.Date})
		}
		day := &days[i]
		day.Transactions = append(day.Transactions, tx)
		switch tx.Type {
		case TypeIncome:
			day.Income = day.Income.Add(tx.Amount)
		case TypeExpense:
			day.Expense = day.Expense.Add(tx.Amount)
		}
		day.Net = day.Income.Sub(day.Expense)
	}
	sort.SliceStable(days, func(a, b int) bool {
		return days[b].Date.Before(days[a].Date)
	})
	return days
}

// BreakdownByCategory sums expenses per category, largest first, ties by name.
func BreakdownByCategory(expenses []Expense, limit int) []CategoryAmount {
	totals := map[string]Money{}
	for _, e := range expenses {
		totals[e.Category] = totals[e.Category].Add(e.Amount)
	}
	out := make([]CategoryAmount, 0, len(totals))
	for name, amt := range totals {
		out = append(out, CategoryAmount{Name: name, Amount: amt})
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Amount.Cents != out[b].Amount.Cents {
			return out[a].Amount.Cents > out[b].Amount.Cents
		}
		return out[a].Name < out[b].Name
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
