package assistant

import "testing"

func TestClassify(t *testing.T) {
	vocab := DefaultVocabulary()
	c := NewClassifier(vocab, NewExtractor(vocab))

	tests := []struct {
		text string
		want Intent
	}{
		{"reset", Intent{Kind: IntentReset}},
		{"please clear chat now", Intent{Kind: IntentReset}},
		{"Let's START OVER", Intent{Kind: IntentReset}},
		{"What is my balance?", Intent{Kind: IntentQuery, Query: QuerySummary}},
		{"compare income and expenses", Intent{Kind: IntentQuery, Query: QuerySummary}},
		{"income total", Intent{Kind: IntentQuery, Query: QueryIncomeTotal}},
		{"show me a breakdown", Intent{Kind: IntentQuery, Query: QuerySummary}},
		{"how much did I spend on Transport?", Intent{Kind: IntentQuery, Query: QueryCategorySpend, Category: "Transport"}},
		{"how much on food", Intent{Kind: IntentQuery, Query: QueryCategorySpend, Category: "Food"}},
		{"what have I spent on?", Intent{Kind: IntentQuery, Query: QueryCategorySpend}},
		{"explain my income", Intent{Kind: IntentQuery, Query: QueryIncomeTotal}},
		{"how much have I earned from salary", Intent{Kind: IntentQuery, Query: QueryIncomeTotal}},
		{"I spent ₹1200 on Food today", Intent{Kind: IntentAddExpense}},
		{"bought groceries for 300", Intent{Kind: IntentAddExpense}},
		{"I spent money", Intent{Kind: IntentAddExpense}},
		{"Received salary of ₹50,000", Intent{Kind: IntentAddIncome}},
		{"my client paid me 3000", Intent{Kind: IntentAddIncome}},
		{"I paid 300 for rent", Intent{Kind: IntentAddExpense}},
		{"show recent transactions", Intent{Kind: IntentShowRecent}},
		{"last 5", Intent{Kind: IntentShowRecent}},
		{"hello there", Intent{Kind: IntentUnknown}},
		{"presetting the totality", Intent{Kind: IntentUnknown}},
		{"", Intent{Kind: IntentUnknown}},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := c.Classify(tt.text); got != tt.want {
				t.Errorf("Classify(%q) = %+v, want %+v", tt.text, got, tt.want)
			}
		})
	}
}

func TestIntentString(t *testing.T) {
	tests := []struct {
		in   Intent
		want string
	}{
		{Intent{Kind: IntentQuery, Query: QueryCategorySpend}, "query:category_spend"},
		{Intent{Kind: IntentAddIncome}, "add_income"},
		{Intent{}, "unknown"},
	}
	for _, tt := range tests {
		if got := tt.in.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
