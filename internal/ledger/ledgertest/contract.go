// Package ledgertest holds the behavioural contract every ledger.Store
// implementation is tested against.
package ledgertest

import (
	"context"
	"errors"
	"testing"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
)

// Run exercises newStore against the shared contract.
func Run(t *testing.T, newStore func(t *testing.T) ledger.Store) {
	t.Helper()
	ctx := context.Background()
	d1 := core.NewDate(2025, 1, 10)
	d2 := core.NewDate(2025, 1, 11)
	d3 := core.NewDate(2025, 1, 12)

	t.Run("sums and breakdown", func(t *testing.T) {
		s := newStore(t)
		mustExpense(t, s, core.Expense{UserID: 1, Category: "Food", Amount: money(500), Date: d1})
		mustExpense(t, s, core.Expense{UserID: 1, Category: "Rent", Amount: money(9000), Date: d2})
		mustExpense(t, s, core.Expense{UserID: 1, Category: "Food", Amount: money(250), Date: d3})
		mustExpense(t, s, core.Expense{UserID: 2, Category: "Food", Amount: money(111), Date: d3})
		mustIncome(t, s, core.Income{UserID: 1, Source: "Salary", Category: "Work", Amount: money(20000), Date: d1})

		income, err := s.SumIncome(ctx, 1, ledger.AllTime)
		if err != nil || income != money(20000) {
			t.Fatalf("SumIncome = %v, %v", income, err)
		}
		food, err := s.SumExpenses(ctx, 1, "food", ledger.AllTime)
		if err != nil || food != money(750) {
			t.Fatalf("SumExpenses(food) = %v, %v", food, err)
		}
		all, err := s.SumExpenses(ctx, 1, "", ledger.AllTime)
		if err != nil || all != money(9750) {
			t.Fatalf("SumExpenses(all) = %v, %v", all, err)
		}
		ranged, err := s.SumExpenses(ctx, 1, "", ledger.DateRange{From: d2, To: d2})
		if err != nil || ranged != money(9000) {
			t.Fatalf("SumExpenses(range) = %v, %v", ranged, err)
		}
		none, err := s.SumIncome(ctx, 3, ledger.AllTime)
		if err != nil || !none.IsZero() {
			t.Fatalf("SumIncome(unknown user) = %v, %v", none, err)
		}

		breakdown, err := s.ExpenseBreakdown(ctx, 1, 5)
		if err != nil {
			t.Fatalf("ExpenseBreakdown: %v", err)
		}
		if len(breakdown) != 2 || breakdown[0].Name != "Rent" || breakdown[1].Amount != money(750) {
			t.Fatalf("ExpenseBreakdown = %+v", breakdown)
		}
	})

	t.Run("recent transactions newest first", func(t *testing.T) {
		s := newStore(t)
		for i, d := range []core.Date{d2, d1, d3, d3} {
			tx := core.Transaction{UserID: 1, Type: core.TypeExpense, Category: "Food", Amount: money(int64(100 * (i + 1))), Date: d, SourceID: int64(i + 1)}
			if _, err := s.InsertTransactionMirror(ctx, tx); err != nil {
				t.Fatalf("InsertTransactionMirror: %v", err)
			}
		}
		recent, err := s.RecentTransactions(ctx, 1, 3)
		if err != nil {
			t.Fatalf("RecentTransactions: %v", err)
		}
		if len(recent) != 3 {
			t.Fatalf("got %d rows", len(recent))
		}
		if recent[0].Date != d3 || recent[0].Amount != money(400) || recent[1].Amount != money(300) || recent[2].Date != d2 {
			t.Fatalf("RecentTransactions order = %+v", recent)
		}
	})

	t.Run("delete removes mirror", func(t *testing.T) {
		s := newStore(t)
		e := core.Expense{UserID: 1, Category: "Food", Amount: money(500), Date: d1, Method: "Cash"}
		e.ID = mustExpense(t, s, e)
		if _, err := s.InsertTransactionMirror(ctx, e.Mirror()); err != nil {
			t.Fatalf("mirror: %v", err)
		}
		if err := s.DeleteExpense(ctx, 2, e.ID); !errors.Is(err, ledger.ErrNotFound) {
			t.Fatalf("DeleteExpense(other user) = %v, want ErrNotFound", err)
		}
		if err := s.DeleteExpense(ctx, 1, e.ID); err != nil {
			t.Fatalf("DeleteExpense: %v", err)
		}
		txs, err := s.ListTransactions(ctx, 1)
		if err != nil || len(txs) != 0 {
			t.Fatalf("ListTransactions after delete = %v, %v", txs, err)
		}
		if _, err := s.GetExpense(ctx, e.ID); !errors.Is(err, ledger.ErrNotFound) {
			t.Fatalf("GetExpense after delete = %v", err)
		}

		in := core.Income{UserID: 1, Source: "Gift", Category: "Work", Amount: money(100), Date: d1}
		in.ID = mustIncome(t, s, in)
		if err := s.DeleteIncome(ctx, 1, in.ID); err != nil {
			t.Fatalf("DeleteIncome: %v", err)
		}
		incomes, _ := s.ListIncomes(ctx, 1)
		if len(incomes) != 0 {
			t.Fatalf("ListIncomes after delete = %v", incomes)
		}
	})

	t.Run("missing mirrors", func(t *testing.T) {
		s := newStore(t)
		e := core.Expense{UserID: 1, Category: "Food", Amount: money(500), Date: d1}
		e.ID = mustExpense(t, s, e)
		in := core.Income{UserID: 1, Source: "Salary", Category: "Work", Amount: money(100), Date: d1}
		in.ID = mustIncome(t, s, in)
		if _, err := s.InsertTransactionMirror(ctx, in.Mirror()); err != nil {
			t.Fatalf("mirror: %v", err)
		}

		missing, err := s.MissingMirrors(ctx, 10)
		if err != nil {
			t.Fatalf("MissingMirrors: %v", err)
		}
		want := core.SourceRef{Type: core.TypeExpense, ID: e.ID}
		if len(missing) != 1 || missing[0] != want {
			t.Fatalf("MissingMirrors = %+v, want [%+v]", missing, want)
		}
		ok, err := s.HasMirror(ctx, core.SourceRef{Type: core.TypeIncome, ID: in.ID})
		if err != nil || !ok {
			t.Fatalf("HasMirror(income) = %v, %v", ok, err)
		}
		got, err := s.GetExpense(ctx, e.ID)
		if err != nil || got.Category != "Food" || got.Amount != money(500) || got.Date != d1 {
			t.Fatalf("GetExpense = %+v, %v", got, err)
		}
	})

	t.Run("lists newest first", func(t *testing.T) {
		s := newStore(t)
		mustExpense(t, s, core.Expense{UserID: 1, Category: "Old", Amount: money(1), Date: d1})
		mustExpense(t, s, core.Expense{UserID: 1, Category: "New", Amount: money(1), Date: d3})
		list, err := s.ListExpenses(ctx, 1)
		if err != nil || len(list) != 2 || list[0].Category != "New" {
			t.Fatalf("ListExpenses = %+v, %v", list, err)
		}
	})

	t.Run("users", func(t *testing.T) {
		s := newStore(t)
		u := core.User{Name: "asha", Email: "asha@example.com", PasswordHash: "hash"}
		id, err := s.CreateUser(ctx, u)
		if err != nil || id <= 0 {
			t.Fatalf("CreateUser = %d, %v", id, err)
		}
		if _, err := s.CreateUser(ctx, core.User{Name: "other", Email: "asha@example.com", PasswordHash: "h"}); !errors.Is(err, ledger.ErrUserExists) {
			t.Fatalf("duplicate email = %v, want ErrUserExists", err)
		}
		if _, err := s.CreateUser(ctx, core.User{Name: "asha", Email: "x@example.com", PasswordHash: "h"}); !errors.Is(err, ledger.ErrUserExists) {
			t.Fatalf("duplicate name = %v, want ErrUserExists", err)
		}
		found, err := s.FindUserByName(ctx, "asha")
		if err != nil || found.ID != id || found.PasswordHash != "hash" {
			t.Fatalf("FindUserByName = %+v, %v", found, err)
		}
		if _, err := s.FindUserByName(ctx, "nobody"); !errors.Is(err, ledger.ErrNotFound) {
			t.Fatalf("FindUserByName(nobody) = %v", err)
		}
	})
}

func money(cents int64) core.Money { return core.Money{Cents: cents} }

func mustExpense(t *testing.T, s ledger.Store, e core.Expense) int64 {
	t.Helper()
	id, err := s.InsertExpense(context.Background(), e)
	if err != nil {
		t.Fatalf("InsertExpense: %v", err)
	}
	return id
}

func mustIncome(t *testing.T, s ledger.Store, in core.Income) int64 {
	t.Helper()
	id, err := s.InsertIncome(context.Background(), in)
	if err != nil {
		t.Fatalf("InsertIncome: %v", err)
	}
	return id
}
