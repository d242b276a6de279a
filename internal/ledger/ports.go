// Package ledger declares the ports through which the assistant, the record
// service and the dashboard reach the ledger store.
package ledger

import (
	"context"
	"errors"

	"fintrack/internal/core"
)

var (
	ErrNotFound   = errors.New("record not found")
	ErrUserExists = errors.New("user already exists")
)

// DateRange bounds a query by calendar day, both ends inclusive. A zero end
// leaves that side open.
type DateRange struct {
	From core.Date
	To   core.Date
}

// AllTime is the unbounded range.
var AllTime = DateRange{}

// Contains reports whether d falls inside the range.
func (r DateRange) Contains(d core.Date) bool {
	if !r.From.IsZero() && d.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && r.To.Before(d) {
		return false
	}
	return true
}

// Ports for the ledger store.
type (
	// Reader serves the aggregate queries behind the chat assistant.
	Reader interface {
		SumIncome(ctx context.Context, userID int64, r DateRange) (core.Money, error)
		// SumExpenses totals expenses; an empty category means every category.
		SumExpenses(ctx context.Context, userID int64, category string, r DateRange) (core.Money, error)
		// ExpenseBreakdown returns per-category expense totals, largest first.
		ExpenseBreakdown(ctx context.Context, userID int64, limit int) ([]core.CategoryAmount, error)
		// RecentTransactions returns mirror rows, newest date first.
		RecentTransactions(ctx context.Context, userID int64, n int) ([]core.Transaction, error)
	}

	Writer interface {
		InsertExpense(ctx context.Context, e core.Expense) (int64, error)
		InsertIncome(ctx context.Context, in core.Income) (int64, error)
		InsertTransactionMirror(ctx context.Context, t core.Transaction) (int64, error)
	}

	// Lister backs the dashboard tables.
	Lister interface {
		ListExpenses(ctx context.Context, userID int64) ([]core.Expense, error)
		ListIncomes(ctx context.Context, userID int64) ([]core.Income, error)
		ListTransactions(ctx context.Context, userID int64) ([]core.Transaction, error)
		// DeleteExpense removes the expense and its mirror row.
		DeleteExpense(ctx context.Context, userID, id int64) error
		// DeleteIncome removes the income and its mirror row.
		DeleteIncome(ctx context.Context, userID, id int64) error
	}

	// MirrorRepairer lets the worker find and rebuild missing mirror rows.
	MirrorRepairer interface {
		GetExpense(ctx context.Context, id int64) (core.Expense, error)
		GetIncome(ctx context.Context, id int64) (core.Income, error)
		HasMirror(ctx context.Context, ref core.SourceRef) (bool, error)
		MissingMirrors(ctx context.Context, limit int) ([]core.SourceRef, error)
	}

	UserStore interface {
		// CreateUser fails with ErrUserExists when the name or email is taken.
		CreateUser(ctx context.Context, u core.User) (int64, error)
		FindUserByName(ctx context.Context, name string) (core.User, error)
	}

	// Store is everything a full backend provides.
	Store interface {
		Reader
		Writer
		Lister
		MirrorRepairer
		UserStore
	}
)
