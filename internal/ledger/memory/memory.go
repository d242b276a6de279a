// Package memory is an in-process ledger store used by the default backend
// and by tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
)

type Store struct {
	mu       sync.Mutex
	nextID   int64
	expenses []core.Expense
	incomes  []core.Income
	mirrors  []core.Transaction
	users    []core.User
}

var _ ledger.Store = (*Store)(nil)

func New() *Store {
	return &Store{}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *Store) InsertExpense(_ context.Context, e core.Expense) (int64, error) {
	if err := e.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = s.id()
	s.expenses = append(s.expenses, e)
	return e.ID, nil
}

func (s *Store) InsertIncome(_ context.Context, in core.Income) (int64, error) {
	if err := in.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	in.ID = s.id()
	s.incomes = append(s.incomes, in)
	return in.ID, nil
}

func (s *Store) InsertTransactionMirror(_ context.Context, t core.Transaction) (int64, error) {
	if err := t.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = s.id()
	s.mirrors = append(s.mirrors, t)
	return t.ID, nil
}

func (s *Store) SumIncome(_ context.Context, userID int64, r ledger.DateRange) (core.Money, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total core.Money
	for _, in := range s.incomes {
		if in.UserID == userID && r.Contains(in.Date) {
			total = total.Add(in.Amount)
		}
	}
	return total, nil
}

func (s *Store) SumExpenses(_ context.Context, userID int64, category string, r ledger.DateRange) (core.Money, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total core.Money
	for _, e := range s.expenses {
		if e.UserID != userID || !r.Contains(e.Date) {
			continue
		}
		if category != "" && !strings.EqualFold(e.Category, category) {
			continue
		}
		total = total.Add(e.Amount)
	}
	return total, nil
}

func (s *Store) ExpenseBreakdown(_ context.Context, userID int64, limit int) ([]core.CategoryAmount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return core.BreakdownByCategory(s.userExpenses(userID), limit), nil
}

func (s *Store) RecentTransactions(_ context.Context, userID int64, n int) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.userMirrors(userID)
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func (s *Store) ListExpenses(_ context.Context, userID int64) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.userExpenses(userID)
	sort.SliceStable(out, func(a, b int) bool { return newer(out[a].Date, out[a].ID, out[b].Date, out[b].ID) })
	return out, nil
}

func (s *Store) ListIncomes(_ context.Context, userID int64) ([]core.Income, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Income
	for _, in := range s.incomes {
		if in.UserID == userID {
			out = append(out, in)
		}
	}
	sort.SliceStable(out, func(a, b int) bool { return newer(out[a].Date, out[a].ID, out[b].Date, out[b].ID) })
	return out, nil
}

func (s *Store) ListTransactions(_ context.Context, userID int64) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userMirrors(userID), nil
}

func (s *Store) DeleteExpense(_ context.Context, userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.expenses {
		if e.ID == id && e.UserID == userID {
			s.expenses = append(s.expenses[:i], s.expenses[i+1:]...)
			s.dropMirror(core.SourceRef{Type: core.TypeExpense, ID: id})
			return nil
		}
	}
	return ledger.ErrNotFound
}

func (s *Store) DeleteIncome(_ context.Context, userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, in := range s.incomes {
		if in.ID == id && in.UserID == userID {
			s.incomes = append(s.incomes[:i], s.incomes[i+1:]...)
			s.dropMirror(core.SourceRef{Type: core.TypeIncome, ID: id})
			return nil
		}
	}
	return ledger.ErrNotFound
}

func (s *Store) GetExpense(_ context.Context, id int64) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.expenses {
		if e.ID == id {
			return e, nil
		}
	}
	return core.Expense{}, ledger.ErrNotFound
}

func (s *Store) GetIncome(_ context.Context, id int64) (core.Income, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, in := range s.incomes {
		if in.ID == id {
			return in, nil
		}
	}
	return core.Income{}, ledger.ErrNotFound
}

func (s *Store) HasMirror(_ context.Context, ref core.SourceRef) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasMirror(ref), nil
}

func (s *Store) MissingMirrors(_ context.Context, limit int) ([]core.SourceRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.SourceRef
	add := func(ref core.SourceRef) bool {
		if !s.hasMirror(ref) {
			out = append(out, ref)
		}
		return limit > 0 && len(out) >= limit
	}
	for _, e := range s.expenses {
		if add(core.SourceRef{Type: core.TypeExpense, ID: e.ID}) {
			return out, nil
		}
	}
	for _, in := range s.incomes {
		if add(core.SourceRef{Type: core.TypeIncome, ID: in.ID}) {
			return out, nil
		}
	}
	return out, nil
}

func (s *Store) CreateUser(_ context.Context, u core.User) (int64, error) {
	if err := u.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Name == u.Name || strings.EqualFold(existing.Email, u.Email) {
			return 0, ledger.ErrUserExists
		}
	}
	u.ID = s.id()
	s.users = append(s.users, u)
	return u.ID, nil
}

func (s *Store) FindUserByName(_ context.Context, name string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Name == name {
			return u, nil
		}
	}
	return core.User{}, ledger.ErrNotFound
}

func (s *Store) userExpenses(userID int64) []core.Expense {
	var out []core.Expense
	for _, e := range s.expenses {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out
}

// userMirrors returns the user's mirror rows newest first.
func (s *Store) userMirrors(userID int64) []core.Transaction {
	var out []core.Transaction
	for _, t := range s.mirrors {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(a, b int) bool { return newer(out[a].Date, out[a].ID, out[b].Date, out[b].ID) })
	return out
}

func (s *Store) hasMirror(ref core.SourceRef) bool {
	for _, t := range s.mirrors {
		if t.Type == ref.Type && t.SourceID == ref.ID {
			return true
		}
	}
	return false
}

func (s *Store) dropMirror(ref core.SourceRef) {
	kept := s.mirrors[:0]
	for _, t := range s.mirrors {
		if t.Type == ref.Type && t.SourceID == ref.ID {
			continue
		}
		kept = append(kept, t)
	}
	s.mirrors = kept
}

func newer(da core.Date, ida int64, db core.Date, idb int64) bool {
	if !da.Equal(db.Time) {
		return db.Before(da)
	}
	return ida > idb
}
