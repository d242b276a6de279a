package storage

import (
	"context"
	"path/filepath"
	"testing"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/ledger/ledgertest"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "fintrack.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteRepositoryContract(t *testing.T) {
	ledgertest.Run(t, func(t *testing.T) ledger.Store { return newTestRepo(t) })
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fintrack.db")
	repo, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	repo.Close()

	repo, err = NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	defer repo.Close()

	version, dirty, err := MigrationVersion(path)
	if err != nil {
		t.Fatalf("MigrationVersion: %v", err)
	}
	if version != 1 || dirty {
		t.Fatalf("version = %d dirty = %v", version, dirty)
	}
}

func TestRollbackMigrations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fintrack.db")
	repo, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	repo.Close()

	if err := RollbackMigrations(path, 1); err != nil {
		t.Fatalf("RollbackMigrations: %v", err)
	}
	version, _, err := MigrationVersion(path)
	if err != nil || version != 0 {
		t.Fatalf("version after rollback = %d, %v", version, err)
	}
	if err := RollbackMigrations(path, 0); err == nil {
		t.Fatal("expected error for zero steps")
	}
}

func TestPersistenceAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fintrack.db")
	ctx := context.Background()

	repo, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	e := core.Expense{UserID: 4, Category: "Food", Description: "thali", Amount: core.Money{Cents: 25050}, Date: core.NewDate(2025, 2, 3), Method: "UPI"}
	if _, err := repo.InsertExpense(ctx, e); err != nil {
		t.Fatalf("InsertExpense: %v", err)
	}
	repo.Close()

	repo, err = NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer repo.Close()

	list, err := repo.ListExpenses(ctx, 4)
	if err != nil || len(list) != 1 {
		t.Fatalf("ListExpenses = %v, %v", list, err)
	}
	got := list[0]
	if got.Description != "thali" || got.Method != "UPI" || got.Amount.Cents != 25050 || got.Date != e.Date {
		t.Fatalf("round trip = %+v", got)
	}
	if err := repo.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}
