package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/ledger"
	ledgermem "fintrack/internal/ledger/memory"
	sheetsmem "fintrack/internal/sheets/memory"
)

func seed(t *testing.T, s *ledgermem.Store) (expenseID, incomeID int64) {
	t.Helper()
	ctx := context.Background()
	expenseID, err := s.InsertExpense(ctx, core.Expense{
		UserID: 1, Category: "Food", Description: "lunch",
		Amount: core.Money{Cents: 50000}, Date: core.NewDate(2025, 3, 9), Method: "Cash",
	})
	if err != nil {
		t.Fatal(err)
	}
	incomeID, err = s.InsertIncome(ctx, core.Income{
		UserID: 1, Source: "Salary", Category: "Work",
		Amount: core.Money{Cents: 5000000}, Date: core.NewDate(2025, 3, 1),
	})
	if err != nil {
		t.Fatal(err)
	}
	return expenseID, incomeID
}

func TestHandleEventRebuildsMirrorAndExports(t *testing.T) {
	store := ledgermem.New()
	exp := sheetsmem.New()
	w := NewMirrorWorker(store, exp, nil, Options{}, nil)
	expenseID, _ := seed(t, store)
	ctx := context.Background()

	if err := w.HandleEvent(ctx, amqp.NewLedgerEvent(core.TypeExpense, expenseID, 1, false)); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	ref := core.SourceRef{Type: core.TypeExpense, ID: expenseID}
	if ok, _ := store.HasMirror(ctx, ref); !ok {
		t.Fatal("mirror not rebuilt")
	}
	if rows := exp.Rows(); len(rows) != 1 || rows[0][2] != "Food" {
		t.Fatalf("exported rows = %v", rows)
	}

	// A second delivery must not duplicate the mirror.
	if err := w.HandleEvent(ctx, amqp.NewLedgerEvent(core.TypeExpense, expenseID, 1, true)); err != nil {
		t.Fatal(err)
	}
	txs, _ := store.ListTransactions(ctx, 1)
	if len(txs) != 1 {
		t.Fatalf("mirror rows = %d, want 1", len(txs))
	}
}

func TestHandleEventSkipsDeletedRows(t *testing.T) {
	w := NewMirrorWorker(ledgermem.New(), nil, nil, Options{}, nil)
	if err := w.HandleEvent(context.Background(), amqp.NewLedgerEvent(core.TypeIncome, 42, 1, true)); err != nil {
		t.Fatalf("err = %v, want nil", err)
	}
	if err := w.HandleEvent(context.Background(), nil); err == nil {
		t.Fatal("nil event accepted")
	}
}

type failingExporter struct{}

func (failingExporter) Export(context.Context, core.Transaction) (string, error) {
	return "", errors.New("quota exceeded")
}

func TestHandleEventExportFailureRequeues(t *testing.T) {
	store := ledgermem.New()
	expenseID, _ := seed(t, store)
	w := NewMirrorWorker(store, failingExporter{}, nil, Options{}, nil)

	if err := w.HandleEvent(context.Background(), amqp.NewLedgerEvent(core.TypeExpense, expenseID, 1, true)); err == nil {
		t.Fatal("expected export error")
	}
}

func TestReconcile(t *testing.T) {
	store := ledgermem.New()
	seed(t, store)
	seed(t, store)
	w := NewMirrorWorker(store, nil, nil, Options{BatchSize: 10}, nil)
	ctx := context.Background()

	n, err := w.Reconcile(ctx, 3)
	if err != nil || n != 3 {
		t.Fatalf("Reconcile = %d, %v; want 3", n, err)
	}
	n, err = w.Reconcile(ctx, 10)
	if err != nil || n != 1 {
		t.Fatalf("second Reconcile = %d, %v; want 1", n, err)
	}
	missing, _ := store.MissingMirrors(ctx, 0)
	if len(missing) != 0 {
		t.Fatalf("still missing %v", missing)
	}

	income, err := store.SumIncome(ctx, 1, ledger.AllTime)
	if err != nil || income.Cents != 10000000 {
		t.Fatalf("SumIncome = %v, %v", income, err)
	}
}

type stubConsumer struct {
	events []*amqp.LedgerEvent
	errs   []error
}

func (s *stubConsumer) ConsumeLedgerEvents(ctx context.Context, handler func(context.Context, *amqp.LedgerEvent) error) error {
	for _, ev := range s.events {
		s.errs = append(s.errs, handler(ctx, ev))
	}
	<-ctx.Done()
	return ctx.Err()
}

func TestRunStopsOnCancel(t *testing.T) {
	store := ledgermem.New()
	expenseID, _ := seed(t, store)
	consumer := &stubConsumer{events: []*amqp.LedgerEvent{amqp.NewLedgerEvent(core.TypeExpense, expenseID, 1, false)}}
	w := NewMirrorWorker(store, nil, consumer, Options{Interval: 10 * time.Millisecond}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := w.Run(ctx); err != nil {
		t.Fatalf("Run = %v", err)
	}
	missing, _ := store.MissingMirrors(context.Background(), 0)
	if len(missing) != 0 {
		t.Fatalf("missing after run: %v", missing)
	}
}
