package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/ledger/memory"
)

// flakyStore fails mirror writes on demand.
type flakyStore struct {
	*memory.Store
	failMirror bool
}

func (f *flakyStore) InsertTransactionMirror(ctx context.Context, t core.Transaction) (int64, error) {
	if f.failMirror {
		return 0, errors.New("mirror table unavailable")
	}
	return f.Store.InsertTransactionMirror(ctx, t)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []*amqp.LedgerEvent
	err    error
}

func (p *recordingPublisher) PublishLedgerEvent(_ context.Context, ev *amqp.LedgerEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func expense(userID int64) core.Expense {
	return core.Expense{
		UserID:      userID,
		Category:    "Food",
		Description: "lunch",
		Amount:      core.Money{Cents: 50000},
		Date:        core.NewDate(2025, 3, 1),
		Method:      "Cash",
	}
}

func TestCreateExpenseWritesMirrorAndEvent(t *testing.T) {
	ctx := context.Background()
	store := &flakyStore{Store: memory.New()}
	pub := &recordingPublisher{}
	svc := NewRecordService(store, pub, nil)

	r, err := svc.CreateExpense(ctx, expense(1))
	if err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}
	if r.Message != MsgExpenseAdded || !r.Mirrored || r.ID == 0 {
		t.Fatalf("receipt = %+v", r)
	}

	txs, _ := store.ListTransactions(ctx, 1)
	if len(txs) != 1 || txs[0].SourceID != r.ID || txs[0].Description != "lunch" {
		t.Fatalf("mirror rows = %+v", txs)
	}
	if len(pub.events) != 1 || pub.events[0].ID != r.ID || !pub.events[0].MirrorWritten {
		t.Fatalf("events = %+v", pub.events)
	}
}

func TestMirrorFailureIsSwallowed(t *testing.T) {
	ctx := context.Background()
	store := &flakyStore{Store: memory.New(), failMirror: true}
	pub := &recordingPublisher{}
	svc := NewRecordService(store, pub, nil)

	r, err := svc.CreateIncome(ctx, core.Income{
		UserID: 2, Source: "Salary", Amount: core.Money{Cents: 100000},
		Date: core.NewDate(2025, 3, 1), Category: "Work",
	})
	if err != nil {
		t.Fatalf("CreateIncome: %v", err)
	}
	if r.Message != MsgIncomeAdded || r.Mirrored {
		t.Fatalf("receipt = %+v", r)
	}

	total, _ := store.SumIncome(ctx, 2, ledger.AllTime)
	if total.Cents != 100000 {
		t.Fatalf("primary row missing, total = %d", total.Cents)
	}
	if len(pub.events) != 1 || pub.events[0].MirrorWritten {
		t.Fatalf("event should flag the missing mirror: %+v", pub.events)
	}
}

func TestPublishFailureIsSwallowed(t *testing.T) {
	svc := NewRecordService(&flakyStore{Store: memory.New()}, &recordingPublisher{err: errors.New("broker down")}, nil)
	if _, err := svc.CreateExpense(context.Background(), expense(1)); err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}
}

func TestCreateRejectsInvalidRecords(t *testing.T) {
	svc := NewRecordService(&flakyStore{Store: memory.New()}, nil, nil)

	tests := []struct {
		name string
		run  func() error
		want error
	}{
		{"zero amount", func() error {
			e := expense(1)
			e.Amount = core.Money{}
			_, err := svc.CreateExpense(context.Background(), e)
			return err
		}, core.ErrInvalidAmount},
		{"empty category", func() error {
			e := expense(1)
			e.Category = " "
			_, err := svc.CreateExpense(context.Background(), e)
			return err
		}, core.ErrEmptyCategory},
		{"empty source", func() error {
			_, err := svc.CreateIncome(context.Background(), core.Income{UserID: 1, Amount: core.Money{Cents: 1}, Date: core.NewDate(2025, 1, 1)})
			return err
		}, core.ErrEmptySource},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.run(); !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDeleteMessages(t *testing.T) {
	ctx := context.Background()
	store := &flakyStore{Store: memory.New()}
	svc := NewRecordService(store, nil, nil)

	r, _ := svc.CreateExpense(ctx, expense(1))
	msg, err := svc.DeleteExpense(ctx, 1, r.ID)
	if err != nil || msg != MsgExpenseDeleted {
		t.Fatalf("DeleteExpense = %q, %v", msg, err)
	}
	if _, err := svc.DeleteExpense(ctx, 1, r.ID); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("second delete = %v, want ErrNotFound", err)
	}

	in, _ := svc.CreateIncome(ctx, core.Income{UserID: 1, Source: "Gift", Amount: core.Money{Cents: 100}, Date: core.NewDate(2025, 1, 1)})
	if _, err := svc.DeleteIncome(ctx, 2, in.ID); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("delete by other user = %v, want ErrNotFound", err)
	}
	msg, err = svc.DeleteIncome(ctx, 1, in.ID)
	if err != nil || msg != MsgIncomeDeleted {
		t.Fatalf("DeleteIncome = %q, %v", msg, err)
	}
}
