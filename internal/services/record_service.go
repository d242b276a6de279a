// Package services orchestrates ledger writes: the primary row, its
// transaction mirror and the ledger event for the worker.
package services

import (
	"context"
	"errors"
	"fmt"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/log"
)

// User-facing outcome messages.
const (
	MsgExpenseAdded   = "✅ Expense added successfully!"
	MsgIncomeAdded    = "✅ Income added successfully!"
	MsgExpenseDeleted = "✅ Expense record deleted!"
	MsgIncomeDeleted  = "✅ Income record deleted successfully!"
)

// EventPublisher is satisfied by *amqp.Client.
type EventPublisher interface {
	PublishLedgerEvent(ctx context.Context, ev *amqp.LedgerEvent) error
}

// RecordStore is the slice of the ledger the service writes to.
type RecordStore interface {
	ledger.Writer
	DeleteExpense(ctx context.Context, userID, id int64) error
	DeleteIncome(ctx context.Context, userID, id int64) error
}

// Receipt describes a committed record.
type Receipt struct {
	ID       int64                `json:"id"`
	Kind     core.TransactionType `json:"kind"`
	Mirrored bool                 `json:"mirrored"`
	Message  string               `json:"message"`
}

type RecordService struct {
	store     RecordStore
	publisher EventPublisher
	logger    *log.Logger
}

// NewRecordService wires the service. publisher may be nil when no broker
// is configured.
func NewRecordService(store RecordStore, publisher EventPublisher, logger *log.Logger) *RecordService {
	if logger == nil {
		logger = log.Discard()
	}
	return &RecordService{
		store:     store,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentLedger),
	}
}

// CreateExpense saves the expense, then its mirror. A mirror failure is
// logged and does not fail the call.
func (s *RecordService) CreateExpense(ctx context.Context, e core.Expense) (Receipt, error) {
	if s.store == nil {
		return Receipt{}, errors.New("ledger store not configured")
	}
	id, err := s.store.InsertExpense(ctx, e)
	if err != nil {
		return Receipt{}, fmt.Errorf("save expense: %w", err)
	}
	e.ID = id

	mirrored := s.writeMirror(ctx, e.Mirror())
	s.publish(ctx, amqp.NewLedgerEvent(core.TypeExpense, id, e.UserID, mirrored))

	s.logger.InfoContext(ctx, "Expense recorded", log.NewFields().
		WithOperation(log.OpCreate).
		WithUser(e.UserID).
		WithRecord(string(core.TypeExpense), id, e.Amount.Cents).
		ToSlice()...)

	return Receipt{ID: id, Kind: core.TypeExpense, Mirrored: mirrored, Message: MsgExpenseAdded}, nil
}

// CreateIncome saves the income, then its mirror, with the same failure
// semantics as CreateExpense.
func (s *RecordService) CreateIncome(ctx context.Context, in core.Income) (Receipt, error) {
	if s.store == nil {
		return Receipt{}, errors.New("ledger store not configured")
	}
	id, err := s.store.InsertIncome(ctx, in)
	if err != nil {
		return Receipt{}, fmt.Errorf("save income: %w", err)
	}
	in.ID = id

	mirrored := s.writeMirror(ctx, in.Mirror())
	s.publish(ctx, amqp.NewLedgerEvent(core.TypeIncome, id, in.UserID, mirrored))

	s.logger.InfoContext(ctx, "Income recorded", log.NewFields().
		WithOperation(log.OpCreate).
		WithUser(in.UserID).
		WithRecord(string(core.TypeIncome), id, in.Amount.Cents).
		ToSlice()...)

	return Receipt{ID: id, Kind: core.TypeIncome, Mirrored: mirrored, Message: MsgIncomeAdded}, nil
}

func (s *RecordService) DeleteExpense(ctx context.Context, userID, id int64) (string, error) {
	if err := s.store.DeleteExpense(ctx, userID, id); err != nil {
		return "", fmt.Errorf("delete expense %d: %w", id, err)
	}
	s.logger.InfoContext(ctx, "Expense deleted", log.FieldOperation, log.OpDelete, log.FieldUserID, userID, log.FieldRecordID, id)
	return MsgExpenseDeleted, nil
}

func (s *RecordService) DeleteIncome(ctx context.Context, userID, id int64) (string, error) {
	if err := s.store.DeleteIncome(ctx, userID, id); err != nil {
		return "", fmt.Errorf("delete income %d: %w", id, err)
	}
	s.logger.InfoContext(ctx, "Income deleted", log.FieldOperation, log.OpDelete, log.FieldUserID, userID, log.FieldRecordID, id)
	return MsgIncomeDeleted, nil
}

func (s *RecordService) writeMirror(ctx context.Context, t core.Transaction) bool {
	if _, err := s.store.InsertTransactionMirror(ctx, t); err != nil {
		s.logger.WarnContext(ctx, "Mirror write failed", log.NewFields().
			WithOperation(log.OpMirror).
			WithError(err).
			WithRecord(string(t.Type), t.SourceID, t.Amount.Cents).
			ToSlice()...)
		return false
	}
	return true
}

func (s *RecordService) publish(ctx context.Context, ev *amqp.LedgerEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishLedgerEvent(ctx, ev); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish ledger event",
			log.FieldOperation, log.OpPublish,
			log.FieldKind, string(ev.Kind),
			log.FieldRecordID, ev.ID,
			log.FieldError, err)
	}
}
