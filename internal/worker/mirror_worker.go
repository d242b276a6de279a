// Package worker keeps the transaction mirror and the optional spreadsheet
// export in step with the primary ledger tables.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/log"
	"fintrack/internal/sheets"
)

// Repairer is the slice of the ledger store the worker needs.
type Repairer interface {
	ledger.MirrorRepairer
	InsertTransactionMirror(ctx context.Context, t core.Transaction) (int64, error)
}

// Consumer delivers ledger events. *amqp.Client satisfies it.
type Consumer interface {
	ConsumeLedgerEvents(ctx context.Context, handler func(context.Context, *amqp.LedgerEvent) error) error
}

type Options struct {
	BatchSize int
	Interval  time.Duration
}

// MirrorWorker rebuilds missing mirror rows and exports transactions.
type MirrorWorker struct {
	store    Repairer
	exporter sheets.Exporter
	consumer Consumer
	opts     Options
	logger   *log.Logger

	// serializes sync so the consumer and the reconcile loop cannot both
	// insert a mirror for the same row
	mu sync.Mutex
}

// NewMirrorWorker wires a worker. exporter and consumer may be nil.
func NewMirrorWorker(store Repairer, exporter sheets.Exporter, consumer Consumer, opts Options, logger *log.Logger) *MirrorWorker {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 50
	}
	if opts.Interval <= 0 {
		opts.Interval = time.Minute
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &MirrorWorker{
		store:    store,
		exporter: exporter,
		consumer: consumer,
		opts:     opts,
		logger:   logger.WithComponent(log.ComponentWorker),
	}
}

// HandleEvent processes one ledger event. Events for rows deleted since
// publication are acknowledged and skipped.
func (w *MirrorWorker) HandleEvent(ctx context.Context, ev *amqp.LedgerEvent) error {
	if ev == nil {
		return errors.New("nil event")
	}
	w.logger.InfoContext(ctx, "Processing ledger event",
		log.FieldKind, string(ev.Kind),
		log.FieldRecordID, ev.ID,
		log.FieldMirrored, ev.MirrorWritten)

	err := w.sync(ctx, ev.Ref())
	if errors.Is(err, ledger.ErrNotFound) {
		w.logger.WarnContext(ctx, "Ledger row gone, skipping event",
			log.FieldKind, string(ev.Kind), log.FieldRecordID, ev.ID)
		return nil
	}
	return err
}

// sync ensures ref has a mirror row and exports it.
func (w *MirrorWorker) sync(ctx context.Context, ref core.SourceRef) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	t, err := w.load(ctx, ref)
	if err != nil {
		return err
	}

	has, err := w.store.HasMirror(ctx, ref)
	if err != nil {
		return fmt.Errorf("check mirror: %w", err)
	}
	if !has {
		id, err := w.store.InsertTransactionMirror(ctx, t)
		if err != nil {
			return fmt.Errorf("insert mirror: %w", err)
		}
		w.logger.InfoContext(ctx, "Rebuilt mirror row",
			log.FieldOperation, log.OpMirror,
			log.FieldKind, string(ref.Type),
			log.FieldRecordID, ref.ID,
			"mirror_id", id)
	}

	if w.exporter == nil {
		return nil
	}
	rowRef, err := w.exporter.Export(ctx, t)
	if err != nil {
		return fmt.Errorf("export transaction: %w", err)
	}
	w.logger.DebugContext(ctx, "Exported transaction", log.FieldRecordID, ref.ID, "row", rowRef)
	return nil
}

func (w *MirrorWorker) load(ctx context.Context, ref core.SourceRef) (core.Transaction, error) {
	switch ref.Type {
	case core.TypeExpense:
		e, err := w.store.GetExpense(ctx, ref.ID)
		if err != nil {
			return core.Transaction{}, fmt.Errorf("get expense %d: %w", ref.ID, err)
		}
		return e.Mirror(), nil
	case core.TypeIncome:
		in, err := w.store.GetIncome(ctx, ref.ID)
		if err != nil {
			return core.Transaction{}, fmt.Errorf("get income %d: %w", ref.ID, err)
		}
		return in.Mirror(), nil
	}
	return core.Transaction{}, core.ErrInvalidType
}

// Reconcile rebuilds up to limit missing mirror rows and returns how many
// were repaired. A failing row is logged and skipped.
func (w *MirrorWorker) Reconcile(ctx context.Context, limit int) (int, error) {
	refs, err := w.store.MissingMirrors(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("list missing mirrors: %w", err)
	}
	if len(refs) == 0 {
		return 0, nil
	}

	repaired := 0
	for _, ref := range refs {
		if err := w.sync(ctx, ref); err != nil {
			w.logger.ErrorContext(ctx, "Mirror repair failed",
				log.FieldKind, string(ref.Type), log.FieldRecordID, ref.ID, log.FieldError, err)
			continue
		}
		repaired++
	}
	w.logger.InfoContext(ctx, "Reconciled mirror rows",
		log.FieldCount, repaired, "missing", len(refs))
	return repaired, nil
}

// StartupCheck runs a larger reconcile pass to recover from worker downtime.
func (w *MirrorWorker) StartupCheck(ctx context.Context) error {
	_, err := w.Reconcile(ctx, w.opts.BatchSize*5)
	return err
}

// Run consumes events and reconciles periodically until ctx is done.
func (w *MirrorWorker) Run(ctx context.Context) error {
	if err := w.StartupCheck(ctx); err != nil {
		w.logger.ErrorContext(ctx, "Startup reconcile failed", log.FieldError, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	if w.consumer != nil {
		g.Go(func() error {
			return w.consumer.ConsumeLedgerEvents(gctx, w.HandleEvent)
		})
	}
	g.Go(func() error {
		ticker := time.NewTicker(w.opts.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if _, err := w.Reconcile(gctx, w.opts.BatchSize); err != nil {
					w.logger.ErrorContext(gctx, "Periodic reconcile failed", log.FieldError, err)
				}
			}
		}
	})

	err := g.Wait()
	if ctx.Err() != nil {
		// Shutdown, not a failure.
		return nil
	}
	return err
}
