// Package worker exports expense change events from AMQP to a spreadsheet.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"expensetracker/internal/amqp"
	"expensetracker/internal/cache"
	applog "expensetracker/internal/log"
	"expensetracker/internal/sheets"
)

// EventSource delivers expense events to a handler until ctx is done.
// *amqp.Client implements it.
type EventSource interface {
	ConsumeExpenseEvents(ctx context.Context, handler func(context.Context, *amqp.ExpenseEvent) error) error
}

const (
	// DefaultDedupeSize and DefaultDedupeTTL bound the redelivery window in
	// which an already exported event is recognised.
	DefaultDedupeSize = 10000
	DefaultDedupeTTL  = 24 * time.Hour
)

// ExportWorker appends every consumed event to the sheet. Events exported by
// this process within the dedupe window are acknowledged without a second
// row, so a redelivery after a lost ack does not duplicate the export.
type ExportWorker struct {
	source   EventSource
	appender sheets.EventAppender
	exported cache.Cache[uuid.UUID, string]

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	doneCh  chan struct{}
	err     error
}

type Option func(*ExportWorker)

// WithDedupe replaces the default LRU that remembers exported event ids.
func WithDedupe(c cache.Cache[uuid.UUID, string]) Option {
	return func(w *ExportWorker) { w.exported = c }
}

func NewExportWorker(source EventSource, appender sheets.EventAppender, opts ...Option) *ExportWorker {
	w := &ExportWorker{
		source:   source,
		appender: appender,
		exported: cache.NewLRU[uuid.UUID, string](DefaultDedupeSize, DefaultDedupeTTL),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// HandleEvent exports a single event.
func (w *ExportWorker) HandleEvent(ctx context.Context, ev *amqp.ExpenseEvent) error {
	if ref, ok := w.exported.Get(ev.ID); ok {
		slog.InfoContext(ctx, "Event already exported, skipping",
			applog.FieldComponent, applog.ComponentWorker,
			applog.FieldEventID, ev.ID.String(),
			applog.FieldSheetsRange, ref)
		return nil
	}

	ref, err := w.appender.AppendEvent(ctx, ev)
	if err != nil {
		return fmt.Errorf("export event %s: %w", ev.ID, err)
	}
	w.exported.Set(ev.ID, ref)
	return nil
}

// Start begins consuming in the background. Returns an error if already running.
func (w *ExportWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return fmt.Errorf("export worker is already running")
	}

	ctx, cancel := context.WithCancel(ctx)
	w.running = true
	w.cancel = cancel
	done := make(chan struct{})
	w.doneCh = done
	w.err = nil

	go func() {
		defer close(done)
		err := w.source.ConsumeExpenseEvents(ctx, w.HandleEvent)
		if err != nil && ctx.Err() == nil {
			slog.ErrorContext(ctx, "Export worker stopped",
				applog.FieldComponent, applog.ComponentWorker,
				applog.FieldError, err.Error())
		}
		w.mu.Lock()
		w.err = err
		w.running = false
		w.mu.Unlock()
	}()

	slog.InfoContext(ctx, "Export worker started", applog.FieldComponent, applog.ComponentWorker)
	return nil
}

// Stop cancels consumption and waits for it to finish or ctx to expire.
func (w *ExportWorker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	cancel, done := w.cancel, w.doneCh
	w.mu.Unlock()

	cancel()
	select {
	case <-done:
		slog.InfoContext(ctx, "Export worker stopped gracefully", applog.FieldComponent, applog.ComponentWorker)
	case <-ctx.Done():
		slog.WarnContext(ctx, "Export worker stop timed out", applog.FieldComponent, applog.ComponentWorker)
		return ctx.Err()
	}
	return nil
}

// Done is closed when the consumer returns. Nil before Start.
func (w *ExportWorker) Done() <-chan struct{} {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.doneCh
}

// Err returns the error the consumer stopped with, if any.
func (w *ExportWorker) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

// IsRunning returns whether the worker is currently running
func (w *ExportWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}
