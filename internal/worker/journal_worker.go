package worker

import (
	"context"
	"fmt"

	"ledger/internal/amqp"
	"ledger/internal/core"
	"ledger/internal/log"
	"ledger/internal/sheets"
)

// EventSource delivers expense events until ctx is cancelled.
type EventSource interface {
	ConsumeExpenseEvents(ctx context.Context, handler amqp.EventHandler) error
}

// JournalWorker mirrors ledger changes into an append-only journal.
type JournalWorker struct {
	journal sheets.JournalWriter
	logger  *log.Logger
}

func NewJournalWorker(journal sheets.JournalWriter, logger *log.Logger) *JournalWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &JournalWorker{
		journal: journal,
		logger:  logger.WithComponent(log.ComponentWorker),
	}
}

// HandleEvent appends one journal row for the event. An error makes the
// consumer requeue the message.
func (w *JournalWorker) HandleEvent(ctx context.Context, event core.ExpenseEvent) error {
	if !event.Action.IsValid() {
		return fmt.Errorf("unknown event action %q", event.Action)
	}

	ref, err := w.journal.AppendEntry(ctx, sheets.EntryFromEvent(event))
	if err != nil {
		w.logger.ErrorContext(ctx, "Failed to append journal row",
			log.FieldExpenseID, event.ID,
			"action", string(event.Action),
			log.FieldError, err)
		return fmt.Errorf("append journal row: %w", err)
	}

	w.logger.InfoContext(ctx, "Journaled expense event",
		log.FieldExpenseID, event.ID,
		"action", string(event.Action),
		"row", ref)
	return nil
}

// Run consumes events from source until ctx is cancelled.
func (w *JournalWorker) Run(ctx context.Context, source EventSource) error {
	w.logger.InfoContext(ctx, "Journal worker started")
	err := source.ConsumeExpenseEvents(ctx, w.HandleEvent)
	if ctx.Err() != nil {
		w.logger.InfoContext(ctx, "Journal worker stopped")
		return nil
	}
	return err
}
