// Package ledger implements the expense ledger operations exposed as tools.
//
// Every operation is a single call to the injected store. Failures never
// escape as Go errors: they are folded into an error Envelope so the
// transport can always serialise a result.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"ledger/internal/core"
	"ledger/internal/log"
	"ledger/internal/middleware/trace"
	"ledger/internal/storage"
)

// EventPublisher receives change notifications after successful mutations.
type EventPublisher interface {
	PublishExpenseEvent(ctx context.Context, event core.ExpenseEvent) error
}

// Service is the expense ledger. It holds no mutable state of its own and
// is safe for concurrent use when the store is.
type Service struct {
	store     storage.ExpenseStore
	publisher EventPublisher
	logger    *log.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithPublisher makes the service emit change events.
func WithPublisher(p EventPublisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithLogger sets the service logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l.WithComponent(log.ComponentLedger)
		}
	}
}

func NewService(store storage.ExpenseStore, opts ...Option) *Service {
	s := &Service{
		store:  store,
		logger: log.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddExpenseInput carries the add_expense arguments.
type AddExpenseInput struct {
	Date        string
	Amount      float64
	Category    string
	Subcategory string
	Note        string
}

// AddExpense validates the date and inserts a new expense.
func (s *Service) AddExpense(ctx context.Context, in AddExpenseInput) (resp Response) {
	defer s.recoverInto(ctx, log.OpAdd, &resp)

	e := core.NewExpense{
		Date:        in.Date,
		Amount:      in.Amount,
		Category:    in.Category,
		Subcategory: in.Subcategory,
		Note:        in.Note,
	}
	if err := e.Validate(); err != nil {
		s.logValidation(ctx, log.OpAdd, err)
		return failure(invalidDateMessage(err))
	}
	if err := core.CheckAmount(e.Amount); err != nil {
		s.logValidation(ctx, log.OpAdd, err)
		return failure(fmt.Sprintf("Invalid amount: %v", err))
	}

	created, err := s.store.Insert(ctx, e)
	if err != nil {
		s.logStoreError(ctx, log.OpAdd, err)
		return failure(fmt.Sprintf("Database error: %v", err))
	}
	if created == nil {
		s.logger.WarnContext(ctx, "Store returned no row on insert", log.FieldOperation, log.OpAdd)
		return failure("Failed to add expense")
	}

	s.logger.InfoContext(ctx, "Expense added", log.NewFields().
		WithOperation(log.OpAdd).
		WithExpenseID(created.ID).
		WithExpense(created.Date, created.Amount, created.Category).
		ToSlice()...)
	s.publish(ctx, core.NewExpenseEvent(core.EventCreated, created.ID, created, nil))

	id := created.ID
	return success(Envelope{
		ID:      &id,
		Message: "Expense added successfully",
		Data:    created,
	})
}

// ListExpenses returns the expenses in [start, end], newest first. The
// dates are handed to the store unchecked.
func (s *Service) ListExpenses(ctx context.Context, start, end string) (resp Response) {
	defer s.recoverInto(ctx, log.OpList, &resp)

	expenses, err := s.store.List(ctx, core.DateRange{Start: start, End: end})
	if err != nil {
		s.logStoreError(ctx, log.OpList, err)
		return failure(fmt.Sprintf("Error listing expenses: %v", err))
	}
	if expenses == nil {
		expenses = []core.Expense{}
	}

	s.logger.DebugContext(ctx, "Expenses listed", log.NewFields().
		WithOperation(log.OpList).
		WithRange(start, end).
		ToSlice()...)
	return Response{Body: expenses}
}

// Summarize totals the expenses in [start, end] per category. An empty
// category means no category filter.
func (s *Service) Summarize(ctx context.Context, start, end, category string) (resp Response) {
	defer s.recoverInto(ctx, log.OpSummarize, &resp)

	rows, err := s.store.CategoryAmounts(ctx, core.DateRange{Start: start, End: end}, category)
	if err != nil {
		s.logStoreError(ctx, log.OpSummarize, err)
		return failure(fmt.Sprintf("Error summarizing expenses: %v", err))
	}

	summary := core.Summarize(rows)
	s.logger.DebugContext(ctx, "Expenses summarized", log.NewFields().
		WithOperation(log.OpSummarize).
		WithRange(start, end).
		ToSlice()...)
	return Response{Body: summary}
}

// DeleteExpense removes the expense with the given id. A missing id is
// reported as success.
func (s *Service) DeleteExpense(ctx context.Context, id int64) (resp Response) {
	defer s.recoverInto(ctx, log.OpDelete, &resp)

	removed, err := s.store.Delete(ctx, id)
	if err != nil {
		s.logStoreError(ctx, log.OpDelete, err)
		return failure(fmt.Sprintf("Error deleting expense: %v", err))
	}

	fields := log.NewFields().WithOperation(log.OpDelete).WithExpenseID(id)
	fields[log.FieldCount] = removed
	s.logger.InfoContext(ctx, "Expense deleted", fields.ToSlice()...)
	if removed > 0 {
		s.publish(ctx, core.NewExpenseEvent(core.EventDeleted, id, nil, nil))
	}

	return success(Envelope{Message: fmt.Sprintf("Expense %d deleted successfully", id)})
}

// UpdateExpense applies a partial update. An empty patch is rejected
// without contacting the store.
func (s *Service) UpdateExpense(ctx context.Context, id int64, patch core.ExpensePatch) (resp Response) {
	defer s.recoverInto(ctx, log.OpUpdate, &resp)

	if err := patch.Validate(); err != nil {
		s.logValidation(ctx, log.OpUpdate, err)
		if errors.Is(err, core.ErrNoFields) {
			return failure("No fields to update")
		}
		return failure(invalidDateMessage(err))
	}
	if patch.Amount != nil {
		if err := core.CheckAmount(*patch.Amount); err != nil {
			s.logValidation(ctx, log.OpUpdate, err)
			return failure(fmt.Sprintf("Invalid amount: %v", err))
		}
	}

	updated, err := s.store.Update(ctx, id, patch)
	if err != nil {
		s.logStoreError(ctx, log.OpUpdate, err)
		return failure(fmt.Sprintf("Error updating expense: %v", err))
	}
	if updated == nil {
		updated = []core.Expense{}
	}

	columns := patch.Columns()
	fields := log.NewFields().WithOperation(log.OpUpdate).WithExpenseID(id)
	fields[log.FieldFields] = columns
	fields[log.FieldCount] = len(updated)
	s.logger.InfoContext(ctx, "Expense updated", fields.ToSlice()...)
	if len(updated) > 0 {
		first := updated[0]
		s.publish(ctx, core.NewExpenseEvent(core.EventUpdated, id, &first, columns))
	}

	return success(Envelope{
		Message: fmt.Sprintf("Expense %d updated successfully", id),
		Data:    updated,
	})
}

// Categories returns the fixed category document. It never touches the store.
func (s *Service) Categories() CategoryList {
	return CategoryList{Categories: core.Categories()}
}

// Ready reports whether the store answers.
func (s *Service) Ready(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) publish(ctx context.Context, event core.ExpenseEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishExpenseEvent(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish expense event",
			log.FieldOperation, log.OpPublish,
			log.FieldExpenseID, event.ID,
			"action", string(event.Action),
			log.FieldError, err)
	}
}

func (s *Service) recoverInto(ctx context.Context, op string, resp *Response) {
	if r := recover(); r != nil {
		s.logger.ErrorContext(ctx, "Operation panicked",
			log.FieldOperation, op,
			log.FieldErrorType, log.ErrorTypeInternal,
			"panic", fmt.Sprint(r))
		*resp = failure(fmt.Sprintf("Internal error: %v", r))
	}
}

func (s *Service) logValidation(ctx context.Context, op string, err error) {
	s.logger.WarnContext(ctx, "Rejected invalid input", requestFields(ctx).
		WithOperation(op).
		WithErrorType(log.ErrorTypeValidation).
		WithError(err).
		ToSlice()...)
}

func (s *Service) logStoreError(ctx context.Context, op string, err error) {
	s.logger.ErrorContext(ctx, "Store call failed", requestFields(ctx).
		WithOperation(op).
		WithErrorType(log.ErrorTypeDatabase).
		WithError(err).
		ToSlice()...)
}

// requestFields starts a field set tagged with the calling request, if any.
func requestFields(ctx context.Context) log.LogFields {
	fields := log.NewFields()
	if id := trace.GetRequestID(ctx); id != "" {
		fields.WithRequestID(id)
	}
	return fields
}

func invalidDateMessage(err error) string {
	return fmt.Sprintf("Invalid date format. Use YYYY-MM-DD: %v", err)
}
