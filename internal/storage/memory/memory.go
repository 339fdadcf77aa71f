// Package memory is an in-process ExpenseStore with the same ordering and
// filtering rules as the SQL store.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"ledger/internal/core"
	"ledger/internal/storage"
)

type Store struct {
	mu     sync.Mutex
	nextID int64
	items  []core.Expense
	now    func() time.Time
}

var _ storage.ExpenseStore = (*Store)(nil)

func New() *Store {
	return &Store{nextID: 1, now: time.Now}
}

func (s *Store) Insert(_ context.Context, e core.NewExpense) (*core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	createdAt := s.now().UTC()
	stored := core.Expense{
		ID:          s.nextID,
		Date:        e.Date,
		Amount:      e.Amount,
		Category:    e.Category,
		Subcategory: e.Subcategory,
		Note:        e.Note,
		CreatedAt:   &createdAt,
	}
	s.nextID++
	s.items = append(s.items, stored)

	out := copyExpense(stored)
	return &out, nil
}

func (s *Store) List(_ context.Context, r core.DateRange) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]core.Expense, 0)
	for _, e := range s.items {
		if r.Contains(e.Date) {
			e.CreatedAt = nil
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Store) CategoryAmounts(_ context.Context, r core.DateRange, category string) ([]core.CategoryAmount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []core.CategoryAmount
	for _, e := range s.items {
		if !r.Contains(e.Date) {
			continue
		}
		if category != "" && e.Category != category {
			continue
		}
		out = append(out, core.CategoryAmount{Category: e.Category, Amount: e.Amount})
	}
	return out, nil
}

func (s *Store) Update(_ context.Context, id int64, p core.ExpensePatch) ([]core.Expense, error) {
	if p.IsEmpty() {
		return nil, core.ErrNoFields
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	updated := make([]core.Expense, 0, 1)
	for i := range s.items {
		if s.items[i].ID != id {
			continue
		}
		s.items[i] = p.Apply(s.items[i])
		updated = append(updated, copyExpense(s.items[i]))
	}
	return updated, nil
}

func (s *Store) Delete(_ context.Context, id int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	kept := s.items[:0]
	for _, e := range s.items {
		if e.ID == id {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	s.items = kept
	return removed, nil
}

func (s *Store) Probe(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.items) > 0 {
		return 1, nil
	}
	return 0, nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func copyExpense(e core.Expense) core.Expense {
	if e.CreatedAt != nil {
		ts := *e.CreatedAt
		e.CreatedAt = &ts
	}
	return e
}
