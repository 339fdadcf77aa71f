package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"ledger/internal/core"
	"ledger/internal/log"
	"ledger/internal/middleware/trace"
	"ledger/internal/storage"
	"ledger/internal/storage/memory"
)

// recordingStore wraps a store, counts calls and can be made to fail.
type recordingStore struct {
	storage.ExpenseStore
	mu       sync.Mutex
	calls    int
	fail     error
	noRow    bool
	panicMsg string
}

func (r *recordingStore) hit() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.panicMsg != "" {
		panic(r.panicMsg)
	}
	return r.fail
}

func (r *recordingStore) Insert(ctx context.Context, e core.NewExpense) (*core.Expense, error) {
	if err := r.hit(); err != nil {
		return nil, err
	}
	if r.noRow {
		return nil, nil
	}
	return r.ExpenseStore.Insert(ctx, e)
}

func (r *recordingStore) List(ctx context.Context, dr core.DateRange) ([]core.Expense, error) {
	if err := r.hit(); err != nil {
		return nil, err
	}
	return r.ExpenseStore.List(ctx, dr)
}

func (r *recordingStore) CategoryAmounts(ctx context.Context, dr core.DateRange, c string) ([]core.CategoryAmount, error) {
	if err := r.hit(); err != nil {
		return nil, err
	}
	return r.ExpenseStore.CategoryAmounts(ctx, dr, c)
}

func (r *recordingStore) Update(ctx context.Context, id int64, p core.ExpensePatch) ([]core.Expense, error) {
	if err := r.hit(); err != nil {
		return nil, err
	}
	return r.ExpenseStore.Update(ctx, id, p)
}

func (r *recordingStore) Delete(ctx context.Context, id int64) (int64, error) {
	if err := r.hit(); err != nil {
		return 0, err
	}
	return r.ExpenseStore.Delete(ctx, id)
}

type fakePublisher struct {
	mu     sync.Mutex
	events []core.ExpenseEvent
	err    error
}

func (f *fakePublisher) PublishExpenseEvent(_ context.Context, e core.ExpenseEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
	return f.err
}

func newTestService(t *testing.T) (*Service, *recordingStore, *fakePublisher) {
	t.Helper()
	store := &recordingStore{ExpenseStore: memory.New()}
	pub := &fakePublisher{}
	return NewService(store, WithPublisher(pub)), store, pub
}

func mustEnvelope(t *testing.T, resp Response) Envelope {
	t.Helper()
	env, ok := resp.Envelope()
	if !ok {
		t.Fatalf("expected envelope, got %T", resp.Body)
	}
	return env
}

func mustAdd(t *testing.T, s *Service, in AddExpenseInput) int64 {
	t.Helper()
	env := mustEnvelope(t, s.AddExpense(context.Background(), in))
	if env.Status != StatusSuccess || env.ID == nil {
		t.Fatalf("add failed: %+v", env)
	}
	return *env.ID
}

func mustList(t *testing.T, s *Service, start, end string) []core.Expense {
	t.Helper()
	resp := s.ListExpenses(context.Background(), start, end)
	list, ok := resp.Body.([]core.Expense)
	if !ok || resp.Error {
		t.Fatalf("list failed: %+v", resp.Body)
	}
	return list
}

func TestAddExpense_ThenList(t *testing.T) {
	s, _, pub := newTestService(t)

	in := AddExpenseInput{Date: "2024-01-15", Amount: 12.75, Category: "Food & Dining", Subcategory: "Lunch", Note: "sandwich"}
	resp := s.AddExpense(context.Background(), in)
	env := mustEnvelope(t, resp)

	if resp.Error || env.Status != StatusSuccess {
		t.Fatalf("unexpected result: %+v", env)
	}
	if env.Message != "Expense added successfully" {
		t.Errorf("message = %q", env.Message)
	}
	created, ok := env.Data.(*core.Expense)
	if !ok || created.ID != *env.ID {
		t.Fatalf("expected stored record in data, got %#v", env.Data)
	}

	list := mustList(t, s, "2024-01-01", "2024-01-31")
	if len(list) != 1 {
		t.Fatalf("expected one expense, got %+v", list)
	}
	got := list[0]
	if got.ID != *env.ID || got.Date != in.Date || got.Amount != in.Amount || got.Category != in.Category ||
		got.Subcategory != in.Subcategory || got.Note != in.Note {
		t.Errorf("listed %+v does not match input %+v", got, in)
	}

	if len(pub.events) != 1 || pub.events[0].Action != core.EventCreated || pub.events[0].ID != *env.ID {
		t.Errorf("expected one created event, got %+v", pub.events)
	}
}

func TestAddExpense_AssignsFreshIDs(t *testing.T) {
	s, _, _ := newTestService(t)
	seen := map[int64]bool{}
	for i := 0; i < 5; i++ {
		id := mustAdd(t, s, AddExpenseInput{Date: "2024-02-01", Amount: 1, Category: "Other"})
		if seen[id] {
			t.Fatalf("id %d assigned twice", id)
		}
		seen[id] = true
	}
}

func TestAddExpense_InvalidDate(t *testing.T) {
	for _, date := range []string{"2024/01/01", "not-a-date", "2024-02-30", ""} {
		t.Run(date, func(t *testing.T) {
			s, store, pub := newTestService(t)
			resp := s.AddExpense(context.Background(), AddExpenseInput{Date: date, Amount: 5, Category: "Other"})
			env := mustEnvelope(t, resp)

			if !resp.Error || env.Status != StatusError {
				t.Fatalf("expected error envelope, got %+v", env)
			}
			if !strings.Contains(env.Message, "Invalid date format. Use YYYY-MM-DD") {
				t.Errorf("message = %q", env.Message)
			}
			if store.calls != 0 {
				t.Errorf("store was contacted %d times", store.calls)
			}
			if len(pub.events) != 0 {
				t.Errorf("no event expected, got %+v", pub.events)
			}
		})
	}
}

func TestAddExpense_StoreFailures(t *testing.T) {
	t.Run("store error", func(t *testing.T) {
		s, store, _ := newTestService(t)
		store.fail = errors.New("connection refused")
		env := mustEnvelope(t, s.AddExpense(context.Background(), AddExpenseInput{Date: "2024-01-01", Amount: 1, Category: "Other"}))
		if env.Status != StatusError || env.Message != "Database error: connection refused" {
			t.Errorf("unexpected envelope %+v", env)
		}
	})

	t.Run("no row returned", func(t *testing.T) {
		s, store, pub := newTestService(t)
		store.noRow = true
		env := mustEnvelope(t, s.AddExpense(context.Background(), AddExpenseInput{Date: "2024-01-01", Amount: 1, Category: "Other"}))
		if env.Status != StatusError || env.Message != "Failed to add expense" {
			t.Errorf("unexpected envelope %+v", env)
		}
		if len(pub.events) != 0 {
			t.Errorf("no event expected, got %+v", pub.events)
		}
	})

	t.Run("panic is contained", func(t *testing.T) {
		s, store, _ := newTestService(t)
		store.panicMsg = "boom"
		resp := s.AddExpense(context.Background(), AddExpenseInput{Date: "2024-01-01", Amount: 1, Category: "Other"})
		if !resp.Error {
			t.Fatalf("expected error response, got %+v", resp.Body)
		}
	})
}

func TestListExpenses_RangeAndOrder(t *testing.T) {
	s, _, _ := newTestService(t)
	mustAdd(t, s, AddExpenseInput{Date: "2024-03-10", Amount: 1, Category: "A"})
	mustAdd(t, s, AddExpenseInput{Date: "2024-03-20", Amount: 2, Category: "B"})
	mustAdd(t, s, AddExpenseInput{Date: "2024-03-10", Amount: 3, Category: "C"})
	mustAdd(t, s, AddExpenseInput{Date: "2024-02-28", Amount: 4, Category: "D"})
	mustAdd(t, s, AddExpenseInput{Date: "2024-04-01", Amount: 5, Category: "E"})

	list := mustList(t, s, "2024-03-01", "2024-03-31")
	if len(list) != 3 {
		t.Fatalf("expected 3 rows, got %+v", list)
	}
	for i, e := range list {
		if e.Date < "2024-03-01" || e.Date > "2024-03-31" {
			t.Errorf("row %d outside range: %+v", i, e)
		}
		if i == 0 {
			continue
		}
		prev := list[i-1]
		if prev.Date < e.Date || (prev.Date == e.Date && prev.ID < e.ID) {
			t.Errorf("rows %d and %d out of order: %+v, %+v", i-1, i, prev, e)
		}
	}

	if empty := mustList(t, s, "2030-01-01", "2030-01-31"); len(empty) != 0 {
		t.Errorf("expected empty list, got %+v", empty)
	}
}

func TestListExpenses_StoreError(t *testing.T) {
	s, store, _ := newTestService(t)
	store.fail = errors.New("timeout")
	env := mustEnvelope(t, s.ListExpenses(context.Background(), "2024-01-01", "2024-01-31"))
	if env.Status != StatusError || env.Message != "Error listing expenses: timeout" {
		t.Errorf("unexpected envelope %+v", env)
	}
}

func TestStoreErrorLogCarriesRequestID(t *testing.T) {
	var buf bytes.Buffer
	store := &recordingStore{ExpenseStore: memory.New(), fail: errors.New("timeout")}
	s := NewService(store, WithLogger(log.New(log.Config{Level: slog.LevelInfo, Output: &buf})))

	ctx := context.WithValue(context.Background(), trace.RequestIDKey, "req_42")
	s.ListExpenses(ctx, "2024-01-01", "2024-01-31")

	out := buf.String()
	if !strings.Contains(out, "Store call failed") || !strings.Contains(out, "request_id=req_42") {
		t.Errorf("store error log should carry the request id: %s", out)
	}

	buf.Reset()
	s.ListExpenses(context.Background(), "2024-01-01", "2024-01-31")
	if strings.Contains(buf.String(), "request_id") {
		t.Errorf("no request id expected outside a request: %s", buf.String())
	}
}

func TestSummarize_MatchesList(t *testing.T) {
	s, _, _ := newTestService(t)
	mustAdd(t, s, AddExpenseInput{Date: "2024-05-01", Amount: 10, Category: "Travel"})
	mustAdd(t, s, AddExpenseInput{Date: "2024-05-02", Amount: 30, Category: "Food & Dining"})
	mustAdd(t, s, AddExpenseInput{Date: "2024-05-03", Amount: 5, Category: "Travel"})
	mustAdd(t, s, AddExpenseInput{Date: "2024-05-04", Amount: 2.5, Category: "Food & Dining"})
	mustAdd(t, s, AddExpenseInput{Date: "2024-06-01", Amount: 99, Category: "Travel"})

	resp := s.Summarize(context.Background(), "2024-05-01", "2024-05-31", "")
	summary, ok := resp.Body.([]core.CategorySummary)
	if !ok {
		t.Fatalf("expected summary slice, got %T", resp.Body)
	}

	totals := map[string]float64{}
	counts := map[string]int{}
	for _, e := range mustList(t, s, "2024-05-01", "2024-05-31") {
		totals[e.Category] += e.Amount
		counts[e.Category]++
	}

	if len(summary) != len(totals) {
		t.Fatalf("expected %d categories, got %+v", len(totals), summary)
	}
	for i, row := range summary {
		if row.TotalAmount != totals[row.Category] || row.Count != counts[row.Category] {
			t.Errorf("row %+v disagrees with list (total %v, count %d)", row, totals[row.Category], counts[row.Category])
		}
		if i > 0 && summary[i-1].TotalAmount < row.TotalAmount {
			t.Errorf("summary not sorted by total: %+v", summary)
		}
	}
}

func TestSummarize_CategoryFilter(t *testing.T) {
	s, _, _ := newTestService(t)
	mustAdd(t, s, AddExpenseInput{Date: "2024-05-01", Amount: 10, Category: "Travel"})
	mustAdd(t, s, AddExpenseInput{Date: "2024-05-02", Amount: 30, Category: "Food & Dining"})

	summary := s.Summarize(context.Background(), "2024-05-01", "2024-05-31", "Food & Dining").Body.([]core.CategorySummary)
	if len(summary) != 1 || summary[0].Category != "Food & Dining" || summary[0].TotalAmount != 30 {
		t.Errorf("unexpected filtered summary %+v", summary)
	}

	none := s.Summarize(context.Background(), "2024-05-01", "2024-05-31", "Housing").Body.([]core.CategorySummary)
	if len(none) != 0 {
		t.Errorf("expected no rows for unused category, got %+v", none)
	}
}

func TestSummarize_StoreError(t *testing.T) {
	s, store, _ := newTestService(t)
	store.fail = errors.New("bad query")
	env := mustEnvelope(t, s.Summarize(context.Background(), "2024-01-01", "2024-01-31", ""))
	if env.Status != StatusError || env.Message != "Error summarizing expenses: bad query" {
		t.Errorf("unexpected envelope %+v", env)
	}
}

func TestUpdateExpense(t *testing.T) {
	t.Run("no fields", func(t *testing.T) {
		s, store, _ := newTestService(t)
		env := mustEnvelope(t, s.UpdateExpense(context.Background(), 1, core.ExpensePatch{}))
		if env.Status != StatusError || env.Message != "No fields to update" {
			t.Errorf("unexpected envelope %+v", env)
		}
		if store.calls != 0 {
			t.Errorf("store contacted %d times", store.calls)
		}
	})

	t.Run("invalid date", func(t *testing.T) {
		s, store, _ := newTestService(t)
		bad := "2024/01/01"
		env := mustEnvelope(t, s.UpdateExpense(context.Background(), 1, core.ExpensePatch{Date: &bad}))
		if env.Status != StatusError || !strings.HasPrefix(env.Message, "Invalid date format. Use YYYY-MM-DD") {
			t.Errorf("unexpected envelope %+v", env)
		}
		if store.calls != 0 {
			t.Errorf("store contacted %d times", store.calls)
		}
	})

	t.Run("amount only", func(t *testing.T) {
		s, _, pub := newTestService(t)
		id := mustAdd(t, s, AddExpenseInput{Date: "2024-07-01", Amount: 10, Category: "Shopping", Subcategory: "Books", Note: "novel"})

		amount := 42.5
		resp := s.UpdateExpense(context.Background(), id, core.ExpensePatch{Amount: &amount})
		env := mustEnvelope(t, resp)
		if env.Status != StatusSuccess {
			t.Fatalf("update failed: %+v", env)
		}
		rows, ok := env.Data.([]core.Expense)
		if !ok || len(rows) != 1 || rows[0].Amount != 42.5 {
			t.Fatalf("unexpected data %#v", env.Data)
		}

		got := mustList(t, s, "2024-07-01", "2024-07-01")[0]
		if got.Amount != 42.5 || got.Date != "2024-07-01" || got.Category != "Shopping" ||
			got.Subcategory != "Books" || got.Note != "novel" {
			t.Errorf("unexpected row after update %+v", got)
		}

		last := pub.events[len(pub.events)-1]
		if last.Action != core.EventUpdated || len(last.Fields) != 1 || last.Fields[0] != "amount" {
			t.Errorf("unexpected event %+v", last)
		}
	})

	t.Run("missing id reports success with empty data", func(t *testing.T) {
		s, _, pub := newTestService(t)
		note := "x"
		resp := s.UpdateExpense(context.Background(), 404, core.ExpensePatch{Note: &note})
		env := mustEnvelope(t, resp)
		if env.Status != StatusSuccess || env.Message != "Expense 404 updated successfully" {
			t.Fatalf("unexpected envelope %+v", env)
		}
		b, _ := json.Marshal(resp)
		if !strings.Contains(string(b), `"data":[]`) {
			t.Errorf("expected empty data array, got %s", b)
		}
		if len(pub.events) != 0 {
			t.Errorf("no event expected, got %+v", pub.events)
		}
	})

	t.Run("store error", func(t *testing.T) {
		s, store, _ := newTestService(t)
		store.fail = errors.New("constraint violation")
		cat := "Other"
		env := mustEnvelope(t, s.UpdateExpense(context.Background(), 1, core.ExpensePatch{Category: &cat}))
		if env.Message != "Error updating expense: constraint violation" {
			t.Errorf("unexpected envelope %+v", env)
		}
	})
}

func TestDeleteExpense(t *testing.T) {
	s, store, pub := newTestService(t)
	id := mustAdd(t, s, AddExpenseInput{Date: "2024-08-01", Amount: 3, Category: "Other"})

	env := mustEnvelope(t, s.DeleteExpense(context.Background(), id))
	if env.Status != StatusSuccess {
		t.Fatalf("delete failed: %+v", env)
	}
	if len(mustList(t, s, "2024-08-01", "2024-08-01")) != 0 {
		t.Error("expense still listed after delete")
	}
	if last := pub.events[len(pub.events)-1]; last.Action != core.EventDeleted || last.ID != id {
		t.Errorf("unexpected event %+v", last)
	}

	missing := mustEnvelope(t, s.DeleteExpense(context.Background(), 987654))
	if missing.Status != StatusSuccess || missing.Message != "Expense 987654 deleted successfully" {
		t.Errorf("missing id should report the same success shape, got %+v", missing)
	}

	store.fail = errors.New("offline")
	failed := mustEnvelope(t, s.DeleteExpense(context.Background(), id))
	if failed.Status != StatusError || failed.Message != "Error deleting expense: offline" {
		t.Errorf("unexpected envelope %+v", failed)
	}
}

func TestPublishFailureDoesNotChangeResult(t *testing.T) {
	s, _, pub := newTestService(t)
	pub.err = errors.New("broker down")

	env := mustEnvelope(t, s.AddExpense(context.Background(), AddExpenseInput{Date: "2024-01-01", Amount: 1, Category: "Other"}))
	if env.Status != StatusSuccess {
		t.Errorf("publish failure leaked into result: %+v", env)
	}
}

func TestCategories(t *testing.T) {
	s, store, _ := newTestService(t)
	mustAdd(t, s, AddExpenseInput{Date: "2024-01-01", Amount: 1, Category: "Custom"})
	calls := store.calls

	doc := s.Categories()
	if len(doc.Categories) != 15 {
		t.Fatalf("expected 15 categories, got %d", len(doc.Categories))
	}
	if store.calls != calls {
		t.Error("categories must not touch the store")
	}

	var decoded CategoryList
	if err := json.Unmarshal([]byte(doc.JSON()), &decoded); err != nil {
		t.Fatalf("categories JSON invalid: %v", err)
	}
	if decoded.Categories[0] != "Food & Dining" || decoded.Categories[14] != "Other" {
		t.Errorf("unexpected categories %v", decoded.Categories)
	}
}

func TestResponseJSONShapes(t *testing.T) {
	s, _, _ := newTestService(t)
	id := mustAdd(t, s, AddExpenseInput{Date: "2024-01-01", Amount: 1, Category: "Other"})

	list, _ := json.Marshal(s.ListExpenses(context.Background(), "2024-01-01", "2024-01-01"))
	if !strings.HasPrefix(string(list), "[") || strings.Contains(string(list), "created_at") {
		t.Errorf("list should be a bare array without created_at: %s", list)
	}

	del, _ := json.Marshal(s.DeleteExpense(context.Background(), id))
	if strings.Contains(string(del), `"data"`) || strings.Contains(string(del), `"id"`) {
		t.Errorf("delete envelope should carry only status and message: %s", del)
	}
}
