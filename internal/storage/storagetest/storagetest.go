// Package storagetest holds behaviour checks shared by every ExpenseStore
// implementation.
package storagetest

import (
	"context"
	"testing"

	"ledger/internal/core"
	"ledger/internal/storage"
)

// Factory returns a fresh, empty store.
type Factory func(t *testing.T) storage.ExpenseStore

// Run exercises the ExpenseStore contract against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("InsertAssignsIDs", func(t *testing.T) { testInsert(t, newStore(t)) })
	t.Run("ListFiltersAndOrders", func(t *testing.T) { testList(t, newStore(t)) })
	t.Run("CategoryAmounts", func(t *testing.T) { testCategoryAmounts(t, newStore(t)) })
	t.Run("UpdateTouchesOnlySuppliedFields", func(t *testing.T) { testUpdate(t, newStore(t)) })
	t.Run("UpdateMissingID", func(t *testing.T) { testUpdateMissing(t, newStore(t)) })
	t.Run("Delete", func(t *testing.T) { testDelete(t, newStore(t)) })
	t.Run("Probe", func(t *testing.T) { testProbe(t, newStore(t)) })
}

func mustInsert(t *testing.T, s storage.ExpenseStore, e core.NewExpense) core.Expense {
	t.Helper()
	got, err := s.Insert(context.Background(), e)
	if err != nil {
		t.Fatalf("Insert(%+v): %v", e, err)
	}
	if got == nil {
		t.Fatalf("Insert(%+v) returned no row", e)
	}
	return *got
}

func testInsert(t *testing.T, s storage.ExpenseStore) {
	in := core.NewExpense{Date: "2024-01-15", Amount: 12.5, Category: "Food & Dining", Subcategory: "Lunch", Note: "team"}
	first := mustInsert(t, s, in)
	second := mustInsert(t, s, core.NewExpense{Date: "2024-01-16", Amount: 3, Category: "Other"})

	if first.ID <= 0 {
		t.Errorf("expected positive id, got %d", first.ID)
	}
	if second.ID <= first.ID {
		t.Errorf("ids must grow with insertion order: %d then %d", first.ID, second.ID)
	}
	if first.Date != in.Date || first.Amount != in.Amount || first.Category != in.Category ||
		first.Subcategory != in.Subcategory || first.Note != in.Note {
		t.Errorf("stored row %+v does not match input %+v", first, in)
	}
	if first.CreatedAt == nil || first.CreatedAt.IsZero() {
		t.Error("expected created_at to be assigned")
	}
	if second.Subcategory != "" || second.Note != "" {
		t.Errorf("optional fields should default to empty, got %+v", second)
	}
}

func testList(t *testing.T, s storage.ExpenseStore) {
	a := mustInsert(t, s, core.NewExpense{Date: "2024-01-10", Amount: 1, Category: "A"})
	b := mustInsert(t, s, core.NewExpense{Date: "2024-01-20", Amount: 2, Category: "B"})
	c := mustInsert(t, s, core.NewExpense{Date: "2024-01-10", Amount: 3, Category: "C"})
	mustInsert(t, s, core.NewExpense{Date: "2023-12-31", Amount: 4, Category: "D"})
	mustInsert(t, s, core.NewExpense{Date: "2024-02-01", Amount: 5, Category: "E"})

	got, err := s.List(context.Background(), core.DateRange{Start: "2024-01-01", End: "2024-01-31"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	wantIDs := []int64{b.ID, c.ID, a.ID}
	if len(got) != len(wantIDs) {
		t.Fatalf("expected %d rows, got %d: %+v", len(wantIDs), len(got), got)
	}
	for i, id := range wantIDs {
		if got[i].ID != id {
			t.Errorf("row %d: id = %d, want %d", i, got[i].ID, id)
		}
		if got[i].CreatedAt != nil {
			t.Errorf("row %d: created_at should not be projected", i)
		}
	}

	empty, err := s.List(context.Background(), core.DateRange{Start: "2030-01-01", End: "2030-12-31"})
	if err != nil {
		t.Fatalf("List empty range: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", empty)
	}
}

func testCategoryAmounts(t *testing.T, s storage.ExpenseStore) {
	mustInsert(t, s, core.NewExpense{Date: "2024-03-01", Amount: 10, Category: "Travel"})
	mustInsert(t, s, core.NewExpense{Date: "2024-03-02", Amount: 5, Category: "Food & Dining"})
	mustInsert(t, s, core.NewExpense{Date: "2024-03-03", Amount: 7, Category: "Food & Dining"})
	mustInsert(t, s, core.NewExpense{Date: "2024-04-01", Amount: 100, Category: "Food & Dining"})

	r := core.DateRange{Start: "2024-03-01", End: "2024-03-31"}
	all, err := s.CategoryAmounts(context.Background(), r, "")
	if err != nil {
		t.Fatalf("CategoryAmounts: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 rows, got %+v", all)
	}

	food, err := s.CategoryAmounts(context.Background(), r, "Food & Dining")
	if err != nil {
		t.Fatalf("CategoryAmounts filtered: %v", err)
	}
	if len(food) != 2 {
		t.Fatalf("expected 2 rows, got %+v", food)
	}
	var total float64
	for _, ca := range food {
		if ca.Category != "Food & Dining" {
			t.Errorf("unexpected category %q", ca.Category)
		}
		total += ca.Amount
	}
	if total != 12 {
		t.Errorf("total = %v, want 12", total)
	}
}

func testUpdate(t *testing.T, s storage.ExpenseStore) {
	orig := mustInsert(t, s, core.NewExpense{Date: "2024-05-05", Amount: 9, Category: "Shopping", Subcategory: "Books", Note: "gift"})

	amount := 42.5
	updated, err := s.Update(context.Background(), orig.ID, core.ExpensePatch{Amount: &amount})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(updated) != 1 {
		t.Fatalf("expected one affected row, got %+v", updated)
	}
	got := updated[0]
	if got.ID != orig.ID || got.Amount != 42.5 || got.Date != orig.Date || got.Category != orig.Category ||
		got.Subcategory != orig.Subcategory || got.Note != orig.Note {
		t.Errorf("unexpected row after update: %+v (orig %+v)", got, orig)
	}

	empty := ""
	cleared, err := s.Update(context.Background(), orig.ID, core.ExpensePatch{Note: &empty})
	if err != nil {
		t.Fatalf("Update clearing note: %v", err)
	}
	if len(cleared) != 1 || cleared[0].Note != "" || cleared[0].Subcategory != "Books" {
		t.Errorf("expected note cleared only, got %+v", cleared)
	}
}

func testUpdateMissing(t *testing.T, s storage.ExpenseStore) {
	note := "x"
	updated, err := s.Update(context.Background(), 999999, core.ExpensePatch{Note: &note})
	if err != nil {
		t.Fatalf("Update missing id: %v", err)
	}
	if len(updated) != 0 {
		t.Errorf("expected no affected rows, got %+v", updated)
	}
}

func testDelete(t *testing.T, s storage.ExpenseStore) {
	e := mustInsert(t, s, core.NewExpense{Date: "2024-06-01", Amount: 1, Category: "Other"})

	n, err := s.Delete(context.Background(), e.ID)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 row removed, got %d", n)
	}

	left, err := s.List(context.Background(), core.DateRange{Start: "2024-06-01", End: "2024-06-01"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(left) != 0 {
		t.Errorf("expected row to be gone, got %+v", left)
	}

	n, err = s.Delete(context.Background(), e.ID)
	if err != nil {
		t.Fatalf("Delete again: %v", err)
	}
	if n != 0 {
		t.Errorf("expected 0 rows removed on second delete, got %d", n)
	}

	next := mustInsert(t, s, core.NewExpense{Date: "2024-06-02", Amount: 1, Category: "Other"})
	if next.ID <= e.ID {
		t.Errorf("id %d reused after delete of %d", next.ID, e.ID)
	}
}

func testProbe(t *testing.T, s storage.ExpenseStore) {
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	n, err := s.Probe(context.Background())
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if n != 0 {
		t.Errorf("expected empty probe, got %d", n)
	}
	mustInsert(t, s, core.NewExpense{Date: "2024-07-01", Amount: 1, Category: "Other"})
	if n, _ := s.Probe(context.Background()); n != 1 {
		t.Errorf("expected probe to see one row, got %d", n)
	}
}
