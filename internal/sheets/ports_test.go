package sheets

import (
	"testing"
	"time"

	"ledger/internal/core"
)

func TestEntryFromEvent(t *testing.T) {
	ts := time.Date(2024, 3, 5, 10, 30, 0, 0, time.UTC)

	created := core.ExpenseEvent{
		Action:    core.EventUpdated,
		ID:        4,
		Expense:   &core.Expense{ID: 4, Date: "2024-03-05", Amount: 9.5, Category: "Travel", Note: "taxi"},
		Fields:    []string{"amount", "note"},
		Timestamp: ts,
	}
	row := EntryFromEvent(created).Row()
	if len(row) != len(JournalHeader) {
		t.Fatalf("row has %d cells, header has %d", len(row), len(JournalHeader))
	}
	want := []any{"2024-03-05T10:30:00Z", "updated", int64(4), "2024-03-05", 9.5, "Travel", "", "taxi", "amount,note"}
	for i := range want {
		if row[i] != want[i] {
			t.Errorf("cell %d (%s) = %v, want %v", i, JournalHeader[i], row[i], want[i])
		}
	}

	deleted := EntryFromEvent(core.ExpenseEvent{Action: core.EventDeleted, ID: 4, Timestamp: ts}).Row()
	if deleted[3] != "" || deleted[4] != "" {
		t.Errorf("deleted rows carry no expense values: %v", deleted)
	}
}
