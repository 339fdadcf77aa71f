package sheets

import (
	"context"
	"strings"
	"time"

	"ledger/internal/core"
)

// JournalHeader names the journal columns in order.
var JournalHeader = []string{"timestamp", "action", "id", "date", "amount", "category", "subcategory", "note", "fields"}

// Ports for outbound adapters.
type (
	// JournalWriter appends one row per ledger change.
	JournalWriter interface {
		AppendEntry(ctx context.Context, entry JournalEntry) (rowRef string, err error)
	}
)

// JournalEntry is one journal row. Expense fields are empty for deletions.
type JournalEntry struct {
	Timestamp   time.Time
	Action      core.EventAction
	ID          int64
	Date        string
	Amount      *float64
	Category    string
	Subcategory string
	Note        string
	Fields      []string
}

// EntryFromEvent flattens an expense event into a journal row.
func EntryFromEvent(event core.ExpenseEvent) JournalEntry {
	entry := JournalEntry{
		Timestamp: event.Timestamp.UTC(),
		Action:    event.Action,
		ID:        event.ID,
		Fields:    event.Fields,
	}
	if e := event.Expense; e != nil {
		amount := e.Amount
		entry.Date = e.Date
		entry.Amount = &amount
		entry.Category = e.Category
		entry.Subcategory = e.Subcategory
		entry.Note = e.Note
	}
	return entry
}

// Row returns the cell values in JournalHeader order.
func (e JournalEntry) Row() []any {
	var amount any = ""
	if e.Amount != nil {
		amount = *e.Amount
	}
	return []any{
		e.Timestamp.Format(time.RFC3339),
		string(e.Action),
		e.ID,
		e.Date,
		amount,
		e.Category,
		e.Subcategory,
		e.Note,
		strings.Join(e.Fields, ","),
	}
}
