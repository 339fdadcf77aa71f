package memory

import (
	"context"
	"errors"
	"testing"

	"ledger/internal/core"
	ports "ledger/internal/sheets"
)

func TestJournal_AppendEntry(t *testing.T) {
	j := New()

	ref, err := j.AppendEntry(context.Background(), ports.JournalEntry{Action: core.EventCreated, ID: 1})
	if err != nil || ref != "memory!A2" {
		t.Fatalf("AppendEntry() = %q, %v", ref, err)
	}
	if _, err := j.AppendEntry(context.Background(), ports.JournalEntry{Action: core.EventDeleted, ID: 1}); err != nil {
		t.Fatal(err)
	}

	entries := j.Entries()
	if len(entries) != 2 || entries[1].Action != core.EventDeleted {
		t.Errorf("unexpected entries %+v", entries)
	}

	entries[0].ID = 99
	if j.Entries()[0].ID != 1 {
		t.Error("Entries must return a copy")
	}
}

func TestJournal_FailWith(t *testing.T) {
	j := New()
	j.FailWith(errors.New("quota exceeded"))

	if _, err := j.AppendEntry(context.Background(), ports.JournalEntry{ID: 1}); err == nil {
		t.Error("expected injected error")
	}
	if len(j.Entries()) != 0 {
		t.Error("failed append must not store a row")
	}

	j.FailWith(nil)
	if _, err := j.AppendEntry(context.Background(), ports.JournalEntry{ID: 1}); err != nil {
		t.Errorf("append after reset: %v", err)
	}
}
