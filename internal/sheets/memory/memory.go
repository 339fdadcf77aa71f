package memory

import (
	"context"
	"fmt"
	"sync"

	ports "ledger/internal/sheets"
)

// Journal keeps journal rows in memory.
type Journal struct {
	mu      sync.Mutex
	entries []ports.JournalEntry
	fail    error
}

var _ ports.JournalWriter = (*Journal)(nil)

func New() *Journal {
	return &Journal{}
}

// AppendEntry stores the entry and returns a synthetic row reference.
func (j *Journal) AppendEntry(_ context.Context, entry ports.JournalEntry) (string, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.fail != nil {
		return "", j.fail
	}
	j.entries = append(j.entries, entry)
	return fmt.Sprintf("memory!A%d", len(j.entries)+1), nil
}

// Entries returns a copy of the stored rows.
func (j *Journal) Entries() []ports.JournalEntry {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]ports.JournalEntry, len(j.entries))
	copy(out, j.entries)
	return out
}

// FailWith makes subsequent appends return err; nil restores normal behaviour.
func (j *Journal) FailWith(err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fail = err
}
