package storage_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ledger/internal/core"
	"ledger/internal/storage"
	"ledger/internal/storage/storagetest"
)

func newSQLiteStore(t *testing.T) *storage.SQLStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "ledger.db")
	s, err := storage.OpenSQLStore(storage.DialectSQLite, path, storage.OpenOptions{Migrate: true})
	if err != nil {
		t.Fatalf("OpenSQLStore: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStoreContract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.ExpenseStore {
		return newSQLiteStore(t)
	})
}

func TestSQLiteStore_CreatedAtIsRecent(t *testing.T) {
	s := newSQLiteStore(t)
	before := time.Now().UTC().Add(-time.Minute)

	e, err := s.Insert(context.Background(), core.NewExpense{Date: "2024-01-01", Amount: 1, Category: "Other"})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if e.CreatedAt == nil {
		t.Fatal("expected created_at")
	}
	if e.CreatedAt.Before(before) || e.CreatedAt.After(time.Now().UTC().Add(time.Minute)) {
		t.Errorf("created_at %v not close to now", e.CreatedAt)
	}
}

func TestSQLiteStore_MigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	for i := 0; i < 2; i++ {
		if err := storage.RunMigrations(storage.DialectSQLite, path); err != nil {
			t.Fatalf("RunMigrations run %d: %v", i+1, err)
		}
	}
}

func TestSQLiteStore_MissingTableSurfacesError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.db")
	s, err := storage.OpenSQLStore(storage.DialectSQLite, path, storage.OpenOptions{})
	if err != nil {
		t.Fatalf("OpenSQLStore: %v", err)
	}
	defer s.Close()

	if _, err := s.Probe(context.Background()); err == nil {
		t.Fatal("expected probe to fail without the expenses table")
	}
	if _, err := s.List(context.Background(), core.DateRange{Start: "2024-01-01", End: "2024-01-31"}); err == nil {
		t.Fatal("expected list to fail without the expenses table")
	}
}

func TestOpenSQLStore_Validation(t *testing.T) {
	if _, err := storage.OpenSQLStore(storage.Dialect("mysql"), "x", storage.OpenOptions{}); err == nil {
		t.Error("expected error for unsupported dialect")
	}
	if _, err := storage.OpenSQLStore(storage.DialectPostgres, "  ", storage.OpenOptions{}); err == nil ||
		!strings.Contains(err.Error(), "empty postgres data source") {
		t.Errorf("expected empty data source error, got %v", err)
	}
}

func TestDialectPlaceholder(t *testing.T) {
	if got := storage.DialectPostgres.Placeholder(3); got != "$3" {
		t.Errorf("postgres placeholder = %q", got)
	}
	if got := storage.DialectSQLite.Placeholder(3); got != "?" {
		t.Errorf("sqlite placeholder = %q", got)
	}
}
