// Package storage holds the expense store collaborator: the port the ledger
// service talks to and its SQL and in-memory implementations.
package storage

import (
	"context"

	"ledger/internal/core"
)

// TableName is the single table the ledger reads and writes.
const TableName = "expenses"

// ExpenseStore is the contract of the remote tabular datastore. Every method
// maps to exactly one statement.
type ExpenseStore interface {
	// Insert stores e and returns the created row. A nil expense with a nil
	// error means the store returned no row.
	Insert(ctx context.Context, e core.NewExpense) (*core.Expense, error)

	// List returns expenses within r ordered by date then id, newest first.
	// CreatedAt is not projected.
	List(ctx context.Context, r core.DateRange) ([]core.Expense, error)

	// CategoryAmounts returns the (category, amount) pairs within r,
	// restricted to category when it is not empty.
	CategoryAmounts(ctx context.Context, r core.DateRange, category string) ([]core.CategoryAmount, error)

	// Update applies p to the row with the given id and returns the affected rows.
	Update(ctx context.Context, id int64, p core.ExpensePatch) ([]core.Expense, error)

	// Delete removes the row with the given id and reports how many rows went away.
	Delete(ctx context.Context, id int64) (int64, error)

	// Probe checks the table is reachable and returns how many sample rows came back.
	Probe(ctx context.Context) (int, error)

	Ping(ctx context.Context) error
	Close() error
}
