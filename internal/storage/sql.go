package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ledger/internal/core"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	listColumns     = "id, date, amount, category, subcategory, note"
	returnedColumns = listColumns + ", created_at"
)

// SQLStore implements ExpenseStore on top of database/sql.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
}

var _ ExpenseStore = (*SQLStore)(nil)

// OpenOptions tune OpenSQLStore.
type OpenOptions struct {
	// Migrate bootstraps the expenses table before returning.
	Migrate bool
}

// OpenSQLStore opens a store for the given dialect. For sqlite, dsn is a
// file path whose directory is created if needed. The connection is not
// verified; use Ping or Probe for that.
func OpenSQLStore(dialect Dialect, dsn string, opts OpenOptions) (*SQLStore, error) {
	if !dialect.IsValid() {
		return nil, fmt.Errorf("unsupported dialect: %s", dialect)
	}
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("empty %s data source", dialect)
	}

	if dialect == DialectSQLite {
		if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	if opts.Migrate {
		if err := RunMigrations(dialect, dsn); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", dialect, err)
	}
	if dialect == DialectSQLite {
		// Single writer avoids SQLITE_BUSY under concurrent tool calls.
		db.SetMaxOpenConns(1)
	}

	return NewSQLStore(db, dialect), nil
}

// NewSQLStore wraps an already opened database handle.
func NewSQLStore(db *sql.DB, dialect Dialect) *SQLStore {
	return &SQLStore{db: db, dialect: dialect}
}

func (s *SQLStore) Dialect() Dialect {
	return s.dialect
}

func (s *SQLStore) Insert(ctx context.Context, e core.NewExpense) (*core.Expense, error) {
	p := s.dialect.Placeholder
	query := fmt.Sprintf(
		"INSERT INTO %s (date, amount, category, subcategory, note) VALUES (%s, %s, %s, %s, %s) RETURNING %s",
		TableName, p(1), p(2), p(3), p(4), p(5), returnedColumns)

	row := s.db.QueryRowContext(ctx, query, e.Date, e.Amount, e.Category, e.Subcategory, e.Note)
	expense, err := scanReturned(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("insert expense: %w", err)
	}

	slog.DebugContext(ctx, "Expense inserted", "id", expense.ID, "date", expense.Date, "dialect", s.dialect.String())
	return expense, nil
}

func (s *SQLStore) List(ctx context.Context, r core.DateRange) ([]core.Expense, error) {
	p := s.dialect.Placeholder
	query := fmt.Sprintf(
		"SELECT %s FROM %s WHERE date >= %s AND date <= %s ORDER BY date DESC, id DESC",
		listColumns, TableName, p(1), p(2))

	rows, err := s.db.QueryContext(ctx, query, r.Start, r.End)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	expenses := make([]core.Expense, 0)
	for rows.Next() {
		var e core.Expense
		if err := rows.Scan(&e.ID, &e.Date, &e.Amount, &e.Category, &e.Subcategory, &e.Note); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return expenses, nil
}

func (s *SQLStore) CategoryAmounts(ctx context.Context, r core.DateRange, category string) ([]core.CategoryAmount, error) {
	p := s.dialect.Placeholder
	query := fmt.Sprintf("SELECT category, amount FROM %s WHERE date >= %s AND date <= %s", TableName, p(1), p(2))
	args := []any{r.Start, r.End}
	if category != "" {
		query += " AND category = " + p(3)
		args = append(args, category)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select category amounts: %w", err)
	}
	defer rows.Close()

	var out []core.CategoryAmount
	for rows.Next() {
		var ca core.CategoryAmount
		if err := rows.Scan(&ca.Category, &ca.Amount); err != nil {
			return nil, fmt.Errorf("scan category amount: %w", err)
		}
		out = append(out, ca)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category amounts: %w", err)
	}
	return out, nil
}

func (s *SQLStore) Update(ctx context.Context, id int64, patch core.ExpensePatch) ([]core.Expense, error) {
	fields := patch.Fields()
	if len(fields) == 0 {
		return nil, core.ErrNoFields
	}

	sets := make([]string, len(fields))
	args := make([]any, 0, len(fields)+1)
	for i, f := range fields {
		sets[i] = f.Column + " = " + s.dialect.Placeholder(i+1)
		args = append(args, f.Value)
	}
	args = append(args, id)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = %s RETURNING %s",
		TableName, strings.Join(sets, ", "), s.dialect.Placeholder(len(fields)+1), returnedColumns)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("update expense %d: %w", id, err)
	}
	defer rows.Close()

	updated := make([]core.Expense, 0, 1)
	for rows.Next() {
		e, err := scanReturned(rows)
		if err != nil {
			return nil, fmt.Errorf("scan updated expense: %w", err)
		}
		updated = append(updated, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate updated expenses: %w", err)
	}
	return updated, nil
}

func (s *SQLStore) Delete(ctx context.Context, id int64) (int64, error) {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = %s", TableName, s.dialect.Placeholder(1))
	res, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return 0, fmt.Errorf("delete expense %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		// Deletion went through; the count is informational only.
		return 0, nil
	}
	return n, nil
}

func (s *SQLStore) Probe(ctx context.Context) (int, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("SELECT id FROM %s LIMIT 1", TableName))
	if err != nil {
		return 0, fmt.Errorf("probe %s: %w", TableName, err)
	}
	defer rows.Close()

	n := 0
	for rows.Next() {
		n++
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("probe %s: %w", TableName, err)
	}
	return n, nil
}

func (s *SQLStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping %s: %w", s.dialect, err)
	}
	return nil
}

func (s *SQLStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReturned(row rowScanner) (*core.Expense, error) {
	var (
		e         core.Expense
		createdAt sql.NullString
	)
	if err := row.Scan(&e.ID, &e.Date, &e.Amount, &e.Category, &e.Subcategory, &e.Note, &createdAt); err != nil {
		return nil, err
	}
	if createdAt.Valid {
		if ts, ok := parseTimestamp(createdAt.String); ok {
			e.CreatedAt = &ts
		}
	}
	return &e, nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
}

// parseTimestamp accepts what either driver hands back for created_at.
func parseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}
