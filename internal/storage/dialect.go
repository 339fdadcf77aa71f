package storage

import (
	"fmt"
	"strconv"
)

// Dialect selects the SQL flavour and database/sql driver of a SQLStore.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

func (d Dialect) String() string {
	return string(d)
}

func (d Dialect) IsValid() bool {
	switch d {
	case DialectPostgres, DialectSQLite:
		return true
	default:
		return false
	}
}

// DriverName is the database/sql driver registered for the dialect
// (lib/pq registers "postgres", modernc.org/sqlite registers "sqlite").
func (d Dialect) DriverName() string {
	return string(d)
}

// Placeholder returns the n-th (1-based) bind parameter.
func (d Dialect) Placeholder(n int) string {
	if d == DialectPostgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

func (d Dialect) migrationsDir() (string, error) {
	if !d.IsValid() {
		return "", fmt.Errorf("unsupported dialect: %s", d)
	}
	return "migrations/" + string(d), nil
}
