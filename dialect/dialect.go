package dialect

import (
	"context"
	"database/sql/driver"
)

// Dialect names for supported backends.
const (
	Postgres  = "postgres"
	MySQL     = "mysql"
	SQLite    = "sqlite"
	SQLServer = "sqlserver"
	DuckDB    = "duckdb"
)

// ExecQuerier wraps the two database operations.
type ExecQuerier interface {
	// Exec executes a query that does not return records. For example, in SQL, INSERT or UPDATE.
	// It scans the result into the pointer v. For SQL drivers, it is dialect/sql.Result.
	Exec(ctx context.Context, query string, args, v any) error
	// Query executes a query that returns rows, typically a SELECT in SQL.
	// It scans the result into the pointer v. For SQL drivers, it is *dialect/sql.Rows.
	Query(ctx context.Context, query string, args, v any) error
}

// Driver is the interface that wraps all necessary operations for a pooled backend.
type Driver interface {
	ExecQuerier
	// Tx starts and returns a new transaction.
	Tx(context.Context) (Tx, error)
	// Close closes the underlying pool.
	Close() error
	// Dialect returns the dialect name of the driver.
	Dialect() string
}

// Tx wraps the Exec and Query operations in transaction.
type Tx interface {
	ExecQuerier
	driver.Tx
}

// Paging holds the numeric bounds the compiler decided to apply.
// A zero Offset or Limit means the bound does not apply.
type Paging struct {
	Offset  int
	Limit   int
	Ordered bool // the statement carries an ORDER BY clause
}

// IsZero reports whether no bound applies.
func (p Paging) IsZero() bool { return p.Offset <= 0 && p.Limit <= 0 }

// IdentityMode describes how an INSERT reports the generated identifier.
type IdentityMode int

const (
	// IdentityLastInsert reads the identifier from the driver result (LastInsertId).
	IdentityLastInsert IdentityMode = iota
	// IdentityReturning appends a clause after VALUES and scans one row.
	IdentityReturning
	// IdentityOutput places a clause between the column list and VALUES and scans one row.
	IdentityOutput
)

// Identity is the rendered identity clause of an INSERT statement.
type Identity struct {
	Mode   IdentityMode
	Clause string
}

// Renderer is the per-dialect rendering table consumed by the query compiler.
type Renderer interface {
	// Name returns the dialect name.
	Name() string
	// Placeholder returns the parameter marker for the i-th (zero based) parameter.
	Placeholder(i int) string
	// Bind converts the ordered parameter list into driver arguments.
	Bind(args []any) []any
	// Ident renders a validated identifier, quoting it if required.
	Ident(name string) string
	// Paging renders the paging bounds. head is placed right after SELECT,
	// tail at the very end of the statement.
	Paging(p Paging) (head, tail string)
	// JSONPath renders a text extraction of path from the JSON column.
	JSONPath(column string, path []string) string
	// JSONValue wraps the placeholder of a JSON document parameter.
	JSONValue(placeholder string) string
	// Identity renders the identity clause for the given column.
	Identity(column string) Identity
	// DefaultValues renders the tail of an INSERT without columns.
	DefaultValues() string
}
