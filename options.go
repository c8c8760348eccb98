package symbol

import (
	"log/slog"
	"time"

	"github.com/symbolspace/Symbol-sub006/compiler"
	"github.com/symbolspace/Symbol-sub006/dialect"
	"github.com/symbolspace/Symbol-sub006/dialect/sql"
	"github.com/symbolspace/Symbol-sub006/predicate"
	"github.com/symbolspace/Symbol-sub006/reader"
)

// Option configures a DataContext.
type Option func(*DataContext)

// WithLogger sets the logger used for cache and lifecycle events.
func WithLogger(logger *slog.Logger) Option {
	return func(dc *DataContext) {
		dc.log = logger
	}
}

// WithCache caches the results of Find in c for ttl. Writes to a table
// invalidate its cached results.
func WithCache(c Cache, ttl time.Duration) Option {
	return func(dc *DataContext) {
		dc.cache, dc.cacheTTL = c, ttl
	}
}

// WithRenderer overrides the rendering table derived from the connection dialect.
func WithRenderer(r dialect.Renderer) Option {
	return func(dc *DataContext) {
		dc.renderer = r
	}
}

// WithIDColumn sets the identity column reported by Insert. Defaults to "id".
func WithIDColumn(name string) Option {
	return func(dc *DataContext) {
		dc.idColumn = name
	}
}

type (
	// Order is one order-by directive.
	Order = compiler.Order
	// Record is one result row.
	Record = reader.Record
	// Field is one named column value of a Record.
	Field = reader.Field
	// Reader streams result rows.
	Reader = reader.Reader
)

// Asc returns an ascending order on field.
func Asc(field string) Order { return compiler.Asc(field) }

// Desc returns a descending order on field.
func Desc(field string) Order { return compiler.Desc(field) }

// QueryOption shapes the statement of Find, FindAll and Count.
type QueryOption func(*queryOptions)

type queryOptions struct {
	d   *compiler.Descriptor
	err error
}

// Select restricts the selected columns. Aggregates such as count(*) are allowed.
func Select(columns ...string) QueryOption {
	return func(o *queryOptions) {
		o.d.Select = append(o.d.Select, columns...)
	}
}

// OrderBy appends order-by directives.
func OrderBy(orders ...Order) QueryOption {
	return func(o *queryOptions) {
		o.d.OrderBy = append(o.d.OrderBy, orders...)
	}
}

// GroupBy appends group-by fields.
func GroupBy(fields ...string) QueryOption {
	return func(o *queryOptions) {
		o.d.GroupBy = append(o.d.GroupBy, fields...)
	}
}

// Having filters groups. Keys may be aggregate expressions.
func Having(filter any) QueryOption {
	return func(o *queryOptions) {
		m, err := predicate.Filter(filter)
		if err != nil {
			o.err = err
			return
		}
		o.d.Having = m
	}
}

// Offset skips the first n rows.
func Offset(n int) QueryOption {
	return func(o *queryOptions) {
		o.d.Offset = n
	}
}

// Limit returns at most n rows.
func Limit(n int) QueryOption {
	return func(o *queryOptions) {
		o.d.Limit = n
	}
}

// TxOption configures a transaction.
type TxOption func(*sql.TxOptions)

// ReadOnly starts a read-only transaction.
func ReadOnly() TxOption {
	return func(o *sql.TxOptions) {
		o.ReadOnly = true
	}
}

// Isolation sets the isolation level of the transaction.
func Isolation(level sql.IsolationLevel) TxOption {
	return func(o *sql.TxOptions) {
		o.Isolation = level
	}
}
