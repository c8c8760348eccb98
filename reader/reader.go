// Package reader streams result rows as ordered records.
package reader

import (
	"errors"
	"iter"
	"strings"

	"github.com/symbolspace/Symbol-sub006/conn"
	"github.com/symbolspace/Symbol-sub006/dialect/sql"
)

// ErrConsumed is yielded when iterating a reader a second time.
var ErrConsumed = errors.New("reader: result already consumed")

// Reader is a lazy, forward-only iterator over a live result set. One row
// is materialized at a time. Exhausting the rows, failing, closing the
// reader or breaking out of All destroys the command cache, which closes
// the rows and releases the session they are read from.
//
// A Reader must be consumed by a single goroutine.
type Reader struct {
	rows    *sql.Rows
	cache   *conn.CommandCache
	columns []string
	binary  []bool
	record  Record
	err     error
	done    bool
	ranged  bool
	wrap    func(error) error
}

// Option configures a Reader.
type Option func(*Reader)

// WithErrorWrapper sets the function applied to backend errors raised
// while reading rows. ErrConsumed is never wrapped.
func WithErrorWrapper(fn func(error) error) Option {
	return func(r *Reader) {
		r.wrap = fn
	}
}

// New returns a reader over rows held by cache.
func New(rows *sql.Rows, cache *conn.CommandCache, opts ...Option) (*Reader, error) {
	r := &Reader{rows: rows, cache: cache}
	for _, opt := range opts {
		opt(r)
	}
	columns, err := rows.Columns()
	if err != nil {
		return nil, errors.Join(r.wrapErr(err), cache.Destroy())
	}
	r.columns, r.binary = columns, make([]bool, len(columns))
	if types, err := rows.ColumnTypes(); err == nil {
		for i, ct := range types {
			r.binary[i] = isBinary(ct.DatabaseTypeName())
		}
	}
	return r, nil
}

// Columns returns the column names of the result.
func (r *Reader) Columns() []string {
	return r.columns
}

// Next advances to the next row. It returns false when the rows are
// exhausted or an error occurred, in which case Err reports it.
func (r *Reader) Next() bool {
	if r.done {
		return false
	}
	if !r.rows.Next() {
		r.finish(r.rows.Err())
		return false
	}
	values := make([]any, len(r.columns))
	dest := make([]any, len(r.columns))
	for i := range values {
		dest[i] = &values[i]
	}
	if err := r.rows.Scan(dest...); err != nil {
		r.finish(err)
		return false
	}
	rec := make(Record, len(r.columns))
	for i, name := range r.columns {
		v := values[i]
		if b, ok := v.([]byte); ok && !r.binary[i] {
			v = string(b)
		}
		rec[i] = Field{Name: name, Value: v}
	}
	r.record = rec
	return true
}

// Record returns the current row.
func (r *Reader) Record() Record {
	return r.record
}

// Err returns the error that stopped the iteration, if any.
func (r *Reader) Err() error {
	return r.err
}

// Close stops the iteration and releases the underlying command.
// It is safe to call Close more than once.
func (r *Reader) Close() error {
	if r.done {
		return nil
	}
	r.done = true
	r.record = nil
	return r.cache.Destroy()
}

// All returns an iterator over the remaining rows. Breaking out of the
// loop closes the reader. A reader can be ranged over once, a second
// iteration yields ErrConsumed.
//
//	for rec, err := range rd.All() {
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Println(rec.Value("name"))
//	}
func (r *Reader) All() iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		if r.ranged {
			yield(nil, ErrConsumed)
			return
		}
		r.ranged = true
		defer r.Close()
		for r.Next() {
			if !yield(r.record, nil) {
				return
			}
		}
		if r.err != nil {
			yield(nil, r.err)
		}
	}
}

// Collect reads the remaining rows into a slice and closes the reader.
func (r *Reader) Collect() ([]Record, error) {
	var recs []Record
	for rec, err := range r.All() {
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

func (r *Reader) finish(err error) {
	r.done = true
	r.err = errors.Join(r.wrapErr(err), r.cache.Destroy())
}

func (r *Reader) wrapErr(err error) error {
	if err == nil || r.wrap == nil {
		return err
	}
	return r.wrap(err)
}

func isBinary(typ string) bool {
	typ = strings.ToUpper(typ)
	return strings.Contains(typ, "BLOB") || strings.Contains(typ, "BINARY") || typ == "BYTEA" || typ == "IMAGE"
}
