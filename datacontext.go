package symbol

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/symbolspace/Symbol-sub006/compiler"
	"github.com/symbolspace/Symbol-sub006/conn"
	"github.com/symbolspace/Symbol-sub006/dialect"
	"github.com/symbolspace/Symbol-sub006/dialect/sql"
	"github.com/symbolspace/Symbol-sub006/predicate"
	"github.com/symbolspace/Symbol-sub006/provider"
	"github.com/symbolspace/Symbol-sub006/reader"
)

// DataContext is the entry point for CRUD operations over one Connection.
// It owns the connection and must be used by a single goroutine, except
// for Close, which may be called from any goroutine.
type DataContext struct {
	conn     *conn.Connection
	renderer dialect.Renderer
	log      *slog.Logger
	idColumn string
	cache    Cache
	cacheTTL time.Duration
	connOpts []conn.Option

	mu      sync.Mutex
	readers map[*conn.CommandCache]struct{}
	closed  bool

	written map[string]struct{} // tables written in the open transaction
}

// New returns a DataContext owning c.
func New(c *conn.Connection, opts ...Option) (*DataContext, error) {
	dc := &DataContext{conn: c, readers: make(map[*conn.CommandCache]struct{})}
	for _, opt := range opts {
		opt(dc)
	}
	if dc.log == nil {
		dc.log = slog.New(slog.DiscardHandler)
	}
	if dc.renderer == nil {
		r, err := sql.Renderer(c.Dialect())
		if err != nil {
			return nil, err
		}
		dc.renderer = r
	}
	return dc, nil
}

// WithConnOptions passes options to the connection created by Open.
func WithConnOptions(opts ...conn.Option) Option {
	return func(dc *DataContext) {
		dc.connOpts = append(dc.connOpts, opts...)
	}
}

// Open opens a connection through the registered provider and returns a
// DataContext owning it.
//
//	dc, err := symbol.Open(ctx, "postgres", conn.Options{Host: "localhost", Database: "app"})
//	if err != nil {
//	    return err
//	}
//	defer dc.Close()
func Open(ctx context.Context, providerName string, o conn.Options, opts ...Option) (*DataContext, error) {
	p, err := provider.Lookup(providerName)
	if err != nil {
		return nil, err
	}
	var cfg DataContext
	for _, opt := range opts {
		opt(&cfg)
	}
	c, err := p.Open(ctx, o, cfg.connOpts...)
	if err != nil {
		return nil, err
	}
	if cfg.renderer == nil {
		opts = append(opts, WithRenderer(p.Renderer()))
	}
	dc, err := New(c, opts...)
	if err != nil {
		return nil, errors.Join(err, c.Close())
	}
	return dc, nil
}

// Conn returns the connection owned by the context.
func (dc *DataContext) Conn() *conn.Connection { return dc.conn }

// Renderer returns the rendering table statements are compiled with.
func (dc *DataContext) Renderer() dialect.Renderer { return dc.renderer }

// Insert inserts a row and returns its generated identifier. fields is a
// struct, a map, a Record, a predicate.Map or JSON object text.
func (dc *DataContext) Insert(ctx context.Context, table string, fields any) (int64, error) {
	m, err := predicate.Filter(fields)
	if err != nil {
		return 0, err
	}
	q, err := dc.compile(&compiler.Descriptor{Table: table, Op: compiler.Insert, Fields: m, IDColumn: dc.idColumn})
	if err != nil {
		return 0, err
	}
	defer dc.invalidate(ctx, table)
	if q.Identity == dialect.IdentityLastInsert {
		res, err := dc.conn.Exec(ctx, q.SQL, dc.renderer.Bind(q.Args))
		if err != nil {
			return 0, dc.execError("insert", table, q, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return 0, dc.execError("insert", table, q, err)
		}
		return id, nil
	}
	id, err := dc.scalar(ctx, q)
	if err != nil {
		return 0, dc.execError("insert", table, q, err)
	}
	return id, nil
}

// Delete deletes the rows matching filter and returns their count.
func (dc *DataContext) Delete(ctx context.Context, table string, filter any) (int64, error) {
	where, err := predicate.Filter(filter)
	if err != nil {
		return 0, err
	}
	return dc.exec(ctx, "delete", &compiler.Descriptor{Table: table, Op: compiler.Delete, Where: where})
}

// Update sets fields on the rows matching filter and returns their count.
func (dc *DataContext) Update(ctx context.Context, table string, fields, filter any) (int64, error) {
	set, err := predicate.Filter(fields)
	if err != nil {
		return 0, err
	}
	where, err := predicate.Filter(filter)
	if err != nil {
		return 0, err
	}
	return dc.exec(ctx, "update", &compiler.Descriptor{Table: table, Op: compiler.Update, Fields: set, Where: where})
}

// Count returns the number of rows matching filter.
func (dc *DataContext) Count(ctx context.Context, table string, filter any, opts ...QueryOption) (int64, error) {
	d, err := dc.descriptor(table, compiler.Count, filter, opts)
	if err != nil {
		return 0, err
	}
	q, err := dc.compile(d)
	if err != nil {
		return 0, err
	}
	n, err := dc.scalar(ctx, q)
	if err != nil {
		return 0, dc.execError("count", table, q, err)
	}
	return n, nil
}

// Find returns the first row matching filter, or nil when none does.
// A limit of one row applies unless the options set one.
func (dc *DataContext) Find(ctx context.Context, table string, filter any, opts ...QueryOption) (Record, error) {
	d, err := dc.descriptor(table, compiler.Find, filter, opts)
	if err != nil {
		return nil, err
	}
	if d.Limit == 0 {
		d.Limit = 1
	}
	q, err := dc.compile(d)
	if err != nil {
		return nil, err
	}
	key := CacheKey{Table: table, Operation: "find", SQL: q.SQL, Args: q.Args}.String()
	if rec, ok := dc.cached(ctx, key); ok {
		return rec, nil
	}
	rd, err := dc.query(ctx, table, q)
	if err != nil {
		return nil, err
	}
	defer rd.Close()
	if !rd.Next() {
		if err := rd.Err(); err != nil {
			return nil, dc.execError("find", table, q, err)
		}
		return nil, nil
	}
	rec := rd.Record()
	if err := rd.Close(); err != nil {
		dc.log.WarnContext(ctx, "closing find result", "table", table, "error", err)
	}
	dc.store(ctx, key, rec)
	return rec, nil
}

// FindAll streams the rows matching filter. The reader must be consumed
// or closed to release the underlying session.
//
// Outside a transaction, calls made while the reader is open lease another
// session. On a pool of one connection, such as an in-memory SQLite
// database, they wait for the reader to finish or for ctx to be done.
func (dc *DataContext) FindAll(ctx context.Context, table string, filter any, opts ...QueryOption) (*Reader, error) {
	d, err := dc.descriptor(table, compiler.Find, filter, opts)
	if err != nil {
		return nil, err
	}
	q, err := dc.compile(d)
	if err != nil {
		return nil, err
	}
	return dc.query(ctx, table, q)
}

// Begin opens a transaction on the owned connection. Operations issued on
// the context run inside it until Commit or Rollback is called. A failing
// operation does not roll the transaction back.
func (dc *DataContext) Begin(ctx context.Context, opts ...TxOption) (*Tx, error) {
	var o sql.TxOptions
	for _, opt := range opts {
		opt(&o)
	}
	if err := dc.conn.Begin(ctx, &o); err != nil {
		return nil, err
	}
	return &Tx{dc: dc}, nil
}

// Close destroys the commands of unfinished readers and closes the
// connection. It may be called from another goroutine than the one using
// the context, and more than once.
func (dc *DataContext) Close() error {
	dc.mu.Lock()
	if dc.closed {
		dc.mu.Unlock()
		return nil
	}
	dc.closed = true
	readers := dc.readers
	dc.readers = nil
	dc.mu.Unlock()

	var errs []error
	for cache := range readers {
		errs = append(errs, cache.Destroy())
	}
	errs = append(errs, dc.conn.Close())
	dc.endTx(context.Background())
	return errors.Join(errs...)
}

func (dc *DataContext) descriptor(table string, op compiler.Op, filter any, opts []QueryOption) (*compiler.Descriptor, error) {
	where, err := predicate.Filter(filter)
	if err != nil {
		return nil, err
	}
	o := &queryOptions{d: &compiler.Descriptor{Table: table, Op: op, Where: where}}
	for _, opt := range opts {
		opt(o)
		if o.err != nil {
			return nil, o.err
		}
	}
	return o.d, nil
}

func (dc *DataContext) compile(d *compiler.Descriptor) (*compiler.Query, error) {
	if err := dc.check(); err != nil {
		return nil, err
	}
	return compiler.Compile(dc.renderer, d)
}

func (dc *DataContext) check() error {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	if dc.closed {
		return ErrClosed
	}
	return nil
}

// exec runs a write and returns the number of affected rows.
func (dc *DataContext) exec(ctx context.Context, op string, d *compiler.Descriptor) (int64, error) {
	q, err := dc.compile(d)
	if err != nil {
		return 0, err
	}
	res, err := dc.conn.Exec(ctx, q.SQL, dc.renderer.Bind(q.Args))
	if err != nil {
		return 0, dc.execError(op, d.Table, q, err)
	}
	dc.invalidate(ctx, d.Table)
	n, err := res.RowsAffected()
	if err != nil {
		return 0, dc.execError(op, d.Table, q, err)
	}
	return n, nil
}

// query starts a streaming read and tracks its command until the reader
// finishes or the context closes.
func (dc *DataContext) query(ctx context.Context, table string, q *compiler.Query) (*Reader, error) {
	rows, cache, err := dc.conn.Query(ctx, q.SQL, dc.renderer.Bind(q.Args))
	if err != nil {
		return nil, dc.execError("find", table, q, err)
	}
	rd, err := reader.New(rows, cache, reader.WithErrorWrapper(func(err error) error {
		return dc.execError("find", table, q, err)
	}))
	if err != nil {
		return nil, dc.execError("find", table, q, err)
	}
	dc.mu.Lock()
	defer dc.mu.Unlock()
	if dc.closed {
		return nil, errors.Join(ErrClosed, rd.Close())
	}
	for c := range dc.readers {
		if c.Empty() {
			delete(dc.readers, c)
		}
	}
	dc.readers[cache] = struct{}{}
	return rd, nil
}

// scalar reads a single integer column of the first row.
func (dc *DataContext) scalar(ctx context.Context, q *compiler.Query) (int64, error) {
	rows, cache, err := dc.conn.Query(ctx, q.SQL, dc.renderer.Bind(q.Args))
	if err != nil {
		return 0, err
	}
	defer cache.Destroy()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return 0, err
		}
		return 0, fmt.Errorf("symbol: no row returned by %q", q.SQL)
	}
	var n sql.NullInt64
	if err := rows.Scan(&n); err != nil {
		return 0, err
	}
	return n.Int64, nil
}

// execError wraps backend failures. Connection failures propagate as is.
func (dc *DataContext) execError(op, table string, q *compiler.Query, err error) error {
	if conn.IsConnectionError(err) || errors.Is(err, conn.ErrClosed) || IsExecutionError(err) {
		return err
	}
	return NewExecutionError(op, table, q.SQL, q.Args, err)
}

// cached and store bypass the cache inside a transaction, whose reads may
// see uncommitted rows.
func (dc *DataContext) cached(ctx context.Context, key string) (Record, bool) {
	if dc.cache == nil || dc.conn.InTx() {
		return nil, false
	}
	b, err := dc.cache.Get(ctx, key)
	if err != nil {
		dc.log.WarnContext(ctx, "reading cached result", "key", key, "error", err)
		return nil, false
	}
	if b == nil {
		return nil, false
	}
	var rec Record
	if err := msgpack.Unmarshal(b, &rec); err != nil {
		dc.log.WarnContext(ctx, "decoding cached result", "key", key, "error", err)
		return nil, false
	}
	return rec, true
}

func (dc *DataContext) store(ctx context.Context, key string, rec Record) {
	if dc.cache == nil || dc.conn.InTx() {
		return
	}
	b, err := msgpack.Marshal(rec)
	if err == nil {
		err = dc.cache.Set(ctx, key, b, dc.cacheTTL)
	}
	if err != nil {
		dc.log.WarnContext(ctx, "caching result", "key", key, "error", err)
	}
}

// invalidate drops the cached results of table. Inside a transaction the
// table is invalidated again when the transaction ends.
func (dc *DataContext) invalidate(ctx context.Context, table string) {
	if dc.cache == nil {
		return
	}
	if dc.conn.InTx() {
		if dc.written == nil {
			dc.written = make(map[string]struct{})
		}
		dc.written[table] = struct{}{}
	}
	if err := dc.cache.DeletePrefix(ctx, TablePrefix(table)); err != nil {
		dc.log.WarnContext(ctx, "invalidating cached results", "table", table, "error", err)
	}
}

// endTx invalidates the tables written by the finished transaction.
func (dc *DataContext) endTx(ctx context.Context) {
	written := dc.written
	dc.written = nil
	for table := range written {
		dc.invalidate(ctx, table)
	}
}
