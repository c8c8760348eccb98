// Package conn manages access to a backend for one unit of work.
//
// A Connection is owned by a single caller and is not safe for concurrent
// use, except for releasing leased sessions, which may happen from any
// goroutine through a CommandCache.
package conn

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/symbolspace/Symbol-sub006/dialect"
	"github.com/symbolspace/Symbol-sub006/dialect/sql"
)

// Connection wraps a provider owned pool and an optional transaction.
type Connection struct {
	config
	drv *sql.Driver

	mu     sync.Mutex
	leases map[Handle]*sql.Session
	next   Handle
	closed bool

	tx  dialect.Tx
	txs *sql.Session // session the transaction is pinned to
}

// New returns a Connection over the given pool.
func New(drv *sql.Driver, opts ...Option) *Connection {
	c := &Connection{drv: drv, leases: make(map[Handle]*sql.Session)}
	for _, opt := range opts {
		opt(&c.config)
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}
	return c
}

// Dialect returns the dialect name of the backend.
func (c *Connection) Dialect() string { return c.drv.Dialect() }

// Driver returns the pool the connection draws sessions from.
func (c *Connection) Driver() *sql.Driver { return c.drv }

// Open verifies the backend is reachable.
func (c *Connection) Open(ctx context.Context) error {
	if err := c.check(); err != nil {
		return err
	}
	if err := c.drv.Ping(ctx); err != nil {
		return NewConnectionError("open", err)
	}
	return nil
}

// InTx reports whether a transaction is open.
func (c *Connection) InTx() bool { return c.tx != nil }

// Begin leases a session and opens a transaction on it. Commands issued
// until Commit or Rollback run on that session, which goes back to the
// pool when the transaction ends.
func (c *Connection) Begin(ctx context.Context, opts *sql.TxOptions) error {
	if err := c.check(); err != nil {
		return err
	}
	if c.tx != nil {
		return ErrTxStarted
	}
	s, err := c.drv.Session(ctx)
	if err != nil {
		return NewConnectionError("begin", err)
	}
	tx, err := s.BeginTx(ctx, opts)
	if err != nil {
		return NewConnectionError("begin", errors.Join(err, s.Close()))
	}
	c.tx, c.txs = tx, s
	c.logger.Debug("transaction started")
	return nil
}

// Commit commits the open transaction.
func (c *Connection) Commit() error {
	if c.tx == nil {
		return ErrNoTx
	}
	tx, s := c.tx, c.txs
	c.tx, c.txs = nil, nil
	if err := errors.Join(tx.Commit(), s.Close()); err != nil {
		return fmt.Errorf("conn: commit: %w", err)
	}
	c.logger.Debug("transaction committed")
	return nil
}

// Rollback aborts the open transaction.
func (c *Connection) Rollback() error {
	if c.tx == nil {
		return ErrNoTx
	}
	tx, s := c.tx, c.txs
	c.tx, c.txs = nil, nil
	if err := errors.Join(tx.Rollback(), s.Close()); err != nil {
		return fmt.Errorf("conn: rollback: %w", err)
	}
	c.logger.Debug("transaction rolled back")
	return nil
}

// Exec executes a statement that returns no rows.
func (c *Connection) Exec(ctx context.Context, query string, args []any) (sql.Result, error) {
	ex, h, err := c.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer c.Release(h)
	var res sql.Result
	if err := ex.Exec(ctx, query, args, &res); err != nil {
		return nil, err
	}
	return res, nil
}

// Query executes a statement returning rows. The rows and the session they
// are read from are held by the returned cache; destroying it closes the
// rows and releases the session.
func (c *Connection) Query(ctx context.Context, query string, args []any) (*sql.Rows, *CommandCache, error) {
	ex, h, err := c.acquire(ctx)
	if err != nil {
		return nil, nil, err
	}
	rows := &sql.Rows{}
	if err := ex.Query(ctx, query, args, rows); err != nil {
		c.Release(h)
		return nil, nil, err
	}
	cache := NewCommandCache(c)
	if err := cache.Hold(rows, h); err != nil {
		return nil, nil, err
	}
	return rows, cache, nil
}

// Release gives a leased session back to the pool. Releasing the
// transaction handle or an unknown handle is a no-op.
func (c *Connection) Release(h Handle) error {
	c.mu.Lock()
	s, ok := c.leases[h]
	delete(c.leases, h)
	c.mu.Unlock()
	if !ok {
		return nil
	}
	if err := s.Close(); err != nil {
		return NewConnectionError("release", err)
	}
	return nil
}

// Leases returns the number of sessions currently leased.
func (c *Connection) Leases() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.leases)
}

// Close rolls back an unfinished transaction and releases every leased
// session. Commands still open on a leased session must be destroyed
// first. The pool stays open for other connections.
func (c *Connection) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	leases := c.leases
	c.leases = make(map[Handle]*sql.Session)
	c.mu.Unlock()

	var errs []error
	if c.tx != nil {
		c.logger.Warn("rolling back unfinished transaction")
		errs = append(errs, c.Rollback())
	}
	for _, s := range leases {
		errs = append(errs, s.Close())
	}
	return errors.Join(errs...)
}

func (c *Connection) check() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	return nil
}

// acquire returns the executor of the next command and its handle.
func (c *Connection) acquire(ctx context.Context) (dialect.ExecQuerier, Handle, error) {
	if err := c.check(); err != nil {
		return nil, 0, err
	}
	if c.tx != nil {
		return c.wrap(c.tx), 0, nil
	}
	s, err := c.drv.Session(ctx)
	if err != nil {
		return nil, 0, NewConnectionError("lease", err)
	}
	c.mu.Lock()
	c.next++
	h := c.next
	c.leases[h] = s
	c.mu.Unlock()
	return c.wrap(s), h, nil
}

func (c *Connection) wrap(ex dialect.ExecQuerier) dialect.ExecQuerier {
	if c.monitor != nil {
		ex = c.monitor.Wrap(ex)
	}
	if c.debug {
		ex = sql.Debug(ex, c.logger)
	}
	return ex
}
