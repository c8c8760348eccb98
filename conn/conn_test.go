package conn

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/symbolspace/Symbol-sub006/dialect"
	"github.com/symbolspace/Symbol-sub006/dialect/sql"
)

func mockConnection(t *testing.T, opts ...Option) (*Connection, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(sql.OpenDB(dialect.SQLite, db), opts...), mock
}

func TestConnectionOpen(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		c, mock := mockConnection(t)
		mock.ExpectPing()
		require.NoError(t, c.Open(context.Background()))
		assert.Equal(t, dialect.SQLite, c.Dialect())
		require.NoError(t, mock.ExpectationsWereMet())
	})
	t.Run("unreachable", func(t *testing.T) {
		c, mock := mockConnection(t)
		mock.ExpectPing().WillReturnError(errors.New("connection refused"))
		err := c.Open(context.Background())
		require.Error(t, err)
		assert.True(t, IsConnectionError(err))
		assert.Contains(t, err.Error(), "conn: open")
	})
	t.Run("closed", func(t *testing.T) {
		c, _ := mockConnection(t)
		require.NoError(t, c.Close())
		require.NoError(t, c.Close())
		require.ErrorIs(t, c.Open(context.Background()), ErrClosed)
		_, err := c.Exec(context.Background(), "DELETE FROM t", []any{})
		require.ErrorIs(t, err, ErrClosed)
	})
}

func TestConnectionExec(t *testing.T) {
	c, mock := mockConnection(t)
	mock.ExpectExec("UPDATE t SET a = ?").
		WithArgs(1).
		WillReturnResult(sqlmock.NewResult(0, 2))
	res, err := c.Exec(context.Background(), "UPDATE t SET a = ?", []any{1})
	require.NoError(t, err)
	n, err := res.RowsAffected()
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	assert.Zero(t, c.Leases())

	mock.ExpectExec("DELETE").WillReturnError(errors.New("locked"))
	_, err = c.Exec(context.Background(), "DELETE FROM t", []any{})
	require.Error(t, err)
	assert.Zero(t, c.Leases())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestConnectionQuery(t *testing.T) {
	c, mock := mockConnection(t)
	mock.ExpectQuery("SELECT name FROM t").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("a").AddRow("b"))
	rows, cache, err := c.Query(context.Background(), "SELECT name FROM t", []any{})
	require.NoError(t, err)
	assert.Equal(t, 1, c.Leases())
	h, ok := cache.Handle()
	require.True(t, ok)
	assert.NotZero(t, h)
	require.True(t, rows.Next())

	require.NoError(t, cache.Destroy())
	assert.Zero(t, c.Leases())
	require.NoError(t, cache.Destroy())
	require.NoError(t, c.Release(h))

	mock.ExpectQuery("SELECT").WillReturnError(errors.New("syntax error"))
	_, _, err = c.Query(context.Background(), "SELECT", []any{})
	require.Error(t, err)
	assert.Zero(t, c.Leases())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestConnectionTx(t *testing.T) {
	t.Run("commit", func(t *testing.T) {
		c, mock := mockConnection(t)
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO t").WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
		mock.ExpectCommit()

		ctx := context.Background()
		require.NoError(t, c.Begin(ctx, nil))
		require.True(t, c.InTx())
		require.ErrorIs(t, c.Begin(ctx, nil), ErrTxStarted)
		_, err := c.Exec(ctx, "INSERT INTO t DEFAULT VALUES", []any{})
		require.NoError(t, err)
		_, cache, err := c.Query(ctx, "SELECT id FROM t", []any{})
		require.NoError(t, err)
		h, _ := cache.Handle()
		assert.Zero(t, h)
		assert.Zero(t, c.Leases())
		require.NoError(t, cache.Destroy())
		require.NoError(t, c.Commit())
		require.False(t, c.InTx())
		require.ErrorIs(t, c.Commit(), ErrNoTx)
		require.NoError(t, mock.ExpectationsWereMet())
	})
	t.Run("rollback", func(t *testing.T) {
		c, mock := mockConnection(t)
		mock.ExpectBegin()
		mock.ExpectRollback()
		require.NoError(t, c.Begin(context.Background(), nil))
		// The transaction holds one pool connection until it ends.
		assert.Equal(t, 1, c.Driver().DB().Stats().InUse)
		assert.Zero(t, c.Leases())
		require.NoError(t, c.Rollback())
		assert.Zero(t, c.Driver().DB().Stats().InUse)
		require.ErrorIs(t, c.Rollback(), ErrNoTx)
		require.NoError(t, mock.ExpectationsWereMet())
	})
	t.Run("close rolls back", func(t *testing.T) {
		var buf bytes.Buffer
		c, mock := mockConnection(t, WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))
		mock.ExpectBegin()
		mock.ExpectRollback()
		require.NoError(t, c.Begin(context.Background(), nil))
		require.NoError(t, c.Close())
		require.False(t, c.InTx())
		assert.Contains(t, buf.String(), "rolling back unfinished transaction")
		require.NoError(t, mock.ExpectationsWereMet())
	})
	t.Run("begin fails", func(t *testing.T) {
		c, mock := mockConnection(t)
		mock.ExpectBegin().WillReturnError(errors.New("too many connections"))
		err := c.Begin(context.Background(), nil)
		assert.True(t, IsConnectionError(err))
		assert.False(t, c.InTx())
	})
}

func TestConnectionOptions(t *testing.T) {
	var buf bytes.Buffer
	m := sql.NewMonitor()
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	c, mock := mockConnection(t, WithStats(m), WithLogger(logger))
	mock.ExpectExec("DELETE FROM t").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows([]string{"n"}))

	ctx := context.Background()
	_, err := c.Exec(ctx, "DELETE FROM t", []any{})
	require.NoError(t, err)
	_, cache, err := c.Query(ctx, "SELECT n FROM t", []any{})
	require.NoError(t, err)
	require.NoError(t, cache.Destroy())

	stats := m.QueryStats().Stats()
	assert.EqualValues(t, 1, stats.TotalExecs)
	assert.EqualValues(t, 1, stats.TotalQueries)
	assert.Contains(t, buf.String(), "DELETE FROM t")
	assert.Contains(t, buf.String(), "SELECT n FROM t")
}
