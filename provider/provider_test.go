package provider

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/symbolspace/Symbol-sub006/conn"
	"github.com/symbolspace/Symbol-sub006/dialect"
)

func TestDefaultRegistry(t *testing.T) {
	assert.Equal(t, []string{dialect.DuckDB, dialect.MySQL, dialect.Postgres, dialect.SQLite, dialect.SQLServer}, Default.Names())
	for _, name := range Default.Names() {
		p, err := Lookup(name)
		require.NoError(t, err)
		assert.Equal(t, name, p.Name())
		assert.Equal(t, name, p.Renderer().Name())
	}
	_, err := Lookup("oracle")
	require.Error(t, err)
	require.Error(t, Register(Postgres()))
}

type fakeProvider struct {
	name   string
	err    error
	closed bool
}

func (p *fakeProvider) Name() string               { return p.name }
func (p *fakeProvider) Renderer() dialect.Renderer { return nil }
func (p *fakeProvider) Open(context.Context, conn.Options, ...conn.Option) (*conn.Connection, error) {
	return nil, errors.New("not implemented")
}
func (p *fakeProvider) Close() error {
	p.closed = true
	return p.err
}

func TestRegistryClose(t *testing.T) {
	errClose := errors.New("close failed")
	a, b := &fakeProvider{name: "a"}, &fakeProvider{name: "b", err: errClose}
	r, err := NewRegistry(a, b)
	require.NoError(t, err)
	require.ErrorIs(t, r.Close(), errClose)
	assert.True(t, a.closed)
	assert.True(t, b.closed)

	_, err = NewRegistry(a, &fakeProvider{name: "a"})
	require.Error(t, err)
}

func TestDataSource(t *testing.T) {
	t.Run("postgres", func(t *testing.T) {
		dsn, err := postgresDSN(conn.Options{Host: "db", Port: 5433, Database: "app", Account: "u", Password: "secret"})
		require.NoError(t, err)
		for _, part := range []string{"host=db", "port=5433", "dbname=app", "user=u", "password=secret", "sslmode=disable"} {
			assert.Contains(t, dsn, part)
		}
		dsn, err = postgresDSN(conn.Options{Database: "app", Params: map[string]string{"sslmode": "require"}})
		require.NoError(t, err)
		assert.Contains(t, dsn, "host=localhost")
		assert.Contains(t, dsn, "sslmode=require")
	})
	t.Run("mysql", func(t *testing.T) {
		dsn, err := mysqlDSN(conn.Options{Host: "db", Port: 3307, Database: "app", Account: "u", Password: "p", Params: map[string]string{"charset": "utf8mb4"}})
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(dsn, "u:p@tcp(db:3307)/app?"), dsn)
		assert.Contains(t, dsn, "parseTime=true")
		assert.Contains(t, dsn, "charset=utf8mb4")
	})
	t.Run("sqlserver", func(t *testing.T) {
		dsn, err := sqlserverDSN(conn.Options{Host: "db", Database: "app", Account: "sa", Password: "p"})
		require.NoError(t, err)
		assert.Equal(t, "sqlserver://sa:p@db:1433?database=app", dsn)
	})
	t.Run("sqlite", func(t *testing.T) {
		dsn, err := sqliteDSN(conn.Options{Database: "/tmp/app.db", Params: map[string]string{"_txlock": "immediate"}})
		require.NoError(t, err)
		assert.Equal(t, "file:/tmp/app.db?_pragma=foreign_keys(1)&_txlock=immediate", dsn)
		_, err = sqliteDSN(conn.Options{})
		require.Error(t, err)
	})
	t.Run("duckdb", func(t *testing.T) {
		dsn, err := duckdbDSN(conn.Options{})
		require.NoError(t, err)
		assert.Empty(t, dsn)
		dsn, err = duckdbDSN(conn.Options{Database: "a.db", Params: map[string]string{"threads": "2"}})
		require.NoError(t, err)
		assert.Equal(t, "a.db?threads=2", dsn)
	})
}

func TestSQLiteOpen(t *testing.T) {
	p := SQLite()
	t.Cleanup(func() { p.Close() })
	o := conn.Options{Database: filepath.Join(t.TempDir(), "app.db"), MaxOpenConns: 4, ConnMaxIdleTime: time.Minute}

	ctx := context.Background()
	c1, err := p.Open(ctx, o)
	require.NoError(t, err)
	c2, err := p.Open(ctx, o)
	require.NoError(t, err)
	assert.Same(t, c1.Driver(), c2.Driver())
	assert.Equal(t, dialect.SQLite, c1.Dialect())

	_, err = c1.Exec(ctx, "CREATE TABLE t (id INTEGER PRIMARY KEY)", []any{})
	require.NoError(t, err)
	require.NoError(t, c1.Close())
	require.NoError(t, c2.Close())
	require.NoError(t, p.Close())

	_, err = SQLite().Open(ctx, conn.Options{})
	require.Error(t, err)
}

func TestSQLiteMemory(t *testing.T) {
	p := SQLite()
	t.Cleanup(func() { p.Close() })
	ctx := context.Background()
	c, err := p.Open(ctx, conn.Options{Database: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	_, err = c.Exec(ctx, "CREATE TABLE t (id INTEGER PRIMARY KEY)", []any{})
	require.NoError(t, err)
	_, err = c.Exec(ctx, "INSERT INTO t (id) VALUES (1), (2)", []any{})
	require.NoError(t, err)

	rows, cache, err := c.Query(ctx, "SELECT id FROM t", []any{})
	require.NoError(t, err)
	require.True(t, rows.Next())

	// The single connection is held by the open rows.
	wctx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	_, err = c.Exec(wctx, "DELETE FROM t", []any{})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, conn.IsConnectionError(err))

	require.NoError(t, cache.Destroy())
	res, err := c.Exec(ctx, "DELETE FROM t", []any{})
	require.NoError(t, err)
	n, err := res.RowsAffected()
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}
