package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	symbol "github.com/symbolspace/Symbol-sub006"
	"github.com/symbolspace/Symbol-sub006/conn"
	"github.com/symbolspace/Symbol-sub006/dialect"
	"github.com/symbolspace/Symbol-sub006/predicate"
	"github.com/symbolspace/Symbol-sub006/provider"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	color.NoColor = true
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCompile(t *testing.T) {
	t.Run("delete", func(t *testing.T) {
		out, err := run(t, "compile", "delete", "test", `{"name": "x", "id": {"$gt": 200000}}`, "--dialect", dialect.SQLServer)
		require.NoError(t, err)
		assert.Equal(t, "DELETE FROM test WHERE name = @p0 AND id > @p1\n[\"x\",200000]\n", out)
	})
	t.Run("find", func(t *testing.T) {
		out, err := run(t, "compile", "find", "users", `{"age": {"$gte": 18}}`,
			"--dialect", dialect.Postgres, "--select", "id,name", "--order", "-age,name", "--limit", "5")
		require.NoError(t, err)
		assert.Equal(t, "SELECT id, name FROM users WHERE age >= $1 ORDER BY age desc, name asc LIMIT 5\n[18]\n", out)
	})
	t.Run("update", func(t *testing.T) {
		out, err := run(t, "compile", "update", "users", `{"id": 1}`, "-d", dialect.MySQL, "--fields", `{"name": "b"}`)
		require.NoError(t, err)
		assert.Equal(t, "UPDATE users SET name = ? WHERE id = ?\n[\"b\",1]\n", out)
	})
	t.Run("filter file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "filter.json")
		require.NoError(t, writeFile(path, `{"type": [1, 2]}`))
		out, err := run(t, "compile", "count", "items", "-f", path, "-d", dialect.SQLite)
		require.NoError(t, err)
		assert.Equal(t, "SELECT COUNT(*) FROM items WHERE type IN (?, ?)\n[1,2]\n", out)
	})
	t.Run("errors", func(t *testing.T) {
		_, err := run(t, "compile", "upsert", "users")
		require.Error(t, err)
		_, err = run(t, "compile", "find", "users", `{"age": {"$like": 1}}`)
		assert.True(t, symbol.IsUnsupportedOperator(err))
		_, err = run(t, "compile", "find", "users", "-d", "oracle")
		require.Error(t, err)
		_, err = run(t, "compile", "find", "users", "--watch")
		require.Error(t, err)
	})
}

func TestQuery(t *testing.T) {
	t.Cleanup(func() { provider.Close() })
	ctx := context.Background()
	db := filepath.Join(t.TempDir(), "app.db")
	dc, err := symbol.Open(ctx, dialect.SQLite, conn.Options{Database: db})
	require.NoError(t, err)
	_, err = dc.Conn().Exec(ctx, "CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT, age INTEGER)", nil)
	require.NoError(t, err)
	for i, name := range []string{"ann", "bob", "cid"} {
		_, err := dc.Insert(ctx, "users", predicate.Map(predicate.KV("name", name), predicate.KV("age", 20+i)))
		require.NoError(t, err)
	}
	require.NoError(t, dc.Close())

	base := []string{"--config", filepath.Join(t.TempDir(), "missing.yaml"), "--env-file", "", "--provider", dialect.SQLite, "--database", db}

	out, err := run(t, append([]string{"find", "users", `{"age": {"$gt": 20}}`, "--order", "-age", "--select", "name"}, base...)...)
	require.NoError(t, err)
	assert.Equal(t, []string{`{"name":"cid"}`, `{"name":"bob"}`}, strings.Split(strings.TrimSpace(out), "\n"))

	out, err = run(t, append([]string{"count", "users"}, base...)...)
	require.NoError(t, err)
	assert.Equal(t, "3\n", out)

	_, err = run(t, "count", "users", "--config", filepath.Join(t.TempDir(), "missing.yaml"), "--env-file", "")
	require.Error(t, err)
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}
