package compiler

import (
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/symbolspace/Symbol-sub006/dialect"
	"github.com/symbolspace/Symbol-sub006/dialect/sql"
	"github.com/symbolspace/Symbol-sub006/predicate"
)

func renderer(t *testing.T, name string) dialect.Renderer {
	t.Helper()
	r, err := sql.Renderer(name)
	require.NoError(t, err)
	return r
}

func filter(t *testing.T, source any) *predicate.Mapping {
	t.Helper()
	m, err := predicate.Filter(source)
	require.NoError(t, err)
	return m
}

func TestCompileDelete(t *testing.T) {
	q, err := Compile(renderer(t, dialect.SQLServer), &Descriptor{
		Table: "test",
		Op:    Delete,
		Where: filter(t, predicate.Map(
			predicate.KV("name", "x"),
			predicate.KV("id", predicate.Op(predicate.GreaterThan, 200000)),
		)),
	})
	require.NoError(t, err)
	assert.Equal(t, "DELETE FROM test WHERE name = @p0 AND id > @p1", q.SQL)
	assert.Equal(t, []any{"x", int64(200000)}, q.Args)
}

func TestCompileEquivalentSources(t *testing.T) {
	sources := []any{
		predicate.Map(
			predicate.KV("name", "x"),
			predicate.KV("id", predicate.Op(predicate.GreaterThan, 200000)),
		),
		predicate.Map(
			predicate.KV("name", "x"),
			predicate.KV("id", `{"$gt": 200000}`),
		),
		`{"name": "x", "id": {"$gt": 200000}}`,
		struct {
			Name string `db:"name"`
			ID   string `db:"id"`
		}{"x", `{"$gt": 200000}`},
	}
	r := renderer(t, dialect.Postgres)
	var first *Query
	for i, src := range sources {
		q, err := Compile(r, &Descriptor{Table: "test", Op: Delete, Where: filter(t, src)})
		require.NoError(t, err)
		if i == 0 {
			first = q
			continue
		}
		assert.Equal(t, first.SQL, q.SQL)
		assert.Equal(t, first.Args, q.Args)
	}
}

func TestCompileMapOrder(t *testing.T) {
	// Go maps compile in sorted key order.
	q, err := Compile(renderer(t, dialect.SQLServer), &Descriptor{
		Table: "test",
		Op:    Delete,
		Where: filter(t, map[string]any{"name": "x", "id": map[string]any{"$gt": 200000}}),
	})
	require.NoError(t, err)
	assert.Equal(t, "DELETE FROM test WHERE id > @p0 AND name = @p1", q.SQL)
	assert.Equal(t, []any{int64(200000), "x"}, q.Args)
}

func TestCompileIdempotent(t *testing.T) {
	d := &Descriptor{
		Table:   "users",
		Where:   filter(t, `{"$or": [{"a": 1}, {"b": {"$lt": 2}}], "c": [1, 2, 3]}`),
		OrderBy: []Order{Desc("a")},
		Limit:   3,
	}
	r := renderer(t, dialect.MySQL)
	q1, err := Compile(r, d)
	require.NoError(t, err)
	q2, err := Compile(r, d)
	require.NoError(t, err)
	assert.Equal(t, q1, q2)
}

func TestCompileParameterOrder(t *testing.T) {
	q, err := Compile(renderer(t, dialect.Postgres), &Descriptor{
		Table:  "t",
		Op:     Update,
		Fields: filter(t, predicate.Map(predicate.KV("a", "A"), predicate.KV("b", "B"))),
		Where: filter(t, predicate.Map(
			predicate.KV("c", 1),
			predicate.AnyOf(
				predicate.Map(predicate.KV("d", 2), predicate.KV("e", 3)),
				predicate.Map(predicate.AllOf(predicate.Map(predicate.KV("f", 4)), predicate.Map(predicate.KV("g", 5)))),
			),
			predicate.KV("h", 6),
		)),
	})
	require.NoError(t, err)
	assert.Equal(t, "UPDATE t SET a = $1, b = $2 WHERE c = $3 AND ((d = $4 AND e = $5) OR (f = $6 AND g = $7)) AND h = $8", q.SQL)
	assert.Equal(t, []any{"A", "B", int64(1), int64(2), int64(3), int64(4), int64(5), int64(6)}, q.Args)
}

func TestCompileWhere(t *testing.T) {
	tests := []struct {
		name   string
		filter string
		sql    string
		args   []any
	}{
		{"empty", `{}`, "SELECT COUNT(*) FROM t", nil},
		{"eq", `{"a": "b"}`, "SELECT COUNT(*) FROM t WHERE a = ?", []any{"b"}},
		{"in", `{"a": [1, 2]}`, "SELECT COUNT(*) FROM t WHERE a IN (?, ?)", []any{int64(1), int64(2)}},
		{"not in", `{"a": {"$ne": ["x"]}}`, "SELECT COUNT(*) FROM t WHERE a NOT IN (?)", []any{"x"}},
		{"empty in", `{"a": []}`, "SELECT COUNT(*) FROM t WHERE 1 = 0", nil},
		{"empty not in", `{"a": {"$ne": []}}`, "SELECT COUNT(*) FROM t WHERE 1 = 1", nil},
		{"null", `{"a": null}`, "SELECT COUNT(*) FROM t WHERE a IS NULL", nil},
		{"not null", `{"a": {"$ne": null}}`, "SELECT COUNT(*) FROM t WHERE a IS NOT NULL", nil},
		{"range", `{"a": {"$gte": 1, "$lte": 9}}`, "SELECT COUNT(*) FROM t WHERE a >= ? AND a <= ?", []any{int64(1), int64(9)}},
		{"or range", `{"$or": {"a": {"$gt": 1, "$lt": 9}, "b": true}}`, "SELECT COUNT(*) FROM t WHERE ((a > ? AND a < ?) OR b = ?)", []any{int64(1), int64(9), true}},
		{"single group", `{"$or": [{"a": 1}]}`, "SELECT COUNT(*) FROM t WHERE a = ?", []any{int64(1)}},
		{"json path", `{"data": {"a": {"b": 1}}}`, "SELECT COUNT(*) FROM t WHERE json_extract(data, '$.a.b') = ?", []any{int64(1)}},
		{"reserved", `{"order": 1}`, `SELECT COUNT(*) FROM t WHERE "order" = ?`, []any{int64(1)}},
		{"float", `{"a": {"$lt": 1.5}}`, "SELECT COUNT(*) FROM t WHERE a < ?", []any{1.5}},
	}
	r := renderer(t, dialect.SQLite)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := Compile(r, &Descriptor{Table: "t", Op: Count, Where: filter(t, tt.filter)})
			require.NoError(t, err)
			assert.Equal(t, tt.sql, q.SQL)
			assert.Equal(t, tt.args, q.Args)
		})
	}
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name string
		d    *Descriptor
	}{
		{"empty table", &Descriptor{}},
		{"malformed table", &Descriptor{Table: "t; DROP TABLE x"}},
		{"top-level operator", &Descriptor{Table: "t", Where: filter(t, predicate.Map(predicate.KV("$gt", 1)))}},
		{"mixed keys", &Descriptor{Table: "t", Where: filter(t, `{"a": {"$gt": 1, "b": 2}}`)}},
		{"array operator", &Descriptor{Table: "t", Where: filter(t, `{"a": {"$gt": [1, 2]}}`)}},
		{"null operator", &Descriptor{Table: "t", Where: filter(t, `{"a": {"$lt": null}}`)}},
		{"nested array", &Descriptor{Table: "t", Where: filter(t, `{"a": [[1]]}`)}},
		{"empty group", &Descriptor{Table: "t", Where: filter(t, `{"$or": []}`)}},
		{"group of scalars", &Descriptor{Table: "t", Where: filter(t, `{"$or": [1, 2]}`)}},
		{"group in field", &Descriptor{Table: "t", Where: filter(t, `{"a": {"$or": {"b": 1}}}`)}},
		{"empty value", &Descriptor{Table: "t", Where: filter(t, `{"a": {}}`)}},
		{"malformed field", &Descriptor{Table: "t", Where: filter(t, `{"a b": 1}`)}},
		{"malformed path", &Descriptor{Table: "t", Where: filter(t, `{"a": {"b'c": 1}}`)}},
		{"empty update", &Descriptor{Table: "t", Op: Update}},
		{"duplicate group by", &Descriptor{Table: "t", GroupBy: []string{"a", "a"}}},
		{"empty group by", &Descriptor{Table: "t", GroupBy: []string{""}}},
		{"empty order by", &Descriptor{Table: "t", OrderBy: []Order{Asc("")}}},
		{"negative limit", &Descriptor{Table: "t", Limit: -1}},
		{"count with limit", &Descriptor{Table: "t", Op: Count, Limit: 1}},
		{"count with order", &Descriptor{Table: "t", Op: Count, OrderBy: []Order{Desc("a")}}},
		{"count with having", &Descriptor{Table: "t", Op: Count, Having: filter(t, `{"count(*)": 1}`)}},
		{"delete with select", &Descriptor{Table: "t", Op: Delete, Select: []string{"a"}}},
		{"update with offset", &Descriptor{Table: "t", Op: Update, Fields: filter(t, `{"a": 1}`), Offset: 2}},
	}
	r := renderer(t, dialect.Postgres)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := Compile(r, tt.d)
			require.Error(t, err)
			require.Nil(t, q)
			assert.True(t, IsCompileError(err), err)
		})
	}
	t.Run("unsupported operator", func(t *testing.T) {
		m := predicate.NewMapping()
		m.Set("$like", predicate.String("x"))
		_, err := Compile(r, &Descriptor{Table: "t", Where: m})
		var uerr *predicate.UnsupportedOperatorError
		require.ErrorAs(t, err, &uerr)
		assert.Equal(t, "$like", uerr.Key)
		assert.True(t, IsCompileError(err))
	})
}

func TestCompileFind(t *testing.T) {
	tests := []struct {
		name string
		d    *Descriptor
		sql  string
		args []any
	}{
		{
			name: "all",
			d:    &Descriptor{Table: "test"},
			sql:  "SELECT * FROM test",
		},
		{
			name: "paging",
			d:    &Descriptor{Table: "test", OrderBy: []Order{Desc("type")}, Offset: 3, Limit: 8},
			sql:  "SELECT * FROM test ORDER BY type desc LIMIT 8 OFFSET 3",
		},
		{
			name: "offset only",
			d:    &Descriptor{Table: "test", Offset: 3},
			sql:  "SELECT * FROM test LIMIT -1 OFFSET 3",
		},
		{
			name: "group by having",
			d: &Descriptor{
				Table:   "test",
				Select:  []string{"type", "count(*)"},
				Where:   filter(t, `{"name": {"$ne": "x"}}`),
				GroupBy: []string{"type"},
				Having:  filter(t, `{"count(*)": {"$gt": 1}}`),
				OrderBy: []Order{Asc("type")},
			},
			sql:  "SELECT type, count(*) FROM test WHERE name <> ? GROUP BY type HAVING count(*) > ? ORDER BY type asc",
			args: []any{"x", int64(1)},
		},
		{
			name: "having without group by",
			d:    &Descriptor{Table: "test", Select: []string{"sum(n)"}, Having: filter(t, `{"sum(n)": {"$lt": 10}}`)},
			sql:  "SELECT sum(n) FROM test HAVING sum(n) < ?",
			args: []any{int64(10)},
		},
	}
	r := renderer(t, dialect.SQLite)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := Compile(r, tt.d)
			require.NoError(t, err)
			assert.Equal(t, tt.sql, q.SQL)
			assert.Equal(t, tt.args, q.Args)
		})
	}
}

func TestCompilePagingDialects(t *testing.T) {
	tests := []struct {
		dialect string
		d       *Descriptor
		sql     string
	}{
		{dialect.SQLServer, &Descriptor{Table: "t", Limit: 1}, "SELECT TOP 1 * FROM t"},
		{dialect.SQLServer, &Descriptor{Table: "t", Offset: 2}, "SELECT * FROM t ORDER BY (SELECT NULL) OFFSET 2 ROWS"},
		{dialect.Postgres, &Descriptor{Table: "t", Limit: 1}, "SELECT * FROM t LIMIT 1"},
		{dialect.MySQL, &Descriptor{Table: "t", Offset: 2}, "SELECT * FROM t LIMIT 18446744073709551615 OFFSET 2"},
		{dialect.DuckDB, &Descriptor{Table: "t", Offset: 2, Limit: 4}, "SELECT * FROM t LIMIT 4 OFFSET 2"},
	}
	for _, tt := range tests {
		t.Run(tt.dialect, func(t *testing.T) {
			q, err := Compile(renderer(t, tt.dialect), tt.d)
			require.NoError(t, err)
			assert.Equal(t, tt.sql, q.SQL)
		})
	}
}

func TestCompileInsert(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		for name, want := range map[string]string{
			dialect.Postgres:  "INSERT INTO t DEFAULT VALUES RETURNING id",
			dialect.MySQL:     "INSERT INTO t () VALUES ()",
			dialect.SQLite:    "INSERT INTO t DEFAULT VALUES",
			dialect.SQLServer: "INSERT INTO t OUTPUT INSERTED.id DEFAULT VALUES",
		} {
			q, err := Compile(renderer(t, name), &Descriptor{Table: "t", Op: Insert})
			require.NoError(t, err)
			assert.Equal(t, want, q.SQL, name)
			assert.Empty(t, q.Args)
		}
	})
	t.Run("identity column", func(t *testing.T) {
		q, err := Compile(renderer(t, dialect.Postgres), &Descriptor{
			Table:    "t",
			Op:       Insert,
			Fields:   filter(t, `{"a": null}`),
			IDColumn: "key",
		})
		require.NoError(t, err)
		assert.Equal(t, `INSERT INTO t (a) VALUES ($1) RETURNING "key"`, q.SQL)
		assert.Equal(t, []any{nil}, q.Args)
		assert.Equal(t, dialect.IdentityReturning, q.Identity)
	})
}

func TestCompileGolden(t *testing.T) {
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	find := &Descriptor{
		Table:   "users",
		Select:  []string{"id", "name"},
		Where:   filter(t, `{"status": {"$ne": [1, 2]}, "$or": [{"name": "a8m"}, {"age": {"$gte": 18, "$lt": 65}}], "meta": {"tier": "gold"}}`),
		OrderBy: []Order{Desc("age"), Asc("name")},
		Offset:  10,
		Limit:   5,
	}
	insert := &Descriptor{
		Table: "users",
		Op:    Insert,
		Fields: filter(t, predicate.Map(
			predicate.KV("name", "a8m"),
			predicate.KV("profile", `{"tags": ["go", "sql"], "age": 30}`),
		)),
	}
	for _, name := range sql.Dialects() {
		r := renderer(t, name)
		for op, d := range map[string]*Descriptor{"find": find, "insert": insert} {
			t.Run(op+"_"+name, func(t *testing.T) {
				q, err := Compile(r, d)
				require.NoError(t, err)
				g.Assert(t, op+"_"+name, []byte(fmt.Sprintf("%s\n%v\n", q.SQL, q.Args)))
			})
		}
	}
}

func TestParseOp(t *testing.T) {
	for _, op := range []Op{Find, Insert, Update, Delete, Count} {
		got, err := ParseOp(op.String())
		require.NoError(t, err)
		assert.Equal(t, op, got)
	}
	_, err := ParseOp("upsert")
	require.Error(t, err)
}
