package loader

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	symbol "github.com/symbolspace/Symbol-sub006"
	"github.com/symbolspace/Symbol-sub006/conn"
	"github.com/symbolspace/Symbol-sub006/predicate"
	"github.com/symbolspace/Symbol-sub006/provider"
)

type user struct {
	ID   int
	Name string
}

func TestOrderByKeys(t *testing.T) {
	t.Parallel()
	keyFn := func(u *user) int { return u.ID }

	t.Run("all keys found", func(t *testing.T) {
		t.Parallel()
		result, errs := OrderByKeys([]int{1, 2, 3}, []*user{{3, "c"}, {1, "a"}, {2, "b"}}, keyFn)
		require.Len(t, result, 3)
		assert.Equal(t, "a", result[0].Name)
		assert.Equal(t, "b", result[1].Name)
		assert.Equal(t, "c", result[2].Name)
		for _, err := range errs {
			assert.NoError(t, err)
		}
	})

	t.Run("some keys missing", func(t *testing.T) {
		t.Parallel()
		result, errs := OrderByKeys([]int{1, 2}, []*user{{1, "a"}}, keyFn)
		require.Len(t, result, 2)
		assert.Nil(t, result[1])
		assert.NoError(t, errs[0])
		assert.ErrorIs(t, errs[1], ErrNotFound)
	})
}

func TestGroupByKey(t *testing.T) {
	t.Parallel()
	groups := GroupByKey([]*user{{1, "a"}, {2, "b"}, {1, "c"}}, func(u *user) int { return u.ID })
	ordered := OrderGroupsByKeys([]int{2, 3, 1}, groups)
	require.Len(t, ordered, 3)
	assert.Len(t, ordered[0], 1)
	assert.Nil(t, ordered[1])
	assert.Len(t, ordered[2], 2)
}

type countingQuerier struct {
	Querier
	mu      sync.Mutex
	queries int
}

func (q *countingQuerier) FindAll(ctx context.Context, table string, filter any, opts ...symbol.QueryOption) (*symbol.Reader, error) {
	q.mu.Lock()
	q.queries++
	q.mu.Unlock()
	return q.Querier.FindAll(ctx, table, filter, opts...)
}

func open(t *testing.T) *symbol.DataContext {
	t.Helper()
	ctx := context.Background()
	p := provider.SQLite()
	c, err := p.Open(ctx, conn.Options{Database: filepath.Join(t.TempDir(), "loader.db")})
	require.NoError(t, err)
	dc, err := symbol.New(c)
	require.NoError(t, err)
	t.Cleanup(func() {
		dc.Close()
		p.Close()
	})
	for _, stmt := range []string{
		"CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT)",
		"CREATE TABLE posts (id INTEGER PRIMARY KEY, user_id INTEGER, title TEXT)",
	} {
		_, err := c.Exec(ctx, stmt, nil)
		require.NoError(t, err)
	}
	for _, name := range []string{"a", "b", "c"} {
		_, err := dc.Insert(ctx, "users", predicate.Map(predicate.KV("name", name)))
		require.NoError(t, err)
	}
	for _, post := range []struct {
		UserID int    `db:"user_id"`
		Title  string `db:"title"`
	}{{1, "x"}, {3, "y"}, {1, "z"}} {
		_, err := dc.Insert(ctx, "posts", post)
		require.NoError(t, err)
	}
	return dc
}

func TestLoader(t *testing.T) {
	ctx := context.Background()
	q := &countingQuerier{Querier: open(t)}
	users := New[int](q, "users", "id")

	recs, errs := users.LoadMany(ctx, []int{3, 9, 1, 3})
	require.Len(t, recs, 4)
	assert.Equal(t, "c", recs[0].Value("name"))
	assert.Nil(t, recs[1])
	assert.ErrorIs(t, errs[1], ErrNotFound)
	assert.Equal(t, "a", recs[2].Value("name"))
	assert.Equal(t, "c", recs[3].Value("name"))
	assert.Equal(t, 1, q.queries)

	// Cached keys are not queried again.
	rec, err := users.Load(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "a", rec.Value("name"))
	assert.Equal(t, 1, q.queries)

	users.Clear(1)
	_, err = users.Load(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, q.queries)

	PrimeMany[int, symbol.Record](users, []symbol.Record{{{Name: "id", Value: int64(42)}}}, func(r symbol.Record) int {
		return int(r.Value("id").(int64))
	})
	rec, err = users.Load(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(42), rec.Value("id"))
	ClearMany[int](users, []int{42})
	_, err = users.Load(ctx, 42)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLoaderConcurrent(t *testing.T) {
	ctx := WithLoaders(context.Background(), New[int64](open(t), "users", "id"))
	var g errgroup.Group
	for i := range 12 {
		g.Go(func() error {
			rec, err := For[*Loader[int64]](ctx).Load(ctx, int64(i%3+1))
			if err != nil {
				return err
			}
			if rec.Value("id") != int64(i%3+1) {
				return errors.New("unexpected row")
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.Nil(t, For[*Loader[string]](context.Background()))
}

func TestLoadGroups(t *testing.T) {
	ctx := context.Background()
	dc := open(t)
	groups, err := LoadGroups(ctx, dc, "posts", "user_id", []int{1, 2, 3}, symbol.OrderBy(symbol.Asc("id")))
	require.NoError(t, err)
	require.Len(t, groups, 3)
	require.Len(t, groups[0], 2)
	assert.Equal(t, "x", groups[0][0].Value("title"))
	assert.Equal(t, "z", groups[0][1].Value("title"))
	assert.Empty(t, groups[1])
	assert.Equal(t, "y", groups[2][0].Value("title"))

	groups, err = LoadGroups[int](ctx, dc, "posts", "user_id", nil)
	require.NoError(t, err)
	assert.Empty(t, groups)
}
