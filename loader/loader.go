// Package loader batches lookups of rows by key.
//
// A Loader turns many single-key lookups into one IN query and memoizes
// the rows it read:
//
//	users := loader.New[int64](dc, "users", "id")
//	recs, errs := users.LoadMany(ctx, []int64{3, 1, 2})
//	// recs[i] is the row of key i, errs[i] is ErrNotFound when missing.
//
// Loaders are request scoped. Use WithLoaders and For to carry them in a
// context:
//
//	ctx = loader.WithLoaders(ctx, &Loaders{Users: loader.New[int64](dc, "users", "id")})
//	...
//	u, err := loader.For[*Loaders](ctx).Users.Load(ctx, 42)
package loader

import (
	"context"
	"errors"
	"fmt"
	"sync"

	symbol "github.com/symbolspace/Symbol-sub006"
	"github.com/symbolspace/Symbol-sub006/predicate"
)

// ErrNotFound is returned for a key with no matching row.
var ErrNotFound = errors.New("loader: row not found")

// Querier runs the batched queries. *symbol.DataContext implements it.
type Querier interface {
	FindAll(ctx context.Context, table string, filter any, opts ...symbol.QueryOption) (*symbol.Reader, error)
}

// KeyFunc extracts a key from a value.
type KeyFunc[K comparable, V any] func(V) K

// OrderByKeys reorders values to match the order of keys. Missing values
// are zero values with ErrNotFound at the same index.
func OrderByKeys[K comparable, V any](keys []K, values []V, keyFn KeyFunc[K, V]) ([]V, []error) {
	lookup := make(map[K]V, len(values))
	for _, v := range values {
		lookup[keyFn(v)] = v
	}
	result := make([]V, len(keys))
	errs := make([]error, len(keys))
	for i, key := range keys {
		if v, ok := lookup[key]; ok {
			result[i] = v
		} else {
			errs[i] = ErrNotFound
		}
	}
	return result, errs
}

// GroupByKey groups values by key, for one-to-many lookups.
func GroupByKey[K comparable, V any](values []V, keyFn KeyFunc[K, V]) map[K][]V {
	result := make(map[K][]V)
	for _, v := range values {
		key := keyFn(v)
		result[key] = append(result[key], v)
	}
	return result
}

// OrderGroupsByKeys returns the group of each key, nil when it has none.
func OrderGroupsByKeys[K comparable, V any](keys []K, groups map[K][]V) [][]V {
	result := make([][]V, len(keys))
	for i, key := range keys {
		result[i] = groups[key]
	}
	return result
}

// CachePrimer stores known values in a loader cache.
type CachePrimer[K comparable, V any] interface {
	Prime(key K, value V)
}

// PrimeMany primes multiple values.
func PrimeMany[K comparable, V any](cache CachePrimer[K, V], values []V, keyFn KeyFunc[K, V]) {
	for _, v := range values {
		cache.Prime(keyFn(v), v)
	}
}

// CacheClearer drops values from a loader cache.
type CacheClearer[K comparable] interface {
	Clear(key K)
}

// ClearMany clears multiple keys.
func ClearMany[K comparable](cache CacheClearer[K], keys []K) {
	for _, key := range keys {
		cache.Clear(key)
	}
}

// Find reads the rows whose column holds one of keys, in a single query.
// Rows are matched to keys by their printed value, so an int64 column
// matches int keys.
func Find[K comparable](ctx context.Context, q Querier, table, column string, keys []K, opts ...symbol.QueryOption) (map[string][]symbol.Record, error) {
	groups := make(map[string][]symbol.Record)
	keys = distinct(keys)
	if len(keys) == 0 {
		return groups, nil
	}
	rd, err := q.FindAll(ctx, table, predicate.Map(predicate.KV(column, keys)), opts...)
	if err != nil {
		return nil, err
	}
	for rec, err := range rd.All() {
		if err != nil {
			return nil, err
		}
		k := fmt.Sprint(rec.Value(column))
		groups[k] = append(groups[k], rec)
	}
	return groups, nil
}

// LoadGroups returns the rows of each key, for one-to-many lookups such
// as the posts of several users.
func LoadGroups[K comparable](ctx context.Context, q Querier, table, column string, keys []K, opts ...symbol.QueryOption) ([][]symbol.Record, error) {
	groups, err := Find(ctx, q, table, column, keys, opts...)
	if err != nil {
		return nil, err
	}
	return OrderGroupsByKeys(printed(keys), groups), nil
}

// Loader loads the rows of one table by a unique column and memoizes
// them. It serializes the queries it runs, so it may be shared by the
// goroutines of a request as long as they use the Querier only through it.
type Loader[K comparable] struct {
	q      Querier
	table  string
	column string
	opts   []symbol.QueryOption

	mu    sync.Mutex
	cache map[K]symbol.Record
}

// New returns a loader of table rows keyed by column.
func New[K comparable](q Querier, table, column string, opts ...symbol.QueryOption) *Loader[K] {
	return &Loader[K]{q: q, table: table, column: column, opts: opts, cache: make(map[K]symbol.Record)}
}

// Load returns the row of key.
func (l *Loader[K]) Load(ctx context.Context, key K) (symbol.Record, error) {
	recs, errs := l.LoadMany(ctx, []K{key})
	return recs[0], errs[0]
}

// LoadMany returns the rows of keys in order. Only keys missing from the
// cache are queried.
func (l *Loader[K]) LoadMany(ctx context.Context, keys []K) ([]symbol.Record, []error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var missing []K
	for _, k := range keys {
		if _, ok := l.cache[k]; !ok {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		groups, err := Find(ctx, l.q, l.table, l.column, missing, l.opts...)
		if err != nil {
			errs := make([]error, len(keys))
			for i := range errs {
				errs[i] = err
			}
			return make([]symbol.Record, len(keys)), errs
		}
		for _, k := range missing {
			if recs := groups[fmt.Sprint(k)]; len(recs) > 0 {
				l.cache[k] = recs[0]
			}
		}
	}
	recs := make([]symbol.Record, len(keys))
	errs := make([]error, len(keys))
	for i, k := range keys {
		if rec, ok := l.cache[k]; ok {
			recs[i] = rec
		} else {
			errs[i] = ErrNotFound
		}
	}
	return recs, errs
}

// Prime stores rec as the row of key.
func (l *Loader[K]) Prime(key K, rec symbol.Record) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache[key] = rec
}

// Clear drops the row of key, after it was updated or deleted.
func (l *Loader[K]) Clear(key K) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.cache, key)
}

type ctxKey struct{}

// WithLoaders returns a context carrying loaders.
func WithLoaders[T any](ctx context.Context, loaders T) context.Context {
	return context.WithValue(ctx, ctxKey{}, loaders)
}

// For returns the loaders carried by ctx, or the zero value.
func For[T any](ctx context.Context) T {
	v, _ := ctx.Value(ctxKey{}).(T)
	return v
}

func distinct[K comparable](keys []K) []K {
	seen := make(map[K]struct{}, len(keys))
	out := make([]K, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; !ok {
			seen[k] = struct{}{}
			out = append(out, k)
		}
	}
	return out
}

func printed[K comparable](keys []K) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = fmt.Sprint(k)
	}
	return out
}
