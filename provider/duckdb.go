package provider

import (
	"net/url"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/symbolspace/Symbol-sub006/conn"
	"github.com/symbolspace/Symbol-sub006/dialect"
)

// DuckDB returns a provider for DuckDB, backed by duckdb-go. An empty
// Options.Database opens an in-memory database shared by the pool.
func DuckDB() Provider {
	return newPooled(dialect.DuckDB, duckdbDSN)
}

func duckdbDSN(o conn.Options) (string, error) {
	if len(o.Params) == 0 {
		return o.Database, nil
	}
	q := url.Values{}
	for k, v := range o.Params {
		q.Set(k, v)
	}
	return o.Database + "?" + q.Encode(), nil
}
