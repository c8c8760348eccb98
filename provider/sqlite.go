package provider

import (
	"errors"
	"net/url"
	"sort"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/symbolspace/Symbol-sub006/conn"
	"github.com/symbolspace/Symbol-sub006/dialect"
)

// SQLite returns a provider for SQLite files, backed by the pure Go
// modernc.org/sqlite driver. Options.Database is the file path, or
// ":memory:". In-memory databases live in a single native connection, so
// a command issued while a reader is still open blocks until the reader is
// closed or the command's context is done.
func SQLite() Provider {
	p := newPooled(dialect.SQLite, sqliteDSN)
	p.tune = func(o *conn.Options) {
		if isMemory(o.Database) {
			o.MaxOpenConns = 1
			o.MaxIdleConns = 1
			o.ConnMaxLifetime = 0
			o.ConnMaxIdleTime = 0
		}
	}
	return p
}

func isMemory(database string) bool {
	return database == ":memory:" || strings.HasPrefix(database, "file::memory:")
}

// sqliteDSN appends foreign key enforcement and Params as _pragma and
// driver parameters.
func sqliteDSN(o conn.Options) (string, error) {
	if o.Database == "" {
		return "", errors.New("sqlite: database path is required")
	}
	source := o.Database
	if !strings.HasPrefix(source, "file:") {
		source = "file:" + source
	}
	params := []string{"_pragma=foreign_keys(1)"}
	keys := make([]string, 0, len(o.Params))
	for k := range o.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		params = append(params, url.QueryEscape(k)+"="+url.QueryEscape(o.Params[k]))
	}
	sep := "?"
	if strings.Contains(source, "?") {
		sep = "&"
	}
	return source + sep + strings.Join(params, "&"), nil
}
