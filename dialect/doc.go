// Package dialect defines the backend abstraction shared by the compiler,
// the connection layer and the providers.
//
// # Supported Dialects
//
//   - Postgres: PostgreSQL
//   - MySQL: MySQL/MariaDB
//   - SQLite: SQLite (modernc.org/sqlite)
//   - SQLServer: Microsoft SQL Server
//   - DuckDB: DuckDB
//
// # ExecQuerier Interface
//
// ExecQuerier is implemented by pooled drivers, dedicated sessions and
// transactions alike:
//
//	type ExecQuerier interface {
//	    Exec(ctx context.Context, query string, args, v any) error
//	    Query(ctx context.Context, query string, args, v any) error
//	}
//
// # Renderer
//
// A Renderer is the per-dialect rendering table. The query compiler decides
// clause order and semantics; the Renderer only spells dialect specific
// fragments: parameter markers, identifier quoting, paging keywords, JSON
// extraction and the identity clause of an INSERT.
//
//	r, _ := sql.Renderer(dialect.SQLServer)
//	r.Placeholder(0)                          // @p0
//	r.Paging(dialect.Paging{Offset: 3, Limit: 8, Ordered: true})
//	// "", "OFFSET 3 ROWS FETCH NEXT 8 ROWS ONLY"
package dialect
