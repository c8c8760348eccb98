// Package sql adapts database/sql to the dialect interfaces and holds the
// per-dialect rendering tables.
//
// # Drivers and Sessions
//
// Driver wraps a *sql.DB pool. Session pins one native connection drawn
// from the pool, so that a caller can run commands and transactions on a
// connection it owns until Close returns it:
//
//	drv, err := sql.Open(dialect.Postgres, dsn)
//	if err != nil {
//	    return err
//	}
//	s, err := drv.Session(ctx)
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//
//	var rows sql.Rows
//	if err := s.Query(ctx, "SELECT id FROM users WHERE name = $1", []any{"a8m"}, &rows); err != nil {
//	    return err
//	}
//	defer rows.Close()
//
// # Rendering Tables
//
// Renderer returns the rendering table of a dialect: parameter markers,
// identifier quoting, paging, JSON extraction and identity clauses.
//
//	r, _ := sql.Renderer(dialect.SQLServer)
//	r.Placeholder(1)          // @p1
//	r.Bind([]any{"x", 1})     // [sql.Named("p0", "x") sql.Named("p1", 1)]
//
// # Statistics and Logging
//
// Monitor counts statements and reports slow ones, Debug logs every
// statement at debug level. Both wrap any dialect.ExecQuerier:
//
//	m := sql.NewMonitor(sql.WithSlowQueryLog(logger))
//	ex := sql.Debug(m.Wrap(drv), logger)
//
// # Constraint Errors
//
// ClassifyConstraint tells unique, foreign key and check violations apart
// across lib/pq, go-sql-driver/mysql, go-mssqldb and the SQLite drivers.
package sql
