// Package symbol is a lightweight data access layer over relational
// databases. Filters and field sets are expressed as ordered predicate
// mappings, built natively with the predicate package or given as JSON
// text, and compiled into dialect SQL with positional parameters.
//
// A DataContext owns one connection and exposes Insert, Update, Delete,
// Find, FindAll and Count:
//
//	dc, err := symbol.Open(ctx, "sqlite", conn.Options{Database: "app.db"})
//	if err != nil {
//	    return err
//	}
//	defer dc.Close()
//
//	id, err := dc.Insert(ctx, "users", predicate.Map(
//	    predicate.KV("name", "a8m"),
//	    predicate.KV("meta", `{"tier": "gold"}`),
//	))
//
//	rd, err := dc.FindAll(ctx, "users", `{"meta": {"tier": "gold"}}`,
//	    symbol.OrderBy(symbol.Desc("id")), symbol.Limit(10))
//	if err != nil {
//	    return err
//	}
//	for rec, err := range rd.All() {
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Println(rec.Value("name"))
//	}
//
// String values holding JSON objects or arrays are parsed as nested
// filters or documents. Wrap them with predicate.Literal to bind them as
// plain text.
package symbol
