// Package predicate implements the document-style filter model.
//
// A filter is a tree of Nodes. Mappings preserve the order in which their
// fields were encountered so that compiled SQL and parameter lists are
// deterministic. Filters are built from native Go values or from JSON text:
//
//	// Native, ordered builder.
//	f := predicate.Map(
//	    predicate.KV("name", "x"),
//	    predicate.KV("id", predicate.Op(predicate.GreaterThan, 200000)),
//	)
//
//	// The same filter with an embedded JSON fragment.
//	f := predicate.Map(
//	    predicate.KV("name", "x"),
//	    predicate.KV("id", `{"$gt": 200000}`),
//	)
//
//	// Or entirely as JSON text.
//	f := `{"name": "x", "id": {"$gt": 200000}}`
//
// # Grammar
//
// Field keys name columns. Inside the value mapping of a field, the keys
// $eq, $ne, $gt, $gte, $lt and $lte select a match operator. The keys $and
// and $or introduce a parenthesized group whose value is a mapping or an
// array of mappings. Any other key starting with $ is rejected with an
// UnsupportedOperatorError.
//
// A string value whose trimmed text starts with { or [ and parses as JSON
// is expanded into a nested node. Use Literal to keep such a string as is.
package predicate
