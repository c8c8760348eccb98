package predicate

// Pair is one ordered field of a filter or field set.
type Pair struct {
	Key   string
	Value any
}

// KV returns a Pair.
func KV(key string, v any) Pair {
	return Pair{Key: key, Value: v}
}

// Pairs is an ordered field list built in code.
type Pairs []Pair

// Pairs implements Pairer.
func (p Pairs) Pairs() []Pair { return p }

// Map returns an ordered mapping source.
//
//	predicate.Map(
//	    predicate.KV("name", "x"),
//	    predicate.KV("id", predicate.Op(predicate.GreaterThan, 200000)),
//	)
func Map(pairs ...Pair) Pairs {
	return Pairs(pairs)
}

// Op returns the operator fragment of a field, e.g. {"$gt": v}.
func Op(op Operator, v any) Pairs {
	return Pairs{{Key: op.Key(), Value: v}}
}

// AnyOf returns a $or group over the given filters.
func AnyOf(filters ...any) Pair {
	return Pair{Key: Or.Key(), Value: filters}
}

// AllOf returns a $and group over the given filters.
func AllOf(filters ...any) Pair {
	return Pair{Key: And.Key(), Value: filters}
}

// Literal pins s as a string value, bypassing JSON expansion.
func Literal(s string) String {
	return String(s)
}
