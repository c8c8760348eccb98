package predicate

import "strings"

// Operator is a match operator applied to a field.
type Operator int

// Match operators.
const (
	Equals Operator = iota
	NotEquals
	GreaterThan
	GreaterThanOrEqual
	LessThan
	LessThanOrEqual
)

var operators = [...]struct {
	name, key, keyword string
}{
	Equals:             {"Equals", "$eq", "="},
	NotEquals:          {"NotEquals", "$ne", "<>"},
	GreaterThan:        {"GreaterThan", "$gt", ">"},
	GreaterThanOrEqual: {"GreaterThanOrEqual", "$gte", ">="},
	LessThan:           {"LessThan", "$lt", "<"},
	LessThanOrEqual:    {"LessThanOrEqual", "$lte", "<="},
}

func (o Operator) valid() bool { return o >= Equals && o <= LessThanOrEqual }

// String returns the operator name.
func (o Operator) String() string {
	if !o.valid() {
		return "Operator(?)"
	}
	return operators[o].name
}

// Key returns the filter key selecting the operator, e.g. "$gt".
func (o Operator) Key() string {
	if !o.valid() {
		return ""
	}
	return operators[o].key
}

// Keyword returns the SQL keyword of the operator, e.g. ">".
func (o Operator) Keyword() string {
	if !o.valid() {
		return ""
	}
	return operators[o].keyword
}

// LookupOperator returns the operator selected by a filter key.
func LookupOperator(key string) (Operator, bool) {
	for i, op := range operators {
		if op.key == key {
			return Operator(i), true
		}
	}
	return 0, false
}

// Logic is the logical operator joining sibling clauses.
type Logic int

// Logical operators. None denotes a single, terminal clause.
const (
	None Logic = iota
	And
	Or
)

// String returns the logical operator name.
func (l Logic) String() string {
	switch l {
	case And:
		return "And"
	case Or:
		return "Or"
	default:
		return "None"
	}
}

// Keyword returns the SQL keyword joining clauses.
func (l Logic) Keyword() string {
	switch l {
	case And:
		return "AND"
	case Or:
		return "OR"
	default:
		return ""
	}
}

// Key returns the filter key of the group, e.g. "$or".
func (l Logic) Key() string {
	switch l {
	case And:
		return "$and"
	case Or:
		return "$or"
	default:
		return ""
	}
}

// LookupLogic returns the logical operator of a group key.
func LookupLogic(key string) (Logic, bool) {
	switch key {
	case "$and":
		return And, true
	case "$or":
		return Or, true
	}
	return None, false
}

// IsReserved reports whether key uses the reserved $ marker.
func IsReserved(key string) bool {
	return strings.HasPrefix(key, "$")
}

// checkKey rejects reserved keys that are neither operators nor groups.
func checkKey(key string) error {
	if !IsReserved(key) {
		return nil
	}
	if _, ok := LookupOperator(key); ok {
		return nil
	}
	if _, ok := LookupLogic(key); ok {
		return nil
	}
	return &UnsupportedOperatorError{Key: key}
}
