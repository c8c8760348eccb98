// Package compiler translates command descriptors into parameterized SQL.
//
// Compilation is a pure function of the descriptor and the dialect
// rendering table: the same input always yields the same statement and
// parameter list. Parameters appear in Args in the order their markers
// appear in the statement text.
package compiler

import (
	"fmt"

	"github.com/symbolspace/Symbol-sub006/dialect"
	"github.com/symbolspace/Symbol-sub006/predicate"
)

// Op is the kind of statement a descriptor compiles to.
type Op int

// Statement kinds.
const (
	Find Op = iota
	Insert
	Update
	Delete
	Count
)

// String returns the statement kind name.
func (o Op) String() string {
	switch o {
	case Find:
		return "find"
	case Insert:
		return "insert"
	case Update:
		return "update"
	case Delete:
		return "delete"
	case Count:
		return "count"
	default:
		return fmt.Sprintf("Op(%d)", int(o))
	}
}

// ParseOp returns the statement kind named s, as printed by Op.String.
func ParseOp(s string) (Op, error) {
	for o := Find; o <= Count; o++ {
		if o.String() == s {
			return o, nil
		}
	}
	return 0, fmt.Errorf("compiler: unknown op %q", s)
}

// Direction is the sort direction of an order-by field.
type Direction int

// Sort directions.
const (
	Ascending Direction = iota
	Descending
)

// Keyword returns the SQL keyword of the direction.
func (d Direction) Keyword() string {
	if d == Descending {
		return "desc"
	}
	return "asc"
}

// String implements fmt.Stringer.
func (d Direction) String() string {
	if d == Descending {
		return "Descending"
	}
	return "Ascending"
}

// Order is one order-by directive.
type Order struct {
	Field     string
	Direction Direction
}

// Asc returns an ascending order on field.
func Asc(field string) Order { return Order{Field: field} }

// Desc returns a descending order on field.
func Desc(field string) Order { return Order{Field: field, Direction: Descending} }

// DefaultIDColumn is the identity column used when a descriptor names none.
const DefaultIDColumn = "id"

// Descriptor describes one command. It is created per call and compiled once.
type Descriptor struct {
	Table    string
	Op       Op
	Where    *predicate.Mapping // nil or empty matches every row
	Fields   *predicate.Mapping // column values of Insert and Update
	Select   []string           // selected columns, all when empty
	OrderBy  []Order
	GroupBy  []string
	Having   *predicate.Mapping
	Offset   int
	Limit    int
	IDColumn string
}

// Query is a compiled statement.
type Query struct {
	SQL      string
	Args     []any
	Identity dialect.IdentityMode // Insert only
}

// String implements fmt.Stringer.
func (q *Query) String() string {
	return fmt.Sprintf("%s %v", q.SQL, q.Args)
}
