package predicate

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Kind tags the variant of a Node.
type Kind int

// Node kinds.
const (
	KindNull Kind = iota
	KindArray
	KindMapping
	KindObject
	KindString
	KindBool
	KindNumber
	KindDateTime
	KindTimeSpan
	KindGuid
)

var kindNames = [...]string{
	KindNull:     "null",
	KindArray:    "array",
	KindMapping:  "mapping",
	KindObject:   "object",
	KindString:   "string",
	KindBool:     "bool",
	KindNumber:   "number",
	KindDateTime: "datetime",
	KindTimeSpan: "timespan",
	KindGuid:     "guid",
}

// String returns the kind name.
func (k Kind) String() string {
	if k < KindNull || k > KindGuid {
		return "unknown"
	}
	return kindNames[k]
}

// Node is one parsed fragment of a filter. The set of implementations is closed.
type Node interface {
	Kind() Kind
	node()
}

type (
	// Null is the absent value.
	Null struct{}
	// Array holds multiple values, used for IN matches.
	Array []Node
	// Object is an opaque value bound to the driver as is.
	Object struct{ Value any }
	// String is a text value.
	String string
	// Bool is a boolean value.
	Bool bool
	// DateTime is a point in time.
	DateTime time.Time
	// TimeSpan is a duration.
	TimeSpan time.Duration
	// Guid is a UUID value.
	Guid uuid.UUID
)

// Number is a numeric value backed by int64, uint64, float64 or decimal.Decimal.
type Number struct{ v any }

// Int returns an integer Number.
func Int(i int64) Number { return Number{i} }

// Uint returns an unsigned Number. Values fitting in int64 are stored as int64
// so that equal numbers bind identically regardless of their source.
func Uint(u uint64) Number {
	if u <= 1<<63-1 {
		return Number{int64(u)}
	}
	return Number{u}
}

// Float returns a floating point Number.
func Float(f float64) Number { return Number{f} }

// Decimal returns an arbitrary precision Number.
func Decimal(d decimal.Decimal) Number { return Number{d} }

// Value returns the underlying numeric value.
func (n Number) Value() any {
	if n.v == nil {
		return int64(0)
	}
	return n.v
}

// MarshalJSON implements json.Marshaler.
func (n Number) MarshalJSON() ([]byte, error) { return json.Marshal(n.Value()) }

// MarshalJSON implements json.Marshaler.
func (Null) MarshalJSON() ([]byte, error) { return []byte("null"), nil }

// MarshalJSON implements json.Marshaler.
func (o Object) MarshalJSON() ([]byte, error) { return json.Marshal(o.Value) }

// MarshalJSON implements json.Marshaler.
func (d DateTime) MarshalJSON() ([]byte, error) { return time.Time(d).MarshalJSON() }

// MarshalJSON implements json.Marshaler.
func (t TimeSpan) MarshalJSON() ([]byte, error) { return json.Marshal(time.Duration(t).String()) }

// MarshalJSON implements json.Marshaler.
func (g Guid) MarshalJSON() ([]byte, error) { return json.Marshal(uuid.UUID(g).String()) }

func (Null) Kind() Kind     { return KindNull }
func (Array) Kind() Kind    { return KindArray }
func (*Mapping) Kind() Kind { return KindMapping }
func (Object) Kind() Kind   { return KindObject }
func (String) Kind() Kind   { return KindString }
func (Bool) Kind() Kind     { return KindBool }
func (Number) Kind() Kind   { return KindNumber }
func (DateTime) Kind() Kind { return KindDateTime }
func (TimeSpan) Kind() Kind { return KindTimeSpan }
func (Guid) Kind() Kind     { return KindGuid }

func (Null) node()     {}
func (Array) node()    {}
func (*Mapping) node() {}
func (Object) node()   {}
func (String) node()   {}
func (Bool) node()     {}
func (Number) node()   {}
func (DateTime) node() {}
func (TimeSpan) node() {}
func (Guid) node()     {}

// Value returns the typed value a scalar node binds as a parameter.
// Arrays and mappings have no single parameter value and return nil.
func Value(n Node) any {
	switch n := n.(type) {
	case String:
		return string(n)
	case Bool:
		return bool(n)
	case Number:
		return n.Value()
	case DateTime:
		return time.Time(n)
	case TimeSpan:
		return time.Duration(n)
	case Guid:
		return uuid.UUID(n)
	case Object:
		return n.Value
	default:
		return nil
	}
}

// Document renders a node as JSON text, preserving mapping order.
func Document(n Node) (string, error) {
	b, err := json.Marshal(n)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Mapping is an ordered set of fields.
type Mapping struct {
	keys   []string
	values map[string]Node
}

// NewMapping returns an empty mapping.
func NewMapping() *Mapping {
	return &Mapping{values: make(map[string]Node)}
}

// Len returns the number of fields.
func (m *Mapping) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns the field names in insertion order.
func (m *Mapping) Keys() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.keys...)
}

// Get returns the value of a field.
func (m *Mapping) Get(key string) (Node, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.values[key]
	return v, ok
}

// Set adds a field, or replaces its value keeping its position.
func (m *Mapping) Set(key string, v Node) {
	if v == nil {
		v = Null{}
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = v
}

// Range calls fn for each field in order until fn returns false.
func (m *Mapping) Range(fn func(key string, v Node) bool) {
	if m == nil {
		return
	}
	for _, k := range m.keys {
		if !fn(k, m.values[k]) {
			return
		}
	}
}

// MarshalJSON implements json.Marshaler, preserving field order.
func (m *Mapping) MarshalJSON() ([]byte, error) {
	buf := []byte{'{'}
	for i, k := range m.Keys() {
		if i > 0 {
			buf = append(buf, ',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(m.values[k])
		if err != nil {
			return nil, err
		}
		buf = append(buf, kb...)
		buf = append(buf, ':')
		buf = append(buf, vb...)
	}
	return append(buf, '}'), nil
}
