package predicate

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-openapi/inflect"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Pairer is implemented by ordered field sources such as Pairs and result records.
type Pairer interface {
	Pairs() []Pair
}

// Build converts a caller supplied filter or field set into a node tree.
//
// Structs, maps, Pairer values and JSON object text become mappings. Struct
// fields are named by their db tag, or by the snake_case form of the field
// name. Map keys are sorted since Go maps carry no order: a map compiles to
// the same SQL as JSON text only when the text lists its keys sorted. Use
// Map or a struct to keep the written field order.
func Build(source any) (Node, error) {
	return build(source, true)
}

// Filter builds source and requires the result to be a mapping.
// A nil source yields an empty mapping, which matches every row.
func Filter(source any) (*Mapping, error) {
	n, err := Build(source)
	if err != nil {
		return nil, err
	}
	switch n := n.(type) {
	case Null:
		return NewMapping(), nil
	case *Mapping:
		return n, nil
	default:
		doc, _ := Document(n)
		return nil, newParseError(doc, fmt.Errorf("%w, got %s", ErrNotMapping, n.Kind()))
	}
}

// rules derives column names from struct field names.
var rules = func() *inflect.Ruleset {
	r := inflect.NewDefaultRuleset()
	for _, w := range []string{"UUID", "JSON", "HTML", "HTTP", "URL", "API", "SQL", "ID"} {
		r.AddAcronym(w)
	}
	return r
}()

var (
	timeType    = reflect.TypeOf(time.Time{})
	valuerType  = reflect.TypeOf((*driver.Valuer)(nil)).Elem()
	decimalType = reflect.TypeOf(decimal.Decimal{})
)

func build(v any, top bool) (Node, error) {
	switch v := v.(type) {
	case nil:
		return Null{}, nil
	case Node:
		if m, ok := v.(*Mapping); ok && m == nil {
			return NewMapping(), nil
		}
		return v, nil
	case string:
		return promote(v, top)
	case bool:
		return Bool(v), nil
	case int:
		return Int(int64(v)), nil
	case int64:
		return Int(v), nil
	case int32:
		return Int(int64(v)), nil
	case uint:
		return Uint(uint64(v)), nil
	case uint64:
		return Uint(v), nil
	case float64:
		return Float(v), nil
	case float32:
		return Float(float64(v)), nil
	case decimal.Decimal:
		return Decimal(v), nil
	case time.Time:
		return DateTime(v), nil
	case time.Duration:
		return TimeSpan(v), nil
	case uuid.UUID:
		return Guid(v), nil
	case []byte:
		return Object{Value: v}, nil
	case json.RawMessage:
		return ParseJSON(string(v))
	case json.Number:
		return parseNumber(v)
	case Pairer:
		return buildPairs(v.Pairs())
	}
	return buildValue(reflect.ValueOf(v))
}

func buildPairs(pairs []Pair) (Node, error) {
	m := NewMapping()
	for _, p := range pairs {
		if err := checkKey(p.Key); err != nil {
			return nil, err
		}
		n, err := build(p.Value, false)
		if err != nil {
			return nil, err
		}
		m.Set(p.Key, n)
	}
	return m, nil
}

func buildValue(rv reflect.Value) (Node, error) {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Null{}, nil
		}
		return build(rv.Elem().Interface(), false)
	}
	t := rv.Type()
	switch {
	case t.ConvertibleTo(timeType) && t.Kind() == reflect.Struct:
		return DateTime(rv.Convert(timeType).Interface().(time.Time)), nil
	case t.Implements(valuerType) && t != decimalType:
		dv, err := rv.Interface().(driver.Valuer).Value()
		if err != nil {
			return nil, err
		}
		return build(dv, false)
	}
	switch rv.Kind() {
	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			return Object{Value: rv.Interface()}, nil
		}
		if rv.IsNil() {
			return Null{}, nil
		}
		keys := make([]string, 0, rv.Len())
		for _, k := range rv.MapKeys() {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		pairs := make([]Pair, len(keys))
		for i, k := range keys {
			pairs[i] = Pair{Key: k, Value: rv.MapIndex(reflect.ValueOf(k).Convert(t.Key())).Interface()}
		}
		return buildPairs(pairs)
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return Null{}, nil
		}
		arr := make(Array, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			n, err := build(rv.Index(i).Interface(), false)
			if err != nil {
				return nil, err
			}
			arr = append(arr, n)
		}
		return arr, nil
	case reflect.Struct:
		return buildPairs(structPairs(rv))
	case reflect.String:
		return String(rv.String()), nil
	case reflect.Bool:
		return Bool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return Uint(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return Float(rv.Float()), nil
	}
	return Object{Value: rv.Interface()}, nil
}

// structPairs lists the exported fields of a struct, flattening embedded structs.
func structPairs(rv reflect.Value) []Pair {
	var (
		t     = rv.Type()
		pairs []Pair
	)
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, opts, _ := strings.Cut(f.Tag.Get("db"), ",")
		if name == "-" {
			continue
		}
		fv := rv.Field(i)
		if f.Anonymous && name == "" {
			ev := fv
			if ev.Kind() == reflect.Pointer {
				if ev.IsNil() {
					continue
				}
				ev = ev.Elem()
			}
			if ev.Kind() == reflect.Struct && ev.Type() != timeType {
				pairs = append(pairs, structPairs(ev)...)
				continue
			}
		}
		if opts == "omitempty" && fv.IsZero() {
			continue
		}
		if name == "" {
			name = rules.Underscore(f.Name)
		}
		pairs = append(pairs, Pair{Key: name, Value: fv.Interface()})
	}
	return pairs
}
