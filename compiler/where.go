package compiler

import (
	"fmt"
	"strings"

	"github.com/symbolspace/Symbol-sub006/predicate"
)

// term is a compiled boolean expression. logic is the operator joining its
// top-level parts, None when the expression is atomic or parenthesized.
type term struct {
	expr  string
	logic predicate.Logic
}

// join combines terms with l, parenthesizing parts joined by another operator.
func join(terms []term, l predicate.Logic) term {
	if len(terms) == 1 {
		return terms[0]
	}
	parts := make([]string, len(terms))
	for i, t := range terms {
		parts[i] = t.expr
		if t.logic != predicate.None && t.logic != l {
			parts[i] = "(" + t.expr + ")"
		}
	}
	return term{expr: strings.Join(parts, " "+l.Keyword()+" "), logic: l}
}

// conditions compiles the fields of m joined by logic, in encounter order.
func (b *builder) conditions(m *predicate.Mapping, logic predicate.Logic, name func(string) (string, error)) (term, error) {
	var (
		err   error
		terms = make([]term, 0, m.Len())
	)
	m.Range(func(k string, v predicate.Node) bool {
		var t term
		if t, err = b.condition(k, v, name); err == nil {
			terms = append(terms, t)
		}
		return err == nil
	})
	if err != nil || len(terms) == 0 {
		return term{}, err
	}
	return join(terms, logic), nil
}

func (b *builder) condition(key string, v predicate.Node, name func(string) (string, error)) (term, error) {
	if l, ok := predicate.LookupLogic(key); ok {
		return b.group(l, v, name)
	}
	if predicate.IsReserved(key) {
		if _, ok := predicate.LookupOperator(key); ok {
			return term{}, b.fail("", fmt.Errorf("operator %s outside a field", key))
		}
		return term{}, b.fail("", &predicate.UnsupportedOperatorError{Key: key})
	}
	col, err := name(key)
	if err != nil {
		return term{}, err
	}
	return b.field(col, v, nil)
}

// group compiles a $and or $or value, a mapping or an array of mappings,
// into a parenthesized sub-clause.
func (b *builder) group(l predicate.Logic, v predicate.Node, name func(string) (string, error)) (term, error) {
	var terms []term
	switch v := v.(type) {
	case *predicate.Mapping:
		t, err := b.conditions(v, l, name)
		if err != nil {
			return term{}, err
		}
		if v.Len() == 0 {
			return term{}, b.fail("", fmt.Errorf("%s: %w", l.Key(), errEmptyGroup))
		}
		terms = append(terms, t)
	case predicate.Array:
		for _, e := range v {
			m, ok := e.(*predicate.Mapping)
			if !ok {
				return term{}, b.fail("", fmt.Errorf("%s expects mappings, got %s", l.Key(), e.Kind()))
			}
			if m.Len() == 0 {
				return term{}, b.fail("", fmt.Errorf("%s: %w", l.Key(), errEmptyGroup))
			}
			t, err := b.conditions(m, predicate.And, name)
			if err != nil {
				return term{}, err
			}
			terms = append(terms, t)
		}
	default:
		return term{}, b.fail("", fmt.Errorf("%s expects a mapping or an array, got %s", l.Key(), v.Kind()))
	}
	if len(terms) == 0 {
		return term{}, b.fail("", fmt.Errorf("%s: %w", l.Key(), errEmptyGroup))
	}
	t := join(terms, l)
	if t.logic == predicate.None {
		return t, nil
	}
	return term{expr: "(" + t.expr + ")"}, nil
}

// field compiles the value of one column. Nested plain mappings address
// JSON paths inside the column.
func (b *builder) field(col string, v predicate.Node, path []string) (term, error) {
	target := col
	if len(path) > 0 {
		target = b.r.JSONPath(col, path)
	}
	m, ok := v.(*predicate.Mapping)
	if !ok {
		return b.match(target, predicate.Equals, v)
	}
	if m.Len() == 0 {
		return term{}, b.fail("", fmt.Errorf("%s: %w", target, errEmptyValue))
	}
	var ops, fields int
	for _, k := range m.Keys() {
		if !predicate.IsReserved(k) {
			fields++
			continue
		}
		if _, ok := predicate.LookupLogic(k); ok {
			return term{}, b.fail("", fmt.Errorf("%s: %w", target, errGroupInField))
		}
		if _, ok := predicate.LookupOperator(k); !ok {
			return term{}, b.fail("", &predicate.UnsupportedOperatorError{Key: k})
		}
		ops++
	}
	if ops > 0 && fields > 0 {
		return term{}, b.fail("", fmt.Errorf("%s: %w", target, errMixedKeys))
	}
	terms := make([]term, 0, m.Len())
	for _, k := range m.Keys() {
		sub, _ := m.Get(k)
		var (
			t   term
			err error
		)
		if ops > 0 {
			op, _ := predicate.LookupOperator(k)
			t, err = b.match(target, op, sub)
		} else {
			if !segmentRE.MatchString(k) {
				return term{}, b.fail("", fmt.Errorf("malformed path segment %q", k))
			}
			t, err = b.field(col, sub, append(path[:len(path):len(path)], k))
		}
		if err != nil {
			return term{}, err
		}
		terms = append(terms, t)
	}
	return join(terms, predicate.And), nil
}

// match compiles one operator applied to a target expression.
func (b *builder) match(target string, op predicate.Operator, v predicate.Node) (term, error) {
	switch v := v.(type) {
	case predicate.Array:
		if op != predicate.Equals && op != predicate.NotEquals {
			return term{}, b.fail("", fmt.Errorf("%s: operator %s does not accept an array", target, op.Key()))
		}
		if len(v) == 0 {
			if op == predicate.NotEquals {
				return term{expr: "1 = 1"}, nil
			}
			return term{expr: "1 = 0"}, nil
		}
		phs := make([]string, len(v))
		for i, e := range v {
			switch e.Kind() {
			case predicate.KindArray, predicate.KindMapping, predicate.KindNull:
				return term{}, b.fail("", fmt.Errorf("%s: unexpected %s in array", target, e.Kind()))
			}
			phs[i] = b.arg(predicate.Value(e))
		}
		kw := " IN ("
		if op == predicate.NotEquals {
			kw = " NOT IN ("
		}
		return term{expr: target + kw + strings.Join(phs, ", ") + ")"}, nil
	case predicate.Null:
		switch op {
		case predicate.Equals:
			return term{expr: target + " IS NULL"}, nil
		case predicate.NotEquals:
			return term{expr: target + " IS NOT NULL"}, nil
		}
		return term{}, b.fail("", fmt.Errorf("%s: operator %s does not accept null", target, op.Key()))
	case *predicate.Mapping:
		return term{}, b.fail("", fmt.Errorf("%s: operator %s does not accept a mapping", target, op.Key()))
	}
	return term{expr: target + " " + op.Keyword() + " " + b.arg(predicate.Value(v))}, nil
}
