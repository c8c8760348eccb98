package predicate

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
)

// errTrailing reports data after the first JSON value.
var errTrailing = errors.New("unexpected data after top-level value")

// ParseJSON parses JSON object or array text into a node tree.
// Object fields keep their document order.
func ParseJSON(text string) (Node, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	n, err := decodeValue(dec)
	if err != nil {
		var uerr *UnsupportedOperatorError
		if errors.As(err, &uerr) {
			return nil, err
		}
		return nil, newParseError(text, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, newParseError(text, errTrailing)
	}
	return n, nil
}

func decodeValue(dec *json.Decoder) (Node, error) {
	tok, err := dec.Token()
	if err != nil {
		if err == io.EOF {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return decodeObject(dec)
		case '[':
			return decodeArray(dec)
		}
		return nil, fmt.Errorf("unexpected delimiter %q", t)
	case string:
		return promote(t, false)
	case json.Number:
		return parseNumber(t)
	case bool:
		return Bool(t), nil
	case nil:
		return Null{}, nil
	}
	return nil, fmt.Errorf("unexpected token %v", tok)
}

func decodeObject(dec *json.Decoder) (Node, error) {
	m := NewMapping()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected object key %v", tok)
		}
		if err := checkKey(key); err != nil {
			return nil, err
		}
		v, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		m.Set(key, v)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return m, nil
}

func decodeArray(dec *json.Decoder) (Node, error) {
	arr := Array{}
	for dec.More() {
		v, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		arr = append(arr, v)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return arr, nil
}

// parseNumber keeps integers exact and falls back to decimal for values
// that overflow 64 bits.
func parseNumber(num json.Number) (Node, error) {
	s := num.String()
	if !strings.ContainsAny(s, ".eE") {
		if i, err := num.Int64(); err == nil {
			return Int(i), nil
		}
		if d, err := decimal.NewFromString(s); err == nil {
			if d.Sign() > 0 && d.BigInt().IsUint64() {
				return Uint(d.BigInt().Uint64()), nil
			}
			return Decimal(d), nil
		}
	}
	f, err := num.Float64()
	if err != nil {
		d, derr := decimal.NewFromString(s)
		if derr != nil {
			return nil, err
		}
		return Decimal(d), nil
	}
	return Float(f), nil
}

// promote expands a string holding a JSON object or array. Failures at the
// top level are reported, nested ones keep the string literal.
func promote(s string, top bool) (Node, error) {
	t := strings.TrimSpace(s)
	if t == "" || (t[0] != '{' && t[0] != '[') {
		return String(s), nil
	}
	n, err := ParseJSON(t)
	if err != nil {
		var perr *ParseError
		if !top && errors.As(err, &perr) {
			return String(s), nil
		}
		return nil, err
	}
	return n, nil
}
