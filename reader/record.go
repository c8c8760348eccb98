package reader

import (
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/text/cases"

	"github.com/symbolspace/Symbol-sub006/predicate"
)

// Field is one named column value of a record.
type Field struct {
	Name  string
	Value any
}

// Record is one result row. Fields keep the column order of the statement.
type Record []Field

// Get returns the value of the named column. Names are matched
// case-insensitively, an exact match wins over a folded one.
func (r Record) Get(name string) (any, bool) {
	for _, f := range r {
		if f.Name == name {
			return f.Value, true
		}
	}
	folder := cases.Fold()
	key := folder.String(name)
	for _, f := range r {
		if folder.String(f.Name) == key {
			return f.Value, true
		}
	}
	return nil, false
}

// Value returns the value of the named column, or nil.
func (r Record) Value(name string) any {
	v, _ := r.Get(name)
	return v
}

// Columns returns the column names in order.
func (r Record) Columns() []string {
	names := make([]string, len(r))
	for i, f := range r {
		names[i] = f.Name
	}
	return names
}

// Map returns the record as an unordered map.
func (r Record) Map() map[string]any {
	m := make(map[string]any, len(r))
	for _, f := range r {
		m[f.Name] = f.Value
	}
	return m
}

// Pairs implements predicate.Pairer, so a record can be used as a filter
// or as the field set of a write.
func (r Record) Pairs() []predicate.Pair {
	pairs := make([]predicate.Pair, len(r))
	for i, f := range r {
		pairs[i] = predicate.Pair{Key: f.Name, Value: f.Value}
	}
	return pairs
}

// MarshalJSON implements json.Marshaler, preserving column order.
func (r Record) MarshalJSON() ([]byte, error) {
	if r == nil {
		return []byte("null"), nil
	}
	buf := []byte{'{'}
	for i, f := range r {
		if i > 0 {
			buf = append(buf, ',')
		}
		k, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(f.Value)
		if err != nil {
			return nil, fmt.Errorf("reader: marshal column %q: %w", f.Name, err)
		}
		buf = append(append(append(buf, k...), ':'), v...)
	}
	return append(buf, '}'), nil
}

var (
	_ msgpack.CustomEncoder = Record(nil)
	_ msgpack.CustomDecoder = (*Record)(nil)
)

// EncodeMsgpack implements msgpack.CustomEncoder as an ordered map.
func (r Record) EncodeMsgpack(enc *msgpack.Encoder) error {
	if err := enc.EncodeMapLen(len(r)); err != nil {
		return err
	}
	for _, f := range r {
		if err := enc.EncodeString(f.Name); err != nil {
			return err
		}
		if err := enc.Encode(f.Value); err != nil {
			return fmt.Errorf("reader: encode column %q: %w", f.Name, err)
		}
	}
	return nil
}

// DecodeMsgpack implements msgpack.CustomDecoder.
func (r *Record) DecodeMsgpack(dec *msgpack.Decoder) error {
	n, err := dec.DecodeMapLen()
	if err != nil {
		return err
	}
	if n < 0 {
		*r = nil
		return nil
	}
	rec := make(Record, 0, n)
	for i := 0; i < n; i++ {
		name, err := dec.DecodeString()
		if err != nil {
			return err
		}
		v, err := dec.DecodeInterfaceLoose()
		if err != nil {
			return fmt.Errorf("reader: decode column %q: %w", name, err)
		}
		rec = append(rec, Field{Name: name, Value: v})
	}
	*r = rec
	return nil
}
