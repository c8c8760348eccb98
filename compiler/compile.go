package compiler

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/symbolspace/Symbol-sub006/dialect"
	"github.com/symbolspace/Symbol-sub006/predicate"
)

var (
	identRE     = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)
	aggregateRE = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*\((\*|[A-Za-z_][A-Za-z0-9_.]*)\)$`)
	segmentRE   = regexp.MustCompile(`^[A-Za-z0-9_]+$`)
)

// Compile compiles d into SQL text and parameters using the rendering table r.
// Validation failures are reported as *CompileError before any I/O happens.
func Compile(r dialect.Renderer, d *Descriptor) (*Query, error) {
	b := &builder{r: r, table: d.Table}
	table, err := b.ident(d.Table)
	if err != nil {
		return nil, err
	}
	if d.Offset < 0 || d.Limit < 0 {
		return nil, b.fail("paging", errNegativeBounds)
	}
	if d.Op != Find && hasQueryClauses(d) {
		return nil, b.fail("", fmt.Errorf("%w, got %s", errQueryClauses, d.Op))
	}
	q := &Query{}
	switch d.Op {
	case Insert:
		q.Identity, err = b.insert(table, d)
	case Update:
		err = b.update(table, d)
	case Delete:
		b.WriteString("DELETE FROM " + table)
		err = b.where(d.Where)
	case Count:
		b.WriteString("SELECT COUNT(*) FROM " + table)
		err = b.where(d.Where)
	case Find:
		err = b.find(table, d)
	default:
		err = b.fail("", fmt.Errorf("unknown op %s", d.Op))
	}
	if err != nil {
		return nil, err
	}
	q.SQL, q.Args = b.String(), b.args
	return q, nil
}

func hasQueryClauses(d *Descriptor) bool {
	return len(d.Select) > 0 || len(d.OrderBy) > 0 || len(d.GroupBy) > 0 ||
		d.Having.Len() > 0 || d.Offset > 0 || d.Limit > 0
}

// builder accumulates statement text and parameters in emission order.
type builder struct {
	strings.Builder
	r      dialect.Renderer
	table  string
	clause string
	args   []any
}

func (b *builder) fail(clause string, err error) *CompileError {
	if clause == "" {
		clause = b.clause
	}
	return &CompileError{Table: b.table, Clause: clause, Err: err}
}

// arg appends a parameter and returns its marker.
func (b *builder) arg(v any) string {
	ph := b.r.Placeholder(len(b.args))
	b.args = append(b.args, v)
	return ph
}

// ident validates and renders a column or table name.
func (b *builder) ident(name string) (string, error) {
	switch {
	case name == "":
		return "", b.fail("", errEmptyIdent)
	case !identRE.MatchString(name):
		return "", b.fail("", fmt.Errorf("malformed identifier %q", name))
	}
	return b.r.Ident(name), nil
}

// expr accepts identifiers and aggregate calls such as count(*) or sum(x).
func (b *builder) expr(name string) (string, error) {
	if aggregateRE.MatchString(name) {
		return name, nil
	}
	return b.ident(name)
}

func (b *builder) insert(table string, d *Descriptor) (dialect.IdentityMode, error) {
	b.clause = "insert"
	idcol := d.IDColumn
	if idcol == "" {
		idcol = DefaultIDColumn
	}
	if _, err := b.ident(idcol); err != nil {
		return 0, err
	}
	identity := b.r.Identity(idcol)
	b.WriteString("INSERT INTO " + table)
	if d.Fields.Len() == 0 {
		if identity.Mode == dialect.IdentityOutput {
			b.WriteString(" " + identity.Clause)
		}
		b.WriteString(" " + b.r.DefaultValues())
		if identity.Mode == dialect.IdentityReturning {
			b.WriteString(" " + identity.Clause)
		}
		return identity.Mode, nil
	}
	cols := make([]string, 0, d.Fields.Len())
	for _, k := range d.Fields.Keys() {
		col, err := b.ident(k)
		if err != nil {
			return 0, err
		}
		cols = append(cols, col)
	}
	b.WriteString(" (" + strings.Join(cols, ", ") + ")")
	if identity.Mode == dialect.IdentityOutput {
		b.WriteString(" " + identity.Clause)
	}
	vals := make([]string, 0, len(cols))
	for _, k := range d.Fields.Keys() {
		v, _ := d.Fields.Get(k)
		ph, err := b.value(v)
		if err != nil {
			return 0, err
		}
		vals = append(vals, ph)
	}
	b.WriteString(" VALUES (" + strings.Join(vals, ", ") + ")")
	if identity.Mode == dialect.IdentityReturning {
		b.WriteString(" " + identity.Clause)
	}
	return identity.Mode, nil
}

func (b *builder) update(table string, d *Descriptor) error {
	b.clause = "set"
	if d.Fields.Len() == 0 {
		return b.fail("", errEmptyFields)
	}
	sets := make([]string, 0, d.Fields.Len())
	for _, k := range d.Fields.Keys() {
		col, err := b.ident(k)
		if err != nil {
			return err
		}
		v, _ := d.Fields.Get(k)
		ph, err := b.value(v)
		if err != nil {
			return err
		}
		sets = append(sets, col+" = "+ph)
	}
	b.WriteString("UPDATE " + table + " SET " + strings.Join(sets, ", "))
	return b.where(d.Where)
}

// value binds a column value. Mappings and arrays are stored as JSON documents.
func (b *builder) value(v predicate.Node) (string, error) {
	switch v.Kind() {
	case predicate.KindMapping, predicate.KindArray:
		doc, err := predicate.Document(v)
		if err != nil {
			return "", b.fail("", err)
		}
		return b.r.JSONValue(b.arg(doc)), nil
	case predicate.KindNull:
		return b.arg(nil), nil
	default:
		return b.arg(predicate.Value(v)), nil
	}
}

func (b *builder) find(table string, d *Descriptor) error {
	b.clause = "select"
	cols := make([]string, 0, len(d.Select))
	for _, c := range d.Select {
		col, err := b.expr(c)
		if err != nil {
			return err
		}
		cols = append(cols, col)
	}
	if len(cols) == 0 {
		cols = append(cols, "*")
	}
	head, tail := b.r.Paging(dialect.Paging{Offset: d.Offset, Limit: d.Limit, Ordered: len(d.OrderBy) > 0})
	b.WriteString("SELECT ")
	if head != "" {
		b.WriteString(head + " ")
	}
	b.WriteString(strings.Join(cols, ", ") + " FROM " + table)
	if err := b.where(d.Where); err != nil {
		return err
	}
	if err := b.groupBy(d.GroupBy); err != nil {
		return err
	}
	if err := b.having(d.Having); err != nil {
		return err
	}
	if err := b.orderBy(d.OrderBy); err != nil {
		return err
	}
	if tail != "" {
		b.WriteString(" " + tail)
	}
	return nil
}

func (b *builder) where(m *predicate.Mapping) error {
	b.clause = "where"
	if m.Len() == 0 {
		return nil
	}
	t, err := b.conditions(m, predicate.And, b.ident)
	if err != nil {
		return err
	}
	if t.expr != "" {
		b.WriteString(" WHERE " + t.expr)
	}
	return nil
}

func (b *builder) having(m *predicate.Mapping) error {
	b.clause = "having"
	if m.Len() == 0 {
		return nil
	}
	t, err := b.conditions(m, predicate.And, b.expr)
	if err != nil {
		return err
	}
	if t.expr != "" {
		b.WriteString(" HAVING " + t.expr)
	}
	return nil
}

func (b *builder) groupBy(fields []string) error {
	b.clause = "group by"
	if len(fields) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(fields))
	cols := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, ok := seen[f]; ok {
			return b.fail("", fmt.Errorf("duplicate field %q", f))
		}
		seen[f] = struct{}{}
		col, err := b.ident(f)
		if err != nil {
			return err
		}
		cols = append(cols, col)
	}
	b.WriteString(" GROUP BY " + strings.Join(cols, ", "))
	return nil
}

func (b *builder) orderBy(orders []Order) error {
	b.clause = "order by"
	if len(orders) == 0 {
		return nil
	}
	cols := make([]string, 0, len(orders))
	for _, o := range orders {
		col, err := b.expr(o.Field)
		if err != nil {
			return err
		}
		cols = append(cols, col+" "+o.Direction.Keyword())
	}
	b.WriteString(" ORDER BY " + strings.Join(cols, ", "))
	return nil
}
