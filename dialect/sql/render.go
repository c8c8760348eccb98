package sql

import (
	"database/sql"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/symbolspace/Symbol-sub006/dialect"
)

// reserved holds the words that must be quoted when used as identifiers.
var reserved = map[string]struct{}{
	"all": {}, "and": {}, "any": {}, "as": {}, "asc": {}, "by": {}, "case": {},
	"check": {}, "column": {}, "default": {}, "delete": {}, "desc": {},
	"distinct": {}, "else": {}, "end": {}, "fetch": {}, "from": {}, "group": {},
	"having": {}, "in": {}, "index": {}, "insert": {}, "into": {}, "is": {},
	"join": {}, "key": {}, "like": {}, "limit": {}, "not": {}, "null": {},
	"offset": {}, "or": {}, "order": {}, "primary": {}, "references": {},
	"rows": {}, "select": {}, "set": {}, "table": {}, "then": {}, "top": {},
	"union": {}, "update": {}, "user": {}, "values": {}, "when": {}, "where": {},
}

// render is a dialect rendering table. Each field spells one clause kind.
type render struct {
	name        string
	open, close string
	marker      func(i int) string
	named       bool
	paging      func(p dialect.Paging) (string, string)
	jsonPath    func(column, path string, parts []string) string
	jsonValue   string
	identity    dialect.IdentityMode
	defaults    string
}

// renderers is the registration table of the supported dialects.
var renderers = map[string]*render{
	dialect.Postgres: {
		name: dialect.Postgres, open: `"`, close: `"`,
		marker: func(i int) string { return "$" + strconv.Itoa(i+1) },
		paging: func(p dialect.Paging) (string, string) {
			return "", joinBounds(bound("OFFSET", p.Offset), bound("LIMIT", p.Limit))
		},
		jsonPath: func(column, _ string, parts []string) string {
			if len(parts) == 1 {
				return fmt.Sprintf("%s->>'%s'", column, parts[0])
			}
			return fmt.Sprintf("%s#>>'{%s}'", column, strings.Join(parts, ","))
		},
		jsonValue: "%s::jsonb",
		identity:  dialect.IdentityReturning,
		defaults:  "DEFAULT VALUES",
	},
	dialect.MySQL: {
		name: dialect.MySQL, open: "`", close: "`",
		marker: func(int) string { return "?" },
		paging: func(p dialect.Paging) (string, string) {
			limit := bound("LIMIT", p.Limit)
			if limit == "" && p.Offset > 0 {
				limit = "LIMIT 18446744073709551615"
			}
			return "", joinBounds(limit, bound("OFFSET", p.Offset))
		},
		jsonPath: func(column, path string, _ []string) string {
			return fmt.Sprintf("JSON_UNQUOTE(JSON_EXTRACT(%s, '%s'))", column, path)
		},
		jsonValue: "CAST(%s AS JSON)",
		identity:  dialect.IdentityLastInsert,
		defaults:  "() VALUES ()",
	},
	dialect.SQLite: {
		name: dialect.SQLite, open: `"`, close: `"`,
		marker: func(int) string { return "?" },
		paging: func(p dialect.Paging) (string, string) {
			limit := bound("LIMIT", p.Limit)
			if limit == "" && p.Offset > 0 {
				limit = "LIMIT -1"
			}
			return "", joinBounds(limit, bound("OFFSET", p.Offset))
		},
		jsonPath: func(column, path string, _ []string) string {
			return fmt.Sprintf("json_extract(%s, '%s')", column, path)
		},
		jsonValue: "json(%s)",
		identity:  dialect.IdentityLastInsert,
		defaults:  "DEFAULT VALUES",
	},
	dialect.SQLServer: {
		name: dialect.SQLServer, open: "[", close: "]",
		marker: func(i int) string { return "@p" + strconv.Itoa(i) },
		named:  true,
		paging: func(p dialect.Paging) (string, string) {
			if p.Offset <= 0 {
				if p.Limit <= 0 {
					return "", ""
				}
				return fmt.Sprintf("TOP %d", p.Limit), ""
			}
			tail := fmt.Sprintf("OFFSET %d ROWS", p.Offset)
			if !p.Ordered {
				// OFFSET requires an ORDER BY clause.
				tail = "ORDER BY (SELECT NULL) " + tail
			}
			if p.Limit > 0 {
				tail += fmt.Sprintf(" FETCH NEXT %d ROWS ONLY", p.Limit)
			}
			return "", tail
		},
		jsonPath: func(column, path string, _ []string) string {
			return fmt.Sprintf("JSON_VALUE(%s, '%s')", column, path)
		},
		jsonValue: "%s",
		identity:  dialect.IdentityOutput,
		defaults:  "DEFAULT VALUES",
	},
	dialect.DuckDB: {
		name: dialect.DuckDB, open: `"`, close: `"`,
		marker: func(int) string { return "?" },
		paging: func(p dialect.Paging) (string, string) {
			return "", joinBounds(bound("LIMIT", p.Limit), bound("OFFSET", p.Offset))
		},
		jsonPath: func(column, path string, _ []string) string {
			return fmt.Sprintf("json_extract_string(%s, '%s')", column, path)
		},
		jsonValue: "CAST(%s AS JSON)",
		identity:  dialect.IdentityReturning,
		defaults:  "DEFAULT VALUES",
	},
}

// Renderer returns the rendering table of the given dialect.
func Renderer(name string) (dialect.Renderer, error) {
	r, ok := renderers[name]
	if !ok {
		return nil, fmt.Errorf("dialect/sql: unknown dialect %q", name)
	}
	return r, nil
}

// Dialects returns the names of all registered rendering tables, sorted.
func Dialects() []string {
	names := make([]string, 0, len(renderers))
	for name := range renderers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *render) Name() string { return r.name }

func (r *render) Placeholder(i int) string { return r.marker(i) }

func (r *render) Bind(args []any) []any {
	if !r.named {
		return args
	}
	named := make([]any, len(args))
	for i, a := range args {
		named[i] = sql.Named("p"+strconv.Itoa(i), a)
	}
	return named
}

func (r *render) Ident(name string) string {
	if name == "*" || !strings.Contains(name, ".") && !isReserved(name) {
		return name
	}
	parts := strings.Split(name, ".")
	for i, p := range parts {
		if isReserved(p) {
			parts[i] = r.open + p + r.close
		}
	}
	return strings.Join(parts, ".")
}

func (r *render) Paging(p dialect.Paging) (string, string) {
	if p.IsZero() {
		return "", ""
	}
	return r.paging(p)
}

func (r *render) JSONPath(column string, path []string) string {
	return r.jsonPath(column, "$."+strings.Join(path, "."), path)
}

func (r *render) JSONValue(placeholder string) string {
	return fmt.Sprintf(r.jsonValue, placeholder)
}

func (r *render) Identity(column string) dialect.Identity {
	column = r.Ident(column)
	switch r.identity {
	case dialect.IdentityReturning:
		return dialect.Identity{Mode: r.identity, Clause: "RETURNING " + column}
	case dialect.IdentityOutput:
		return dialect.Identity{Mode: r.identity, Clause: "OUTPUT INSERTED." + column}
	default:
		return dialect.Identity{Mode: dialect.IdentityLastInsert}
	}
}

func (r *render) DefaultValues() string { return r.defaults }

func isReserved(name string) bool {
	_, ok := reserved[strings.ToLower(name)]
	return ok
}

func bound(keyword string, n int) string {
	if n <= 0 {
		return ""
	}
	return keyword + " " + strconv.Itoa(n)
}

func joinBounds(parts ...string) string {
	var b strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(p)
	}
	return b.String()
}
