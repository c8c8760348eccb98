package main

import (
	"strings"

	"github.com/spf13/cobra"

	symbol "github.com/symbolspace/Symbol-sub006"
	"github.com/symbolspace/Symbol-sub006/compiler"
	"github.com/symbolspace/Symbol-sub006/predicate"
)

// queryFlags are the shaping flags shared by compile, find and count.
type queryFlags struct {
	selects []string
	orders  []string
	groups  []string
	having  string
	offset  int
	limit   int
}

func (f *queryFlags) register(cmd *cobra.Command, limit int) {
	flags := cmd.Flags()
	flags.StringSliceVar(&f.selects, "select", nil, "selected columns or aggregates")
	flags.StringSliceVar(&f.orders, "order", nil, "order-by fields, prefixed with - for descending")
	flags.StringSliceVar(&f.groups, "group", nil, "group-by fields")
	flags.StringVar(&f.having, "having", "", "filter on groups, as a JSON object")
	flags.IntVar(&f.offset, "offset", 0, "rows to skip")
	flags.IntVar(&f.limit, "limit", limit, "maximum rows to return, 0 for no limit")
}

func (f *queryFlags) orderBy() []compiler.Order {
	orders := make([]compiler.Order, 0, len(f.orders))
	for _, o := range f.orders {
		if field, ok := strings.CutPrefix(o, "-"); ok {
			orders = append(orders, compiler.Desc(field))
			continue
		}
		orders = append(orders, compiler.Asc(strings.TrimPrefix(o, "+")))
	}
	return orders
}

// options returns the DataContext query options of the flags.
func (f *queryFlags) options() []symbol.QueryOption {
	opts := []symbol.QueryOption{
		symbol.Select(f.selects...),
		symbol.OrderBy(f.orderBy()...),
		symbol.GroupBy(f.groups...),
		symbol.Offset(f.offset),
		symbol.Limit(f.limit),
	}
	if f.having != "" {
		opts = append(opts, symbol.Having(f.having))
	}
	return opts
}

// descriptor returns the compiler descriptor of the flags.
func (f *queryFlags) descriptor(op compiler.Op, table string, filter any) (*compiler.Descriptor, error) {
	where, err := predicate.Filter(filter)
	if err != nil {
		return nil, err
	}
	d := &compiler.Descriptor{
		Table:   table,
		Op:      op,
		Where:   where,
		Select:  f.selects,
		OrderBy: f.orderBy(),
		GroupBy: f.groups,
		Offset:  f.offset,
		Limit:   f.limit,
	}
	if f.having != "" {
		if d.Having, err = predicate.Filter(f.having); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// filterArg returns the optional filter argument, nil when absent.
func filterArg(args []string) any {
	if len(args) == 0 || args[0] == "" {
		return nil
	}
	return args[0]
}
