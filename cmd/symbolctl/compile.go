package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/symbolspace/Symbol-sub006/compiler"
	"github.com/symbolspace/Symbol-sub006/config"
	"github.com/symbolspace/Symbol-sub006/dialect"
	"github.com/symbolspace/Symbol-sub006/dialect/sql"
	"github.com/symbolspace/Symbol-sub006/predicate"
)

var (
	sqlColor  = color.New(color.FgCyan)
	argsColor = color.New(color.FgYellow)
	errColor  = color.New(color.FgRed)
)

func newCompileCmd(v *viper.Viper) *cobra.Command {
	var (
		flags      queryFlags
		dialectArg string
		fields     string
		idColumn   string
		filterFile string
		watch      bool
	)
	cmd := &cobra.Command{
		Use:   "compile <find|insert|update|delete|count> <table> [filter]",
		Short: "Print the SQL and parameters of a command",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := dialectArg
			if name == "" {
				name = v.GetString("provider")
			}
			if name == "" {
				name = dialect.Postgres
			}
			r, err := sql.Renderer(name)
			if err != nil {
				return err
			}
			op, err := compiler.ParseOp(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			compile := func() error {
				filter := filterArg(args[2:])
				if filterFile != "" {
					b, err := os.ReadFile(filterFile)
					if err != nil {
						return err
					}
					filter = string(b)
				}
				d, err := flags.descriptor(op, args[1], filter)
				if err != nil {
					return err
				}
				d.IDColumn = idColumn
				if fields != "" {
					if d.Fields, err = predicate.Filter(fields); err != nil {
						return err
					}
				}
				q, err := compiler.Compile(r, d)
				if err != nil {
					return err
				}
				return printQuery(out, q)
			}
			if !watch {
				return compile()
			}
			if filterFile == "" {
				return errors.New("--watch requires --filter-file")
			}
			report := func(err error) {
				if err != nil {
					errColor.Fprintln(cmd.ErrOrStderr(), "error:", err)
				}
			}
			report(compile())
			w, err := config.WatchFile(filterFile, func(err error) {
				if err == nil {
					err = compile()
				}
				report(err)
			})
			if err != nil {
				return err
			}
			defer w.Close()
			<-cmd.Context().Done()
			return nil
		},
	}
	flags.register(cmd, 0)
	cmd.Flags().StringVarP(&dialectArg, "dialect", "d", "", "dialect to render, defaults to the configured provider")
	cmd.Flags().StringVar(&fields, "fields", "", "columns to insert or update, as a JSON object")
	cmd.Flags().StringVar(&idColumn, "id-column", "", "identity column returned by insert")
	cmd.Flags().StringVarP(&filterFile, "filter-file", "f", "", "read the filter from a file")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "recompile when the filter file changes")
	return cmd
}

// printQuery writes the statement and its JSON encoded parameters.
func printQuery(w io.Writer, q *compiler.Query) error {
	args, err := json.Marshal(q.Args)
	if err != nil {
		return fmt.Errorf("encode parameters: %w", err)
	}
	if _, err := sqlColor.Fprintln(w, q.SQL); err != nil {
		return err
	}
	_, err = argsColor.Fprintln(w, string(args))
	return err
}
