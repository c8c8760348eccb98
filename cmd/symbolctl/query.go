package main

import (
	"encoding/json"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newFindCmd(v *viper.Viper) *cobra.Command {
	var flags queryFlags
	cmd := &cobra.Command{
		Use:   "find <table> [filter]",
		Short: "Print the matching rows as JSON lines",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			dc, err := cfg.Open(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer dc.Close()
			rd, err := dc.FindAll(ctx, args[0], filterArg(args[1:]), flags.options()...)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			n := 0
			for rec, err := range rd.All() {
				if err != nil {
					return err
				}
				if err := enc.Encode(rec); err != nil {
					return err
				}
				n++
			}
			color.New(color.Faint).Fprintf(cmd.ErrOrStderr(), "%d rows\n", n)
			return nil
		},
	}
	flags.register(cmd, 20)
	return cmd
}

func newCountCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "count <table> [filter]",
		Short: "Print the number of matching rows",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			dc, err := cfg.Open(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer dc.Close()
			n, err := dc.Count(ctx, args[0], filterArg(args[1:]))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), n)
			return err
		},
	}
}
