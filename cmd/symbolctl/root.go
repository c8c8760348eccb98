package main

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/symbolspace/Symbol-sub006/config"
)

func newRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("SYMBOL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:           "symbolctl",
		Short:         "Compile filters and query databases",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags := root.PersistentFlags()
	flags.StringP("config", "c", "symbol.yaml", "configuration file")
	flags.String("env-file", ".env", "file of environment variables loaded before the configuration")
	flags.String("provider", "", "provider name, overrides the configuration")
	flags.String("database", "", "database name or file, overrides the configuration")
	_ = v.BindPFlags(flags)

	root.AddCommand(
		newCompileCmd(v),
		newFindCmd(v),
		newCountCmd(v),
	)
	return root
}

// loadConfig reads the configuration file, if any, and applies the
// provider and database overrides.
func loadConfig(v *viper.Viper) (*config.Config, error) {
	osfs := afero.NewOsFs()
	if err := config.LoadEnv(osfs, v.GetString("env-file")); err != nil {
		return nil, err
	}
	cfg, err := config.Load(osfs, v.GetString("config"))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		cfg = &config.Config{}
	case err != nil:
		return nil, err
	}
	if p := v.GetString("provider"); p != "" {
		cfg.Provider = p
	}
	if db := v.GetString("database"); db != "" {
		cfg.Connection.Database = db
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
