// Package config loads DataContext settings from YAML files and .env
// files, and watches them for changes.
//
// A configuration file looks like:
//
//	provider: postgres
//	connection:
//	  host: localhost
//	  database: app
//	  account: ${DB_USER}
//	  password: ${DB_PASSWORD}
//	  max_open_conns: 10
//	log:
//	  level: debug
//	  format: json
//	stats:
//	  slow_threshold: 200ms
//	cache:
//	  size: 512
//	  ttl: 1m
package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	symbol "github.com/symbolspace/Symbol-sub006"
	"github.com/symbolspace/Symbol-sub006/conn"
	"github.com/symbolspace/Symbol-sub006/dialect"
	"github.com/symbolspace/Symbol-sub006/dialect/sql"
)

// Config holds the settings of a DataContext.
type Config struct {
	Provider   string       `yaml:"provider"`
	Connection conn.Options `yaml:"connection"`
	Log        Log          `yaml:"log"`
	Stats      Stats        `yaml:"stats"`
	Cache      Cache        `yaml:"cache"`
}

// Log configures the logger.
type Log struct {
	Level  string `yaml:"level"`  // debug, info, warn or error
	Format string `yaml:"format"` // text or json
}

// Stats configures statement statistics. Statistics are collected only
// when SlowThreshold is set.
type Stats struct {
	SlowThreshold time.Duration `yaml:"slow_threshold"`
}

// Cache configures the result cache of Find. A zero Size disables it.
type Cache struct {
	Size int           `yaml:"size"`
	TTL  time.Duration `yaml:"ttl"`
}

// Load reads the configuration file at path from fs. References to
// environment variables, $VAR or ${VAR}, are expanded before decoding,
// and a leading ~ in path or in a SQLite/DuckDB database path is
// expanded to the home directory.
func Load(fs afero.Fs, path string) (*Config, error) {
	path, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	b, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return Parse(b)
}

// Parse decodes a YAML configuration. Unknown fields are rejected.
func Parse(b []byte) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader([]byte(os.ExpandEnv(string(b)))))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks c and expands the home directory in file database paths.
func (c *Config) Validate() error {
	if c.Provider == "" {
		return errors.New("config: provider is required")
	}
	if _, err := sql.Renderer(c.Provider); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	switch c.Provider {
	case dialect.SQLite, dialect.DuckDB:
		db, err := homedir.Expand(c.Connection.Database)
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		c.Connection.Database = db
	}
	if _, err := c.Log.level(); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("config: unknown log format %q", c.Log.Format)
	}
	if c.Cache.Size < 0 || c.Cache.TTL < 0 {
		return errors.New("config: cache size and ttl must not be negative")
	}
	return nil
}

func (l Log) level() (slog.Level, error) {
	var level slog.Level
	if l.Level == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("config: %w", err)
	}
	return level, nil
}

// Logger returns a logger writing to w in the configured format.
func (l Log) Logger(w io.Writer) (*slog.Logger, error) {
	level, err := l.level()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(l.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

// Options returns the DataContext options described by c. Statements are
// logged when the level is debug.
func (c *Config) Options(logger *slog.Logger) []symbol.Option {
	opts := []symbol.Option{symbol.WithLogger(logger)}
	var connOpts []conn.Option
	if level, _ := c.Log.level(); level <= slog.LevelDebug {
		connOpts = append(connOpts, conn.WithLogger(logger))
	}
	if c.Stats.SlowThreshold > 0 {
		connOpts = append(connOpts, conn.WithStats(sql.NewMonitor(
			sql.WithSlowThreshold(c.Stats.SlowThreshold),
			sql.WithSlowQueryLog(logger),
		)))
	}
	if len(connOpts) > 0 {
		opts = append(opts, symbol.WithConnOptions(connOpts...))
	}
	if c.Cache.Size > 0 {
		opts = append(opts, symbol.WithCache(symbol.NewMemoryCache(c.Cache.Size, c.Cache.TTL), c.Cache.TTL))
	}
	return opts
}

// Open opens a DataContext through the configured provider, logging to w.
func (c *Config) Open(ctx context.Context, w io.Writer) (*symbol.DataContext, error) {
	logger, err := c.Log.Logger(w)
	if err != nil {
		return nil, err
	}
	return symbol.Open(ctx, c.Provider, c.Connection, c.Options(logger)...)
}
