package conn

import (
	"log/slog"
	"time"

	"github.com/symbolspace/Symbol-sub006/dialect/sql"
)

// Options describe how to reach a backend.
type Options struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	Account  string `yaml:"account"`
	Password string `yaml:"password"`

	// Params holds extra driver specific DSN parameters.
	Params map[string]string `yaml:"params"`

	// Pool tuning, applied when the provider creates the pool.
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
}

// Option configures a Connection.
type Option func(*config)

type config struct {
	logger  *slog.Logger
	debug   bool
	monitor *sql.Monitor
}

// WithLogger sets the logger of the connection and logs every statement
// at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
		c.debug = true
	}
}

// WithStats records statement statistics in m.
func WithStats(m *sql.Monitor) Option {
	return func(c *config) {
		c.monitor = m
	}
}
