package sql

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/symbolspace/Symbol-sub006/dialect"
)

// QueryStats holds query execution statistics.
type QueryStats struct {
	// TotalQueries is the total number of queries executed.
	TotalQueries atomic.Int64
	// TotalExecs is the total number of exec statements executed.
	TotalExecs atomic.Int64
	// TotalDuration is the total time spent executing queries.
	TotalDuration atomic.Int64 // nanoseconds
	// SlowQueries is the count of queries exceeding the slow threshold.
	SlowQueries atomic.Int64
	// Errors is the count of query errors.
	Errors atomic.Int64
}

// Stats returns a snapshot of the current statistics.
func (s *QueryStats) Stats() StatsSnapshot {
	return StatsSnapshot{
		TotalQueries:  s.TotalQueries.Load(),
		TotalExecs:    s.TotalExecs.Load(),
		TotalDuration: time.Duration(s.TotalDuration.Load()),
		SlowQueries:   s.SlowQueries.Load(),
		Errors:        s.Errors.Load(),
	}
}

// Reset resets all statistics to zero.
func (s *QueryStats) Reset() {
	s.TotalQueries.Store(0)
	s.TotalExecs.Store(0)
	s.TotalDuration.Store(0)
	s.SlowQueries.Store(0)
	s.Errors.Store(0)
}

// StatsSnapshot is a point-in-time snapshot of query statistics.
type StatsSnapshot struct {
	TotalQueries  int64
	TotalExecs    int64
	TotalDuration time.Duration
	SlowQueries   int64
	Errors        int64
}

// AvgQueryDuration returns the average statement duration.
func (s StatsSnapshot) AvgQueryDuration() time.Duration {
	total := s.TotalQueries + s.TotalExecs
	if total == 0 {
		return 0
	}
	return s.TotalDuration / time.Duration(total)
}

// String returns a human-readable summary of the statistics.
func (s StatsSnapshot) String() string {
	return fmt.Sprintf(
		"queries=%d execs=%d duration=%s avg=%s slow=%d errors=%d",
		s.TotalQueries, s.TotalExecs, s.TotalDuration, s.AvgQueryDuration(),
		s.SlowQueries, s.Errors,
	)
}

// SlowQueryHook is a function called when a slow statement is detected.
type SlowQueryHook func(ctx context.Context, query string, args []any, duration time.Duration)

// Monitor collects statistics for every ExecQuerier it wraps. One Monitor is
// usually shared by all connections of a provider.
type Monitor struct {
	stats         *QueryStats
	mu            sync.RWMutex
	slowThreshold time.Duration
	slowHook      SlowQueryHook
}

// StatsOption configures the Monitor.
type StatsOption func(*Monitor)

// WithSlowThreshold sets the threshold for slow query detection.
// Default is 100ms.
func WithSlowThreshold(d time.Duration) StatsOption {
	return func(m *Monitor) {
		m.slowThreshold = d
	}
}

// WithSlowQueryHook sets a callback function for slow statements.
func WithSlowQueryHook(hook SlowQueryHook) StatsOption {
	return func(m *Monitor) {
		m.slowHook = hook
	}
}

// WithSlowQueryLog logs slow statements to the given logger at warn level.
// A nil logger means slog.Default().
func WithSlowQueryLog(logger *slog.Logger) StatsOption {
	if logger == nil {
		logger = slog.Default()
	}
	return WithSlowQueryHook(func(ctx context.Context, query string, args []any, duration time.Duration) {
		logger.WarnContext(ctx, "slow query detected", "duration", duration, "query", query, "args", args)
	})
}

// NewMonitor creates a statistics collector.
//
//	m := sql.NewMonitor(
//	    sql.WithSlowThreshold(200*time.Millisecond),
//	    sql.WithSlowQueryLog(logger),
//	)
//	c := conn.New(drv, conn.WithStats(m))
//	...
//	fmt.Println(m.QueryStats().Stats())
func NewMonitor(opts ...StatsOption) *Monitor {
	m := &Monitor{
		stats:         &QueryStats{},
		slowThreshold: 100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// QueryStats returns the underlying QueryStats for reading statistics.
func (m *Monitor) QueryStats() *QueryStats {
	return m.stats
}

// SlowThreshold returns the current slow query threshold.
func (m *Monitor) SlowThreshold() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.slowThreshold
}

// SetSlowThreshold updates the slow query threshold.
func (m *Monitor) SetSlowThreshold(threshold time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slowThreshold = threshold
}

// Wrap returns an ExecQuerier recording statistics into m.
func (m *Monitor) Wrap(ex dialect.ExecQuerier) dialect.ExecQuerier {
	return &statsExecQuerier{ExecQuerier: ex, monitor: m}
}

func (m *Monitor) record(ctx context.Context, query string, args any, start time.Time, err error, isQuery bool) {
	duration := time.Since(start)
	if isQuery {
		m.stats.TotalQueries.Add(1)
	} else {
		m.stats.TotalExecs.Add(1)
	}
	m.stats.TotalDuration.Add(int64(duration))
	if err != nil {
		m.stats.Errors.Add(1)
	}

	m.mu.RLock()
	threshold := m.slowThreshold
	hook := m.slowHook
	m.mu.RUnlock()

	if duration > threshold {
		m.stats.SlowQueries.Add(1)
		if hook != nil {
			argsSlice, _ := args.([]any)
			hook(ctx, query, argsSlice, duration)
		}
	}
}

type statsExecQuerier struct {
	dialect.ExecQuerier
	monitor *Monitor
}

// Query executes a query and records statistics.
func (s *statsExecQuerier) Query(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := s.ExecQuerier.Query(ctx, query, args, v)
	s.monitor.record(ctx, query, args, start, err, true)
	return err
}

// Exec executes a statement and records statistics.
func (s *statsExecQuerier) Exec(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := s.ExecQuerier.Exec(ctx, query, args, v)
	s.monitor.record(ctx, query, args, start, err, false)
	return err
}

// Debug wraps an ExecQuerier with statement logging at debug level.
// A nil logger means slog.Default().
func Debug(ex dialect.ExecQuerier, logger *slog.Logger) dialect.ExecQuerier {
	if logger == nil {
		logger = slog.Default()
	}
	return &debugExecQuerier{ExecQuerier: ex, logger: logger}
}

type debugExecQuerier struct {
	dialect.ExecQuerier
	logger *slog.Logger
}

// Query logs and executes a query.
func (d *debugExecQuerier) Query(ctx context.Context, query string, args, v any) error {
	d.logger.DebugContext(ctx, "query", "query", query, "args", args)
	return d.ExecQuerier.Query(ctx, query, args, v)
}

// Exec logs and executes a statement.
func (d *debugExecQuerier) Exec(ctx context.Context, query string, args, v any) error {
	d.logger.DebugContext(ctx, "exec", "query", query, "args", args)
	return d.ExecQuerier.Exec(ctx, query, args, v)
}
