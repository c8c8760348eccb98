package provider

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/symbolspace/Symbol-sub006/conn"
	"github.com/symbolspace/Symbol-sub006/dialect"
	"github.com/symbolspace/Symbol-sub006/dialect/sql"
)

// pooled is a Provider backed by database/sql pools, one per data source.
type pooled struct {
	name string
	dsn  func(conn.Options) (string, error)
	tune func(*conn.Options) // adjusts pool settings per backend

	mu    sync.Mutex
	pools map[string]*sql.Driver
}

func newPooled(name string, dsn func(conn.Options) (string, error)) *pooled {
	return &pooled{name: name, dsn: dsn, pools: make(map[string]*sql.Driver)}
}

func (p *pooled) Name() string { return p.name }

func (p *pooled) Renderer() dialect.Renderer {
	r, err := sql.Renderer(p.name)
	if err != nil {
		panic(err)
	}
	return r
}

// DataSource returns the data source name o translates to.
func (p *pooled) DataSource(o conn.Options) (string, error) {
	return p.dsn(o)
}

func (p *pooled) Open(ctx context.Context, o conn.Options, opts ...conn.Option) (*conn.Connection, error) {
	drv, err := p.pool(o)
	if err != nil {
		return nil, err
	}
	c := conn.New(drv, opts...)
	if err := c.Open(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func (p *pooled) pool(o conn.Options) (*sql.Driver, error) {
	source, err := p.dsn(o)
	if err != nil {
		return nil, fmt.Errorf("provider: %s: %w", p.name, err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if drv, ok := p.pools[source]; ok {
		return drv, nil
	}
	drv, err := sql.Open(p.name, source)
	if err != nil {
		return nil, conn.NewConnectionError("open", err)
	}
	if p.tune != nil {
		p.tune(&o)
	}
	db := drv.DB()
	if o.MaxOpenConns > 0 {
		db.SetMaxOpenConns(o.MaxOpenConns)
	}
	if o.MaxIdleConns > 0 {
		db.SetMaxIdleConns(o.MaxIdleConns)
	}
	if o.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(o.ConnMaxLifetime)
	}
	if o.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(o.ConnMaxIdleTime)
	}
	p.pools[source] = drv
	return drv, nil
}

func (p *pooled) Close() error {
	p.mu.Lock()
	pools := p.pools
	p.pools = make(map[string]*sql.Driver)
	p.mu.Unlock()
	var g errgroup.Group
	for _, drv := range pools {
		g.Go(drv.Close)
	}
	return g.Wait()
}
