package provider

import (
	"net"
	"net/url"
	"strconv"

	"github.com/lib/pq"

	"github.com/symbolspace/Symbol-sub006/conn"
	"github.com/symbolspace/Symbol-sub006/dialect"
)

// Postgres returns a provider for PostgreSQL, backed by lib/pq.
func Postgres() Provider {
	return newPooled(dialect.Postgres, postgresDSN)
}

// postgresDSN builds a keyword/value connection string. sslmode defaults
// to disable unless given in Params.
func postgresDSN(o conn.Options) (string, error) {
	host := o.Host
	if host == "" {
		host = "localhost"
	}
	port := o.Port
	if port == 0 {
		port = 5432
	}
	u := &url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(host, strconv.Itoa(port)),
		Path:   "/" + o.Database,
	}
	if o.Account != "" {
		u.User = url.UserPassword(o.Account, o.Password)
	}
	q := url.Values{}
	q.Set("sslmode", "disable")
	for k, v := range o.Params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return pq.ParseURL(u.String())
}
