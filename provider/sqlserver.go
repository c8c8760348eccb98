package provider

import (
	"net"
	"net/url"
	"strconv"

	_ "github.com/microsoft/go-mssqldb"

	"github.com/symbolspace/Symbol-sub006/conn"
	"github.com/symbolspace/Symbol-sub006/dialect"
)

// SQLServer returns a provider for Microsoft SQL Server, backed by go-mssqldb.
func SQLServer() Provider {
	return newPooled(dialect.SQLServer, sqlserverDSN)
}

func sqlserverDSN(o conn.Options) (string, error) {
	host := o.Host
	if host == "" {
		host = "localhost"
	}
	port := o.Port
	if port == 0 {
		port = 1433
	}
	u := &url.URL{
		Scheme: "sqlserver",
		Host:   net.JoinHostPort(host, strconv.Itoa(port)),
	}
	if o.Account != "" {
		u.User = url.UserPassword(o.Account, o.Password)
	}
	q := url.Values{}
	if o.Database != "" {
		q.Set("database", o.Database)
	}
	for k, v := range o.Params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
