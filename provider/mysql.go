package provider

import (
	"net"
	"strconv"

	"github.com/go-sql-driver/mysql"

	"github.com/symbolspace/Symbol-sub006/conn"
	"github.com/symbolspace/Symbol-sub006/dialect"
)

// MySQL returns a provider for MySQL and MariaDB, backed by go-sql-driver/mysql.
func MySQL() Provider {
	return newPooled(dialect.MySQL, mysqlDSN)
}

func mysqlDSN(o conn.Options) (string, error) {
	host := o.Host
	if host == "" {
		host = "localhost"
	}
	port := o.Port
	if port == 0 {
		port = 3306
	}
	cfg := mysql.NewConfig()
	cfg.User = o.Account
	cfg.Passwd = o.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(host, strconv.Itoa(port))
	cfg.DBName = o.Database
	cfg.ParseTime = true
	if len(o.Params) > 0 {
		cfg.Params = make(map[string]string, len(o.Params))
		for k, v := range o.Params {
			cfg.Params[k] = v
		}
	}
	return cfg.FormatDSN(), nil
}
