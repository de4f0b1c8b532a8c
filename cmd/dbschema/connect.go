package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sadopc/dbschema/internal/adapter"
	"github.com/sadopc/dbschema/internal/audit"
	"github.com/sadopc/dbschema/internal/config"
	"github.com/sadopc/dbschema/internal/dialect"
)

// errNoConnection is returned when neither a DSN, connection flags, a saved
// connection nor DBSCHEMA_DSN identify a database.
var errNoConnection = errors.New("no database given: pass a DSN, --conn, --adapter flags or set " + config.EnvDSN)

// connFlags are the connection flags shared by every command that opens a
// database.
type connFlags struct {
	adapter  string
	host     string
	port     int
	user     string
	password string
	database string
	file     string
	schema   string
	saved    string
}

func (f *connFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVarP(&f.adapter, "adapter", "a", "", "Database adapter (postgres, mysql, sqlite, duckdb)")
	fl.StringVarP(&f.host, "host", "H", "localhost", "Database host")
	fl.IntVarP(&f.port, "port", "p", 0, "Database port")
	fl.StringVarP(&f.user, "user", "u", "", "Database user")
	fl.StringVarP(&f.password, "password", "P", "", "Database password")
	fl.StringVarP(&f.database, "database", "d", "", "Database name")
	fl.StringVarP(&f.file, "file", "f", "", "Database file (for SQLite/DuckDB)")
	fl.StringVar(&f.schema, "schema", "", "Schema to introspect (default: public for postgres, main for sqlite/duckdb)")
	fl.StringVar(&f.saved, "conn", "", "Name of a saved connection from the config file")
}

// target is a resolved database to connect to.
type target struct {
	adapter string
	dsn     string
}

// resolveTarget picks the database from, in order: the DSN argument,
// --conn, individual flags, then DBSCHEMA_DSN.
func (c *cli) resolveTarget(args []string) (target, error) {
	f := c.conn
	var t target

	switch {
	case len(args) > 0 && args[0] != "":
		t.dsn = args[0]
		t.adapter = detectAdapter(t.dsn)
	case f.saved != "":
		sc, ok := c.cfg.Find(f.saved)
		if !ok {
			return target{}, fmt.Errorf("unknown saved connection %q", f.saved)
		}
		t.adapter = strings.ToLower(sc.Adapter)
		t.dsn = sc.BuildDSN()
	case f.adapter != "":
		t.adapter = f.adapter
		t.dsn = buildDSN(f.adapter, f.host, f.port, f.user, f.password, f.database, f.file)
	default:
		if dsn := config.DefaultDSN(); dsn != "" {
			t.dsn = dsn
			t.adapter = detectAdapter(dsn)
		}
	}

	if f.adapter != "" {
		t.adapter = f.adapter
	}
	if t.dsn == "" {
		return target{}, errNoConnection
	}
	if t.adapter == "" {
		return target{}, fmt.Errorf("cannot detect adapter for %q: use --adapter (available: %s)",
			t.dsn, strings.Join(availableAdapters(), ", "))
	}
	if _, ok := adapter.Registry[t.adapter]; !ok {
		return target{}, fmt.Errorf("unknown adapter: %s (available: %s)", t.adapter, strings.Join(availableAdapters(), ", "))
	}
	return t, nil
}

// connect resolves and opens the database named by args and flags.
func (c *cli) connect(ctx context.Context, args []string) (adapter.Connection, target, error) {
	t, err := c.resolveTarget(args)
	if err != nil {
		return nil, target{}, err
	}
	c.log.Info("connecting", "adapter", t.adapter, "dsn", audit.SanitizeDSN(t.dsn))
	conn, err := adapter.Registry[t.adapter].Connect(ctx, t.dsn)
	if err != nil {
		return nil, target{}, err
	}
	c.log.Debug("connected", "adapter", t.adapter, "database", conn.DatabaseName())
	return conn, t, nil
}

func detectAdapter(dsn string) string {
	lower := strings.ToLower(dsn)
	switch {
	case strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://"):
		return "postgres"
	case strings.HasPrefix(lower, "mysql://"):
		return "mysql"
	case strings.HasPrefix(lower, "sqlite://") || strings.HasPrefix(lower, "file:"):
		return "sqlite"
	case strings.HasPrefix(lower, "duckdb://"):
		return "duckdb"
	case strings.HasSuffix(lower, ".db") || strings.HasSuffix(lower, ".sqlite") || strings.HasSuffix(lower, ".sqlite3"):
		return "sqlite"
	case strings.HasSuffix(lower, ".duckdb"):
		return "duckdb"
	case strings.Contains(lower, "@tcp("):
		return "mysql"
	}
	// Default: try as PostgreSQL DSN
	if strings.Contains(dsn, "@") {
		return "postgres"
	}
	return ""
}

func buildDSN(adapterName, host string, port int, user, password, database, file string) string {
	switch adapterName {
	case "postgres":
		u := &url.URL{
			Scheme: "postgres",
			Host:   host,
		}
		if user != "" {
			if password != "" {
				u.User = url.UserPassword(user, password)
			} else {
				u.User = url.User(user)
			}
		}
		if port > 0 {
			u.Host = fmt.Sprintf("%s:%d", host, port)
		}
		if database != "" {
			u.Path = "/" + database
		}
		return u.String()

	case "mysql":
		// go-sql-driver format: user:pass@tcp(host:port)/db
		dsn := ""
		if user != "" {
			dsn += user
			if password != "" {
				dsn += ":" + password
			}
			dsn += "@"
		}
		p := port
		if p == 0 {
			p = 3306
		}
		dsn += fmt.Sprintf("tcp(%s:%d)/%s", host, p, database)
		return dsn

	case "sqlite", "duckdb":
		if file != "" {
			return file
		}
		if database != "" {
			return database
		}
		return ":memory:"
	}
	return ""
}

func availableAdapters() []string {
	return adapter.Names()
}

func supportedDialects() []string {
	return dialect.Supported()
}
