package adapter

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/sadopc/dbschema/internal/schema"
)

var (
	ErrNotConnected = errors.New("not connected to database")
	ErrCancelled    = errors.New("operation cancelled")
)

// Adapter creates database connections.
type Adapter interface {
	Connect(ctx context.Context, dsn string) (Connection, error)
	Name() string
	DefaultPort() int
}

// Connection represents an active database connection.
type Connection interface {
	// Introspection
	Tables(ctx context.Context, db, schemaName string) ([]schema.Table, error)
	Columns(ctx context.Context, db, schemaName, table string) ([]schema.Column, error)
	Indexes(ctx context.Context, db, schemaName, table string) ([]schema.Index, error)
	ForeignKeys(ctx context.Context, db, schemaName, table string) ([]schema.ForeignKey, error)

	// Exec runs a multi-statement script such as a generated DDL export.
	Exec(ctx context.Context, script string) (*ExecResult, error)

	// Lifecycle
	Ping(ctx context.Context) error
	Close() error

	// Info
	DatabaseName() string
	AdapterName() string
}

// ExecResult holds the outcome of a script execution.
type ExecResult struct {
	Duration time.Duration
	Message  string
}

// DefaultSchema returns the schema introspected when none is given.
func DefaultSchema(adapterName string) string {
	switch adapterName {
	case "postgres":
		return "public"
	case "sqlite", "duckdb":
		return "main"
	}
	return ""
}

// Registry holds registered adapters by name.
var Registry = map[string]Adapter{}

// Register adds an adapter to the global registry.
func Register(a Adapter) {
	Registry[a.Name()] = a
}

// Names returns the registered adapter names in sorted order.
func Names() []string {
	names := make([]string, 0, len(Registry))
	for name := range Registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
