package postgres

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sadopc/dbschema/internal/adapter"
	"github.com/sadopc/dbschema/internal/schema"
)

func init() {
	adapter.Register(&postgresAdapter{})
}

// postgresAdapter implements adapter.Adapter for PostgreSQL.
type postgresAdapter struct{}

func (a *postgresAdapter) Name() string     { return "postgres" }
func (a *postgresAdapter) DefaultPort() int { return 5432 }

func (a *postgresAdapter) Connect(ctx context.Context, dsn string) (adapter.Connection, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}

	dbName := extractDBName(dsn)
	if dbName == "" {
		// Fall back to whatever database the server picked for us.
		if err := pool.QueryRow(ctx, "SELECT current_database()").Scan(&dbName); err != nil {
			pool.Close()
			return nil, fmt.Errorf("postgres current database: %w", err)
		}
	}

	return &pgConn{
		pool:   pool,
		dsn:    dsn,
		dbName: dbName,
	}, nil
}

// extractDBName parses the database name from the DSN.
func extractDBName(dsn string) string {
	if dsn == "" {
		return ""
	}
	// Try URL format first (postgres://... or postgresql://...)
	u, err := url.Parse(dsn)
	if err == nil && u.Scheme != "" {
		return strings.TrimPrefix(u.Path, "/")
	}
	// Fallback: keyword=value format (e.g. "host=localhost dbname=myapp")
	for _, part := range strings.Fields(dsn) {
		if strings.HasPrefix(part, "dbname=") {
			return strings.TrimPrefix(part, "dbname=")
		}
	}
	return ""
}

// pgConn implements adapter.Connection for PostgreSQL.
type pgConn struct {
	pool   *pgxpool.Pool
	dsn    string
	dbName string
}

func (c *pgConn) DatabaseName() string { return c.dbName }
func (c *pgConn) AdapterName() string  { return "postgres" }

func (c *pgConn) Ping(ctx context.Context) error {
	return c.pool.Ping(ctx)
}

func (c *pgConn) Close() error {
	c.pool.Close()
	return nil
}

func (c *pgConn) scope(db, schemaName string) (string, string) {
	if db == "" {
		db = c.dbName
	}
	if schemaName == "" {
		schemaName = "public"
	}
	return db, schemaName
}

// ---------------------------------------------------------------------------
// Introspection
// ---------------------------------------------------------------------------

func (c *pgConn) Tables(ctx context.Context, db, schemaName string) ([]schema.Table, error) {
	db, schemaName = c.scope(db, schemaName)

	rows, err := c.pool.Query(ctx,
		`SELECT table_name
		 FROM information_schema.tables
		 WHERE table_catalog = $1
		   AND table_schema  = $2
		   AND table_type    = 'BASE TABLE'
		 ORDER BY table_name`, db, schemaName)
	if err != nil {
		return nil, fmt.Errorf("tables: %w", err)
	}
	defer rows.Close()

	var tables []schema.Table
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("tables scan: %w", err)
		}
		tables = append(tables, schema.Table{Name: name})
	}
	return tables, rows.Err()
}

func (c *pgConn) Columns(ctx context.Context, db, schemaName, table string) ([]schema.Column, error) {
	db, schemaName = c.scope(db, schemaName)

	// Fetch primary key column names for this table.
	pkSet, err := c.primaryKeyColumns(ctx, schemaName, table)
	if err != nil {
		return nil, err
	}

	rows, err := c.pool.Query(ctx,
		`SELECT column_name,
		        data_type,
		        udt_schema,
		        udt_name,
		        is_nullable,
		        column_default,
		        COALESCE(character_maximum_length, 0),
		        COALESCE(numeric_precision, 0),
		        COALESCE(numeric_scale, 0),
		        is_identity
		 FROM information_schema.columns
		 WHERE table_catalog = $1
		   AND table_schema  = $2
		   AND table_name    = $3
		 ORDER BY ordinal_position`, db, schemaName, table)
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}
	defer rows.Close()

	type enumRef struct {
		col        int
		typeSchema string
		typeName   string
	}
	var (
		cols  []schema.Column
		enums []enumRef
	)
	for rows.Next() {
		var (
			name, dtype, udtSchema, udtName, nullable, identity string
			dflt                                                *string
			length, precision, scale                            int64
		)
		if err := rows.Scan(&name, &dtype, &udtSchema, &udtName, &nullable, &dflt, &length, &precision, &scale, &identity); err != nil {
			return nil, fmt.Errorf("columns scan: %w", err)
		}
		col := schema.Column{
			Name:          name,
			DataType:      dtype,
			UDTName:       udtName,
			Length:        int(length),
			Nullable:      nullable == "YES",
			Primary:       pkSet[name],
			Default:       dflt,
			AutoIncrement: identity == "YES" || (dflt != nil && strings.HasPrefix(*dflt, "nextval(")),
		}
		if udtName == "numeric" {
			col.Precision = int(precision)
			col.Scale = int(scale)
		}
		if dtype == "USER-DEFINED" {
			enums = append(enums, enumRef{col: len(cols), typeSchema: udtSchema, typeName: udtName})
		}
		cols = append(cols, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}
	rows.Close()

	for _, e := range enums {
		labels, err := c.enumLabels(ctx, e.typeSchema, e.typeName)
		if err != nil {
			return nil, err
		}
		cols[e.col].EnumValues = labels
	}
	return cols, nil
}

// enumLabels returns the labels of an enum type in sort order, or nil when
// the type is not an enum.
func (c *pgConn) enumLabels(ctx context.Context, typeSchema, typeName string) ([]string, error) {
	rows, err := c.pool.Query(ctx,
		`SELECT e.enumlabel
		 FROM pg_type t
		 JOIN pg_enum e      ON e.enumtypid = t.oid
		 JOIN pg_namespace n ON n.oid = t.typnamespace
		 WHERE n.nspname = $1
		   AND t.typname = $2
		 ORDER BY e.enumsortorder`, typeSchema, typeName)
	if err != nil {
		return nil, fmt.Errorf("enum labels: %w", err)
	}
	defer rows.Close()

	var labels []string
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return nil, fmt.Errorf("enum labels scan: %w", err)
		}
		labels = append(labels, label)
	}
	return labels, rows.Err()
}

// primaryKeyColumns returns a set of column names that belong to the primary key.
func (c *pgConn) primaryKeyColumns(ctx context.Context, schemaName, table string) (map[string]bool, error) {
	rows, err := c.pool.Query(ctx,
		`SELECT a.attname
		 FROM pg_index i
		 JOIN pg_attribute a ON a.attrelid = i.indrelid AND a.attnum = ANY(i.indkey)
		 WHERE i.indrelid = (quote_ident($1) || '.' || quote_ident($2))::regclass
		   AND i.indisprimary`, schemaName, table)
	if err != nil {
		return nil, fmt.Errorf("primary keys: %w", err)
	}
	defer rows.Close()

	pk := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("primary keys scan: %w", err)
		}
		pk[name] = true
	}
	return pk, rows.Err()
}

func (c *pgConn) Indexes(ctx context.Context, db, schemaName, table string) ([]schema.Index, error) {
	_, schemaName = c.scope(db, schemaName)

	rows, err := c.pool.Query(ctx,
		`SELECT i.relname                        AS index_name,
		        array_agg(a.attname ORDER BY k.n) AS columns,
		        ix.indisunique                     AS is_unique,
		        ix.indisprimary                    AS is_primary
		 FROM pg_index ix
		 JOIN pg_class  t ON t.oid  = ix.indrelid
		 JOIN pg_class  i ON i.oid  = ix.indexrelid
		 JOIN pg_namespace n ON n.oid = t.relnamespace
		 JOIN LATERAL unnest(ix.indkey) WITH ORDINALITY AS k(attnum, n) ON true
		 JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = k.attnum
		 WHERE n.nspname = $1
		   AND t.relname = $2
		 GROUP BY i.relname, ix.indisunique, ix.indisprimary
		 ORDER BY ix.indisprimary DESC, i.relname`, schemaName, table)
	if err != nil {
		return nil, fmt.Errorf("indexes: %w", err)
	}
	defer rows.Close()

	var indexes []schema.Index
	for rows.Next() {
		var (
			name    string
			cols    []string
			unique  bool
			primary bool
		)
		if err := rows.Scan(&name, &cols, &unique, &primary); err != nil {
			return nil, fmt.Errorf("indexes scan: %w", err)
		}
		indexes = append(indexes, schema.Index{
			Name:    name,
			Columns: cols,
			Unique:  unique,
			Primary: primary,
		})
	}
	return indexes, rows.Err()
}

// ForeignKeys returns one entry per referencing column. Columns of a
// multi-column constraint share its name and appear in key order.
func (c *pgConn) ForeignKeys(ctx context.Context, db, schemaName, table string) ([]schema.ForeignKey, error) {
	_, schemaName = c.scope(db, schemaName)

	rows, err := c.pool.Query(ctx,
		`SELECT con.conname,
		        a.attname,
		        rt.relname,
		        ra.attname,
		        con.confdeltype::text,
		        con.confupdtype::text
		 FROM pg_constraint con
		 JOIN pg_class t      ON t.oid  = con.conrelid
		 JOIN pg_namespace n  ON n.oid  = t.relnamespace
		 JOIN pg_class rt     ON rt.oid = con.confrelid
		 JOIN LATERAL unnest(con.conkey, con.confkey) WITH ORDINALITY AS k(attnum, refnum, n) ON true
		 JOIN pg_attribute a  ON a.attrelid  = con.conrelid  AND a.attnum  = k.attnum
		 JOIN pg_attribute ra ON ra.attrelid = con.confrelid AND ra.attnum = k.refnum
		 WHERE con.contype = 'f'
		   AND n.nspname   = $1
		   AND t.relname   = $2
		 ORDER BY con.conname, k.n`, schemaName, table)
	if err != nil {
		return nil, fmt.Errorf("foreign keys: %w", err)
	}
	defer rows.Close()

	var fks []schema.ForeignKey
	for rows.Next() {
		var cname, col, refTable, refCol, onDelete, onUpdate string
		if err := rows.Scan(&cname, &col, &refTable, &refCol, &onDelete, &onUpdate); err != nil {
			return nil, fmt.Errorf("foreign keys scan: %w", err)
		}
		fks = append(fks, schema.ForeignKey{
			Name:      cname,
			Column:    col,
			RefTable:  refTable,
			RefColumn: refCol,
			OnDelete:  referentialRule(onDelete),
			OnUpdate:  referentialRule(onUpdate),
		})
	}
	return fks, rows.Err()
}

// referentialRule decodes pg_constraint.confdeltype/confupdtype.
func referentialRule(code string) string {
	switch code {
	case "c":
		return "CASCADE"
	case "r":
		return "RESTRICT"
	case "n":
		return "SET NULL"
	case "d":
		return "SET DEFAULT"
	}
	return "NO ACTION"
}

// ---------------------------------------------------------------------------
// Script execution
// ---------------------------------------------------------------------------

// Exec runs a multi-statement script. Without arguments pgx sends it over
// the simple query protocol, which accepts several statements at once.
func (c *pgConn) Exec(ctx context.Context, script string) (*adapter.ExecResult, error) {
	start := time.Now()
	tag, err := c.pool.Exec(ctx, script)
	if err != nil {
		if ctx.Err() != nil {
			return nil, adapter.ErrCancelled
		}
		return nil, fmt.Errorf("exec: %w", err)
	}
	return &adapter.ExecResult{
		Duration: time.Since(start),
		Message:  tag.String(),
	}, nil
}
