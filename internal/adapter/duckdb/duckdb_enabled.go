//go:build duckdb

package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/sadopc/dbschema/internal/adapter"
	"github.com/sadopc/dbschema/internal/schema"
	"github.com/sadopc/dbschema/internal/typemap"
)

func init() {
	adapter.Register(&duckdbAdapter{})
}

// ---------------------------------------------------------------------------
// Adapter
// ---------------------------------------------------------------------------

type duckdbAdapter struct{}

func (a *duckdbAdapter) Name() string     { return "duckdb" }
func (a *duckdbAdapter) DefaultPort() int { return 0 }

func (a *duckdbAdapter) Connect(ctx context.Context, dsn string) (adapter.Connection, error) {
	// Strip the "duckdb://" prefix if present.
	dsn = strings.TrimPrefix(dsn, "duckdb://")

	db, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, fmt.Errorf("duckdb: open: %w", err)
	}
	// An in-memory database lives and dies with its single connection.
	if dsn == "" || dsn == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("duckdb: ping: %w", err)
	}

	var catalog string
	if err := db.QueryRowContext(ctx, "SELECT current_database()").Scan(&catalog); err != nil {
		db.Close()
		return nil, fmt.Errorf("duckdb: current database: %w", err)
	}

	return &duckdbConn{
		db:      db,
		dsn:     dsn,
		catalog: catalog,
	}, nil
}

// ---------------------------------------------------------------------------
// Connection
// ---------------------------------------------------------------------------

type duckdbConn struct {
	db      *sql.DB
	dsn     string
	catalog string
}

func (c *duckdbConn) DatabaseName() string { return c.catalog }
func (c *duckdbConn) AdapterName() string  { return "duckdb" }

func (c *duckdbConn) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

func (c *duckdbConn) Close() error {
	return c.db.Close()
}

func (c *duckdbConn) scope(db, schemaName string) (string, string) {
	if db == "" {
		db = c.catalog
	}
	if schemaName == "" {
		schemaName = "main"
	}
	return db, schemaName
}

// ---------------------------------------------------------------------------
// Introspection
// ---------------------------------------------------------------------------

func (c *duckdbConn) Tables(ctx context.Context, db, schemaName string) ([]schema.Table, error) {
	db, schemaName = c.scope(db, schemaName)

	query := `SELECT table_name
		FROM information_schema.tables
		WHERE table_catalog = ? AND table_schema = ? AND table_type = 'BASE TABLE'
		ORDER BY table_name`
	rows, err := c.db.QueryContext(ctx, query, db, schemaName)
	if err != nil {
		return nil, fmt.Errorf("duckdb: tables: %w", err)
	}
	defer rows.Close()

	var tables []schema.Table
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("duckdb: tables scan: %w", err)
		}
		tables = append(tables, schema.Table{Name: name})
	}
	return tables, rows.Err()
}

func (c *duckdbConn) Columns(ctx context.Context, db, schemaName, table string) ([]schema.Column, error) {
	db, schemaName = c.scope(db, schemaName)

	query := `SELECT column_name,
			data_type,
			is_nullable = 'YES',
			column_default,
			COALESCE(character_maximum_length, 0),
			COALESCE(numeric_precision, 0),
			COALESCE(numeric_scale, 0),
			column_name IN (
				SELECT kcu.column_name
				FROM information_schema.table_constraints tc
				JOIN information_schema.key_column_usage kcu
				  ON tc.constraint_name = kcu.constraint_name
				  AND tc.table_catalog = kcu.table_catalog
				  AND tc.table_schema = kcu.table_schema
				WHERE tc.constraint_type = 'PRIMARY KEY'
				  AND tc.table_catalog = ?
				  AND tc.table_schema = ?
				  AND tc.table_name = ?
			)
		FROM information_schema.columns
		WHERE table_catalog = ? AND table_schema = ? AND table_name = ?
		ORDER BY ordinal_position`
	rows, err := c.db.QueryContext(ctx, query, db, schemaName, table, db, schemaName, table)
	if err != nil {
		return nil, fmt.Errorf("duckdb: columns: %w", err)
	}
	defer rows.Close()

	var cols []schema.Column
	for rows.Next() {
		var (
			col                      schema.Column
			dflt                     sql.NullString
			length, precision, scale int64
		)
		if err := rows.Scan(&col.Name, &col.DataType, &col.Nullable, &dflt, &length, &precision, &scale, &col.Primary); err != nil {
			return nil, fmt.Errorf("duckdb: columns scan: %w", err)
		}
		if dflt.Valid {
			col.Default = schema.StringPtr(dflt.String)
			col.AutoIncrement = strings.HasPrefix(dflt.String, "nextval(")
		}
		col.Length = int(length)
		if strings.HasPrefix(col.DataType, "DECIMAL") {
			col.Precision = int(precision)
			col.Scale = int(scale)
		}
		// DuckDB reports enums inline: ENUM('a', 'b').
		col.EnumValues = typemap.EnumValues(col.DataType)
		cols = append(cols, col)
	}
	return cols, rows.Err()
}

func (c *duckdbConn) Indexes(ctx context.Context, db, schemaName, table string) ([]schema.Index, error) {
	db, schemaName = c.scope(db, schemaName)

	query := `SELECT index_name, is_unique, is_primary, sql
		FROM duckdb_indexes()
		WHERE database_name = ? AND schema_name = ? AND table_name = ?
		ORDER BY index_name`
	rows, err := c.db.QueryContext(ctx, query, db, schemaName, table)
	if err != nil {
		return nil, fmt.Errorf("duckdb: indexes: %w", err)
	}
	defer rows.Close()

	var indexes []schema.Index
	for rows.Next() {
		var idx schema.Index
		var sqlStr sql.NullString
		if err := rows.Scan(&idx.Name, &idx.Unique, &idx.Primary, &sqlStr); err != nil {
			return nil, fmt.Errorf("duckdb: indexes scan: %w", err)
		}
		// Extract column names from the index SQL if available.
		idx.Columns = parseIndexColumns(sqlStr.String)
		indexes = append(indexes, idx)
	}
	return indexes, rows.Err()
}

// parseIndexColumns extracts column names from a CREATE INDEX SQL statement.
// Example: "CREATE INDEX idx ON tbl (col1, col2)" -> ["col1", "col2"]
func parseIndexColumns(sqlStr string) []string {
	cols := []string{}
	start := strings.LastIndex(sqlStr, "(")
	end := strings.LastIndex(sqlStr, ")")
	if start < 0 || end <= start {
		return cols
	}
	for _, p := range strings.Split(sqlStr[start+1:end], ",") {
		col := strings.Trim(strings.TrimSpace(p), `"`)
		if col != "" {
			cols = append(cols, col)
		}
	}
	return cols
}

// ForeignKeys returns one entry per referencing column.
func (c *duckdbConn) ForeignKeys(ctx context.Context, db, schemaName, table string) ([]schema.ForeignKey, error) {
	db, schemaName = c.scope(db, schemaName)

	query := `SELECT
			rc.constraint_name,
			kcu.column_name,
			kcu2.table_name AS ref_table,
			kcu2.column_name AS ref_column,
			rc.delete_rule,
			rc.update_rule
		FROM information_schema.referential_constraints rc
		JOIN information_schema.key_column_usage kcu
		  ON rc.constraint_catalog = kcu.constraint_catalog
		  AND rc.constraint_schema = kcu.constraint_schema
		  AND rc.constraint_name = kcu.constraint_name
		JOIN information_schema.key_column_usage kcu2
		  ON rc.unique_constraint_catalog = kcu2.constraint_catalog
		  AND rc.unique_constraint_schema = kcu2.constraint_schema
		  AND rc.unique_constraint_name = kcu2.constraint_name
		  AND kcu.ordinal_position = kcu2.ordinal_position
		WHERE kcu.table_catalog = ? AND kcu.table_schema = ? AND kcu.table_name = ?
		ORDER BY rc.constraint_name, kcu.ordinal_position`
	rows, err := c.db.QueryContext(ctx, query, db, schemaName, table)
	if err != nil {
		return nil, fmt.Errorf("duckdb: foreign keys: %w", err)
	}
	defer rows.Close()

	var fks []schema.ForeignKey
	for rows.Next() {
		var fk schema.ForeignKey
		if err := rows.Scan(&fk.Name, &fk.Column, &fk.RefTable, &fk.RefColumn, &fk.OnDelete, &fk.OnUpdate); err != nil {
			return nil, fmt.Errorf("duckdb: foreign keys scan: %w", err)
		}
		fks = append(fks, fk)
	}
	return fks, rows.Err()
}

// ---------------------------------------------------------------------------
// Script execution
// ---------------------------------------------------------------------------

func (c *duckdbConn) Exec(ctx context.Context, script string) (*adapter.ExecResult, error) {
	start := time.Now()
	if _, err := c.db.ExecContext(ctx, script); err != nil {
		if ctx.Err() != nil {
			return nil, adapter.ErrCancelled
		}
		return nil, fmt.Errorf("duckdb: exec: %w", err)
	}
	return &adapter.ExecResult{
		Duration: time.Since(start),
		Message:  "script applied",
	}, nil
}
