package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/sadopc/dbschema/internal/adapter"
	"github.com/sadopc/dbschema/internal/schema"

	_ "modernc.org/sqlite"
)

func init() {
	adapter.Register(&sqliteAdapter{})
}

// sqliteAdapter implements adapter.Adapter for SQLite databases.
type sqliteAdapter struct{}

func (a *sqliteAdapter) Name() string     { return "sqlite" }
func (a *sqliteAdapter) DefaultPort() int { return 0 }

func (a *sqliteAdapter) Connect(ctx context.Context, dsn string) (adapter.Connection, error) {
	dsn = normalizeDSN(dsn)

	db, err := sql.Open("sqlite", withForeignKeys(dsn))
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	// Every pooled connection to :memory: would see its own empty database.
	if dsn == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite ping: %w", err)
	}

	// The DSN pragma covers every pooled connection; this checks it took.
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite enable foreign keys: %w", err)
	}

	dbName := dsn
	if dsn != ":memory:" {
		dbName = filepath.Base(dsn)
	}

	return &sqliteConn{
		db:     db,
		dsn:    dsn,
		dbName: dbName,
	}, nil
}

// withForeignKeys asks the driver to enable foreign key enforcement on each
// connection it opens.
func withForeignKeys(dsn string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)"
}

// normalizeDSN strips common SQLite URI prefixes.
func normalizeDSN(dsn string) string {
	if strings.HasPrefix(dsn, "sqlite://") {
		return strings.TrimPrefix(dsn, "sqlite://")
	}
	if strings.HasPrefix(dsn, "file:") {
		return strings.TrimPrefix(dsn, "file:")
	}
	return dsn
}

// quoteIdent double-quotes a name for use in a PRAGMA argument.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// sqliteConn implements adapter.Connection.
type sqliteConn struct {
	db     *sql.DB
	dsn    string
	dbName string
}

func (c *sqliteConn) AdapterName() string  { return "sqlite" }
func (c *sqliteConn) DatabaseName() string { return c.dbName }

func (c *sqliteConn) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

func (c *sqliteConn) Close() error {
	return c.db.Close()
}

// Tables returns all user tables in the database.
func (c *sqliteConn) Tables(ctx context.Context, db, schemaName string) ([]schema.Table, error) {
	rows, err := c.db.QueryContext(ctx,
		"SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("sqlite tables: %w", err)
	}
	defer rows.Close()

	var tables []schema.Table
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("sqlite tables scan: %w", err)
		}
		tables = append(tables, schema.Table{Name: name})
	}
	return tables, rows.Err()
}

// Columns returns column metadata for the given table using PRAGMA table_info.
func (c *sqliteConn) Columns(ctx context.Context, db, schemaName, table string) ([]schema.Column, error) {
	rows, err := c.db.QueryContext(ctx, "PRAGMA table_info("+quoteIdent(table)+")")
	if err != nil {
		return nil, fmt.Errorf("sqlite columns: %w", err)
	}
	defer rows.Close()

	var (
		columns []schema.Column
		pkCount int
	)
	for rows.Next() {
		var (
			cid       int
			name      string
			colType   string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return nil, fmt.Errorf("sqlite columns scan: %w", err)
		}
		col := schema.Column{
			Name:     name,
			DataType: colType,
			Nullable: notNull == 0 && pk == 0,
			Primary:  pk > 0,
		}
		if dfltValue.Valid {
			col.Default = schema.StringPtr(dfltValue.String)
		}
		if pk > 0 {
			pkCount++
		}
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite columns: %w", err)
	}
	rows.Close()

	if pkCount == 1 {
		auto, err := c.hasAutoIncrement(ctx, table)
		if err != nil {
			return nil, err
		}
		for i := range columns {
			if auto && columns[i].Primary && strings.EqualFold(columns[i].DataType, "INTEGER") {
				columns[i].AutoIncrement = true
			}
		}
	}
	return columns, nil
}

// hasAutoIncrement reports whether the CREATE TABLE statement of table
// declares AUTOINCREMENT. SQLite only accepts it on the single INTEGER
// PRIMARY KEY column, so the keyword alone identifies that column.
func (c *sqliteConn) hasAutoIncrement(ctx context.Context, table string) (bool, error) {
	var ddl sql.NullString
	err := c.db.QueryRowContext(ctx,
		"SELECT sql FROM sqlite_master WHERE type='table' AND name = ?", table).Scan(&ddl)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("sqlite table sql: %w", err)
	}
	return strings.Contains(strings.ToUpper(ddl.String), "AUTOINCREMENT"), nil
}

// Indexes returns index information for the given table.
func (c *sqliteConn) Indexes(ctx context.Context, db, schemaName, table string) ([]schema.Index, error) {
	listRows, err := c.db.QueryContext(ctx, "PRAGMA index_list("+quoteIdent(table)+")")
	if err != nil {
		return nil, fmt.Errorf("sqlite index_list: %w", err)
	}
	defer listRows.Close()

	type indexEntry struct {
		name    string
		unique  bool
		primary bool
	}
	var entries []indexEntry
	for listRows.Next() {
		var (
			seq     int
			name    string
			unique  int
			origin  string
			partial int
		)
		if err := listRows.Scan(&seq, &name, &unique, &origin, &partial); err != nil {
			return nil, fmt.Errorf("sqlite index_list scan: %w", err)
		}
		entries = append(entries, indexEntry{name: name, unique: unique == 1, primary: origin == "pk"})
	}
	if err := listRows.Err(); err != nil {
		return nil, err
	}
	listRows.Close()

	var indexes []schema.Index
	// index_list reports the newest index first.
	for i := len(entries) - 1; i >= 0; i-- {
		entry := entries[i]
		infoRows, err := c.db.QueryContext(ctx, "PRAGMA index_info("+quoteIdent(entry.name)+")")
		if err != nil {
			return nil, fmt.Errorf("sqlite index_info: %w", err)
		}

		cols := []string{}
		for infoRows.Next() {
			var (
				seqno int
				cid   int
				name  sql.NullString
			)
			if err := infoRows.Scan(&seqno, &cid, &name); err != nil {
				infoRows.Close()
				return nil, fmt.Errorf("sqlite index_info scan: %w", err)
			}
			// expression columns have no name
			if name.Valid {
				cols = append(cols, name.String)
			}
		}
		infoRows.Close()
		if err := infoRows.Err(); err != nil {
			return nil, err
		}

		indexes = append(indexes, schema.Index{
			Name:    entry.name,
			Columns: cols,
			Unique:  entry.unique,
			Primary: entry.primary,
		})
	}
	return indexes, nil
}

// primaryKey returns the primary key columns of table in key order. A table
// without a declared primary key, or one that does not exist, yields none.
func (c *sqliteConn) primaryKey(ctx context.Context, table string) ([]string, error) {
	rows, err := c.db.QueryContext(ctx,
		"SELECT name FROM pragma_table_info(?) WHERE pk > 0 ORDER BY pk", table)
	if err != nil {
		return nil, fmt.Errorf("sqlite primary key: %w", err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("sqlite primary key scan: %w", err)
		}
		cols = append(cols, name)
	}
	return cols, rows.Err()
}

// ForeignKeys returns foreign key constraints for the given table, one
// entry per referencing column. SQLite does not keep constraint names, so
// every column of constraint id N is named fk_<table>_<N>.
func (c *sqliteConn) ForeignKeys(ctx context.Context, db, schemaName, table string) ([]schema.ForeignKey, error) {
	rows, err := c.db.QueryContext(ctx, "PRAGMA foreign_key_list("+quoteIdent(table)+")")
	if err != nil {
		return nil, fmt.Errorf("sqlite foreign_key_list: %w", err)
	}
	defer rows.Close()

	type fkRow struct {
		id, seq int
		fk      schema.ForeignKey
	}
	var list []fkRow
	for rows.Next() {
		var (
			id       int
			seq      int
			refTable string
			from     string
			to       sql.NullString
			onUpdate string
			onDelete string
			match    string
		)
		if err := rows.Scan(&id, &seq, &refTable, &from, &to, &onUpdate, &onDelete, &match); err != nil {
			return nil, fmt.Errorf("sqlite foreign_key_list scan: %w", err)
		}
		list = append(list, fkRow{id: id, seq: seq, fk: schema.ForeignKey{
			Name:      fmt.Sprintf("fk_%s_%d", table, id),
			Column:    from,
			RefTable:  refTable,
			RefColumn: to.String,
			OnDelete:  onDelete,
			OnUpdate:  onUpdate,
		}})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	// "REFERENCES parent" without a column list targets the parent's
	// primary key, which the pragma reports as a NULL "to".
	parentKeys := map[string][]string{}
	for i, r := range list {
		if r.fk.RefColumn != "" {
			continue
		}
		pk, ok := parentKeys[r.fk.RefTable]
		if !ok {
			var err error
			if pk, err = c.primaryKey(ctx, r.fk.RefTable); err != nil {
				return nil, err
			}
			parentKeys[r.fk.RefTable] = pk
		}
		if r.seq < len(pk) {
			list[i].fk.RefColumn = pk[r.seq]
		}
	}

	// Constraints are listed newest first; report them in declaration order.
	fks := make([]schema.ForeignKey, 0, len(list))
	maxID := -1
	for _, r := range list {
		if r.id > maxID {
			maxID = r.id
		}
	}
	for id := maxID; id >= 0; id-- {
		for _, r := range list {
			if r.id == id {
				fks = append(fks, r.fk)
			}
		}
	}
	return fks, nil
}

// Exec runs a multi-statement script.
func (c *sqliteConn) Exec(ctx context.Context, script string) (*adapter.ExecResult, error) {
	start := time.Now()
	if _, err := c.db.ExecContext(ctx, script); err != nil {
		if ctx.Err() != nil {
			return nil, adapter.ErrCancelled
		}
		return nil, fmt.Errorf("sqlite exec: %w", err)
	}
	return &adapter.ExecResult{
		Duration: time.Since(start),
		Message:  "script applied",
	}, nil
}
