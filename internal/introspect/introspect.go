// Package introspect adapts a live adapter.Connection to the export
// package's SchemaReader.
package introspect

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/sadopc/dbschema/internal/adapter"
	"github.com/sadopc/dbschema/internal/schema"
	"github.com/sadopc/dbschema/internal/typemap"
)

// Reader reads table metadata from one database and schema of a connection.
type Reader struct {
	conn       adapter.Connection
	db         string
	schemaName string
}

// New returns a Reader over conn. Empty db and schemaName select the
// connection's database and the adapter's default schema.
func New(conn adapter.Connection, db, schemaName string) *Reader {
	if db == "" {
		db = conn.DatabaseName()
	}
	if schemaName == "" {
		schemaName = adapter.DefaultSchema(conn.AdapterName())
	}
	return &Reader{conn: conn, db: db, schemaName: schemaName}
}

// DriverName returns the adapter name, which doubles as the dialect id.
func (r *Reader) DriverName() string { return r.conn.AdapterName() }

// Database returns the database being read.
func (r *Reader) Database() string { return r.db }

// Schema returns the schema being read.
func (r *Reader) Schema() string { return r.schemaName }

func (r *Reader) Columns(ctx context.Context, table string) ([]schema.Column, error) {
	cols, err := r.conn.Columns(ctx, r.db, r.schemaName, table)
	if err != nil {
		return nil, fmt.Errorf("columns of %s: %w", table, err)
	}
	if cols == nil {
		cols = []schema.Column{}
	}
	return cols, nil
}

func (r *Reader) Indexes(ctx context.Context, table string) ([]schema.Index, error) {
	idxs, err := r.conn.Indexes(ctx, r.db, r.schemaName, table)
	if err != nil {
		return nil, fmt.Errorf("indexes of %s: %w", table, err)
	}
	if idxs == nil {
		idxs = []schema.Index{}
	}
	return idxs, nil
}

func (r *Reader) ForeignKeys(ctx context.Context, table string) ([]schema.ForeignKey, error) {
	fks, err := r.conn.ForeignKeys(ctx, r.db, r.schemaName, table)
	if err != nil {
		return nil, fmt.Errorf("foreign keys of %s: %w", table, err)
	}
	if fks == nil {
		fks = []schema.ForeignKey{}
	}
	return fks, nil
}

// FieldType classifies a native type name.
func (r *Reader) FieldType(nativeType string) schema.LogicalType {
	return typemap.Map(nativeType)
}

// Tables returns the names of all base tables, sorted by name.
func (r *Reader) Tables(ctx context.Context) ([]string, error) {
	tables, err := r.conn.Tables(ctx, r.db, r.schemaName)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	names := make([]string, 0, len(tables))
	for _, t := range tables {
		names = append(names, t.Name)
	}
	return names, nil
}

// Summary counts the metadata of one table.
type Summary struct {
	Name        string `json:"name"`
	Columns     int    `json:"columns"`
	Indexes     int    `json:"indexes"`
	ForeignKeys int    `json:"foreignKeys"`
}

// summarizeWorkers bounds the number of tables summarized at once.
const summarizeWorkers = 4

// Summarize returns a Summary for each named table, in order. Tables are
// read concurrently; the first error cancels the rest.
func (r *Reader) Summarize(ctx context.Context, tables []string) ([]Summary, error) {
	out := make([]Summary, len(tables))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(summarizeWorkers)
	for i, name := range tables {
		g.Go(func() error {
			cols, err := r.Columns(ctx, name)
			if err != nil {
				return err
			}
			idxs, err := r.Indexes(ctx, name)
			if err != nil {
				return err
			}
			fks, err := r.ForeignKeys(ctx, name)
			if err != nil {
				return err
			}
			out[i] = Summary{
				Name:        name,
				Columns:     len(cols),
				Indexes:     len(idxs),
				ForeignKeys: len(fks),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
