// Package export turns table metadata read from a live database into SQL
// DDL scripts and versioned JSON or YAML schema documents.
package export

import (
	"context"

	"github.com/sadopc/dbschema/internal/schema"
	"github.com/sadopc/dbschema/internal/typemap"
)

// SchemaReader supplies table metadata for one database connection.
type SchemaReader interface {
	// DriverName identifies the SQL dialect of the underlying database.
	DriverName() string
	Columns(ctx context.Context, table string) ([]schema.Column, error)
	Indexes(ctx context.Context, table string) ([]schema.Index, error)
	ForeignKeys(ctx context.Context, table string) ([]schema.ForeignKey, error)
	// FieldType classifies a native type name.
	FieldType(nativeType string) schema.LogicalType
}

// fetchTable reads the full metadata of one table. Errors from the reader
// are returned as is. Collections in the result are never nil.
func fetchTable(ctx context.Context, r SchemaReader, name string) (schema.Table, error) {
	cols, err := r.Columns(ctx, name)
	if err != nil {
		return schema.Table{}, err
	}
	idxs, err := r.Indexes(ctx, name)
	if err != nil {
		return schema.Table{}, err
	}
	fks, err := r.ForeignKeys(ctx, name)
	if err != nil {
		return schema.Table{}, err
	}

	t := schema.Table{
		Name:        name,
		Columns:     make([]schema.Column, len(cols)),
		Indexes:     make([]schema.Index, len(idxs)),
		ForeignKeys: make([]schema.ForeignKey, len(fks)),
	}
	for i, c := range cols {
		if len(c.EnumValues) == 0 {
			c.EnumValues = nil
		}
		c.LogicalType = typemap.ForColumn(c, r.FieldType)
		t.Columns[i] = c
	}
	for i, idx := range idxs {
		if idx.Columns == nil {
			idx.Columns = []string{}
		}
		t.Indexes[i] = idx
	}
	copy(t.ForeignKeys, fks)
	return t, nil
}

// uniqueNames drops repeated table names, keeping the first occurrence.
func uniqueNames(tables []string) []string {
	seen := make(map[string]bool, len(tables))
	out := make([]string, 0, len(tables))
	for _, name := range tables {
		if seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}
