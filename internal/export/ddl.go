package export

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sadopc/dbschema/internal/dialect"
	"github.com/sadopc/dbschema/internal/schema"
)

// ScriptHeader is the first line of every generated DDL script.
const ScriptHeader = "-- SQL DDL Export"

// ErrNoColumns is returned when a table to be rendered as DDL reports no
// columns, usually because it does not exist. Only PostgreSQL accepts a
// column-less CREATE TABLE.
var ErrNoColumns = errors.New("table has no columns")

// DDLExporter renders CREATE TABLE scripts for the dialect of its reader.
// It is not safe for concurrent use.
type DDLExporter struct {
	reader  SchemaReader
	dialect dialect.Dialect

	// Indexes controls whether secondary indexes are rendered.
	Indexes bool
}

// NewDDLExporter returns a DDLExporter reading from r, with index rendering
// enabled.
func NewDDLExporter(r SchemaReader) *DDLExporter {
	return &DDLExporter{reader: r, Indexes: true}
}

// Dialect resolves the dialect for the reader's driver on first use and
// returns the cached value afterwards.
func (e *DDLExporter) Dialect() (dialect.Dialect, error) {
	if e.dialect == nil {
		d, err := dialect.For(e.reader.DriverName())
		if err != nil {
			return nil, err
		}
		e.dialect = d
	}
	return e.dialect, nil
}

// Generate returns a transactional DDL script creating tables in the given
// order, preceded by any user-defined types they need. Tables are not
// reordered by their foreign key dependencies.
func (e *DDLExporter) Generate(ctx context.Context, tables []string) (string, error) {
	d, err := e.Dialect()
	if err != nil {
		return "", err
	}

	var fetched []schema.Table
	for _, name := range uniqueNames(tables) {
		t, err := fetchTable(ctx, e.reader, name)
		if err != nil {
			return "", err
		}
		fetched = append(fetched, t)
	}

	var blocks []string
	if td, ok := d.(dialect.TypeDefiner); ok {
		if types := td.TypeDefinitions(fetched); len(types) > 0 {
			blocks = append(blocks, strings.Join(types, "\n"))
		}
	}
	for _, t := range fetched {
		block, err := e.renderTable(d, t)
		if err != nil {
			return "", err
		}
		blocks = append(blocks, block)
	}

	var b strings.Builder
	b.WriteString(ScriptHeader)
	b.WriteByte('\n')
	b.WriteString(d.BeginTransaction())
	b.WriteString("\n\n")
	for _, block := range blocks {
		b.WriteString(block)
		b.WriteString("\n\n")
	}
	b.WriteString(d.CommitTransaction())
	return b.String(), nil
}

// renderTable renders the CREATE TABLE statement of t followed by any
// standalone index statements.
func (e *DDLExporter) renderTable(d dialect.Dialect, t schema.Table) (string, error) {
	if len(t.Columns) == 0 {
		if d.Name() != dialect.Postgres {
			return "", fmt.Errorf("%s: %w", t.Name, ErrNoColumns)
		}
		return fmt.Sprintf("CREATE TABLE %s ();", d.QuoteIdentifier(t.Name)), nil
	}

	defs := make([]string, 0, len(t.Columns)+len(t.ForeignKeys)+1)
	var pk []string
	for _, c := range t.Columns {
		defs = append(defs, d.ColumnDefinition(c))
		if c.Primary && !d.InlinePrimaryKey(c) {
			pk = append(pk, d.QuoteIdentifier(c.Name))
		}
	}
	if len(pk) > 0 {
		defs = append(defs, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(pk, ", ")))
	}

	var statements []string
	if e.Indexes {
		var inline []string
		inline, statements = d.IndexDefinitions(t.Name, t.Indexes)
		defs = append(defs, inline...)
	}

	for _, fk := range schema.GroupForeignKeys(t.ForeignKeys) {
		defs = append(defs, d.ForeignKeyClause(fk))
	}

	stmt := fmt.Sprintf("CREATE TABLE %s (\n  %s\n);", d.QuoteIdentifier(t.Name), strings.Join(defs, ",\n  "))
	if len(statements) == 0 {
		return stmt, nil
	}
	return stmt + "\n" + strings.Join(statements, "\n"), nil
}
