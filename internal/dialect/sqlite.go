package dialect

import (
	"strings"

	"github.com/sadopc/dbschema/internal/schema"
)

const sqliteAutoIndexPrefix = "sqlite_autoindex_"

type sqliteDialect struct{}

func (sqliteDialect) Name() string { return SQLite }

func (sqliteDialect) QuoteIdentifier(name string) string {
	return quoteWith(name, `"`)
}

func (sqliteDialect) BeginTransaction() string  { return "BEGIN TRANSACTION;" }
func (sqliteDialect) CommitTransaction() string { return "COMMIT;" }

func (d sqliteDialect) ColumnDefinition(c schema.Column) string {
	var b strings.Builder
	b.WriteString(d.QuoteIdentifier(c.Name))
	if d.InlinePrimaryKey(c) {
		// AUTOINCREMENT is only legal on an INTEGER PRIMARY KEY column.
		b.WriteString(" INTEGER PRIMARY KEY AUTOINCREMENT")
		return b.String()
	}
	if t := strings.TrimSpace(c.DataType); t != "" {
		b.WriteByte(' ')
		b.WriteString(t)
	}
	if !c.Nullable {
		b.WriteString(" NOT NULL")
	}
	if c.Default != nil {
		b.WriteString(" DEFAULT ")
		b.WriteString(sqliteDefault(*c.Default))
	}
	return b.String()
}

// sqliteDefault emits the default as stored in the table definition.
// Non-literal expressions other than keywords must be parenthesized.
func sqliteDefault(def string) string {
	def = strings.TrimSpace(def)
	if def == "" {
		return "''"
	}
	if isNumber(def) || def[0] == '\'' || def[0] == '(' || keywordDefaults[strings.ToUpper(def)] {
		return def
	}
	lower := strings.ToLower(def)
	if strings.HasPrefix(lower, "x'") {
		return def
	}
	if isExpression(def) {
		return "(" + def + ")"
	}
	return def
}

func (d sqliteDialect) ForeignKeyClause(fk schema.ForeignKeyConstraint) string {
	// pragma foreign_key_list reports no constraint names; any name here
	// was synthesized during introspection.
	return foreignKeyClause(d, fk, false)
}

func (sqliteDialect) InlinePrimaryKey(c schema.Column) bool {
	return c.Primary && c.AutoIncrement
}

func (d sqliteDialect) IndexDefinitions(table string, indexes []schema.Index) (inline, statements []string) {
	for _, idx := range secondaryIndexes(indexes) {
		name := idx.Name
		if name == "" || strings.HasPrefix(name, sqliteAutoIndexPrefix) {
			name = table + "_" + strings.Join(idx.Columns, "_") + "_key"
		}
		statements = append(statements, createIndexStatement(d, table, name, idx))
	}
	return nil, statements
}
