package dialect

import (
	"fmt"
	"strings"

	"github.com/sadopc/dbschema/internal/schema"
)

type mysqlDialect struct{}

func (mysqlDialect) Name() string { return MySQL }

func (mysqlDialect) QuoteIdentifier(name string) string {
	return quoteWith(name, "`")
}

func (mysqlDialect) BeginTransaction() string  { return "START TRANSACTION;" }
func (mysqlDialect) CommitTransaction() string { return "COMMIT;" }

func (d mysqlDialect) ColumnDefinition(c schema.Column) string {
	var b strings.Builder
	b.WriteString(d.QuoteIdentifier(c.Name))
	b.WriteByte(' ')
	b.WriteString(mysqlType(c))
	if !c.Nullable {
		b.WriteString(" NOT NULL")
	}
	if c.Default != nil && !c.AutoIncrement {
		b.WriteString(" DEFAULT ")
		b.WriteString(mysqlDefault(*c.Default, c.LogicalType))
	}
	if c.AutoIncrement {
		b.WriteString(" AUTO_INCREMENT")
	}
	return b.String()
}

// mysqlType prefers the detailed COLUMN_TYPE, which already carries size,
// signedness and enum members.
func mysqlType(c schema.Column) string {
	if t := strings.TrimSpace(c.ColumnType); t != "" {
		return t
	}
	t := strings.ToUpper(strings.TrimSpace(c.DataType))
	if t == "" {
		return "TEXT"
	}
	switch {
	case (t == "VARCHAR" || t == "CHAR" || t == "VARBINARY" || t == "BINARY") && c.Length > 0:
		return fmt.Sprintf("%s(%d)", t, c.Length)
	case (t == "DECIMAL" || t == "NUMERIC") && c.Precision > 0:
		return fmt.Sprintf("%s(%d,%d)", t, c.Precision, c.Scale)
	case (t == "ENUM" || t == "SET") && len(c.EnumValues) > 0:
		quoted := make([]string, len(c.EnumValues))
		for i, v := range c.EnumValues {
			quoted[i] = quoteLiteral(v)
		}
		return fmt.Sprintf("%s(%s)", t, strings.Join(quoted, ","))
	}
	return t
}

// mysqlBareFunctions may appear as a DEFAULT without parentheses.
var mysqlBareFunctions = map[string]bool{
	"CURRENT_TIMESTAMP": true,
	"NOW":               true,
	"LOCALTIME":         true,
	"LOCALTIMESTAMP":    true,
}

// mysqlDefault renders COLUMN_DEFAULT, which MySQL reports without quotes
// for text values and without the parentheses an expression default was
// declared with.
func mysqlDefault(def string, lt schema.LogicalType) string {
	if isExpression(def) {
		trimmed := strings.TrimSpace(def)
		if open := strings.IndexByte(trimmed, '('); open > 0 && !mysqlBareFunctions[strings.ToUpper(trimmed[:open])] {
			return "(" + trimmed + ")"
		}
		return def
	}
	if (lt.Numeric() || lt == schema.LogicalBool) && isNumber(def) {
		return strings.TrimSpace(def)
	}
	return quoteLiteral(def)
}

func (d mysqlDialect) ForeignKeyClause(fk schema.ForeignKeyConstraint) string {
	return foreignKeyClause(d, fk, true)
}

func (mysqlDialect) InlinePrimaryKey(schema.Column) bool { return false }

func (d mysqlDialect) IndexDefinitions(_ string, indexes []schema.Index) (inline, statements []string) {
	for _, idx := range secondaryIndexes(indexes) {
		kind := "KEY"
		if idx.Unique {
			kind = "UNIQUE KEY"
		}
		inline = append(inline, fmt.Sprintf("%s %s (%s)", kind, d.QuoteIdentifier(idx.Name), quoteList(d, idx.Columns)))
	}
	return inline, nil
}
