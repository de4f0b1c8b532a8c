package dialect

import (
	"fmt"
	"strings"

	"github.com/sadopc/dbschema/internal/schema"
)

type postgresDialect struct{}

var _ TypeDefiner = postgresDialect{}

func (postgresDialect) Name() string { return Postgres }

func (postgresDialect) QuoteIdentifier(name string) string {
	return quoteWith(name, `"`)
}

func (postgresDialect) BeginTransaction() string  { return "BEGIN;" }
func (postgresDialect) CommitTransaction() string { return "COMMIT;" }

func (d postgresDialect) ColumnDefinition(c schema.Column) string {
	var b strings.Builder
	b.WriteString(d.QuoteIdentifier(c.Name))
	b.WriteByte(' ')
	if c.AutoIncrement {
		b.WriteString(serialType(c))
	} else {
		b.WriteString(d.nativeType(c))
	}
	if !c.Nullable {
		b.WriteString(" NOT NULL")
	}
	// serial columns own their sequence default
	if c.Default != nil && !c.AutoIncrement {
		b.WriteString(" DEFAULT ")
		b.WriteString(strings.TrimSpace(*c.Default))
	}
	return b.String()
}

// postgresAliases maps information_schema data_type spellings to the
// udt_name of the same type.
var postgresAliases = map[string]string{
	"smallint":                    "int2",
	"integer":                     "int4",
	"int":                         "int4",
	"bigint":                      "int8",
	"real":                        "float4",
	"double precision":            "float8",
	"boolean":                     "bool",
	"character varying":           "varchar",
	"character":                   "bpchar",
	"char":                        "bpchar",
	"decimal":                     "numeric",
	"timestamp without time zone": "timestamp",
	"timestamp with time zone":    "timestamptz",
	"time without time zone":      "time",
	"time with time zone":         "timetz",
	"bit varying":                 "varbit",
}

var postgresTypes = map[string]string{
	"int2":        "SMALLINT",
	"int4":        "INTEGER",
	"int8":        "BIGINT",
	"float4":      "REAL",
	"float8":      "DOUBLE PRECISION",
	"bool":        "BOOLEAN",
	"text":        "TEXT",
	"date":        "DATE",
	"timestamp":   "TIMESTAMP",
	"timestamptz": "TIMESTAMPTZ",
	"time":        "TIME",
	"timetz":      "TIMETZ",
	"interval":    "INTERVAL",
	"json":        "JSON",
	"jsonb":       "JSONB",
	"uuid":        "UUID",
	"bytea":       "BYTEA",
	"money":       "MONEY",
	"inet":        "INET",
	"cidr":        "CIDR",
	"macaddr":     "MACADDR",
	"xml":         "XML",
	"tsvector":    "TSVECTOR",
	"oid":         "OID",
}

// nativeType renders the column type from udt_name, falling back to
// data_type. Types the catalog marks USER-DEFINED (enums, domains) are
// emitted as quoted identifiers.
func (d postgresDialect) nativeType(c schema.Column) string {
	udt := strings.TrimSpace(c.UDTName)
	if udt == "" {
		dt := strings.ToLower(strings.TrimSpace(c.DataType))
		if alias, ok := postgresAliases[dt]; ok {
			dt = alias
		}
		udt = dt
	}
	if udt == "" {
		return "TEXT"
	}
	if strings.HasPrefix(udt, "_") {
		return d.baseType(udt[1:], schema.Column{}, c.DataType) + "[]"
	}
	return d.baseType(udt, c, c.DataType)
}

func (d postgresDialect) baseType(udt string, c schema.Column, dataType string) string {
	lower := strings.ToLower(udt)
	if t, ok := postgresTypes[lower]; ok {
		return t
	}
	switch lower {
	case "varchar":
		if c.Length > 0 {
			return fmt.Sprintf("VARCHAR(%d)", c.Length)
		}
		return "VARCHAR"
	case "bpchar":
		if c.Length > 0 {
			return fmt.Sprintf("CHAR(%d)", c.Length)
		}
		return "CHAR"
	case "bit", "varbit":
		name := "BIT"
		if lower == "varbit" {
			name = "VARBIT"
		}
		if c.Length > 0 {
			return fmt.Sprintf("%s(%d)", name, c.Length)
		}
		return name
	case "numeric":
		if c.Precision > 0 {
			return fmt.Sprintf("NUMERIC(%d,%d)", c.Precision, c.Scale)
		}
		return "NUMERIC"
	}
	if strings.EqualFold(dataType, "USER-DEFINED") || len(c.EnumValues) > 0 {
		return d.QuoteIdentifier(udt)
	}
	return strings.ToUpper(udt)
}

// serialType picks the serial pseudo-type matching the integer width.
func serialType(c schema.Column) string {
	key := strings.ToLower(strings.TrimSpace(c.UDTName))
	if key == "" {
		key = strings.ToLower(strings.TrimSpace(c.DataType))
	}
	switch key {
	case "int2", "smallint", "smallserial", "serial2":
		return "SMALLSERIAL"
	case "int8", "bigint", "bigserial", "serial8":
		return "BIGSERIAL"
	}
	return "SERIAL"
}

// TypeDefinitions creates the enum types referenced by the tables' columns.
// Array columns reuse the type of their element and add nothing.
func (d postgresDialect) TypeDefinitions(tables []schema.Table) []string {
	var stmts []string
	seen := make(map[string]bool)
	for _, t := range tables {
		for _, c := range t.Columns {
			udt := strings.TrimSpace(c.UDTName)
			if len(c.EnumValues) == 0 || udt == "" || strings.HasPrefix(udt, "_") || seen[udt] {
				continue
			}
			seen[udt] = true
			labels := make([]string, len(c.EnumValues))
			for i, v := range c.EnumValues {
				labels[i] = quoteLiteral(v)
			}
			stmts = append(stmts, fmt.Sprintf("CREATE TYPE %s AS ENUM (%s);", d.QuoteIdentifier(udt), strings.Join(labels, ", ")))
		}
	}
	return stmts
}

func (d postgresDialect) ForeignKeyClause(fk schema.ForeignKeyConstraint) string {
	return foreignKeyClause(d, fk, true)
}

func (postgresDialect) InlinePrimaryKey(schema.Column) bool { return false }

func (d postgresDialect) IndexDefinitions(table string, indexes []schema.Index) (inline, statements []string) {
	for _, idx := range secondaryIndexes(indexes) {
		statements = append(statements, createIndexStatement(d, table, idx.Name, idx))
	}
	return nil, statements
}
