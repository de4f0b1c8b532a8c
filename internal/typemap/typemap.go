// Package typemap classifies native database type names into the small,
// closed set of logical types used by the exporters.
package typemap

import (
	"strings"

	"github.com/sadopc/dbschema/internal/schema"
)

// natives maps a normalized native type name to its logical type. Names are
// lower case with size arguments and sign modifiers removed.
var natives = map[string]schema.LogicalType{
	// integers
	"tinyint":     schema.LogicalInt,
	"smallint":    schema.LogicalInt,
	"mediumint":   schema.LogicalInt,
	"int":         schema.LogicalInt,
	"integer":     schema.LogicalInt,
	"bigint":      schema.LogicalInt,
	"int2":        schema.LogicalInt,
	"int4":        schema.LogicalInt,
	"int8":        schema.LogicalInt,
	"serial":      schema.LogicalInt,
	"smallserial": schema.LogicalInt,
	"bigserial":   schema.LogicalInt,
	"serial2":     schema.LogicalInt,
	"serial4":     schema.LogicalInt,
	"serial8":     schema.LogicalInt,
	"year":        schema.LogicalInt,
	"oid":         schema.LogicalInt,
	"hugeint":     schema.LogicalInt,
	"ubigint":     schema.LogicalInt,
	"uinteger":    schema.LogicalInt,
	"usmallint":   schema.LogicalInt,
	"utinyint":    schema.LogicalInt,

	// floating point and fixed point
	"float":            schema.LogicalFloat,
	"double":           schema.LogicalFloat,
	"double precision": schema.LogicalFloat,
	"real":             schema.LogicalFloat,
	"decimal":          schema.LogicalFloat,
	"numeric":          schema.LogicalFloat,
	"float4":           schema.LogicalFloat,
	"float8":           schema.LogicalFloat,
	"money":            schema.LogicalFloat,

	// booleans
	"bool":    schema.LogicalBool,
	"boolean": schema.LogicalBool,

	// temporal
	"date":                        schema.LogicalDatetime,
	"datetime":                    schema.LogicalDatetime,
	"timestamp":                   schema.LogicalDatetime,
	"timestamptz":                 schema.LogicalDatetime,
	"timestamp without time zone": schema.LogicalDatetime,
	"timestamp with time zone":    schema.LogicalDatetime,
	"time":                        schema.LogicalDatetime,
	"timetz":                      schema.LogicalDatetime,
	"time without time zone":      schema.LogicalDatetime,
	"time with time zone":         schema.LogicalDatetime,

	// structured documents
	"json":  schema.LogicalArray,
	"jsonb": schema.LogicalArray,

	// text and binary
	"char":              schema.LogicalString,
	"varchar":           schema.LogicalString,
	"character":         schema.LogicalString,
	"character varying": schema.LogicalString,
	"bpchar":            schema.LogicalString,
	"nchar":             schema.LogicalString,
	"nvarchar":          schema.LogicalString,
	"text":              schema.LogicalString,
	"tinytext":          schema.LogicalString,
	"mediumtext":        schema.LogicalString,
	"longtext":          schema.LogicalString,
	"clob":              schema.LogicalString,
	"enum":              schema.LogicalString,
	"set":               schema.LogicalString,
	"uuid":              schema.LogicalString,
	"citext":            schema.LogicalString,
	"name":              schema.LogicalString,
	"inet":              schema.LogicalString,
	"cidr":              schema.LogicalString,
	"macaddr":           schema.LogicalString,
	"interval":          schema.LogicalString,
	"xml":               schema.LogicalString,
	"blob":              schema.LogicalString,
	"tinyblob":          schema.LogicalString,
	"mediumblob":        schema.LogicalString,
	"longblob":          schema.LogicalString,
	"binary":            schema.LogicalString,
	"varbinary":         schema.LogicalString,
	"bytea":             schema.LogicalString,
	"bit":               schema.LogicalString,
	"varbit":            schema.LogicalString,
}

var modifiers = []string{"unsigned", "signed", "zerofill"}

// Map returns the logical type of a native type name. It never fails:
// names that are not catalogued map to schema.LogicalUnknown.
//
// A leading underscore marks a PostgreSQL array type (udt_name "_text")
// and is classified by its element type.
func Map(native string) schema.LogicalType {
	name := Normalize(native)
	if name == "" {
		return schema.LogicalUnknown
	}
	if strings.HasPrefix(name, "_") {
		name = name[1:]
	}
	name = strings.TrimSuffix(name, "[]")
	if lt, ok := natives[name]; ok {
		return lt
	}
	return schema.LogicalUnknown
}

// Normalize lower-cases a native type name and drops size arguments and
// sign modifiers: "INT(10) UNSIGNED" becomes "int".
func Normalize(native string) string {
	name := strings.ToLower(strings.TrimSpace(native))
	if open := strings.IndexByte(name, '('); open >= 0 {
		rest := ""
		if end := strings.LastIndexByte(name, ')'); end > open {
			rest = name[end+1:]
		}
		name = name[:open] + rest
	}
	fields := strings.Fields(name)
	kept := fields[:0]
	for _, f := range fields {
		if !isModifier(f) {
			kept = append(kept, f)
		}
	}
	return strings.Join(kept, " ")
}

func isModifier(word string) bool {
	for _, m := range modifiers {
		if word == m {
			return true
		}
	}
	return false
}

// lookupOrder lists the column fields consulted by LookupKey, most specific
// first.
var lookupOrder = []func(schema.Column) string{
	func(c schema.Column) string { return c.ColumnType },
	func(c schema.Column) string { return c.UDTName },
	func(c schema.Column) string { return c.DataType },
}

// LookupKey returns the native type name used to classify c: the MySQL
// detailed column type when present, else the PostgreSQL underlying type
// name, else the generic data type.
func LookupKey(c schema.Column) string {
	for _, field := range lookupOrder {
		if v := strings.TrimSpace(field(c)); v != "" {
			return v
		}
	}
	return ""
}

// ForColumn returns the logical type of c, classifying its lookup key with
// classify, or Map when classify is nil. Enumerations are strings
// regardless of how the driver reports them, and an empty classification
// is unknown.
func ForColumn(c schema.Column, classify func(nativeType string) schema.LogicalType) schema.LogicalType {
	if len(c.EnumValues) > 0 {
		return schema.LogicalString
	}
	if classify == nil {
		classify = Map
	}
	if lt := classify(LookupKey(c)); lt != "" {
		return lt
	}
	return schema.LogicalUnknown
}

// EnumValues parses the value list of a MySQL enum or set column type, for
// example "enum('a','it''s')". It returns nil for any other type.
func EnumValues(columnType string) []string {
	lower := strings.ToLower(strings.TrimSpace(columnType))
	var body string
	switch {
	case strings.HasPrefix(lower, "enum("):
		body = strings.TrimSpace(columnType)[len("enum("):]
	case strings.HasPrefix(lower, "set("):
		body = strings.TrimSpace(columnType)[len("set("):]
	default:
		return nil
	}
	body = strings.TrimSuffix(body, ")")

	var (
		values  []string
		cur     strings.Builder
		inQuote bool
	)
	for i := 0; i < len(body); i++ {
		ch := body[i]
		switch {
		case inQuote && ch == '\'' && i+1 < len(body) && body[i+1] == '\'':
			cur.WriteByte('\'')
			i++
		case inQuote && ch == '\\' && i+1 < len(body):
			cur.WriteByte(body[i+1])
			i++
		case ch == '\'':
			if inQuote {
				values = append(values, cur.String())
				cur.Reset()
			}
			inQuote = !inQuote
		case inQuote:
			cur.WriteByte(ch)
		}
	}
	return values
}
