// Package dialect renders dialect-neutral schema objects as SQL DDL for
// MySQL, PostgreSQL and SQLite.
package dialect

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/sadopc/dbschema/internal/schema"
)

// Driver identifiers accepted by For.
const (
	MySQL    = "mysql"
	Postgres = "postgres"
	SQLite   = "sqlite"
)

// Dialect knows how one SQL engine spells identifiers, transactions, column
// definitions and constraints.
type Dialect interface {
	// Name returns the driver identifier the dialect was registered under.
	Name() string

	QuoteIdentifier(name string) string
	BeginTransaction() string
	CommitTransaction() string

	// ColumnDefinition renders one column of a CREATE TABLE body.
	ColumnDefinition(c schema.Column) string

	// ForeignKeyClause renders a table-level FOREIGN KEY constraint.
	ForeignKeyClause(fk schema.ForeignKeyConstraint) string

	// InlinePrimaryKey reports whether ColumnDefinition already declares c
	// as the primary key, so the table-level PRIMARY KEY clause must leave
	// it out.
	InlinePrimaryKey(c schema.Column) bool

	// IndexDefinitions splits the secondary indexes of table into clauses
	// that belong inside the CREATE TABLE body and standalone statements
	// that follow it. Primary indexes are skipped.
	IndexDefinitions(table string, indexes []schema.Index) (inline, statements []string)
}

// TypeDefiner is implemented by dialects whose column types can name
// user-defined types that must exist before the tables using them.
type TypeDefiner interface {
	// TypeDefinitions returns the statements creating the types used by
	// tables, each type once, in order of first use.
	TypeDefinitions(tables []schema.Table) []string
}

// ErrUnsupportedDriver is matched by every *UnsupportedDriverError.
var ErrUnsupportedDriver = errors.New("unsupported database driver")

// UnsupportedDriverError is returned by For when no dialect is registered
// for a driver identifier.
type UnsupportedDriverError struct {
	Driver    string
	Supported []string
}

func (e *UnsupportedDriverError) Error() string {
	return fmt.Sprintf("unsupported database driver: %q (supported: %s)", e.Driver, strings.Join(e.Supported, ", "))
}

// Is makes errors.Is(err, ErrUnsupportedDriver) hold.
func (e *UnsupportedDriverError) Is(target error) bool {
	return target == ErrUnsupportedDriver
}

var constructors = map[string]func() Dialect{
	MySQL:    func() Dialect { return mysqlDialect{} },
	Postgres: func() Dialect { return postgresDialect{} },
	SQLite:   func() Dialect { return sqliteDialect{} },
}

// For returns the dialect registered for driver. The match is exact.
func For(driver string) (Dialect, error) {
	newDialect, ok := constructors[driver]
	if !ok {
		return nil, &UnsupportedDriverError{Driver: driver, Supported: Supported()}
	}
	return newDialect(), nil
}

// Supported returns the accepted driver identifiers in sorted order.
func Supported() []string {
	names := make([]string, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// quoteWith wraps name in q, doubling any q inside it.
func quoteWith(name, q string) string {
	return q + strings.ReplaceAll(name, q, q+q) + q
}

func quoteList(d Dialect, names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = d.QuoteIdentifier(n)
	}
	return strings.Join(quoted, ", ")
}

// foreignKeyClause renders the shared FOREIGN KEY form. The constraint name
// is emitted only when named is set and the key has one. Without referenced
// column names the clause points at the parent's primary key.
func foreignKeyClause(d Dialect, fk schema.ForeignKeyConstraint, named bool) string {
	var b strings.Builder
	if named && fk.Name != "" {
		b.WriteString("CONSTRAINT ")
		b.WriteString(d.QuoteIdentifier(fk.Name))
		b.WriteByte(' ')
	}
	fmt.Fprintf(&b, "FOREIGN KEY (%s) REFERENCES %s", quoteList(d, fk.Columns), d.QuoteIdentifier(fk.RefTable))
	if refColumnsKnown(fk.RefColumns) {
		fmt.Fprintf(&b, "(%s)", quoteList(d, fk.RefColumns))
	}
	if action := referentialAction(fk.OnDelete); action != "" {
		b.WriteString(" ON DELETE ")
		b.WriteString(action)
	}
	if action := referentialAction(fk.OnUpdate); action != "" {
		b.WriteString(" ON UPDATE ")
		b.WriteString(action)
	}
	return b.String()
}

func refColumnsKnown(cols []string) bool {
	if len(cols) == 0 {
		return false
	}
	for _, c := range cols {
		if c == "" {
			return false
		}
	}
	return true
}

// referentialAction normalizes an ON DELETE/ON UPDATE rule. NO ACTION is the
// default everywhere and renders as nothing.
func referentialAction(rule string) string {
	rule = strings.ToUpper(strings.Join(strings.Fields(rule), " "))
	switch rule {
	case "", "NO ACTION":
		return ""
	case "CASCADE", "RESTRICT", "SET NULL", "SET DEFAULT":
		return rule
	}
	return ""
}

// createIndexStatement renders a standalone CREATE INDEX statement.
func createIndexStatement(d Dialect, table, name string, idx schema.Index) string {
	unique := ""
	if idx.Unique {
		unique = "UNIQUE "
	}
	return fmt.Sprintf("CREATE %sINDEX %s ON %s (%s);",
		unique, d.QuoteIdentifier(name), d.QuoteIdentifier(table), quoteList(d, idx.Columns))
}

// secondaryIndexes drops primary and column-less (expression) indexes.
func secondaryIndexes(indexes []schema.Index) []schema.Index {
	var out []schema.Index
	for _, idx := range indexes {
		if idx.Primary || len(idx.Columns) == 0 {
			continue
		}
		out = append(out, idx)
	}
	return out
}

var keywordDefaults = map[string]bool{
	"NULL":              true,
	"TRUE":              true,
	"FALSE":             true,
	"CURRENT_TIMESTAMP": true,
	"CURRENT_DATE":      true,
	"CURRENT_TIME":      true,
	"LOCALTIME":         true,
	"LOCALTIMESTAMP":    true,
	"CURRENT_USER":      true,
}

// isExpression reports whether a default value is already an SQL
// expression rather than a bare text literal.
func isExpression(def string) bool {
	trimmed := strings.TrimSpace(def)
	if trimmed == "" {
		return false
	}
	if keywordDefaults[strings.ToUpper(trimmed)] {
		return true
	}
	switch trimmed[0] {
	case '\'', '(':
		return true
	}
	lower := strings.ToLower(trimmed)
	if strings.HasPrefix(lower, "b'") || strings.HasPrefix(lower, "x'") {
		return true
	}
	// function call such as now(), uuid() or current_timestamp(6)
	if open := strings.IndexByte(trimmed, '('); open > 0 && strings.HasSuffix(trimmed, ")") {
		return isIdent(trimmed[:open])
	}
	return false
}

func isIdent(s string) bool {
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && (r >= '0' && r <= '9' || r == '.'):
		default:
			return false
		}
	}
	return s != ""
}

// isNumber reports whether s is a plain numeric literal.
func isNumber(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	if s[0] == '-' || s[0] == '+' {
		s = s[1:]
	}
	digits, dot := 0, false
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '.' && !dot:
			dot = true
		default:
			return false
		}
	}
	return digits > 0
}

// quoteLiteral renders s as a single-quoted SQL string literal.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
