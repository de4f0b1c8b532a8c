// Package schema holds the dialect-neutral table model shared by the
// introspection adapters and the exporters.
package schema

// LogicalType is a host-neutral classification of a native column type.
type LogicalType string

const (
	LogicalInt      LogicalType = "int"
	LogicalFloat    LogicalType = "float"
	LogicalString   LogicalType = "string"
	LogicalBool     LogicalType = "bool"
	LogicalDatetime LogicalType = "datetime"
	LogicalArray    LogicalType = "array"
	LogicalUnknown  LogicalType = "unknown"
)

// LogicalTypes lists every LogicalType value.
var LogicalTypes = []LogicalType{
	LogicalInt,
	LogicalFloat,
	LogicalString,
	LogicalBool,
	LogicalDatetime,
	LogicalArray,
	LogicalUnknown,
}

// Numeric reports whether values of t are written as bare numeric literals.
func (t LogicalType) Numeric() bool {
	return t == LogicalInt || t == LogicalFloat
}

// Table represents a database table.
type Table struct {
	Name        string
	Columns     []Column
	Indexes     []Index
	ForeignKeys []ForeignKey
}

// Column represents a table column.
//
// DataType is the generic type name reported by the catalog ("int",
// "varchar", "character varying", "INTEGER"). ColumnType is the MySQL
// detailed type including size and signedness. UDTName is the PostgreSQL
// underlying type name ("int4", "_text", "jsonb").
type Column struct {
	Name          string      `json:"name" yaml:"name"`
	DataType      string      `json:"type" yaml:"type"`
	LogicalType   LogicalType `json:"logicalType" yaml:"logicalType"`
	ColumnType    string      `json:"columnType,omitempty" yaml:"columnType,omitempty"`
	UDTName       string      `json:"udtName,omitempty" yaml:"udtName,omitempty"`
	Length        int         `json:"length,omitempty" yaml:"length,omitempty"`
	Precision     int         `json:"precision,omitempty" yaml:"precision,omitempty"`
	Scale         int         `json:"scale,omitempty" yaml:"scale,omitempty"`
	Nullable      bool        `json:"nullable" yaml:"nullable"`
	Primary       bool        `json:"primary" yaml:"primary"`
	AutoIncrement bool        `json:"auto_increment" yaml:"auto_increment"`
	Default       *string     `json:"default,omitempty" yaml:"default,omitempty"`
	EnumValues    []string    `json:"enumValues,omitempty" yaml:"enumValues,omitempty"`
}

// Index represents a table index.
type Index struct {
	Name    string   `json:"name" yaml:"name"`
	Columns []string `json:"columns" yaml:"columns"`
	Unique  bool     `json:"unique" yaml:"unique"`
	Primary bool     `json:"primary,omitempty" yaml:"primary,omitempty"`
}

// ForeignKey represents one column reference of a foreign key constraint.
// Multi-column constraints are reported as one ForeignKey per column pair
// sharing the same Name.
type ForeignKey struct {
	Name      string `json:"name,omitempty" yaml:"name,omitempty"`
	Column    string `json:"constraintCol" yaml:"constraintCol"`
	RefTable  string `json:"refContainer" yaml:"refContainer"`
	RefColumn string `json:"refColumn" yaml:"refColumn"`
	OnDelete  string `json:"onDelete,omitempty" yaml:"onDelete,omitempty"`
	OnUpdate  string `json:"onUpdate,omitempty" yaml:"onUpdate,omitempty"`
}

// ForeignKeyConstraint is a whole foreign key: the referencing columns and
// the referenced columns, pairwise in declaration order. A referenced column
// may be empty when the catalog only knows that the parent's primary key is
// meant.
type ForeignKeyConstraint struct {
	Name       string
	Columns    []string
	RefTable   string
	RefColumns []string
	OnDelete   string
	OnUpdate   string
}

// Constraint returns fk as a single-column constraint.
func (fk ForeignKey) Constraint() ForeignKeyConstraint {
	return ForeignKeyConstraint{
		Name:       fk.Name,
		Columns:    []string{fk.Column},
		RefTable:   fk.RefTable,
		RefColumns: []string{fk.RefColumn},
		OnDelete:   fk.OnDelete,
		OnUpdate:   fk.OnUpdate,
	}
}

// GroupForeignKeys folds consecutive column pairs that share a constraint
// name and referenced table back into one constraint. Unnamed entries are
// never merged.
func GroupForeignKeys(fks []ForeignKey) []ForeignKeyConstraint {
	var out []ForeignKeyConstraint
	for _, fk := range fks {
		if n := len(out); n > 0 && fk.Name != "" {
			last := &out[n-1]
			if last.Name == fk.Name && last.RefTable == fk.RefTable {
				last.Columns = append(last.Columns, fk.Column)
				last.RefColumns = append(last.RefColumns, fk.RefColumn)
				continue
			}
		}
		out = append(out, fk.Constraint())
	}
	return out
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}
