package export

import (
	"context"
	"fmt"

	"github.com/sadopc/dbschema/internal/schema"
	"github.com/sadopc/dbschema/internal/typemap"
)

// fakeTable is the canned metadata of one table.
type fakeTable struct {
	columns []schema.Column
	indexes []schema.Index
	fks     []schema.ForeignKey
}

// fakeReader is an in-memory SchemaReader that counts its calls.
type fakeReader struct {
	driver string
	tables map[string]fakeTable
	err    error // returned by Columns when set

	driverCalls int
	fetches     []string
}

func (f *fakeReader) DriverName() string {
	f.driverCalls++
	return f.driver
}

func (f *fakeReader) Columns(_ context.Context, table string) ([]schema.Column, error) {
	f.fetches = append(f.fetches, table)
	if f.err != nil {
		return nil, f.err
	}
	t, ok := f.tables[table]
	if !ok {
		return nil, fmt.Errorf("fake: table %q not found", table)
	}
	return t.columns, nil
}

func (f *fakeReader) Indexes(_ context.Context, table string) ([]schema.Index, error) {
	return f.tables[table].indexes, nil
}

func (f *fakeReader) ForeignKeys(_ context.Context, table string) ([]schema.ForeignKey, error) {
	return f.tables[table].fks, nil
}

func (f *fakeReader) FieldType(nativeType string) schema.LogicalType {
	return typemap.Map(nativeType)
}

func mysqlFixture() *fakeReader {
	return &fakeReader{
		driver: "mysql",
		tables: map[string]fakeTable{
			"users": {
				columns: []schema.Column{
					{Name: "id", DataType: "int", ColumnType: "int(11)", Primary: true, AutoIncrement: true},
					{Name: "email", DataType: "varchar", ColumnType: "varchar(255)", Length: 255},
					{Name: "status", DataType: "enum", ColumnType: "enum('active','inactive','pending')", EnumValues: []string{"active", "inactive", "pending"}, Default: schema.StringPtr("active")},
					{Name: "created_at", DataType: "timestamp", ColumnType: "timestamp", Nullable: true, Default: schema.StringPtr("CURRENT_TIMESTAMP")},
				},
				indexes: []schema.Index{
					{Name: "PRIMARY", Columns: []string{"id"}, Unique: true, Primary: true},
					{Name: "idx_email", Columns: []string{"email"}, Unique: true},
				},
			},
			"orders": {
				columns: []schema.Column{
					{Name: "id", DataType: "int", ColumnType: "int(11)", Primary: true, AutoIncrement: true},
					{Name: "user_id", DataType: "int", ColumnType: "int(11)"},
					{Name: "total", DataType: "decimal", ColumnType: "decimal(10,2)", Precision: 10, Scale: 2, Default: schema.StringPtr("0.00")},
				},
				indexes: []schema.Index{
					{Name: "PRIMARY", Columns: []string{"id"}, Unique: true, Primary: true},
					{Name: "fk_orders_user", Columns: []string{"user_id"}},
				},
				fks: []schema.ForeignKey{
					{Name: "fk_orders_user", Column: "user_id", RefTable: "users", RefColumn: "id", OnDelete: "CASCADE", OnUpdate: "NO ACTION"},
				},
			},
		},
	}
}

func postgresFixture() *fakeReader {
	return &fakeReader{
		driver: "postgres",
		tables: map[string]fakeTable{
			"users": {
				columns: []schema.Column{
					{Name: "id", DataType: "integer", UDTName: "int4", Primary: true, AutoIncrement: true, Default: schema.StringPtr("nextval('users_id_seq'::regclass)")},
					{Name: "email", DataType: "character varying", UDTName: "varchar", Length: 255},
				},
				indexes: []schema.Index{
					{Name: "users_pkey", Columns: []string{"id"}, Unique: true, Primary: true},
					{Name: "users_email_key", Columns: []string{"email"}, Unique: true},
				},
			},
			"orders": {
				columns: []schema.Column{
					{Name: "id", DataType: "bigint", UDTName: "int8", Primary: true, AutoIncrement: true},
					{Name: "user_id", DataType: "integer", UDTName: "int4"},
					{Name: "created_at", DataType: "timestamp with time zone", UDTName: "timestamptz", Nullable: true, Default: schema.StringPtr("now()")},
				},
				indexes: []schema.Index{
					{Name: "orders_pkey", Columns: []string{"id"}, Unique: true, Primary: true},
				},
				fks: []schema.ForeignKey{
					{Name: "orders_user_id_fkey", Column: "user_id", RefTable: "users", RefColumn: "id", OnDelete: "NO ACTION", OnUpdate: "NO ACTION"},
				},
			},
		},
	}
}

func sqliteFixture() *fakeReader {
	return &fakeReader{
		driver: "sqlite",
		tables: map[string]fakeTable{
			"users": {
				columns: []schema.Column{
					{Name: "id", DataType: "INTEGER", Primary: true, AutoIncrement: true},
					{Name: "email", DataType: "TEXT"},
					{Name: "created_at", DataType: "TEXT", Nullable: true, Default: schema.StringPtr("CURRENT_TIMESTAMP")},
				},
				indexes: []schema.Index{
					{Name: "sqlite_autoindex_users_1", Columns: []string{"email"}, Unique: true},
				},
			},
			"orders": {
				columns: []schema.Column{
					{Name: "id", DataType: "INTEGER", Primary: true},
					{Name: "user_id", DataType: "INTEGER"},
				},
				fks: []schema.ForeignKey{
					{Name: "fk_orders_0", Column: "user_id", RefTable: "users", RefColumn: "id", OnDelete: "CASCADE", OnUpdate: "NO ACTION"},
				},
			},
		},
	}
}
