package postgres

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/sadopc/dbschema/internal/adapter"
)

// Integration tests start a throwaway PostgreSQL container. They need a
// Docker daemon and only run with DBSCHEMA_TESTCONTAINERS=1. Setting
// DBSCHEMA_PG_DSN points them at an existing server instead.
const testDatabase = "dbschema_test"

func testDSN(t *testing.T) string {
	t.Helper()
	if dsn := os.Getenv("DBSCHEMA_PG_DSN"); dsn != "" {
		return dsn
	}
	if os.Getenv("DBSCHEMA_TESTCONTAINERS") != "1" {
		t.Skip("skipping: set DBSCHEMA_TESTCONTAINERS=1 or DBSCHEMA_PG_DSN to run PostgreSQL integration tests")
	}

	ctx := context.Background()
	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase(testDatabase),
		tcpostgres.WithUsername("dbschema"),
		tcpostgres.WithPassword("dbschema"),
		tcpostgres.BasicWaitStrategies(),
	)
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(ctr); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}
	return dsn
}

func connectForTest(t *testing.T) adapter.Connection {
	t.Helper()
	dsn := testDSN(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a := &postgresAdapter{}
	conn, err := a.Connect(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

const fixtureDDL = `
DROP TABLE IF EXISTS test_order_items;
DROP TABLE IF EXISTS test_orders;
DROP TABLE IF EXISTS test_products;
DROP TYPE IF EXISTS test_status;

CREATE TYPE test_status AS ENUM ('pending', 'paid', 'shipped');

CREATE TABLE test_products (
	id    SERIAL PRIMARY KEY,
	sku   VARCHAR(32) NOT NULL UNIQUE,
	name  VARCHAR(100) NOT NULL,
	price NUMERIC(10,2),
	tags  TEXT[]
);

CREATE TABLE test_orders (
	id         BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	product_id INT REFERENCES test_products(id) ON DELETE CASCADE,
	quantity   INT NOT NULL DEFAULT 1,
	status     test_status NOT NULL DEFAULT 'pending'
);

CREATE INDEX idx_test_orders_product ON test_orders(product_id);

CREATE TABLE test_order_items (
	order_id   BIGINT,
	line_no    INT,
	PRIMARY KEY (order_id, line_no)
);

ALTER TABLE test_order_items
	ADD CONSTRAINT fk_items_self FOREIGN KEY (order_id, line_no)
	REFERENCES test_order_items (order_id, line_no) ON UPDATE RESTRICT;
`

func setupFixture(t *testing.T, conn adapter.Connection) {
	t.Helper()
	ctx := context.Background()
	if _, err := conn.Exec(ctx, fixtureDDL); err != nil {
		t.Fatalf("fixture: %v", err)
	}
	t.Cleanup(func() {
		conn.Exec(ctx, "DROP TABLE IF EXISTS test_order_items; DROP TABLE IF EXISTS test_orders; DROP TABLE IF EXISTS test_products; DROP TYPE IF EXISTS test_status;")
	})
}

func TestIntegration_ConnectAndPing(t *testing.T) {
	conn := connectForTest(t)

	ctx := context.Background()
	if err := conn.Ping(ctx); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
	if conn.AdapterName() != "postgres" {
		t.Errorf("AdapterName() = %q, want %q", conn.AdapterName(), "postgres")
	}
	if conn.DatabaseName() == "" {
		t.Error("DatabaseName() is empty")
	}
}

func TestIntegration_Introspection(t *testing.T) {
	conn := connectForTest(t)
	setupFixture(t, conn)
	ctx := context.Background()

	t.Run("Tables", func(t *testing.T) {
		tables, err := conn.Tables(ctx, "", "public")
		if err != nil {
			t.Fatalf("Tables: %v", err)
		}
		names := map[string]bool{}
		for _, tbl := range tables {
			names[tbl.Name] = true
		}
		for _, want := range []string{"test_products", "test_orders", "test_order_items"} {
			if !names[want] {
				t.Errorf("%s not found in Tables()", want)
			}
		}
	})

	t.Run("Columns", func(t *testing.T) {
		cols, err := conn.Columns(ctx, "", "public", "test_products")
		if err != nil {
			t.Fatalf("Columns: %v", err)
		}
		if len(cols) != 5 {
			t.Fatalf("got %d columns, want 5", len(cols))
		}
		id, sku, price, tags := cols[0], cols[1], cols[3], cols[4]
		if !id.Primary || !id.AutoIncrement || id.Nullable {
			t.Errorf("id = %+v, want primary auto-increment NOT NULL", id)
		}
		if id.UDTName != "int4" {
			t.Errorf("id UDTName = %q, want int4", id.UDTName)
		}
		if sku.DataType != "character varying" || sku.Length != 32 {
			t.Errorf("sku = (%q, %d), want (character varying, 32)", sku.DataType, sku.Length)
		}
		if price.Precision != 10 || price.Scale != 2 {
			t.Errorf("price precision/scale = %d/%d, want 10/2", price.Precision, price.Scale)
		}
		if tags.DataType != "ARRAY" || tags.UDTName != "_text" {
			t.Errorf("tags = (%q, %q), want (ARRAY, _text)", tags.DataType, tags.UDTName)
		}
	})

	t.Run("ColumnsIdentityAndEnum", func(t *testing.T) {
		cols, err := conn.Columns(ctx, "", "public", "test_orders")
		if err != nil {
			t.Fatalf("Columns: %v", err)
		}
		if !cols[0].AutoIncrement {
			t.Error("identity column should be auto-increment")
		}
		status := cols[3]
		if status.DataType != "USER-DEFINED" || status.UDTName != "test_status" {
			t.Errorf("status = (%q, %q), want (USER-DEFINED, test_status)", status.DataType, status.UDTName)
		}
		want := []string{"pending", "paid", "shipped"}
		if len(status.EnumValues) != len(want) {
			t.Fatalf("EnumValues = %v, want %v", status.EnumValues, want)
		}
		for i := range want {
			if status.EnumValues[i] != want[i] {
				t.Errorf("EnumValues[%d] = %q, want %q", i, status.EnumValues[i], want[i])
			}
		}
		if cols[2].Default == nil || *cols[2].Default != "1" {
			t.Errorf("quantity default = %v, want 1", cols[2].Default)
		}
	})

	t.Run("Indexes", func(t *testing.T) {
		idxs, err := conn.Indexes(ctx, "", "public", "test_orders")
		if err != nil {
			t.Fatalf("Indexes: %v", err)
		}
		var sawPrimary, sawSecondary bool
		for _, idx := range idxs {
			switch idx.Name {
			case "idx_test_orders_product":
				sawSecondary = true
				if len(idx.Columns) != 1 || idx.Columns[0] != "product_id" {
					t.Errorf("index columns = %v, want [product_id]", idx.Columns)
				}
				if idx.Primary || idx.Unique {
					t.Errorf("secondary index = %+v, want non-unique non-primary", idx)
				}
			case "test_orders_pkey":
				sawPrimary = idx.Primary
			}
		}
		if !sawSecondary {
			t.Error("idx_test_orders_product not found in Indexes()")
		}
		if !sawPrimary {
			t.Error("test_orders_pkey not reported as primary")
		}
	})

	t.Run("ForeignKeys", func(t *testing.T) {
		fks, err := conn.ForeignKeys(ctx, "", "public", "test_orders")
		if err != nil {
			t.Fatalf("ForeignKeys: %v", err)
		}
		if len(fks) != 1 {
			t.Fatalf("got %d foreign keys, want 1", len(fks))
		}
		fk := fks[0]
		if fk.Column != "product_id" || fk.RefTable != "test_products" || fk.RefColumn != "id" {
			t.Errorf("FK = %+v, want product_id -> test_products(id)", fk)
		}
		if fk.OnDelete != "CASCADE" || fk.OnUpdate != "NO ACTION" {
			t.Errorf("FK rules = (%q, %q), want (CASCADE, NO ACTION)", fk.OnDelete, fk.OnUpdate)
		}
	})

	t.Run("ForeignKeysComposite", func(t *testing.T) {
		fks, err := conn.ForeignKeys(ctx, "", "public", "test_order_items")
		if err != nil {
			t.Fatalf("ForeignKeys: %v", err)
		}
		if len(fks) != 2 {
			t.Fatalf("got %d foreign keys, want 2", len(fks))
		}
		for i, col := range []string{"order_id", "line_no"} {
			if fks[i].Name != "fk_items_self" || fks[i].Column != col || fks[i].RefColumn != col {
				t.Errorf("fks[%d] = %+v, want fk_items_self %s -> %s", i, fks[i], col, col)
			}
			if fks[i].OnUpdate != "RESTRICT" {
				t.Errorf("fks[%d].OnUpdate = %q, want RESTRICT", i, fks[i].OnUpdate)
			}
		}
	})
}

func TestIntegration_ExecError(t *testing.T) {
	conn := connectForTest(t)
	ctx := context.Background()

	if _, err := conn.Exec(ctx, "CREATE TABLE broken ("); err == nil {
		t.Error("expected error for syntax error, got nil")
	}
}

func TestIntegration_ExecCancelled(t *testing.T) {
	conn := connectForTest(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := conn.Exec(ctx, "SELECT pg_sleep(1)")
	if !errors.Is(err, adapter.ErrCancelled) {
		t.Errorf("Exec() error = %v, want ErrCancelled", err)
	}
}
