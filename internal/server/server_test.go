package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/sadopc/dbschema/internal/adapter"
	_ "github.com/sadopc/dbschema/internal/adapter/sqlite"
	"github.com/sadopc/dbschema/internal/audit"
	"github.com/sadopc/dbschema/internal/export"
	"github.com/sadopc/dbschema/internal/schema"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const shopDDL = `
CREATE TABLE users (
	id    INTEGER PRIMARY KEY AUTOINCREMENT,
	email TEXT NOT NULL UNIQUE
);
CREATE TABLE orders (
	id      INTEGER PRIMARY KEY,
	user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	total   REAL DEFAULT 0
);
CREATE INDEX idx_orders_user ON orders(user_id);
`

func shopConn(t *testing.T) adapter.Connection {
	t.Helper()
	ctx := context.Background()
	conn, err := adapter.Registry["sqlite"].Connect(ctx, filepath.Join(t.TempDir(), "shop.db"))
	if err != nil {
		t.Fatalf("Connect() error: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if _, err := conn.Exec(ctx, shopDDL); err != nil {
		t.Fatalf("Exec() error: %v", err)
	}
	return conn
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid envelope %q: %v", rec.Body.String(), err)
	}
	return resp
}

// ---------------------------------------------------------------------------
// Fake connection
// ---------------------------------------------------------------------------

// fakeConn serves one fixed table and can be made to fail.
type fakeConn struct {
	adapter.Connection
	driver  string
	colsErr error
	pingErr error
}

func (f *fakeConn) AdapterName() string  { return f.driver }
func (f *fakeConn) DatabaseName() string { return "fake" }
func (f *fakeConn) Ping(context.Context) error {
	return f.pingErr
}

func (f *fakeConn) Tables(context.Context, string, string) ([]schema.Table, error) {
	return []schema.Table{{Name: "events"}}, nil
}

func (f *fakeConn) Columns(context.Context, string, string, string) ([]schema.Column, error) {
	if f.colsErr != nil {
		return nil, f.colsErr
	}
	return []schema.Column{{Name: "id", DataType: "INTEGER", Primary: true}}, nil
}

func (f *fakeConn) Indexes(context.Context, string, string, string) ([]schema.Index, error) {
	return nil, nil
}

func (f *fakeConn) ForeignKeys(context.Context, string, string, string) ([]schema.ForeignKey, error) {
	return nil, nil
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestHealthz(t *testing.T) {
	s := New(shopConn(t), Config{})
	rec := get(t, s.Handler(), "/healthz")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}
	resp := decodeEnvelope(t, rec)
	if resp.Status != "success" {
		t.Errorf("status field = %q", resp.Status)
	}
	data := resp.Data.(map[string]interface{})
	if data["adapter"] != "sqlite" || data["database"] != "shop.db" {
		t.Errorf("data = %v", data)
	}
}

func TestHealthz_Unreachable(t *testing.T) {
	s := New(&fakeConn{driver: "postgres", pingErr: errors.New("connection refused")}, Config{})
	rec := get(t, s.Handler(), "/healthz")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	if resp := decodeEnvelope(t, rec); resp.Error != "connection refused" {
		t.Errorf("error = %q", resp.Error)
	}
}

func TestListTables(t *testing.T) {
	s := New(shopConn(t), Config{})

	rec := get(t, s.Handler(), "/api/v1/tables")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	if !strings.Contains(rec.Body.String(), `"tables":["orders","users"]`) {
		t.Errorf("body = %s", rec.Body)
	}

	rec = get(t, s.Handler(), "/api/v1/tables?detail=true")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	for _, want := range []string{`"name":"orders"`, `"columns":3`, `"foreignKeys":1`} {
		if !strings.Contains(rec.Body.String(), want) {
			t.Errorf("detail body missing %s: %s", want, rec.Body)
		}
	}
}

func TestExportSQL(t *testing.T) {
	s := New(shopConn(t), Config{Indexes: true})
	rec := get(t, s.Handler(), "/api/v1/export/sql?tables=users,orders")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}

	body := rec.Body.String()
	if !strings.HasPrefix(body, "-- SQL DDL Export\nBEGIN TRANSACTION;") {
		t.Errorf("body = %q", body)
	}
	if strings.Index(body, `CREATE TABLE "users"`) > strings.Index(body, `CREATE TABLE "orders"`) {
		t.Error("tables not exported in requested order")
	}
	if !strings.Contains(body, "idx_orders_user") {
		t.Error("index missing with indexes enabled")
	}
	if got := rec.Header().Get(ChecksumHeader); got != audit.Checksum(body) {
		t.Errorf("%s = %q, want %q", ChecksumHeader, got, audit.Checksum(body))
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/sql") {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestExportSQL_NoIndexes(t *testing.T) {
	s := New(shopConn(t), Config{Indexes: true})
	rec := get(t, s.Handler(), "/api/v1/export/sql?tables=orders&indexes=false")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	if strings.Contains(rec.Body.String(), "idx_orders_user") {
		t.Error("index rendered with indexes=false")
	}
}

func TestExportJSON_AllTables(t *testing.T) {
	s := New(shopConn(t), Config{})
	rec := get(t, s.Handler(), "/api/v1/export/json?pretty=true")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	if !strings.Contains(rec.Body.String(), "\n") {
		t.Error("pretty JSON should be indented")
	}
	doc, err := export.DecodeDocument(rec.Body.Bytes())
	if err != nil {
		t.Fatalf("DecodeDocument() error: %v", err)
	}
	if got := doc.Tables.Names(); len(got) != 2 || got[0] != "orders" || got[1] != "users" {
		t.Errorf("tables = %v, want every table", got)
	}
}

func TestExportYAML(t *testing.T) {
	s := New(shopConn(t), Config{})
	rec := get(t, s.Handler(), "/api/v1/export/yaml?tables=users")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	body := rec.Body.String()
	if !strings.HasPrefix(body, "version: \"1.0\"") || !strings.Contains(body, "users:") {
		t.Errorf("body = %s", body)
	}
}

func TestExport_UnknownFormat(t *testing.T) {
	s := New(shopConn(t), Config{})
	rec := get(t, s.Handler(), "/api/v1/export/xml")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestExport_UnsupportedDriver(t *testing.T) {
	s := New(&fakeConn{driver: "duckdb"}, Config{})

	rec := get(t, s.Handler(), "/api/v1/export/sql")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422: %s", rec.Code, rec.Body)
	}
	resp := decodeEnvelope(t, rec)
	if resp.Status != "error" || !strings.Contains(resp.Error, "duckdb") {
		t.Errorf("envelope = %+v", resp)
	}

	// JSON export does not need a dialect.
	rec = get(t, s.Handler(), "/api/v1/export/json")
	if rec.Code != http.StatusOK {
		t.Errorf("json status = %d, want 200: %s", rec.Code, rec.Body)
	}
}

func TestExport_ProviderFailure(t *testing.T) {
	s := New(&fakeConn{driver: "postgres", colsErr: errors.New("permission denied")}, Config{})
	for _, format := range []string{"sql", "json", "yaml"} {
		rec := get(t, s.Handler(), "/api/v1/export/"+format)
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("%s status = %d, want 500", format, rec.Code)
		}
		if resp := decodeEnvelope(t, rec); !strings.Contains(resp.Error, "permission denied") {
			t.Errorf("%s error = %q", format, resp.Error)
		}
	}
}

func TestExportSQL_UnknownTable(t *testing.T) {
	s := New(shopConn(t), Config{})
	rec := get(t, s.Handler(), "/api/v1/export/sql?tables=users,misspelled")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404: %s", rec.Code, rec.Body)
	}
	if resp := decodeEnvelope(t, rec); !strings.Contains(resp.Error, "misspelled") {
		t.Errorf("error = %q, want the table name", resp.Error)
	}
}

func TestExport_Audited(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	logger, err := audit.New(path, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer logger.Close()

	s := New(shopConn(t), Config{Audit: logger, DSN: "shop.db"})
	get(t, s.Handler(), "/api/v1/export/json?tables=users")
	get(t, s.Handler(), "/api/v1/export/sql?tables=missing")

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	var entries []audit.Entry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var e audit.Entry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			t.Fatal(err)
		}
		entries = append(entries, e)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d audit entries, want 2", len(entries))
	}
	if entries[0].Format != "json" || entries[0].Checksum == "" || entries[0].Adapter != "sqlite" {
		t.Errorf("entries[0] = %+v", entries[0])
	}
	if entries[1].Tables[0] != "missing" {
		t.Errorf("entries[1].Tables = %v", entries[1].Tables)
	}
	if entries[1].Error == "" || entries[1].Checksum != "" {
		t.Errorf("entries[1] = %+v, want a failed export", entries[1])
	}
}

func TestCORS(t *testing.T) {
	s := New(shopConn(t), Config{CORSOrigins: []string{"http://localhost:3000"}})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/export/sql?tables=users", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
	if got := rec.Header().Get("Access-Control-Expose-Headers"); !strings.Contains(got, ChecksumHeader) {
		t.Errorf("Access-Control-Expose-Headers = %q", got)
	}
}

func TestSplitTables(t *testing.T) {
	tests := map[string][]string{
		"":             nil,
		"users":        {"users"},
		"users,orders": {"users", "orders"},
		" a , ,b,":     {"a", "b"},
	}
	for in, want := range tests {
		got := splitTables(in)
		if len(got) != len(want) {
			t.Errorf("splitTables(%q) = %v, want %v", in, got, want)
			continue
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("splitTables(%q) = %v, want %v", in, got, want)
			}
		}
	}
}

func TestRun_Shutdown(t *testing.T) {
	s := New(shopConn(t), Config{Addr: "127.0.0.1:0"})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run() error after cancel = %v", err)
	}
}
