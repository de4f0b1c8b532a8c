package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/afero"
)

func TestWrite_Stdout(t *testing.T) {
	for _, path := range []string{"", "-"} {
		var buf bytes.Buffer
		fs := afero.NewMemMapFs()
		if err := Write(fs, path, "COMMIT;", &buf); err != nil {
			t.Fatalf("Write(%q) error: %v", path, err)
		}
		if got := buf.String(); got != "COMMIT;\n" {
			t.Errorf("Write(%q) stdout = %q, want %q", path, got, "COMMIT;\n")
		}
	}
}

func TestWrite_File(t *testing.T) {
	fs := afero.NewMemMapFs()
	var stdout bytes.Buffer

	if err := Write(fs, "out/schema/shop.sql", "-- SQL DDL Export\nCOMMIT;", &stdout); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	if stdout.Len() != 0 {
		t.Errorf("stdout = %q, want nothing", stdout.String())
	}

	data, err := afero.ReadFile(fs, "out/schema/shop.sql")
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	if string(data) != "-- SQL DDL Export\nCOMMIT;\n" {
		t.Errorf("file = %q", data)
	}
}

func TestWrite_KeepsExistingNewline(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := Write(fs, "doc.json", "{}\n", nil); err != nil {
		t.Fatal(err)
	}
	data, _ := afero.ReadFile(fs, "doc.json")
	if string(data) != "{}\n" {
		t.Errorf("file = %q, want single trailing newline", data)
	}
}

func TestWrite_ReadOnlyFs(t *testing.T) {
	fs := afero.NewReadOnlyFs(afero.NewMemMapFs())
	err := Write(fs, "x.sql", "COMMIT;", nil)
	if err == nil || !strings.Contains(err.Error(), "x.sql") {
		t.Errorf("Write() on read-only fs error = %v, want path in error", err)
	}
}

func TestRead(t *testing.T) {
	fs := afero.NewMemMapFs()
	afero.WriteFile(fs, "doc.json", []byte(`{"version":"1.0"}`), 0o644)

	got, err := Read(fs, "doc.json", nil)
	if err != nil || string(got) != `{"version":"1.0"}` {
		t.Errorf("Read(file) = %q, %v", got, err)
	}

	got, err = Read(fs, "-", strings.NewReader("from stdin"))
	if err != nil || string(got) != "from stdin" {
		t.Errorf("Read(-) = %q, %v", got, err)
	}

	if _, err := Read(fs, "missing.json", nil); err == nil {
		t.Error("Read(missing) should fail")
	}
}

func TestExtensionFormat(t *testing.T) {
	tests := map[string]string{
		"schema.json":  "json",
		"schema.YAML":  "yaml",
		"schema.yml":   "yaml",
		"dump/a.sql":   "sql",
		"schema.txt":   "",
		"no-extension": "",
	}
	for path, want := range tests {
		if got := ExtensionFormat(path); got != want {
			t.Errorf("ExtensionFormat(%q) = %q, want %q", path, got, want)
		}
	}
}
