package export

import (
	"context"
	"time"
)

// JSONExporter builds versioned schema documents. It does not depend on any
// SQL dialect, so it works for every driver a reader can describe.
type JSONExporter struct {
	reader SchemaReader
	now    func() time.Time
}

// NewJSONExporter returns a JSONExporter reading from r.
func NewJSONExporter(r SchemaReader) *JSONExporter {
	return &JSONExporter{reader: r, now: time.Now}
}

// GenerateDocument reads tables in the given order and returns the
// structured document.
func (e *JSONExporter) GenerateDocument(ctx context.Context, tables []string) (*Document, error) {
	names := uniqueNames(tables)
	doc := &Document{
		Version:   DocumentVersion,
		Generated: e.now().Format(TimestampLayout),
		Tables:    make(Tables, 0, len(names)),
	}
	for _, name := range names {
		t, err := fetchTable(ctx, e.reader, name)
		if err != nil {
			return nil, err
		}
		doc.Tables = append(doc.Tables, NamedTable{
			Name: name,
			TableDocument: TableDocument{
				Columns:     t.Columns,
				Indexes:     t.Indexes,
				ForeignKeys: t.ForeignKeys,
			},
		})
	}
	return doc, nil
}

// Generate returns the document for tables encoded as JSON.
func (e *JSONExporter) Generate(ctx context.Context, tables []string, pretty bool) (string, error) {
	doc, err := e.GenerateDocument(ctx, tables)
	if err != nil {
		return "", err
	}
	data, err := EncodeDocument(doc, pretty)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
