package export

import (
	"context"
	"time"

	"github.com/sadopc/dbschema/internal/dialect"
)

// Exporter exports the schema of one reader as SQL, JSON, YAML or a
// structured document. The SQL dialect and the JSON exporter are created on
// first use and reused afterwards, so an Exporter must not be shared
// between goroutines.
type Exporter struct {
	reader  SchemaReader
	indexes bool
	now     func() time.Time

	ddl  *DDLExporter
	json *JSONExporter
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithIndexes toggles rendering of secondary indexes in SQL output.
func WithIndexes(on bool) Option {
	return func(e *Exporter) { e.indexes = on }
}

// WithClock sets the time source for the document timestamp.
func WithClock(now func() time.Time) Option {
	return func(e *Exporter) { e.now = now }
}

// New returns an Exporter reading from r.
func New(r SchemaReader, opts ...Option) *Exporter {
	e := &Exporter{reader: r, indexes: true, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Dialect returns the SQL dialect of the reader's driver.
func (e *Exporter) Dialect() (dialect.Dialect, error) {
	return e.ddlExporter().Dialect()
}

// ToSQL returns a DDL script creating tables in the given order.
func (e *Exporter) ToSQL(ctx context.Context, tables []string) (string, error) {
	return e.ddlExporter().Generate(ctx, tables)
}

// ToJSON returns the schema document for tables encoded as JSON.
func (e *Exporter) ToJSON(ctx context.Context, tables []string, pretty bool) (string, error) {
	return e.jsonExporter().Generate(ctx, tables, pretty)
}

// ToArray returns the structured schema document for tables.
func (e *Exporter) ToArray(ctx context.Context, tables []string) (*Document, error) {
	return e.jsonExporter().GenerateDocument(ctx, tables)
}

// ToYAML returns the schema document for tables encoded as YAML.
func (e *Exporter) ToYAML(ctx context.Context, tables []string) (string, error) {
	doc, err := e.jsonExporter().GenerateDocument(ctx, tables)
	if err != nil {
		return "", err
	}
	data, err := EncodeDocumentYAML(doc)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (e *Exporter) ddlExporter() *DDLExporter {
	if e.ddl == nil {
		e.ddl = NewDDLExporter(e.reader)
		e.ddl.Indexes = e.indexes
	}
	return e.ddl
}

func (e *Exporter) jsonExporter() *JSONExporter {
	if e.json == nil {
		e.json = NewJSONExporter(e.reader)
		e.json.now = e.now
	}
	return e.json
}
