package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hashicorp/go-version"
	"gopkg.in/yaml.v3"

	"github.com/sadopc/dbschema/internal/schema"
)

// DocumentVersion is written into every exported document.
const DocumentVersion = "1.0"

// TimestampLayout is the layout of Document.Generated.
const TimestampLayout = "2006-01-02 15:04:05"

// supportedVersions is the range of document versions DecodeDocument reads.
const supportedVersions = ">= 1.0, < 2.0"

// ErrUnsupportedVersion is returned by DecodeDocument for documents written
// by an incompatible release.
var ErrUnsupportedVersion = errors.New("unsupported schema document version")

// Document is the versioned envelope of a JSON or YAML schema export.
type Document struct {
	Version   string `json:"version" yaml:"version"`
	Generated string `json:"generated" yaml:"generated"`
	Tables    Tables `json:"tables" yaml:"tables"`
}

// TableDocument holds the metadata of one exported table.
type TableDocument struct {
	Columns     []schema.Column     `json:"columns" yaml:"columns"`
	Indexes     []schema.Index      `json:"indexes" yaml:"indexes"`
	ForeignKeys []schema.ForeignKey `json:"foreignKeys" yaml:"foreignKeys"`
}

// NamedTable pairs a table name with its metadata.
type NamedTable struct {
	Name string
	TableDocument
}

// Tables is an ordered set of tables. It encodes as an object keyed by table
// name with keys in slice order.
type Tables []NamedTable

// Names returns the table names in order.
func (ts Tables) Names() []string {
	names := make([]string, len(ts))
	for i, t := range ts {
		names[i] = t.Name
	}
	return names
}

// Get returns the table called name.
func (ts Tables) Get(name string) (TableDocument, bool) {
	for _, t := range ts {
		if t.Name == name {
			return t.TableDocument, true
		}
	}
	return TableDocument{}, false
}

// MarshalJSON encodes ts as a JSON object, preserving order.
func (ts Tables) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, t := range ts {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := marshalNoEscape(t.Name)
		if err != nil {
			return nil, err
		}
		val, err := marshalNoEscape(t.TableDocument)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object into ts in key order. An empty JSON
// array is accepted as an empty set.
func (ts *Tables) UnmarshalJSON(data []byte) error {
	*ts = Tables{}
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	switch tok {
	case nil:
		return nil
	case json.Delim('['):
		if dec.More() {
			return errors.New("tables: expected an object keyed by table name")
		}
		return nil
	case json.Delim('{'):
	default:
		return fmt.Errorf("tables: unexpected token %v", tok)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("tables: unexpected key %v", tok)
		}
		var td TableDocument
		if err := dec.Decode(&td); err != nil {
			return fmt.Errorf("tables: %s: %w", name, err)
		}
		*ts = append(*ts, NamedTable{Name: name, TableDocument: td})
	}
	_, err = dec.Token()
	return err
}

// MarshalYAML encodes ts as a mapping node, preserving order.
func (ts Tables) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, t := range ts {
		key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: t.Name}
		val := &yaml.Node{}
		if err := val.Encode(t.TableDocument); err != nil {
			return nil, err
		}
		node.Content = append(node.Content, key, val)
	}
	return node, nil
}

// UnmarshalYAML decodes a mapping node into ts in key order.
func (ts *Tables) UnmarshalYAML(value *yaml.Node) error {
	*ts = Tables{}
	switch value.Kind {
	case yaml.MappingNode:
	case yaml.SequenceNode:
		if len(value.Content) == 0 {
			return nil
		}
		return errors.New("tables: expected a mapping keyed by table name")
	default:
		return fmt.Errorf("tables: unexpected yaml node kind %d", value.Kind)
	}
	for i := 0; i+1 < len(value.Content); i += 2 {
		var td TableDocument
		if err := value.Content[i+1].Decode(&td); err != nil {
			return fmt.Errorf("tables: %s: %w", value.Content[i].Value, err)
		}
		*ts = append(*ts, NamedTable{Name: value.Content[i].Value, TableDocument: td})
	}
	return nil
}

// EncodeDocument serializes doc as JSON. Pretty output is indented with
// four spaces. Neither form ends in a newline.
func EncodeDocument(doc *Document, pretty bool) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if pretty {
		enc.SetIndent("", "    ")
	}
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode schema document: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// EncodeDocumentYAML serializes doc as YAML.
func EncodeDocumentYAML(doc *Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode schema document: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode schema document: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeDocument parses a JSON schema document and checks that its version
// can be read by this release.
func DecodeDocument(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode schema document: %w", err)
	}
	if err := CheckVersion(doc.Version); err != nil {
		return nil, err
	}
	if doc.Tables == nil {
		doc.Tables = Tables{}
	}
	return &doc, nil
}

// CheckVersion reports whether v is a document version this release reads.
func CheckVersion(v string) error {
	parsed, err := version.NewVersion(v)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrUnsupportedVersion, v)
	}
	constraints, err := version.NewConstraint(supportedVersions)
	if err != nil {
		return err
	}
	if !constraints.Check(parsed) {
		return fmt.Errorf("%w: %s (want %s)", ErrUnsupportedVersion, v, supportedVersions)
	}
	return nil
}

func marshalNoEscape(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
