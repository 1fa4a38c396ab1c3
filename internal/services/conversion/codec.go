// Package conversion encodes single characters into the portable export
// document and decodes them back.
package conversion

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/KirkDiggler/rpg-sheet/internal/entities/sw5e"
	"github.com/KirkDiggler/rpg-sheet/internal/errors"
)

// SchemaVersion is written into every export document
const SchemaVersion = "1.0"

// Document is the export envelope
type Document struct {
	SchemaVersion   string          `json:"schemaVersion"`
	ExportDate      string          `json:"exportDate"`
	Character       *sw5e.Character `json:"character"`
	ApplicationName string          `json:"applicationName"`
}

// Export encodes c as an indented export document
func Export(c *sw5e.Character, appName string, now time.Time) ([]byte, error) {
	doc, err := newDocument(c, appName, now)
	if err != nil {
		return nil, err
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, errors.WrapWithCodef(err, errors.CodeSerialization, "failed to encode character %s", c.ID)
	}
	return data, nil
}

// ExportYAML encodes the same document as YAML, keeping field order
func ExportYAML(c *sw5e.Character, appName string, now time.Time) ([]byte, error) {
	doc, err := newDocument(c, appName, now)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, errors.WrapWithCodef(err, errors.CodeSerialization, "failed to encode character %s", c.ID)
	}

	// JSON is valid YAML; decoding into a node keeps key order.
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeSerialization, "failed to convert export to yaml")
	}
	blockStyle(&node)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeSerialization, "failed to encode yaml")
	}
	if err := enc.Close(); err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeSerialization, "failed to encode yaml")
	}
	return buf.Bytes(), nil
}

// Import decodes an export document or a bare character document
func Import(data []byte) (*sw5e.Character, error) {
	doc, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return doc.Character, nil
}

// Decode parses either document shape. A bare character is returned in a
// Document with only Character set.
func Decode(data []byte) (*Document, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeSerialization, "import is not a JSON object")
	}
	if fields == nil {
		return nil, errors.Serialization("import is empty")
	}

	if _, wrapped := fields["character"]; !wrapped {
		var c sw5e.Character
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, errors.WrapWithCode(err, errors.CodeSerialization, "failed to decode character")
		}
		return &Document{Character: &c}, nil
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeSerialization, "failed to decode export document")
	}
	if doc.SchemaVersion != "" && major(doc.SchemaVersion) != major(SchemaVersion) {
		return nil, errors.Serializationf("unsupported schema version %q", doc.SchemaVersion).
			WithMeta("schema_version", doc.SchemaVersion)
	}
	if doc.Character == nil {
		return nil, errors.Serialization("export document has no character")
	}
	return &doc, nil
}

func newDocument(c *sw5e.Character, appName string, now time.Time) (*Document, error) {
	if c == nil {
		return nil, errors.InvalidArgument("character cannot be nil")
	}
	return &Document{
		SchemaVersion:   SchemaVersion,
		ExportDate:      now.UTC().Format(time.RFC3339Nano),
		Character:       c,
		ApplicationName: appName,
	}, nil
}

func major(version string) string {
	return strings.SplitN(strings.TrimSpace(version), ".", 2)[0]
}

func blockStyle(n *yaml.Node) {
	switch n.Kind {
	case yaml.MappingNode, yaml.SequenceNode:
		n.Style = 0
	case yaml.ScalarNode:
		if n.Style == yaml.DoubleQuotedStyle {
			n.Style = 0
		}
	}
	for _, child := range n.Content {
		blockStyle(child)
	}
}
