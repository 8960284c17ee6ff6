// Package report turns test-run lifecycle events into TAP-Y/J documents.
package report

import (
	"bytes"
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// Revision is the TAP-Y/J revision written into suite documents.
const Revision = 4

// Document types.
const (
	TypeSuite = "suite"
	TypeCase  = "case"
	TypeTest  = "test"
	TypeNote  = "note"
	TypeFinal = "final"
)

// Test statuses.
const (
	StatusPass  = "pass"
	StatusFail  = "fail"
	StatusError = "error"
	StatusTodo  = "todo"
)

// Document is an ordered mapping from keys to values. Both encoders keep
// keys in insertion order.
type Document struct {
	keys   []string
	values map[string]any
}

// NewDocument creates a document whose first key is "type".
func NewDocument(docType string) *Document {
	d := &Document{values: make(map[string]any)}
	return d.Set("type", docType)
}

// Set stores value under key. Replacing a key keeps its position.
func (d *Document) Set(key string, value any) *Document {
	if d.values == nil {
		d.values = make(map[string]any)
	}
	if _, ok := d.values[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.values[key] = value
	return d
}

// Get returns the value stored under key.
func (d *Document) Get(key string) (any, bool) {
	if d == nil {
		return nil, false
	}
	v, ok := d.values[key]
	return v, ok
}

// Has reports whether key is present.
func (d *Document) Has(key string) bool {
	_, ok := d.Get(key)
	return ok
}

// String returns the string stored under key, or "".
func (d *Document) String(key string) string {
	v, _ := d.Get(key)
	s, _ := v.(string)
	return s
}

// Keys returns the keys in insertion order.
func (d *Document) Keys() []string {
	if d == nil {
		return nil
	}
	return append([]string(nil), d.keys...)
}

// Type returns the document's "type" value.
func (d *Document) Type() string {
	return d.String("type")
}

// Len returns the number of keys.
func (d *Document) Len() int {
	if d == nil {
		return 0
	}
	return len(d.keys)
}

// MarshalJSON encodes the document as a JSON object in key order.
func (d *Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range d.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := marshalJSONValue(key)
		if err != nil {
			return nil, err
		}
		v, err := marshalJSONValue(d.values[key])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// marshalJSONValue encodes v without HTML escaping so source text stays readable.
func marshalJSONValue(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// MarshalYAML encodes the document as a YAML mapping in key order.
func (d *Document) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, key := range d.keys {
		value := &yaml.Node{}
		if err := value.Encode(d.values[key]); err != nil {
			return nil, err
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
			value,
		)
	}
	return node, nil
}
