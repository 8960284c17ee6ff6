// Package sink writes report documents as TAP-Y or TAP-J streams.
package sink

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/AndreyAkinshin/ontap/internal/errors"
	"github.com/AndreyAkinshin/ontap/internal/report"
)

// Stream formats.
const (
	FormatTAPY = "tapy"
	FormatTAPJ = "tapj"
)

// Sink serializes documents onto a stream.
type Sink interface {
	Emit(doc *report.Document) error
	Close() error
}

// NormalizeFormat maps format aliases to FormatTAPY or FormatTAPJ.
func NormalizeFormat(format string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "tapy", "tap-y", "yaml", "y":
		return FormatTAPY, nil
	case "tapj", "tap-j", "json", "j":
		return FormatTAPJ, nil
	default:
		return "", errors.Configf("unknown output format %q (expected tapy or tapj)", format)
	}
}

// New creates the sink for format writing to w.
func New(format string, w io.Writer) (Sink, error) {
	f, err := NormalizeFormat(format)
	if err != nil {
		return nil, err
	}
	if f == FormatTAPJ {
		return NewJSON(w), nil
	}
	return NewYAML(w), nil
}

// YAML writes TAP-Y: every document starts with "---" and the stream ends
// with "..." once Close is called.
type YAML struct {
	w       io.Writer
	emitted bool
	closed  bool
}

// NewYAML creates a TAP-Y sink.
func NewYAML(w io.Writer) *YAML {
	return &YAML{w: w}
}

// Emit writes one document.
func (s *YAML) Emit(doc *report.Document) error {
	if s.closed {
		return errors.New("emit on closed TAP-Y sink")
	}
	if doc == nil {
		return nil
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode %s document: %w", doc.Type(), err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode %s document: %w", doc.Type(), err)
	}

	if _, err := s.w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write %s document: %w", doc.Type(), err)
	}
	s.emitted = true
	return nil
}

// Close writes the end-of-stream marker. It does not close the writer.
func (s *YAML) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if !s.emitted {
		return nil
	}
	if _, err := io.WriteString(s.w, "...\n"); err != nil {
		return fmt.Errorf("write end marker: %w", err)
	}
	return nil
}

// JSON writes TAP-J: one compact JSON object per line.
type JSON struct {
	w      io.Writer
	closed bool
}

// NewJSON creates a TAP-J sink.
func NewJSON(w io.Writer) *JSON {
	return &JSON{w: w}
}

// Emit writes one document.
func (s *JSON) Emit(doc *report.Document) error {
	if s.closed {
		return errors.New("emit on closed TAP-J sink")
	}
	if doc == nil {
		return nil
	}
	data, err := doc.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode %s document: %w", doc.Type(), err)
	}
	data = append(data, '\n')
	if _, err := s.w.Write(data); err != nil {
		return fmt.Errorf("write %s document: %w", doc.Type(), err)
	}
	return nil
}

// Close marks the sink closed. TAP-J has no end marker.
func (s *JSON) Close() error {
	s.closed = true
	return nil
}
