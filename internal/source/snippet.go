package source

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Radius is the default number of lines shown on each side of a snippet's
// center line.
const Radius = 2

// Line is one numbered line of a snippet.
type Line struct {
	Number int
	Text   string
}

// Snippet is a contiguous, ascending run of source lines.
// Encoded, each entry is a one-key mapping from line number to text.
type Snippet []Line

// MarshalJSON encodes the snippet as [{"41": "text"}, ...].
func (s Snippet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, l := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		text, err := json.Marshal(l.Text)
		if err != nil {
			return nil, err
		}
		buf.WriteString(`{"`)
		buf.WriteString(strconv.Itoa(l.Number))
		buf.WriteString(`":`)
		buf.Write(text)
		buf.WriteByte('}')
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// MarshalYAML encodes the snippet as a sequence of {41: text} mappings.
func (s Snippet) MarshalYAML() (interface{}, error) {
	seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for _, l := range s {
		entry := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		entry.Content = append(entry.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(l.Number)},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: l.Text},
		)
		seq.Content = append(seq.Content, entry)
	}
	return seq, nil
}

// Extractor excerpts source lines through a shared Cache.
type Extractor struct {
	Cache  *Cache
	Radius int
}

// NewExtractor creates an extractor with the default radius.
func NewExtractor(cache *Cache) *Extractor {
	if cache == nil {
		cache = NewCache("")
	}
	return &Extractor{Cache: cache, Radius: Radius}
}

// Snippet returns the lines [line-radius, line+radius] clamped to the file.
// Returns an empty snippet when the file is unavailable or line is out of range.
func (e *Extractor) Snippet(file string, line int) Snippet {
	lines, ok := e.lines(file)
	if !ok || line < 1 || line > len(lines) {
		return Snippet{}
	}

	radius := e.Radius
	if radius < 0 {
		radius = 0
	}
	first := max(line-radius, 1)
	last := min(line+radius, len(lines))

	snippet := make(Snippet, 0, last-first+1)
	for n := first; n <= last; n++ {
		snippet = append(snippet, Line{Number: n, Text: lines[n-1]})
	}
	return snippet
}

// SourceLine returns the trimmed text of a single line, or "" when unavailable.
func (e *Extractor) SourceLine(file string, line int) string {
	lines, ok := e.lines(file)
	if !ok || line < 1 || line > len(lines) {
		return ""
	}
	return strings.TrimSpace(lines[line-1])
}

func (e *Extractor) lines(file string) ([]string, bool) {
	if file == "" {
		return nil, false
	}
	lines, err := e.Cache.Lines(file)
	if err != nil {
		slog.Debug("source unavailable, omitting snippet", "file", file, "error", err)
		return nil, false
	}
	return lines, true
}
