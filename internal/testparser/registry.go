package testparser

import (
	"sort"
	"strings"
)

// Registry maps input format names to their parsers.
type Registry struct {
	parsers map[string]Parser
}

// NewRegistry creates a new parser registry with all built-in parsers.
func NewRegistry() *Registry {
	r := &Registry{
		parsers: make(map[string]Parser),
	}

	jsonParser := &JSONParser{}
	textParser := &TextParser{}

	r.parsers["json"] = jsonParser
	r.parsers["test2json"] = jsonParser
	r.parsers["text"] = textParser
	r.parsers["v"] = textParser
	r.parsers["go"] = textParser

	return r
}

// GetParser returns the parser for the given input format.
// Returns nil if no parser is found.
func (r *Registry) GetParser(format string) Parser {
	return r.parsers[strings.ToLower(strings.TrimSpace(format))]
}

// RegisterParser adds a custom parser for an input format.
func (r *Registry) RegisterParser(format string, parser Parser) {
	r.parsers[strings.ToLower(format)] = parser
}

// Formats returns the registered format names in sorted order.
func (r *Registry) Formats() []string {
	names := make([]string, 0, len(r.parsers))
	for name := range r.parsers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Detect picks a parser for output whose format is unknown: go test -json
// output starts with a JSON object, anything else is read as -v text.
func (r *Registry) Detect(output []byte) Parser {
	for _, line := range strings.Split(string(output), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "{") {
			return r.parsers["json"]
		}
		break
	}
	return r.parsers["text"]
}
