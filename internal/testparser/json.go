package testparser

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// maxLineSize bounds a single output line; go test -json can emit long
// lines for large log messages.
const maxLineSize = 16 * 1024 * 1024

// JSONParser parses go test -json output.
type JSONParser struct{}

// Name returns the parser name.
func (p *JSONParser) Name() string {
	return "json"
}

// Events decodes go test -json output. Lines that are not JSON events, such
// as build errors go test prints directly, become package output events.
func (p *JSONParser) Events(r io.Reader) ([]TestEvent, error) {
	var events []TestEvent
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		var event TestEvent
		if !strings.HasPrefix(strings.TrimSpace(line), "{") {
			events = append(events, TestEvent{Action: ActionOutput, Output: line + "\n"})
			continue
		}
		if err := json.Unmarshal([]byte(line), &event); err != nil {
			slog.Debug("skipping malformed test event", "line", lineNum, "error", err)
			continue
		}
		events = append(events, event)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read test events: %w", err)
	}
	return events, nil
}

// ParseJSON parses go test -json output from a reader and returns test counts.
func (p *JSONParser) ParseJSON(r io.Reader) TestCounts {
	events, err := p.Events(r)
	if err != nil {
		slog.Debug("test events truncated", "error", err)
	}
	return Count(events)
}

// Parse extracts test counts from go test -json output.
func (p *JSONParser) Parse(output string) TestCounts {
	return p.ParseJSON(strings.NewReader(output))
}
