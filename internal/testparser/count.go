package testparser

import (
	"regexp"
	"strconv"
	"strings"
)

// Count tallies terminal test events. Package-level events are ignored;
// parents of subtests count as tests of their own.
func Count(events []TestEvent) TestCounts {
	counts := TestCounts{}

	type key struct{ pkg, test string }
	output := make(map[key][]string)
	var failed []key

	for _, event := range events {
		// Skip package-level events (no test name)
		if event.Test == "" {
			continue
		}
		k := key{event.Package, event.Test}

		switch event.Action {
		case ActionOutput:
			if event.Output != "" {
				output[k] = append(output[k], event.Output)
			}
		case ActionPass:
			counts.Passed++
			delete(output, k)
		case ActionFail:
			counts.Failed++
			failed = append(failed, k)
		case ActionSkip:
			counts.Skipped++
			delete(output, k)
		}
	}

	for _, k := range failed {
		counts.FailedTests = append(counts.FailedTests, FailedTest{
			Name:   k.test,
			Reason: extractFailureReason(output[k]),
		})
	}

	if counts.Passed > 0 || counts.Failed > 0 || counts.Skipped > 0 {
		counts.Parsed = true
		counts.Total = counts.Passed + counts.Failed + counts.Skipped
	}

	return counts
}

// logLine matches a t.Log/t.Error line: "    file_test.go:15: message".
var logLine = regexp.MustCompile(`^\s*([^\s:][^:]*\.go):(\d+): ?(.*)$`)

// LogLine is one t.Log or t.Error line of a test's output.
type LogLine struct {
	File    string
	Line    int
	Message string
}

// LogLines extracts the file:line log lines from a test's output. Lines
// indented deeper than a log line continue its message.
func LogLines(output []string) []LogLine {
	var lines []LogLine
	indent := ""
	for _, chunk := range output {
		for _, raw := range strings.Split(strings.TrimRight(chunk, "\n"), "\n") {
			if m := logLine.FindStringSubmatch(raw); m != nil {
				n, _ := strconv.Atoi(m[2])
				lines = append(lines, LogLine{File: m[1], Line: n, Message: m[3]})
				indent = raw[:len(raw)-len(strings.TrimLeft(raw, " \t"))]
				continue
			}
			if len(lines) > 0 && indent != "" && len(raw) > len(indent) &&
				strings.HasPrefix(raw, indent) && (raw[len(indent)] == ' ' || raw[len(indent)] == '\t') {
				last := &lines[len(lines)-1]
				last.Message += "\n" + strings.TrimSpace(raw)
				continue
			}
			indent = ""
		}
	}
	return lines
}

// extractFailureReason extracts the most relevant failure message from test output.
func extractFailureReason(outputLines []string) string {
	const maxLen = 100

	if lines := LogLines(outputLines); len(lines) > 0 {
		reason := strings.SplitN(lines[0].Message, "\n", 2)[0]
		return truncate(strings.TrimSpace(reason), maxLen)
	}

	// Fallback: return the first non-empty, non-boilerplate line
	for _, line := range outputLines {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" && !isTestBoundary(trimmed) {
			return truncate(trimmed, maxLen)
		}
	}

	return ""
}

func truncate(s string, maxLen int) string {
	if len(s) > maxLen {
		return s[:maxLen-3] + "..."
	}
	return s
}

// isTestBoundary returns true if the line marks the start of a test run
// or the result of a test (PASS/FAIL/SKIP).
func isTestBoundary(line string) bool {
	return strings.HasPrefix(line, "=== ") ||
		strings.HasPrefix(line, "--- PASS:") ||
		strings.HasPrefix(line, "--- FAIL:") ||
		strings.HasPrefix(line, "--- SKIP:")
}
