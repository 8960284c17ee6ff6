package testparser

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// Static regexes for go test -v output parsing.
var (
	textPassRegex = regexp.MustCompile(`(?m)^\s*---\s+PASS:\s+`)
	textFailRegex = regexp.MustCompile(`(?m)^\s*---\s+FAIL:\s+(\S+)`)
	textSkipRegex = regexp.MustCompile(`(?m)^\s*---\s+SKIP:\s+`)

	// === RUN   TestFoo, === PAUSE, === CONT, === NAME
	textStateLine = regexp.MustCompile(`^=== (RUN|PAUSE|CONT|NAME)\s+(\S+)`)
	// --- FAIL: TestFoo/sub (0.01s)
	textResultLine = regexp.MustCompile(`^(\s*)--- (PASS|FAIL|SKIP): (\S+)(?: \(([0-9.]+)s\))?`)
	// ok  	example.com/pkg	0.012s, FAIL	example.com/pkg	0.012s, ?   	example.com/pkg	[no test files]
	textPackageLine = regexp.MustCompile(`^(ok|FAIL|\?)\s+(\S+)\s+(?:([0-9.]+)s|\[.*\]|\(cached\))`)
)

// TextParser parses go test -v output.
type TextParser struct{}

// Name returns the parser name.
func (p *TextParser) Name() string {
	return "text"
}

// Parse extracts test counts from go test -v output.
// Go test outputs lines like:
//
//	--- PASS: TestFoo (0.00s)
//	--- FAIL: TestBar (0.01s)
//	--- SKIP: TestBaz (0.00s)
func (p *TextParser) Parse(output string) TestCounts {
	counts := TestCounts{}

	counts.Passed = len(textPassRegex.FindAllString(output, -1))
	counts.Skipped = len(textSkipRegex.FindAllString(output, -1))

	failMatches := textFailRegex.FindAllStringSubmatch(output, -1)
	counts.Failed = len(failMatches)

	if counts.Failed > 0 {
		events, err := p.Events(strings.NewReader(output))
		if err == nil {
			counts.FailedTests = Count(events).FailedTests
		}
	}

	// A bare "PASS"/"ok" package summary without --- lines tells us the
	// package passed but not how many tests ran; report it as unparsed.
	if counts.Passed > 0 || counts.Failed > 0 || counts.Skipped > 0 {
		counts.Parsed = true
		counts.Total = counts.Passed + counts.Failed + counts.Skipped
	}

	return counts
}

// Events converts go test -v output into the events go test -json would
// have produced. Output lines are attributed to the test most recently
// named by a === line. Text output carries no timestamps, so Time is zero.
// Events seen before a package summary line are assigned to that package.
func (p *TextParser) Events(r io.Reader) ([]TestEvent, error) {
	var events []TestEvent
	pending := 0 // index of the first event not yet assigned a package
	current := ""

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")

		if m := textStateLine.FindStringSubmatch(line); m != nil {
			current = m[2]
			switch m[1] {
			case "RUN":
				events = append(events, TestEvent{Action: ActionRun, Test: current})
			case "PAUSE":
				events = append(events, TestEvent{Action: ActionPause, Test: current})
			case "CONT":
				events = append(events, TestEvent{Action: ActionCont, Test: current})
			}
			events = append(events, TestEvent{Action: ActionOutput, Test: current, Output: line + "\n"})
			continue
		}

		if m := textResultLine.FindStringSubmatch(line); m != nil {
			name := m[3]
			elapsed, _ := strconv.ParseFloat(m[4], 64)
			events = append(events,
				TestEvent{Action: ActionOutput, Test: name, Output: line + "\n"},
				TestEvent{Action: strings.ToLower(m[2]), Test: name, Elapsed: elapsed},
			)
			// Output after a result line, such as a panic trace, belongs
			// to the test that just finished.
			current = name
			continue
		}

		if m := textPackageLine.FindStringSubmatch(line); m != nil {
			action := ActionPass
			switch m[1] {
			case "FAIL":
				action = ActionFail
			case "?":
				action = ActionSkip
			}
			elapsed, _ := strconv.ParseFloat(m[3], 64)
			events = append(events,
				TestEvent{Action: ActionOutput, Output: line + "\n"},
				TestEvent{Action: action, Elapsed: elapsed},
			)
			for i := pending; i < len(events); i++ {
				events[i].Package = m[2]
			}
			pending = len(events)
			current = ""
			continue
		}

		if line == "PASS" || line == "FAIL" {
			events = append(events, TestEvent{Action: ActionOutput, Output: line + "\n"})
			continue
		}

		events = append(events, TestEvent{Action: ActionOutput, Test: current, Output: line + "\n"})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read test output: %w", err)
	}
	return events, nil
}
