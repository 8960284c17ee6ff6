// Package testparser reads go test output, either as go test -json events or
// as go test -v text, into a common event stream.
package testparser

import (
	"io"
	"time"
)

// Actions carried by TestEvent, as defined by go tool test2json.
const (
	ActionStart       = "start"
	ActionRun         = "run"
	ActionPause       = "pause"
	ActionCont        = "cont"
	ActionOutput      = "output"
	ActionPass        = "pass"
	ActionFail        = "fail"
	ActionSkip        = "skip"
	ActionBench       = "bench"
	ActionBuildOutput = "build-output"
	ActionBuildFail   = "build-fail"
)

// TestEvent is a single go test -json event. Events without a Test name
// belong to the package.
type TestEvent struct {
	Time        time.Time `json:"Time"`
	Action      string    `json:"Action"`
	Package     string    `json:"Package"`
	Test        string    `json:"Test"`
	Elapsed     float64   `json:"Elapsed"`
	Output      string    `json:"Output"`
	ImportPath  string    `json:"ImportPath"`
	FailedBuild string    `json:"FailedBuild"`
}

// Terminal reports whether the event ends a test or package.
func (e TestEvent) Terminal() bool {
	switch e.Action {
	case ActionPass, ActionFail, ActionSkip:
		return true
	default:
		return false
	}
}

// FailedTest holds information about a single failed test.
type FailedTest struct {
	Name   string // Test name (e.g., "TestFoo/subtest")
	Reason string // Failure reason/error message
}

// TestCounts holds parsed test result counts.
type TestCounts struct {
	Passed      int
	Failed      int
	Skipped     int
	Total       int
	Parsed      bool         // true if counts were successfully extracted
	FailedTests []FailedTest // details of failed tests
}

// Add adds another TestCounts to this one, aggregating the counts.
// Parsed is sticky: the aggregate is parsed when any part was.
func (tc *TestCounts) Add(other *TestCounts) {
	if other == nil {
		return
	}
	tc.Passed += other.Passed
	tc.Failed += other.Failed
	tc.Skipped += other.Skipped
	tc.Total += other.Total
	tc.FailedTests = append(tc.FailedTests, other.FailedTests...)
	if other.Parsed {
		tc.Parsed = true
	}
}

// Parser reads one form of go test output.
type Parser interface {
	// Name returns the name of the parser.
	Name() string
	// Parse extracts test counts from the output.
	Parse(output string) TestCounts
	// Events decodes the output into events in input order.
	Events(r io.Reader) ([]TestEvent, error)
}
