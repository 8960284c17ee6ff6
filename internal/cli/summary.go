package cli

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AndreyAkinshin/ontap/internal/errors"
	"github.com/AndreyAkinshin/ontap/internal/output"
	"github.com/AndreyAkinshin/ontap/internal/sink"
	"github.com/AndreyAkinshin/ontap/internal/testparser"
)

func (a *app) summaryCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "summary [file|-]",
		Short: "Summarize a TAP-Y/J stream or go test output",
		Long: `Summary prints the counts of a run and a table of its failing tests.

The input is either a TAP-Y/J stream (as written by ontap convert) or raw
go test -json / go test -v output.

Exit code: 0 if all tests passed, 1 if any test failed`,
		Example: `  go test -json ./... | ontap summary
  ontap summary report.tapy`,
		Args: maxArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.summary(args)
		},
	}
}

func (a *app) summary(args []string) error {
	data, err := readInput(a.stdin, args)
	if err != nil {
		return err
	}

	var totals output.Totals
	var failed []output.FailedTest
	if isTAPStream(data) {
		totals, failed, err = streamSummary(data)
	} else {
		totals, failed, err = a.goTestSummary(data)
	}
	if err != nil {
		return err
	}

	a.printSummary(totals, failed)
	if totals.Failed() {
		return &exitError{code: errors.ExitTestsFailed}
	}
	return nil
}

func (a *app) printSummary(totals output.Totals, failed []output.FailedTest) {
	a.out.SummaryHeader("test summary")
	a.out.SummaryTable(totals)
	if len(failed) > 0 {
		a.out.Println("")
		a.out.FailuresTable(failed)
	}
	a.out.Verdict(totals)
}

// isTAPStream reports whether data looks like a TAP-Y/J stream rather than
// go test output: TAP-Y starts with a "---" marker, TAP-J objects carry a
// "type" key where go test -json events carry "Action".
func isTAPStream(data []byte) bool {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "---" {
			return true
		}
		var head map[string]any
		if json.Unmarshal([]byte(line), &head) != nil {
			return false
		}
		_, ok := head["type"]
		return ok
	}
	return false
}

func streamSummary(data []byte) (output.Totals, []output.FailedTest, error) {
	docs, err := sink.ReadStream(bytes.NewReader(data))
	if err != nil {
		return output.Totals{}, nil, errors.Validation("cannot decode stream: "+err.Error(), err)
	}

	var totals output.Totals
	var failed []output.FailedTest
	haveFinal := false
	for _, doc := range docs {
		switch doc["type"] {
		case "test":
			status, _ := doc["status"].(string)
			if status != "fail" && status != "error" {
				continue
			}
			failed = append(failed, failedFromDocument(doc, status))
		case "final":
			counts, _ := doc["counts"].(map[string]any)
			totals = output.Totals{
				Total: intField(counts, "total"),
				Pass:  intField(counts, "pass"),
				Fail:  intField(counts, "fail"),
				Error: intField(counts, "error"),
				Omit:  intField(counts, "omit"),
				Todo:  intField(counts, "todo"),
			}
			haveFinal = true
		}
	}
	if !haveFinal {
		return output.Totals{}, nil, errors.Validation("stream has no final document", nil)
	}
	return totals, failed, nil
}

func failedFromDocument(doc map[string]any, status string) output.FailedTest {
	ft := output.FailedTest{Status: status}
	ft.Label, _ = doc["label"].(string)
	if file, ok := doc["file"].(string); ok {
		ft.Location = fmt.Sprintf("%s:%d", file, intField(doc, "line"))
	}
	if exc, ok := doc["exception"].(map[string]any); ok {
		ft.Reason, _ = exc["message"].(string)
	}
	return ft
}

func intField(m map[string]any, key string) int {
	switch v := m[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}

// goTestSummary tallies raw go test output. Skipped tests show as todo.
func (a *app) goTestSummary(data []byte) (output.Totals, []output.FailedTest, error) {
	parser := a.registry.Detect(data)
	events, err := parser.Events(bytes.NewReader(data))
	if err != nil {
		return output.Totals{}, nil, fmt.Errorf("cannot read go test output: %w", err)
	}
	counts := testparser.Count(events)
	if !counts.Parsed {
		a.out.Hint("hint: pipe the output of 'go test -json ./...' or 'ontap convert'")
		return output.Totals{}, nil, errors.New("no test results found in input")
	}

	totals := output.Totals{
		Total: counts.Total,
		Pass:  counts.Passed,
		Fail:  counts.Failed,
		Todo:  counts.Skipped,
	}
	failed := make([]output.FailedTest, 0, len(counts.FailedTests))
	for _, ft := range counts.FailedTests {
		failed = append(failed, output.FailedTest{Label: ft.Name, Status: "fail", Reason: ft.Reason})
	}
	return totals, failed, nil
}
