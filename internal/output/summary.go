package output

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Totals are the run-wide counters shown in a summary.
type Totals struct {
	Total int
	Pass  int
	Fail  int
	Error int
	Omit  int
	Todo  int
}

// Failed reports whether any test failed or errored.
func (t Totals) Failed() bool {
	return t.Fail > 0 || t.Error > 0
}

// FailedTest is one row of the failures table.
type FailedTest struct {
	Label    string
	Status   string
	Location string
	Reason   string
}

const maxReasonWidth = 80

// SummaryTable renders totals as a two-column table.
func (w *Writer) SummaryTable(totals Totals) {
	t := w.newTable(totals)
	t.AppendHeader(table.Row{"Status", "Count"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Count", Align: text.AlignRight, AlignFooter: text.AlignRight},
	})
	t.AppendRows([]table.Row{
		{Title("pass"), totals.Pass},
		{Title("fail"), totals.Fail},
		{Title("error"), totals.Error},
		{Title("todo"), totals.Todo},
		{Title("omit"), totals.Omit},
	})
	t.AppendFooter(table.Row{"Total", totals.Total})
	w.Println("%s", t.Render())
}

// FailuresTable renders one row per failed test. Nothing is printed for an
// empty list.
func (w *Writer) FailuresTable(failed []FailedTest) {
	if len(failed) == 0 {
		return
	}
	t := w.newTable(Totals{Fail: len(failed)})
	t.AppendHeader(table.Row{"Test", "Status", "Location", "Reason"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Reason", WidthMax: maxReasonWidth, WidthMaxEnforcer: text.WrapSoft},
	})
	for _, f := range failed {
		t.AppendRow(table.Row{f.Label, f.Status, f.Location, firstLine(f.Reason)})
	}
	w.Println("%s", t.Render())
}

// Verdict prints the closing line of a summary.
func (w *Writer) Verdict(totals Totals) {
	switch {
	case totals.Failed():
		w.FinalFailure("%d of %d tests failed.", totals.Fail+totals.Error, totals.Total)
	case totals.Todo > 0:
		w.FinalSuccess("All %d tests passed (%d pending).", totals.Total-totals.Todo, totals.Todo)
	default:
		w.FinalSuccess("All %d tests passed.", totals.Total)
	}
}

func (w *Writer) newTable(totals Totals) table.Writer {
	t := table.NewWriter()
	switch {
	case !w.color:
		t.SetStyle(table.StyleDefault)
	case totals.Failed():
		t.SetStyle(table.StyleColoredBlackOnRedWhite)
	case totals.Todo > 0:
		t.SetStyle(table.StyleColoredBlackOnYellowWhite)
	default:
		t.SetStyle(table.StyleColoredBlackOnGreenWhite)
	}
	return t
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if line, _, found := strings.Cut(s, "\n"); found {
		return fmt.Sprintf("%s ...", strings.TrimSpace(line))
	}
	return s
}
