// Package output provides human-readable terminal output for the ontap CLI.
// Document streams never go through this package; it only renders messages,
// warnings and summaries meant for people.
package output

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Writer handles CLI output formatting.
type Writer struct {
	out   io.Writer
	err   io.Writer
	color bool
	quiet bool
}

// New creates a Writer on stdout and stderr, colored when stdout is a terminal.
func New() *Writer {
	return &Writer{
		out:   os.Stdout,
		err:   os.Stderr,
		color: SupportsColor(os.Stdout),
	}
}

// NewWithWriters creates a Writer with custom io.Writers (for testing).
func NewWithWriters(out, err io.Writer, color bool) *Writer {
	return &Writer{
		out:   out,
		err:   err,
		color: color,
	}
}

// SetQuiet enables or disables quiet mode.
func (w *Writer) SetQuiet(quiet bool) {
	w.quiet = quiet
}

// SetColor forces color on or off.
func (w *Writer) SetColor(enabled bool) {
	w.color = enabled
}

// Quiet reports whether informational output is suppressed.
func (w *Writer) Quiet() bool {
	return w.quiet
}

// Println writes a line to stdout.
func (w *Writer) Println(format string, args ...interface{}) {
	fmt.Fprintf(w.out, format+"\n", args...)
}

// Errorln writes a line to stderr.
func (w *Writer) Errorln(format string, args ...interface{}) {
	fmt.Fprintf(w.err, format+"\n", args...)
}

// Info prints an info message to stderr (skipped in quiet mode). Stdout may
// carry a document stream, so chatter stays off it.
func (w *Writer) Info(format string, args ...interface{}) {
	if w.quiet {
		return
	}
	w.Errorln(format, args...)
}

// Success prints a success message.
func (w *Writer) Success(format string, args ...interface{}) {
	w.Println("%s", w.paint(fmt.Sprintf(format, args...), color.FgGreen))
}

// Warning prints a warning message to stderr.
func (w *Writer) Warning(format string, args ...interface{}) {
	w.Errorln("%s %s", w.paint("warning:", color.FgYellow), fmt.Sprintf(format, args...))
}

// ErrorPrefix prints an error message with the ontap prefix to stderr.
func (w *Writer) ErrorPrefix(format string, args ...interface{}) {
	w.Errorln("%s %s", w.paint("ontap:", color.FgRed), fmt.Sprintf(format, args...))
}

// Hint prints a dimmed hint to stderr.
func (w *Writer) Hint(format string, args ...interface{}) {
	w.Errorln("%s", w.paint(fmt.Sprintf(format, args...), color.Faint))
}

// SummaryHeader prints a title-cased section header.
func (w *Writer) SummaryHeader(title string) {
	w.Println("")
	w.Println("%s", w.paint("=== "+Title(title)+" ===", color.Bold, color.FgCyan))
	w.Println("")
}

// FinalSuccess prints a final success message.
func (w *Writer) FinalSuccess(format string, args ...interface{}) {
	w.Println("")
	w.Success(format, args...)
}

// FinalFailure prints a final failure message.
func (w *Writer) FinalFailure(format string, args ...interface{}) {
	w.Println("")
	w.Println("%s", w.paint(fmt.Sprintf(format, args...), color.FgRed))
}

// ValidationSuccess prints a validation success message.
func (w *Writer) ValidationSuccess(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if w.color {
		w.Println("%s %s", w.paint("✓", color.FgGreen), msg)
	} else {
		w.Println("%s", msg)
	}
}

// paint applies attrs to s when color is enabled.
func (w *Writer) paint(s string, attrs ...color.Attribute) string {
	c := color.New(attrs...)
	if w.color {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c.Sprint(s)
}

var titleCaser = cases.Title(language.English)

// Title converts s to title case ("test summary" -> "Test Summary").
func Title(s string) string {
	return titleCaser.String(s)
}

// SupportsColor returns true if w is a terminal and NO_COLOR is not set.
func SupportsColor(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || color.NoColor {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
