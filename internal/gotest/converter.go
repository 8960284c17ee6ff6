// Package gotest replays go test output as reporter events, producing a
// TAP-Y/J document stream from a finished go test run.
package gotest

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/AndreyAkinshin/ontap/internal/capture"
	"github.com/AndreyAkinshin/ontap/internal/failure"
	"github.com/AndreyAkinshin/ontap/internal/project"
	"github.com/AndreyAkinshin/ontap/internal/report"
	"github.com/AndreyAkinshin/ontap/internal/source"
	"github.com/AndreyAkinshin/ontap/internal/testparser"
)

// Emitter receives documents in stream order. Every sink.Sink is one.
type Emitter interface {
	Emit(doc *report.Document) error
}

// Options configures a Converter.
type Options struct {
	// Root is the directory paths are reported relative to. Defaults to the
	// project root, then to the working directory.
	Root string
	// Project resolves package directories for test locations. Optional.
	Project *project.Project
	// Extractor reads source and snippets. Defaults to one over Root.
	Extractor *source.Extractor
	// StripANSI removes ANSI escapes from test output.
	StripANSI bool
	// Backtrace controls frame formatting.
	Backtrace failure.BacktraceOptions
	// Now is the suite start for streams without timestamps (go test -v).
	// Defaults to time.Now.
	Now func() time.Time
}

// Converter turns the events of a go test run into documents.
type Converter struct {
	opts    Options
	out     Emitter
	locator *Locator
}

// NewConverter creates a Converter emitting into out.
func NewConverter(out Emitter, opts Options) *Converter {
	if opts.Root == "" && opts.Project != nil {
		opts.Root = opts.Project.Root
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Converter{opts: opts, out: out, locator: NewLocator(opts.Project)}
}

// ConvertReader reads go test output with parser and converts it.
func (c *Converter) ConvertReader(r io.Reader, parser testparser.Parser) (report.Counts, error) {
	events, err := parser.Events(r)
	if err != nil {
		return report.Counts{}, err
	}
	return c.Convert(events)
}

// Convert emits the document stream of a go test run and returns its counts.
func (c *Converter) Convert(events []testparser.TestEvent) (report.Counts, error) {
	r := collect(events)
	cv := &conversion{Converter: c, run: r, buffer: capture.NewBuffer()}
	cv.buffer.StripANSI = c.opts.StripANSI
	cv.synthetic = r.first.IsZero()
	if cv.synthetic {
		cv.now = c.opts.Now()
	} else {
		cv.now = r.first
	}
	cv.start = cv.now

	cv.builder = report.NewBuilder(report.Options{
		Clock:     func() time.Time { return cv.now },
		Root:      c.opts.Root,
		Extractor: c.opts.Extractor,
		Capturer:  cv.buffer,
		Backtrace: c.opts.Backtrace,
	})
	return cv.convert()
}

// conversion is the state of one Convert call.
type conversion struct {
	*Converter
	run     *run
	builder *report.Builder
	buffer  *capture.Buffer

	synthetic  bool
	start, now time.Time

	all     []report.Example
	failed  []report.FailedExample
	pending int
}

func (cv *conversion) emit(doc *report.Document, err error) error {
	if err != nil {
		return err
	}
	if doc == nil {
		return nil
	}
	return cv.out.Emit(doc)
}

func (cv *conversion) convert() (report.Counts, error) {
	if cv.run.seed != nil {
		if err := cv.emit(cv.builder.Seed(*cv.run.seed)); err != nil {
			return report.Counts{}, err
		}
	}
	if err := cv.emit(cv.builder.Start(cv.run.examples())); err != nil {
		return report.Counts{}, err
	}
	if err := cv.notes(); err != nil {
		return report.Counts{}, err
	}
	for _, p := range cv.run.packages {
		if err := cv.pkg(p); err != nil {
			return report.Counts{}, err
		}
	}

	duration := cv.duration()
	if err := cv.emit(cv.builder.Summary(cv.all, cv.failed, cv.pending, duration)); err != nil {
		return report.Counts{}, err
	}
	return report.Summarize(cv.all, cv.failed, cv.pending)
}

// notes emits output that belongs to no package, and build output that no
// failed package claims.
func (cv *conversion) notes() error {
	claimed := make(map[string]bool)
	for _, p := range cv.run.packages {
		if p.failedBuild != "" {
			claimed[p.failedBuild] = true
		}
		if p.name == "" {
			if text := meaningful(p.output); text != "" {
				if err := cv.emit(cv.builder.Message(text)); err != nil {
					return err
				}
			}
		}
	}
	for _, importPath := range cv.run.buildOrder {
		if claimed[importPath] {
			continue
		}
		text := meaningful(cv.run.buildOutput[importPath])
		if text == "" {
			continue
		}
		if err := cv.emit(cv.builder.Message(fmt.Sprintf("build output of %s:\n%s", importPath, text))); err != nil {
			return err
		}
	}
	return nil
}

func (cv *conversion) pkg(p *pkgRun) error {
	if p.examples() == 0 {
		if text := meaningful(p.output); text != "" && p.name != "" {
			return cv.emit(cv.builder.Message(fmt.Sprintf("%s:\n%s", p.name, text)))
		}
		return nil
	}

	if p.name != "" {
		if err := cv.emit(cv.builder.GroupStarted(p.name, p.name)); err != nil {
			return err
		}
	}
	for _, n := range p.roots {
		if err := cv.walk(p, n); err != nil {
			return err
		}
	}
	if p.name == "" {
		return nil
	}

	if p.action == testparser.ActionFail && !p.failedTests() {
		if err := cv.packageFailure(p); err != nil {
			return err
		}
	} else if text := meaningful(p.output); text != "" {
		if err := cv.emit(cv.builder.Message(fmt.Sprintf("%s:\n%s", p.name, text))); err != nil {
			return err
		}
	}
	return cv.emit(cv.builder.GroupFinished(p.name))
}

func (cv *conversion) walk(p *pkgRun, n *node) error {
	if len(n.children) == 0 {
		return cv.example(p, n)
	}
	if err := cv.emit(cv.builder.GroupStarted(n.name, n.label)); err != nil {
		return err
	}
	for _, c := range n.children {
		if err := cv.walk(p, c); err != nil {
			return err
		}
	}
	// A parent failing on its own, after all subtests passed.
	if n.failed() && !n.descendantFailed() {
		if err := cv.example(p, n); err != nil {
			return err
		}
	}
	return cv.emit(cv.builder.GroupFinished(n.name))
}

func (cv *conversion) example(p *pkgRun, n *node) error {
	if err := cv.emit(cv.builder.ExampleStarted(n.name)); err != nil {
		return err
	}
	output := testOutput(n.output)
	if _, err := io.WriteString(cv.buffer.Stdout(), strings.Join(output, "")); err != nil {
		return err
	}

	ex := report.Example{ID: n.name, Description: n.label, Location: cv.locator.Find(p.name, n.name)}
	cv.advance(n.end, n.elapsed)
	cv.all = append(cv.all, ex)

	switch n.action {
	case testparser.ActionPass:
		return cv.emit(cv.builder.ExamplePassed(ex))
	case testparser.ActionSkip:
		cv.pending++
		return cv.emit(cv.builder.ExamplePending(ex))
	default:
		f := cv.failureOf(p, n, output)
		cv.failed = append(cv.failed, report.FailedExample{Example: ex, Failure: f})
		return cv.emit(cv.builder.ExampleFailed(ex, f))
	}
}

func (cv *conversion) packageFailure(p *pkgRun) error {
	if err := cv.emit(cv.builder.ExampleStarted(p.name)); err != nil {
		return err
	}
	details := meaningful(append(append([]string{}, cv.run.buildOutput[p.failedBuild]...), p.output...))
	f := &failure.Failure{Err: &PackageError{Package: p.name, Output: details}}
	if strings.Contains(details, "panic:") {
		f.Backtrace = failure.ParseGoStack(details)
	} else {
		f.Backtrace = buildFrames(details)
	}

	ex := report.Example{ID: p.name, Description: p.name}
	cv.advance(p.end, 0)
	cv.all = append(cv.all, ex)
	cv.failed = append(cv.failed, report.FailedExample{Example: ex, Failure: f})
	return cv.emit(cv.builder.ExampleFailed(ex, f))
}

// advance moves the builder clock to the end of a test. Streams without
// timestamps advance by the test's elapsed time.
func (cv *conversion) advance(end time.Time, elapsed float64) {
	switch {
	case cv.synthetic:
		cv.now = cv.now.Add(time.Duration(elapsed * float64(time.Second)))
	case !end.IsZero():
		cv.now = end
	}
}

func (cv *conversion) duration() time.Duration {
	if !cv.synthetic {
		return cv.run.last.Sub(cv.run.first)
	}
	var total float64
	for _, p := range cv.run.packages {
		total += p.elapsed
	}
	if d := time.Duration(total * float64(time.Second)); d > cv.now.Sub(cv.start) {
		return d
	}
	return cv.now.Sub(cv.start)
}

var panicLine = regexp.MustCompile(`^panic: (.*?)(?: \[recovered\])?$`)

// failureOf builds the failure of a failed or unfinished test from its
// output: a panic is a runtime error, anything else an assertion failure
// made of the test's log lines.
func (cv *conversion) failureOf(p *pkgRun, n *node, output []string) *failure.Failure {
	text := strings.Join(output, "")
	for _, line := range strings.Split(text, "\n") {
		if m := panicLine.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
			return &failure.Failure{
				Err:       &failure.PanicError{Value: m[1]},
				Backtrace: failure.ParseGoStack(text),
			}
		}
	}

	if n.action == "" {
		return &failure.Failure{Err: &IncompleteError{Test: n.name}}
	}

	dir := cv.locator.Dir(p.name)
	function := strings.SplitN(n.name, "/", 2)[0]
	if p.name != "" {
		function = p.name + "." + function
	}

	var messages, frames []string
	for _, l := range testparser.LogLines(output) {
		messages = append(messages, l.Message)
		file := l.File
		if dir != "" && !filepath.IsAbs(file) {
			file = filepath.Join(dir, file)
		}
		frames = append(frames, fmt.Sprintf("%s:%d: %s", file, l.Line, function))
	}

	message := strings.Join(messages, "\n")
	if strings.TrimSpace(message) == "" {
		message = meaningful(output)
	}
	if strings.TrimSpace(message) == "" {
		message = "test failed"
		slog.Debug("failed test without output", "test", n.name)
	}
	return &failure.Failure{Err: &failure.ExpectationNotMetError{Message: message + "\n"}, Backtrace: frames}
}

var buildErrorLine = regexp.MustCompile(`^\s*(\S+\.go):(\d+)(?::\d+)?: `)

// buildFrames turns compiler diagnostics into file:line frames.
func buildFrames(output string) []string {
	frames := []string{}
	for _, line := range strings.Split(output, "\n") {
		if m := buildErrorLine.FindStringSubmatch(line); m != nil {
			frames = append(frames, m[1]+":"+m[2])
		}
	}
	return frames
}

// PackageError reports a package that failed outside of any test: a build
// failure, a panic in TestMain or init, or a test binary that exited early.
type PackageError struct {
	Package string
	Output  string
}

func (e *PackageError) Error() string {
	if e.Output == "" {
		return fmt.Sprintf("package %s failed", e.Package)
	}
	return fmt.Sprintf("package %s failed:\n%s", e.Package, e.Output)
}

// IncompleteError reports a test that started but never finished, as when
// the test binary times out or is killed.
type IncompleteError struct {
	Test string
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("test %s did not finish", e.Test)
}
