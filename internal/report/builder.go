package report

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/AndreyAkinshin/ontap/internal/capture"
	"github.com/AndreyAkinshin/ontap/internal/errors"
	"github.com/AndreyAkinshin/ontap/internal/failure"
	"github.com/AndreyAkinshin/ontap/internal/location"
	"github.com/AndreyAkinshin/ontap/internal/source"
)

// StartLayout formats the suite start time.
const StartLayout = "2006-01-02 15:04:05"

type state int

const (
	stateNotStarted state = iota
	stateRunning
	stateFinished
)

func (s state) String() string {
	switch s {
	case stateNotStarted:
		return "not started"
	case stateRunning:
		return "running"
	case stateFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// Options configures a Builder. Zero fields take defaults.
type Options struct {
	// Clock returns the current time. Defaults to time.Now.
	Clock func() time.Time
	// Root is the directory paths are reported relative to. Defaults to the
	// working directory.
	Root string
	// Extractor reads source and snippets. Defaults to one over a cache
	// rooted at Root.
	Extractor *source.Extractor
	// Capturer collects each example's output. Defaults to capture.NewStdio().
	Capturer capture.Capturer
	// Backtrace controls frame formatting. An empty Root takes Options.Root.
	Backtrace failure.BacktraceOptions
}

// Builder is the stateful event-to-document translator. It is not safe for
// concurrent use; the engine drives it from one goroutine.
type Builder struct {
	clock     func() time.Time
	root      string
	extractor *source.Extractor
	capturer  capture.Capturer
	backtrace failure.BacktraceOptions

	state       state
	start       time.Time
	count       int
	seed        *int64
	groups      GroupStack
	exampleOpen bool
	exampleID   string
}

// NewBuilder creates a Builder in the not-started state.
func NewBuilder(opts Options) *Builder {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Root == "" {
		if wd, err := os.Getwd(); err == nil {
			opts.Root = wd
		}
	}
	if opts.Extractor == nil {
		opts.Extractor = source.NewExtractor(source.NewCache(opts.Root))
	}
	if opts.Capturer == nil {
		opts.Capturer = capture.NewStdio()
	}
	if opts.Backtrace.Root == "" {
		opts.Backtrace.Root = opts.Root
	}
	return &Builder{
		clock:     opts.Clock,
		root:      opts.Root,
		extractor: opts.Extractor,
		capturer:  opts.Capturer,
		backtrace: opts.Backtrace,
	}
}

// Depth returns the current group nesting depth.
func (b *Builder) Depth() int {
	return b.groups.Depth()
}

// Finished reports whether Summary has been accepted.
func (b *Builder) Finished() bool {
	return b.state == stateFinished
}

// Seed records the randomization seed surfaced in the suite document.
// It produces no document.
func (b *Builder) Seed(v int64) (*Document, error) {
	if b.state == stateFinished {
		return nil, b.violation("seed")
	}
	b.seed = &v
	return nil, nil
}

// Start begins the run and returns the suite document.
func (b *Builder) Start(count int) (*Document, error) {
	if b.state != stateNotStarted {
		return nil, b.violation("start")
	}
	b.state = stateRunning
	b.start = b.clock()
	b.count = count

	doc := NewDocument(TypeSuite)
	doc.Set("start", b.start.Format(StartLayout))
	doc.Set("count", count)
	if b.seed != nil {
		doc.Set("seed", *b.seed)
	} else {
		doc.Set("seed", nil)
	}
	doc.Set("rev", Revision)
	return doc, nil
}

// GroupStarted opens a group and returns its case document. The level is
// the depth before the group is pushed, so top-level groups have level 0.
func (b *Builder) GroupStarted(id, description string) (*Document, error) {
	if b.state != stateRunning {
		return nil, b.violation("groupStarted")
	}
	if description == "" {
		description = id
	}
	doc := NewDocument(TypeCase)
	doc.Set("subtype", "describe")
	doc.Set("label", description)
	doc.Set("level", b.groups.Depth())
	b.groups.Enter(id)
	return doc, nil
}

// GroupFinished closes the innermost group. It produces no document.
func (b *Builder) GroupFinished(id string) (*Document, error) {
	if b.state != stateRunning {
		return nil, b.violation("groupFinished")
	}
	if b.exampleOpen {
		return nil, errors.Protocol("groupFinished", "example %q is still running", b.exampleID)
	}
	popped, err := b.groups.Exit()
	if err != nil {
		return nil, err
	}
	if id != "" && popped != id {
		slog.Debug("group finished out of order", "want", popped, "got", id)
	}
	return nil, nil
}

// ExampleStarted marks an example as running and starts capturing its
// output. It produces no document.
func (b *Builder) ExampleStarted(id string) (*Document, error) {
	if b.state != stateRunning {
		return nil, b.violation("exampleStarted")
	}
	if b.exampleOpen {
		return nil, errors.Protocol("exampleStarted", "example %q is still running", b.exampleID)
	}
	if err := b.capturer.Begin(); err != nil {
		return nil, err
	}
	b.exampleOpen = true
	b.exampleID = id
	return nil, nil
}

// ExamplePassed returns the test document of a passing example.
func (b *Builder) ExamplePassed(ex Example) (*Document, error) {
	return b.finishExample("examplePassed", ex, StatusPass, nil)
}

// ExamplePending returns the test document of a pending example.
func (b *Builder) ExamplePending(ex Example) (*Document, error) {
	return b.finishExample("examplePending", ex, StatusTodo, nil)
}

// ExampleFailed returns the test document of a failing example, with the
// failure classified as fail or error and described in an exception entry.
func (b *Builder) ExampleFailed(ex Example, f *failure.Failure) (*Document, error) {
	if f == nil {
		f = &failure.Failure{}
	}
	return b.finishExample("exampleFailed", ex, "", f)
}

func (b *Builder) finishExample(event string, ex Example, status string, f *failure.Failure) (*Document, error) {
	if b.state != stateRunning {
		return nil, b.violation(event)
	}
	if !b.exampleOpen {
		return nil, errors.Protocol(event, "no example is running")
	}
	b.exampleOpen = false
	b.exampleID = ""

	out, err := b.capturer.End()
	if err != nil {
		return nil, err
	}

	var class failure.Classification
	if f != nil {
		class = failure.Classify(f)
		status = class.Status
	}

	doc := NewDocument(TypeTest)
	doc.Set("subtype", "it")
	doc.Set("status", status)
	doc.Set("label", ex.Description)

	loc := location.Parse(ex.Location)
	if loc.Valid() {
		b.setSource(doc, loc)
	} else if ex.Location != "" {
		slog.Debug("unparsable example location, omitting source", "location", ex.Location)
	}

	if class.Expected != nil || class.Actual != nil {
		doc.Set("expected", deref(class.Expected))
		doc.Set("returned", deref(class.Actual))
	}
	if out.Stdout != "" {
		doc.Set("stdout", out.Stdout)
	}
	if out.Stderr != "" {
		doc.Set("stderr", out.Stderr)
	}
	if f != nil {
		doc.Set("exception", b.exception(f))
	}
	doc.Set("time", b.elapsed())
	return doc, nil
}

func (b *Builder) exception(f *failure.Failure) *Document {
	backtrace := failure.FormatBacktrace(f.Backtrace, b.backtrace)

	doc := &Document{}
	doc.Set("message", f.Message())
	doc.Set("class", f.ClassName())
	if origin := location.FromFrames(backtrace); origin.Valid() {
		b.setSource(doc, origin)
	}
	doc.Set("backtrace", backtrace)
	return doc
}

// setSource writes file, line, source and snippet for loc.
func (b *Builder) setSource(doc *Document, loc location.Location) {
	path := loc.File
	if !filepath.IsAbs(path) && b.root != "" {
		path = filepath.Join(b.root, path)
	}
	doc.Set("file", location.Relative(loc.File, b.root))
	doc.Set("line", loc.Line)
	doc.Set("source", b.extractor.SourceLine(path, loc.Line))
	doc.Set("snippet", b.extractor.Snippet(path, loc.Line))
}

// Message returns a note document.
func (b *Builder) Message(text string) (*Document, error) {
	if b.state != stateRunning {
		return nil, b.violation("message")
	}
	doc := NewDocument(TypeNote)
	doc.Set("text", text)
	return doc, nil
}

// Summary ends the run and returns the final document.
func (b *Builder) Summary(all []Example, failed []FailedExample, pending int, duration time.Duration) (*Document, error) {
	if b.state != stateRunning {
		return nil, b.violation("summary")
	}
	if b.exampleOpen {
		return nil, errors.Protocol("summary", "example %q is still running", b.exampleID)
	}
	counts, err := Summarize(all, failed, pending)
	if err != nil {
		return nil, err
	}
	if counts.Total != b.count {
		slog.Debug("summary total differs from suite count", "count", b.count, "total", counts.Total)
	}
	b.state = stateFinished

	doc := NewDocument(TypeFinal)
	doc.Set("time", duration.Seconds())
	doc.Set("counts", counts.Document())
	return doc, nil
}

func (b *Builder) elapsed() float64 {
	return b.clock().Sub(b.start).Seconds()
}

func (b *Builder) violation(event string) error {
	return errors.Protocol(event, "not allowed while %s", b.state)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
