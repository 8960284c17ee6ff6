// Package ontap reports a test run as a TAP-Y or TAP-J (revision 4) document
// stream. A harness drives a Reporter with one call per lifecycle event:
//
//	r, err := ontap.New(os.Stdout, ontap.Options{Format: "tapj"})
//	r.Start(len(tests))
//	r.GroupStarted("calc", "calc")
//	r.Run(ontap.Example{ID: "add", Description: "adds", Location: "calc_test.go:12"},
//		func(t *ontap.Recorder) { assert.Equal(t, 4, add(2, 2)) })
//	r.GroupFinished("calc")
//	counts, err := r.Summary()
//
// By default a Reporter captures os.Stdout and os.Stderr while an example
// runs, so examples must run one at a time. Harnesses running examples in
// parallel pass a capture.Buffer per Reporter instead.
package ontap

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/AndreyAkinshin/ontap/internal/capture"
	"github.com/AndreyAkinshin/ontap/internal/failure"
	"github.com/AndreyAkinshin/ontap/internal/report"
	"github.com/AndreyAkinshin/ontap/internal/schema"
	"github.com/AndreyAkinshin/ontap/internal/sink"
	"github.com/AndreyAkinshin/ontap/internal/source"
)

type (
	// Example is one executed test.
	Example = report.Example
	// Failure is an error raised by an example, with its backtrace.
	Failure = failure.Failure
	// Counts is the run-wide tally of the final document.
	Counts = report.Counts
	// Event is a lifecycle notification delivered as data.
	Event = report.Event
	// Recorder collects assertion failures; it satisfies testify's TestingT.
	Recorder = failure.Recorder
	// Capturer collects the output of one example.
	Capturer = capture.Capturer
)

// Stream formats.
const (
	FormatTAPY = sink.FormatTAPY
	FormatTAPJ = sink.FormatTAPJ
)

// Options configures a Reporter. Zero fields take defaults.
type Options struct {
	// Format is "tapy" (default) or "tapj".
	Format string
	// Root is the directory reported paths are relative to. Defaults to the
	// working directory.
	Root string
	// Radius is the number of source lines shown around a location.
	// Zero means the default of 2.
	Radius int
	// Clock returns the current time. Defaults to time.Now.
	Clock func() time.Time
	// Capturer collects each example's output. Defaults to a process-wide
	// os.Stdout/os.Stderr capture.
	Capturer Capturer
	// StripANSI removes ANSI escapes from captured output. It applies to the
	// default capturer only.
	StripANSI bool
	// FullBacktrace keeps runtime, testing and assertion frames.
	FullBacktrace bool
	// Validate checks every document against the TAP-Y/J schema before
	// writing it.
	Validate bool
}

// Reporter turns lifecycle events into documents and writes them to a
// stream. It is not safe for concurrent use.
type Reporter struct {
	builder  *report.Builder
	sink     sink.Sink
	clock    func() time.Time
	validate bool

	start   time.Time
	all     []Example
	failed  []report.FailedExample
	pending int
	closed  bool
}

// New creates a Reporter writing to w.
func New(w io.Writer, opts Options) (*Reporter, error) {
	s, err := sink.New(formatOrDefault(opts.Format), w)
	if err != nil {
		return nil, err
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Root == "" {
		if wd, err := os.Getwd(); err == nil {
			opts.Root = wd
		}
	}
	if opts.Capturer == nil {
		stdio := capture.NewStdio()
		stdio.StripANSI = opts.StripANSI
		opts.Capturer = stdio
	}
	extractor := source.NewExtractor(source.NewCache(opts.Root))
	if opts.Radius > 0 {
		extractor.Radius = opts.Radius
	}

	return &Reporter{
		builder: report.NewBuilder(report.Options{
			Clock:     opts.Clock,
			Root:      opts.Root,
			Extractor: extractor,
			Capturer:  opts.Capturer,
			Backtrace: failure.BacktraceOptions{
				Root:    opts.Root,
				Filter:  !opts.FullBacktrace,
				Exclude: failure.DefaultExclude,
			},
		}),
		sink:     s,
		clock:    opts.Clock,
		validate: opts.Validate,
	}, nil
}

func formatOrDefault(format string) string {
	if format == "" {
		return FormatTAPY
	}
	return format
}

func (r *Reporter) emit(doc *report.Document, err error) error {
	if err != nil {
		return err
	}
	if doc == nil {
		return nil
	}
	if r.validate {
		if err := schema.ValidateDocument(doc); err != nil {
			return err
		}
	}
	return r.sink.Emit(doc)
}

// Seed records the randomization seed shown in the suite document.
func (r *Reporter) Seed(v int64) error {
	return r.emit(r.builder.Seed(v))
}

// Start begins the run with the number of examples expected.
func (r *Reporter) Start(count int) error {
	r.start = r.clock()
	return r.emit(r.builder.Start(count))
}

// GroupStarted opens a group.
func (r *Reporter) GroupStarted(id, description string) error {
	return r.emit(r.builder.GroupStarted(id, description))
}

// GroupFinished closes the innermost group.
func (r *Reporter) GroupFinished(id string) error {
	return r.emit(r.builder.GroupFinished(id))
}

// ExampleStarted marks an example as running and starts capturing its output.
func (r *Reporter) ExampleStarted(id string) error {
	return r.emit(r.builder.ExampleStarted(id))
}

// ExamplePassed reports the running example as passed.
func (r *Reporter) ExamplePassed(ex Example) error {
	if err := r.emit(r.builder.ExamplePassed(ex)); err != nil {
		return err
	}
	r.all = append(r.all, ex)
	return nil
}

// ExamplePending reports the running example as skipped or pending.
func (r *Reporter) ExamplePending(ex Example) error {
	if err := r.emit(r.builder.ExamplePending(ex)); err != nil {
		return err
	}
	r.all = append(r.all, ex)
	r.pending++
	return nil
}

// ExampleFailed reports the running example as failed with f.
func (r *Reporter) ExampleFailed(ex Example, f *Failure) error {
	if err := r.emit(r.builder.ExampleFailed(ex, f)); err != nil {
		return err
	}
	r.all = append(r.all, ex)
	r.failed = append(r.failed, report.FailedExample{Example: ex, Failure: f})
	return nil
}

// Message writes a note document.
func (r *Reporter) Message(text string) error {
	return r.emit(r.builder.Message(text))
}

// Run executes fn as example ex. A recorded assertion failure reports the
// example as failed, a panic reports it as an error, and anything else as
// passed. Run returns only reporting errors, never the example's failure.
func (r *Reporter) Run(ex Example, fn func(t *Recorder)) error {
	if err := r.ExampleStarted(ex.ID); err != nil {
		return err
	}
	f := failure.Execute(fn)
	if f != nil {
		return r.ExampleFailed(ex, f)
	}
	return r.ExamplePassed(ex)
}

// Summary writes the final document, timed from Start, and ends the stream.
func (r *Reporter) Summary() (Counts, error) {
	if err := r.emit(r.builder.Summary(r.all, r.failed, r.pending, r.clock().Sub(r.start))); err != nil {
		return Counts{}, err
	}
	if err := r.Close(); err != nil {
		return Counts{}, err
	}
	return report.Summarize(r.all, r.failed, r.pending)
}

// Dispatch routes an event delivered as data. Reported examples are
// tallied as by the corresponding methods; a SummaryEvent is used as given
// and ends the stream.
func (r *Reporter) Dispatch(e Event) error {
	switch e := e.(type) {
	case report.StartEvent:
		r.start = r.clock()
	case report.ExamplePassedEvent:
		return r.ExamplePassed(e.Example)
	case report.ExamplePendingEvent:
		return r.ExamplePending(e.Example)
	case report.ExampleFailedEvent:
		return r.ExampleFailed(e.Example, e.Failure)
	case report.SummaryEvent:
		if err := r.emit(r.builder.Dispatch(e)); err != nil {
			return err
		}
		return r.Close()
	case nil:
		return fmt.Errorf("nil event")
	}
	return r.emit(r.builder.Dispatch(e))
}

// Close ends the stream. Summary calls it; call it directly only to abandon
// a run. Closing twice is a no-op.
func (r *Reporter) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	return r.sink.Close()
}
