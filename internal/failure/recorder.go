package failure

import (
	"fmt"
	"strings"
)

// Recorder collects assertion messages from helpers that report through
// Errorf, such as testify's assert package, and turns them into a mismatch
// failure. It satisfies assert.TestingT and require.TestingT.
type Recorder struct {
	messages []string
	frames   []string
	stopped  bool
}

// Errorf records one assertion message and the stack of the first one.
func (r *Recorder) Errorf(format string, args ...interface{}) {
	if r.frames == nil {
		r.frames = Callers(1)
	}
	r.messages = append(r.messages, fmt.Sprintf(format, args...))
}

// stop is the panic value FailNow unwinds the example body with.
type stop struct{}

// FailNow marks the recorder as stopped and unwinds the example body, as
// testing.T.FailNow exits the test goroutine. The body must run under
// Execute, which recovers it.
func (r *Recorder) FailNow() {
	r.stopped = true
	panic(stop{})
}

// Failed reports whether any message was recorded.
func (r *Recorder) Failed() bool {
	return len(r.messages) > 0
}

// Stopped reports whether FailNow was called.
func (r *Recorder) Stopped() bool {
	return r.stopped
}

// Failure returns the recorded messages as a mismatch, or nil when nothing
// was recorded.
func (r *Recorder) Failure() *Failure {
	if !r.Failed() {
		return nil
	}
	return &Failure{
		Err:       &ExpectationNotMetError{Message: strings.Join(r.messages, "\n")},
		Backtrace: r.frames,
	}
}

// Execute runs an example body with a fresh Recorder. It returns the
// recorded mismatch, a runtime failure when the body panics, or nil.
func Execute(fn func(t *Recorder)) (f *Failure) {
	rec := &Recorder{}
	defer func() {
		v := recover()
		if v == nil {
			return
		}
		if _, ok := v.(stop); ok {
			if !rec.Failed() {
				rec.messages = append(rec.messages, "FailNow called")
			}
			f = rec.Failure()
			return
		}
		f = FromPanic(v)
	}()
	fn(rec)
	return rec.Failure()
}
