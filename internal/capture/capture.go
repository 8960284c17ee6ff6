// Package capture redirects console output produced while a single test runs.
package capture

import (
	"bytes"
	"io"
	"strings"

	"github.com/acarl005/stripansi"

	"github.com/AndreyAkinshin/ontap/internal/errors"
)

// Output is the console output captured for one test. Empty fields mean
// nothing was written to that stream.
type Output struct {
	Stdout string
	Stderr string
}

// Empty reports whether neither stream received output.
func (o Output) Empty() bool {
	return o.Stdout == "" && o.Stderr == ""
}

// Capturer is a scoped acquisition of a test's output sinks. Begin while
// active fails with errors.ErrCaptureAlreadyActive; End while inactive fails
// with errors.ErrCaptureNotActive.
type Capturer interface {
	Begin() error
	End() (Output, error)
	Active() bool
}

// finish trims one trailing newline and optionally strips ANSI escapes.
func finish(s string, stripANSI bool) string {
	if stripANSI {
		s = stripansi.Strip(s)
	}
	return strings.TrimSuffix(s, "\n")
}

// Buffer captures output that the engine delivers as data rather than by
// writing to the process streams. Each Buffer is independent, so parallel
// tests can each own one.
type Buffer struct {
	StripANSI bool

	active bool
	stdout bytes.Buffer
	stderr bytes.Buffer
}

// NewBuffer creates an inactive Buffer.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// Begin starts a fresh capture.
func (b *Buffer) Begin() error {
	if b.active {
		return errors.CaptureAlreadyActive()
	}
	b.stdout.Reset()
	b.stderr.Reset()
	b.active = true
	return nil
}

// End stops the capture and returns what was written.
func (b *Buffer) End() (Output, error) {
	if !b.active {
		return Output{}, errors.CaptureNotActive()
	}
	b.active = false
	return Output{
		Stdout: finish(b.stdout.String(), b.StripANSI),
		Stderr: finish(b.stderr.String(), b.StripANSI),
	}, nil
}

// Active reports whether a capture is in progress.
func (b *Buffer) Active() bool {
	return b.active
}

// Stdout returns a writer into the captured stdout. Writes fail with
// errors.ErrCaptureNotActive outside Begin/End.
func (b *Buffer) Stdout() io.Writer {
	return &bufferStream{owner: b, buf: &b.stdout}
}

// Stderr returns a writer into the captured stderr.
func (b *Buffer) Stderr() io.Writer {
	return &bufferStream{owner: b, buf: &b.stderr}
}

type bufferStream struct {
	owner *Buffer
	buf   *bytes.Buffer
}

func (s *bufferStream) Write(p []byte) (int, error) {
	if !s.owner.active {
		return 0, errors.CaptureNotActive()
	}
	return s.buf.Write(p)
}
