package capture

import (
	"bytes"
	goerrors "errors"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/AndreyAkinshin/ontap/internal/errors"
)

// stdioActive guards the process-wide streams: at most one Stdio capture may
// be active at a time, whichever Stdio value owns it.
var stdioActive atomic.Bool

// Stdio captures by swapping os.Stdout and os.Stderr for pipes.
//
// The swap is process-wide. It assumes nothing else writes to the process
// streams while a capture is active, which holds for sequentially executed
// tests. Engines that run tests in parallel must use one Buffer per test.
type Stdio struct {
	StripANSI bool

	mu       sync.Mutex
	active   bool
	prevOut  *os.File
	prevErr  *os.File
	outW     *os.File
	errW     *os.File
	drains   sync.WaitGroup
	outBuf   *bytes.Buffer
	errBuf   *bytes.Buffer
	drainErr [2]error
}

// NewStdio creates an inactive Stdio capturer.
func NewStdio() *Stdio {
	return &Stdio{}
}

// Begin swaps the process streams for fresh in-memory sinks.
func (s *Stdio) Begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !stdioActive.CompareAndSwap(false, true) {
		return errors.CaptureAlreadyActive()
	}

	outR, outW, err := os.Pipe()
	if err != nil {
		stdioActive.Store(false)
		return errors.Wrap(err, "failed to create stdout pipe")
	}
	errR, errW, err := os.Pipe()
	if err != nil {
		_ = outR.Close()
		_ = outW.Close()
		stdioActive.Store(false)
		return errors.Wrap(err, "failed to create stderr pipe")
	}

	s.outBuf = &bytes.Buffer{}
	s.errBuf = &bytes.Buffer{}
	s.drainErr = [2]error{}
	s.drains.Add(2)
	go s.drain(outR, s.outBuf, 0)
	go s.drain(errR, s.errBuf, 1)

	s.prevOut, s.prevErr = os.Stdout, os.Stderr
	s.outW, s.errW = outW, errW
	os.Stdout, os.Stderr = outW, errW
	s.active = true
	return nil
}

func (s *Stdio) drain(r *os.File, buf *bytes.Buffer, slot int) {
	defer s.drains.Done()
	_, err := io.Copy(buf, r)
	s.drainErr[slot] = goerrors.Join(err, r.Close())
}

// End restores the previous streams and returns the captured text. The
// streams are restored even when reading the pipes fails.
func (s *Stdio) End() (out Output, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return Output{}, errors.CaptureNotActive()
	}

	defer func() {
		os.Stdout, os.Stderr = s.prevOut, s.prevErr
		s.prevOut, s.prevErr = nil, nil
		s.active = false
		stdioActive.Store(false)
	}()

	closeErr := goerrors.Join(s.outW.Close(), s.errW.Close())
	s.drains.Wait()

	if readErr := goerrors.Join(closeErr, s.drainErr[0], s.drainErr[1]); readErr != nil {
		return Output{}, errors.Wrap(readErr, "failed to read captured output")
	}

	return Output{
		Stdout: finish(s.outBuf.String(), s.StripANSI),
		Stderr: finish(s.errBuf.String(), s.StripANSI),
	}, nil
}

// Active reports whether this Stdio owns the process streams.
func (s *Stdio) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}
