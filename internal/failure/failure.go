// Package failure classifies raised test failures and normalizes their backtraces.
package failure

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"runtime"
	"strings"
	"unicode"
)

// Statuses produced by Classify.
const (
	StatusFail  = "fail"
	StatusError = "error"
)

// Mismatch is implemented by errors that report an unmet expectation, the
// failure category raised by assertion helpers. Every other error is treated
// as an unexpected runtime fault.
type Mismatch interface {
	error
	ExpectationNotMet()
}

// ExpectationNotMetError is the built-in assertion-mismatch error.
type ExpectationNotMetError struct {
	Message string
}

func (e *ExpectationNotMetError) Error() string { return e.Message }

// ExpectationNotMet marks the error as an assertion mismatch.
func (e *ExpectationNotMetError) ExpectationNotMet() {}

// Expect builds a mismatch whose message carries the expected/got layout
// understood by Classify.
func Expect(expected, actual any) *ExpectationNotMetError {
	return &ExpectationNotMetError{
		Message: fmt.Sprintf("expected: %v\n     got: %v\n", expected, actual),
	}
}

// Mismatchf builds a mismatch with a free-form message.
func Mismatchf(format string, args ...any) *ExpectationNotMetError {
	return &ExpectationNotMetError{Message: fmt.Sprintf(format, args...)}
}

// PanicError reports a panic recovered while running a test.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string { return fmt.Sprintf("panic: %v", e.Value) }

// Failure is a raised test failure with the stack it was raised from.
type Failure struct {
	Err       error
	Backtrace []string
}

// New records err together with the caller's stack.
func New(err error) *Failure {
	return &Failure{Err: err, Backtrace: Callers(1)}
}

// FromPanic converts a recovered panic value into a failure. Call it from the
// deferred function that recovered; the stack then still contains the frames
// that panicked.
func FromPanic(v any) *Failure {
	err, ok := v.(error)
	if !ok {
		err = &PanicError{Value: v}
	}
	frames := Callers(1)
	for i, frame := range frames {
		if strings.HasSuffix(frame, ": runtime.gopanic") {
			frames = frames[i+1:]
			break
		}
	}
	return &Failure{Err: err, Backtrace: frames}
}

// Message returns the trimmed failure message.
func (f *Failure) Message() string {
	if f == nil || f.Err == nil {
		return ""
	}
	return strings.TrimSpace(f.Err.Error())
}

// ClassName returns the failure-kind name.
func (f *Failure) ClassName() string {
	if f == nil {
		return ""
	}
	return ClassName(f.Err)
}

// Classification is the outcome of Classify. Expected and Actual are nil
// when the message does not carry an expected/got pair.
type Classification struct {
	Status   string
	Expected *string
	Actual   *string
}

// IsMismatch reports whether err is, or wraps, an assertion mismatch.
func IsMismatch(err error) bool {
	var m Mismatch
	return errors.As(err, &m)
}

// Classify decides between an assertion mismatch ("fail") and a runtime
// fault ("error"), and extracts expected/actual text for mismatches.
func Classify(f *Failure) Classification {
	if f == nil || !IsMismatch(f.Err) {
		return Classification{Status: StatusError}
	}
	expected, actual := ExtractExpectation(f.Err.Error())
	return Classification{Status: StatusFail, Expected: expected, Actual: actual}
}

var (
	gotRegex    = regexp.MustCompile(`expected:\s*(.*?)\n\s*got:\s*(.*?)\s+`)
	actualRegex = regexp.MustCompile(`expected:\s*(.*?)\n\s*actual\s*:\s*(.*?)\s+`)
)

// ExtractExpectation matches "expected: X\n got: Y" (and testify's
// "expected: X\n actual  : Y") in message. Both results are nil on no match.
func ExtractExpectation(message string) (expected, actual *string) {
	for _, re := range []*regexp.Regexp{gotRegex, actualRegex} {
		if m := re.FindStringSubmatch(message); m != nil {
			e, a := m[1], m[2]
			return &e, &a
		}
	}
	return nil, nil
}

// ClassName returns the name of err's dynamic type without package path or
// pointer. When err wraps a mismatch, the mismatch's type is reported.
// Unexported standard-library types such as *errors.errorString read "error",
// and unexported runtime faults (nil dereference, index out of range) read
// "RuntimeError".
func ClassName(err error) string {
	if err == nil {
		return ""
	}
	var m Mismatch
	if errors.As(err, &m) {
		err = m
	}
	t := reflect.TypeOf(err)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	name := t.Name()
	if name == "" || !unicode.IsUpper([]rune(name)[0]) {
		var re runtime.Error
		if errors.As(err, &re) {
			return "RuntimeError"
		}
		return "error"
	}
	return name
}

// Callers returns the calling goroutine's stack as "file:line: function"
// frames, skipping skip frames above the caller of Callers.
func Callers(skip int) []string {
	pcs := make([]uintptr, 64)
	n := runtime.Callers(skip+2, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	var out []string
	for {
		frame, more := frames.Next()
		if frame.File != "" {
			out = append(out, formatFrame(frame.File, frame.Line, frame.Function))
		}
		if !more {
			break
		}
	}
	return out
}

func formatFrame(file string, line int, function string) string {
	if function == "" {
		return fmt.Sprintf("%s:%d", file, line)
	}
	return fmt.Sprintf("%s:%d: %s", file, line, function)
}
