// Package errors provides structured error types and exit codes for ontap.
package errors

import (
	"errors"
	"fmt"
)

// Exit codes returned by the ontap CLI.
const (
	ExitSuccess          = 0 // Success, all tests passed
	ExitTestsFailed      = 1 // The converted run contained failing or erroring tests
	ExitRuntimeError     = 1 // Runtime error (reporting aborted, unreadable input, etc.)
	ExitConfigError      = 2 // Configuration error (invalid config, bad flag value, etc.)
	ExitInvalidStream    = 2 // A TAP-Y/J stream failed validation
	ExitEnvironmentError = 3 // Environment error (no go.mod, unreadable working directory, etc.)
)

// ErrorKind represents the type of error.
type ErrorKind int

const (
	KindRuntime ErrorKind = iota
	KindConfig
	KindNotFound
	KindValidation
	KindEnvironment
	KindSourceUnavailable
	KindLocationParse
	KindProtocol
	KindInvariant
)

// OntapError is the base error type for ontap.
type OntapError struct {
	Kind    ErrorKind
	Message string
	Event   string // Lifecycle event name if applicable
	Cause   error  // Underlying error

	sentinel *OntapError
}

func (e *OntapError) Error() string {
	if e.Event != "" {
		return fmt.Sprintf("[%s] %s", e.Event, e.Message)
	}
	return e.Message
}

func (e *OntapError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is the sentinel this error was derived from.
func (e *OntapError) Is(target error) bool {
	t, ok := target.(*OntapError)
	if !ok {
		return false
	}
	return e == t || (e.sentinel != nil && e.sentinel == t)
}

// ExitCode returns the appropriate exit code for this error.
func (e *OntapError) ExitCode() int {
	switch e.Kind {
	case KindConfig:
		return ExitConfigError
	case KindValidation:
		return ExitInvalidStream
	case KindEnvironment:
		return ExitEnvironmentError
	default:
		return ExitRuntimeError
	}
}

// Sentinels for the reporter's error taxonomy. Match them with errors.Is.
var (
	// ErrSourceUnavailable means a source file is missing or unreadable.
	// Callers degrade to an empty snippet.
	ErrSourceUnavailable = &OntapError{Kind: KindSourceUnavailable, Message: "source unavailable"}

	// ErrLocationParse means no file:line pair could be extracted.
	// Callers omit the dependent fields.
	ErrLocationParse = &OntapError{Kind: KindLocationParse, Message: "location parse failure"}

	ErrCaptureAlreadyActive      = &OntapError{Kind: KindProtocol, Message: "output capture already active"}
	ErrCaptureNotActive          = &OntapError{Kind: KindProtocol, Message: "output capture not active"}
	ErrUnbalancedGroupStack      = &OntapError{Kind: KindProtocol, Message: "unbalanced group stack"}
	ErrProtocolViolation         = &OntapError{Kind: KindProtocol, Message: "protocol violation"}
	ErrSummaryInvariantViolation = &OntapError{Kind: KindInvariant, Message: "summary invariant violation"}
)

// derive creates an error carrying the sentinel's kind with extra detail.
func derive(sentinel *OntapError, detail string, cause error) *OntapError {
	msg := sentinel.Message
	if detail != "" {
		msg = sentinel.Message + ": " + detail
	}
	return &OntapError{
		Kind:     sentinel.Kind,
		Message:  msg,
		Cause:    cause,
		sentinel: sentinel,
	}
}

// SourceUnavailable creates an ErrSourceUnavailable error for a file.
func SourceUnavailable(file string, cause error) *OntapError {
	if cause == nil {
		return derive(ErrSourceUnavailable, file, nil)
	}
	return derive(ErrSourceUnavailable, fmt.Sprintf("%s: %v", file, cause), cause)
}

// LocationParse creates an ErrLocationParse error for a raw location string.
func LocationParse(raw string) *OntapError {
	return derive(ErrLocationParse, fmt.Sprintf("%q", raw), nil)
}

// CaptureAlreadyActive creates an ErrCaptureAlreadyActive error.
func CaptureAlreadyActive() *OntapError {
	return derive(ErrCaptureAlreadyActive, "", nil)
}

// CaptureNotActive creates an ErrCaptureNotActive error.
func CaptureNotActive() *OntapError {
	return derive(ErrCaptureNotActive, "", nil)
}

// UnbalancedGroupStack creates an ErrUnbalancedGroupStack error.
func UnbalancedGroupStack() *OntapError {
	return derive(ErrUnbalancedGroupStack, "exit on empty stack", nil)
}

// Protocol creates an ErrProtocolViolation error for a lifecycle event.
func Protocol(event, format string, args ...interface{}) *OntapError {
	e := derive(ErrProtocolViolation, fmt.Sprintf(format, args...), nil)
	e.Event = event
	return e
}

// SummaryInvariant creates an ErrSummaryInvariantViolation error.
func SummaryInvariant(format string, args ...interface{}) *OntapError {
	return derive(ErrSummaryInvariantViolation, fmt.Sprintf(format, args...), nil)
}

// New creates a new runtime error.
func New(message string) *OntapError {
	return &OntapError{
		Kind:    KindRuntime,
		Message: message,
	}
}

// Newf creates a new runtime error with formatting.
func Newf(format string, args ...interface{}) *OntapError {
	return New(fmt.Sprintf(format, args...))
}

// Config creates a new configuration error.
func Config(message string) *OntapError {
	return &OntapError{
		Kind:    KindConfig,
		Message: message,
	}
}

// Configf creates a new configuration error with formatting.
func Configf(format string, args ...interface{}) *OntapError {
	return Config(fmt.Sprintf(format, args...))
}

// Validation creates an invalid-stream error.
func Validation(message string, cause error) *OntapError {
	return &OntapError{
		Kind:    KindValidation,
		Message: message,
		Cause:   cause,
	}
}

// Environment creates a new environment error.
func Environment(message string) *OntapError {
	return &OntapError{
		Kind:    KindEnvironment,
		Message: message,
	}
}

// Environmentf creates a new environment error with formatting.
func Environmentf(format string, args ...interface{}) *OntapError {
	return Environment(fmt.Sprintf(format, args...))
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) *OntapError {
	return &OntapError{
		Kind:    KindRuntime,
		Message: message,
		Cause:   err,
	}
}

// NotFound creates a not found error.
func NotFound(what, name string) *OntapError {
	return &OntapError{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("%s not found: %s", what, name),
	}
}

// IsFatal reports whether err is a structural violation that must abort
// reporting. Source and location problems are not fatal.
func IsFatal(err error) bool {
	var oe *OntapError
	if !errors.As(err, &oe) {
		return false
	}
	return oe.Kind == KindProtocol || oe.Kind == KindInvariant
}

// GetExitCode returns the exit code for an error.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var oe *OntapError
	if errors.As(err, &oe) {
		return oe.ExitCode()
	}
	return ExitRuntimeError
}
