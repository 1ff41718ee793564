package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes for categorizing errors
const (
	ErrConfig = "CONFIG"
	ErrSSH    = "SSH"
	ErrPool   = "POOL"
	ErrExec   = "EXEC"
	ErrParse  = "PARSE"
	ErrAuth   = "AUTH"
	ErrAction = "ACTION"
	ErrInput  = "INPUT"
)

// Error represents a structured error with code, message, suggestion, and optional cause.
// On the terminal it renders as:
//
//	✗ <What failed>
//
//	  <Why it failed - technical details>
//
//	  <How to fix it - actionable steps>
//
// Over HTTP only Summary() is exposed.
type Error struct {
	Code       string
	Message    string
	Suggestion string
	Cause      error
}

// New creates a new structured error with the given code, message, and suggestion.
func New(code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
	}
}

// Wrap wraps an existing error with a message, defaulting to ErrSSH code.
func Wrap(err error, message string) *Error {
	return &Error{
		Code:    ErrSSH,
		Message: message,
		Cause:   err,
	}
}

// WrapWithCode wraps an existing error with a specific code, message, and suggestion.
func WrapWithCode(err error, code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
		Cause:      err,
	}
}

// Error implements the error interface with the multi-line terminal layout.
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("✗ %s\n", e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Cause.Error()))
	}

	if e.Suggestion != "" {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Suggestion))
	}

	return b.String()
}

// Summary returns a single-line "message: cause" form for logs and API bodies.
func (e *Error) Summary() string {
	if e.Cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, Summary(e.Cause))
}

// Unwrap returns the underlying cause for use with errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsCode checks if an error is a structured Error with the given code.
func IsCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var sErr *Error
	if errors.As(err, &sErr) {
		return sErr.Code == code
	}
	return false
}

// CodeOf returns the code of the outermost structured Error in err's chain,
// or an empty string.
func CodeOf(err error) string {
	var sErr *Error
	if errors.As(err, &sErr) {
		return sErr.Code
	}
	return ""
}

// Summary flattens any error into one line. Structured errors use their
// Summary form; everything else uses Error() with newlines collapsed.
func Summary(err error) string {
	if err == nil {
		return ""
	}
	var sErr *Error
	if errors.As(err, &sErr) && sErr == err {
		return sErr.Summary()
	}
	return strings.Join(strings.Fields(err.Error()), " ")
}

// ExitError carries a process exit code out of a command without printing
// anything further. `sshsshje exec` uses it to mirror the remote status.
type ExitError struct {
	Code int
}

// NewExitError creates an ExitError with the given code.
func NewExitError(code int) *ExitError {
	return &ExitError{Code: code}
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// GetExitCode extracts the code from an ExitError anywhere in err's chain.
func GetExitCode(err error) (int, bool) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code, true
	}
	return 0, false
}
