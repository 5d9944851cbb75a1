package aioblkcopy

import (
	"fmt"
	"syscall"
)

// Code is a high-level error category, used to classify failures
// independent of the underlying errno or message text.
type Code string

const (
	CodeInvalidConfig    Code = "invalid configuration"
	CodeOpenFailed       Code = "open failed"
	CodeSubmissionFailed Code = "submission failed"
	CodeAllocationFailed Code = "allocation failed"
	CodeIOError          Code = "I/O error"
	CodeDestinationFull  Code = "destination full"
	CodeCancelled        Code = "operation cancelled"
)

// Error is a structured error carrying the failing operation, a
// category code, the kernel errno when one is available, and the
// wrapped cause.
type Error struct {
	Op    string // e.g. "open input", "submit read", "scheduler run"
	Code  Code
	Errno syscall.Errno
	Msg   string
	Inner error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = string(e.Code)
	}
	if e.Op != "" {
		if e.Errno != 0 {
			return fmt.Sprintf("aioblkcopy: %s: %s (errno=%d)", e.Op, msg, e.Errno)
		}
		return fmt.Sprintf("aioblkcopy: %s: %s", e.Op, msg)
	}
	return fmt.Sprintf("aioblkcopy: %s", msg)
}

func (e *Error) Unwrap() error {
	return e.Inner
}

// Is supports errors.Is comparison against another *Error by Code, so
// callers can write errors.Is(err, &Error{Code: CodeDestinationFull})
// without needing to know the wrapped errno or message.
func (e *Error) Is(target error) bool {
	te, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == te.Code
}

// NewError builds a structured error for op with the given code and
// message.
func NewError(op string, code Code, msg string) *Error {
	return &Error{Op: op, Code: code, Msg: msg}
}

// WrapError builds a structured error wrapping cause, deriving Msg
// from cause's text.
func WrapError(op string, code Code, cause error) *Error {
	e := &Error{Op: op, Code: code, Inner: cause}
	if cause != nil {
		e.Msg = cause.Error()
	}
	if errno, ok := cause.(syscall.Errno); ok {
		e.Errno = errno
	}
	return e
}
