package interp

import (
	"fmt"

	"golang.org/x/xerrors"
)

// ErrorClass tags which §7 error category a failure belongs to, which
// determines its `ion: ...` message prefix and its exit-code mapping.
type ErrorClass uint8

const (
	ClassParse ErrorClass = iota
	ClassExpansion
	ClassAssignment
	ClassExecution
	ClassSignal
	ClassFatal
)

// ShellError wraps an underlying cause with the §7 classification needed
// to print the right `ion: <kind> error: ...` message and choose the
// right exit status.
type ShellError struct {
	Class  ErrorClass
	Name   string // assignment target, for ClassAssignment
	Status int    // exit code, when the class dictates one directly
	cause  error
}

func (e *ShellError) Error() string {
	switch e.Class {
	case ClassParse:
		return fmt.Sprintf("ion: syntax error: %v", e.cause)
	case ClassExpansion:
		return fmt.Sprintf("ion: expansion error: %v", e.cause)
	case ClassAssignment:
		return fmt.Sprintf("ion: assignment error: %s: %v", e.Name, e.cause)
	case ClassExecution:
		return fmt.Sprintf("ion: %v", e.cause)
	case ClassSignal:
		return fmt.Sprintf("ion: terminated: %v", e.cause)
	default:
		return fmt.Sprintf("ion: fatal: %v", e.cause)
	}
}

func (e *ShellError) Unwrap() error { return e.cause }

func newShellError(class ErrorClass, status int, cause error) *ShellError {
	return &ShellError{Class: class, Status: status, cause: cause}
}

func parseError(cause error) error {
	return newShellError(ClassParse, 2, cause)
}

func expansionError(format string, args ...any) error {
	return newShellError(ClassExpansion, 1, xerrors.Errorf(format, args...))
}

func assignmentError(name string, cause error) error {
	return &ShellError{Class: ClassAssignment, Name: name, Status: 1, cause: cause}
}

func executionError(status int, cause error) error {
	return newShellError(ClassExecution, status, cause)
}

// invalidArgumentCount reports a function call whose argument count doesn't
// match its declaration (spec.md §4.4).
func invalidArgumentCount(fn string, want, got int) error {
	return newShellError(ClassExecution, 1, xerrors.Errorf(
		"%s: InvalidArgumentCount: expected %d argument(s), got %d", fn, want, got))
}

// invalidArgumentType reports a function call argument that fails its
// declared type annotation (spec.md §4.4).
func invalidArgumentType(fn, arg string, cause error) error {
	return newShellError(ClassExecution, 1, xerrors.Errorf(
		"%s: InvalidArgumentType: %s: %v", fn, arg, cause))
}

// statusFor extracts the exit status a ShellError should propagate as the
// `?` register, or 1 for any other error type (spec.md §7).
func statusFor(err error) int {
	if err == nil {
		return 0
	}
	var se *ShellError
	if xerrors.As(err, &se) {
		return se.Status
	}
	return 1
}
