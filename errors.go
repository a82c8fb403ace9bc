package browsertest

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum-optimism/infra/op-browsertest/exitcodes"
)

// RuntimeError means the harness itself could not do its job (exit code 2),
// e.g. a missing test directory or a test directory outside any Go module.
type RuntimeError struct {
	Err error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("runtime error: %v", e.Err)
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}

func NewRuntimeError(err error) *RuntimeError {
	return &RuntimeError{Err: err}
}

// IsRuntimeError checks if the error is or wraps a RuntimeError
func IsRuntimeError(err error) bool {
	var runtimeErr *RuntimeError
	return errors.As(err, &runtimeErr)
}

// TestFailureError lists the test files that failed in a run where failures fail the process (exit code 1).
type TestFailureError struct {
	Files []string
	Total int
}

func (e *TestFailureError) Error() string {
	msg := fmt.Sprintf("test failure: %d of %d test files failed", len(e.Files), e.Total)
	if len(e.Files) > 0 {
		msg += ": " + strings.Join(e.Files, ", ")
	}
	return msg
}

func NewTestFailureError(files []string, total int) *TestFailureError {
	return &TestFailureError{Files: files, Total: total}
}

// IsTestFailureError checks if the error is or wraps a TestFailureError
func IsTestFailureError(err error) bool {
	var testErr *TestFailureError
	return errors.As(err, &testErr)
}

// ExitCode maps an error returned by the harness to the process exit code.
// Untyped errors count as test failures.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return exitcodes.Success
	case IsRuntimeError(err):
		return exitcodes.RuntimeErr
	default:
		return exitcodes.TestFailure
	}
}
