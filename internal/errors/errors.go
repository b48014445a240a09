// Package errors provides a typed error system for exit code handling.
//
// Exit code conventions:
//   - 1: Runtime errors and failed external commands
//   - 2: Validation/usage errors (bad flags, bad names, target folder already exists)
//
// Example usage:
//
//	if _, err := os.Stat(folder); err == nil {
//		return errors.NewValidationError(fmt.Sprintf("Path '%s' exists", folder), nil)
//	}
//
//	exitCode := errors.GetExitCode(err)
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError represents a validation or usage error.
// These errors indicate improper input or an unmet precondition and result in exit code 2.
type ValidationError struct {
	Message string
	Cause   error
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap implements the error unwrapping interface for error chain inspection.
func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// RuntimeError represents a runtime error (I/O, unexpected tool output).
// Results in exit code 1.
type RuntimeError struct {
	Message string
	Cause   error
}

// Error implements the error interface for RuntimeError.
func (e *RuntimeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap implements the error unwrapping interface for error chain inspection.
func (e *RuntimeError) Unwrap() error {
	return e.Cause
}

// CommandError is raised when an external command fails under a fatal policy.
// Detail holds the text the command wrote to its error stream, and is what
// Error returns so the user sees the tool's own message.
type CommandError struct {
	Command string
	Args    []string
	Detail  string
	Cause   error
}

// Error implements the error interface for CommandError.
func (e *CommandError) Error() string {
	detail := strings.TrimSpace(e.Detail)
	if detail != "" {
		return detail
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.CommandLine(), e.Cause)
	}
	return e.CommandLine() + " failed"
}

// Unwrap implements the error unwrapping interface for error chain inspection.
func (e *CommandError) Unwrap() error {
	return e.Cause
}

// CommandLine renders the failed invocation for diagnostics.
func (e *CommandError) CommandLine() string {
	return strings.TrimSpace(e.Command + " " + strings.Join(e.Args, " "))
}

// NewValidationError creates a new ValidationError with the given message and cause.
func NewValidationError(msg string, cause error) error {
	return &ValidationError{
		Message: msg,
		Cause:   cause,
	}
}

// NewRuntimeError creates a new RuntimeError with the given message and cause.
func NewRuntimeError(msg string, cause error) error {
	return &RuntimeError{
		Message: msg,
		Cause:   cause,
	}
}

// NewCommandError creates a new CommandError for a failed invocation.
func NewCommandError(command string, args []string, detail string, cause error) error {
	return &CommandError{
		Command: command,
		Args:    append([]string(nil), args...),
		Detail:  detail,
		Cause:   cause,
	}
}

// GetExitCode extracts the appropriate exit code from an error.
// Returns:
//   - 2 for ValidationError
//   - 1 for RuntimeError, CommandError and unknown errors
func GetExitCode(err error) int {
	var validationErr *ValidationError

	if errors.As(err, &validationErr) {
		return 2
	}
	return 1
}
