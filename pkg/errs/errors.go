// Package errs provides structured, user-friendly errors with machine-parseable codes.
package errs

import (
	"errors"
	"fmt"
)

// ErrorCode is a machine-parseable error identifier.
type ErrorCode string

const (
	// General
	ErrUnknown    ErrorCode = "ERR-000"
	ErrInternal   ErrorCode = "ERR-001"
	ErrConfig     ErrorCode = "ERR-002"
	ErrValidation ErrorCode = "ERR-003"

	// Setup sequencer errors
	ErrSetupPrereq ErrorCode = "ERR-SETUP-001"
	ErrSetupConfig ErrorCode = "ERR-SETUP-002"
	ErrSetupDirs   ErrorCode = "ERR-SETUP-003"
	ErrSetupBuild  ErrorCode = "ERR-SETUP-004"
	ErrSetupPull   ErrorCode = "ERR-SETUP-005"
	ErrSetupStart  ErrorCode = "ERR-SETUP-006"

	// Docker errors
	ErrDockerConnect ErrorCode = "ERR-DOCKER-001"
	ErrDockerPull    ErrorCode = "ERR-DOCKER-002"
	ErrDockerRun     ErrorCode = "ERR-DOCKER-003"
	ErrDockerRemove  ErrorCode = "ERR-DOCKER-004"
	ErrDockerBuild   ErrorCode = "ERR-DOCKER-005"

	// Scanner errors
	ErrScanDocker   ErrorCode = "ERR-SCAN-001"
	ErrScanNetwork  ErrorCode = "ERR-SCAN-002"
	ErrScanSSH      ErrorCode = "ERR-SCAN-003"
	ErrScanSkipped  ErrorCode = "ERR-SCAN-004"
	ErrScanAnalysis ErrorCode = "ERR-SCAN-005"

	// Wiki errors
	ErrWikiRead  ErrorCode = "ERR-WIKI-001"
	ErrWikiWrite ErrorCode = "ERR-WIKI-002"

	// Bridge errors
	ErrSyncGitHub ErrorCode = "ERR-SYNC-001"
	ErrRAGIngest  ErrorCode = "ERR-RAG-001"
	ErrWordImport ErrorCode = "ERR-IMPORT-001"

	// Dispatcher trigger errors
	ErrTriggerUnreachable ErrorCode = "ERR-TRIGGER-001"
	ErrTriggerStatus      ErrorCode = "ERR-TRIGGER-002"

	// State errors
	ErrStateRead  ErrorCode = "ERR-STATE-001"
	ErrStateWrite ErrorCode = "ERR-STATE-002"
)

// Error is the standard structured error type used across all AutoDoc packages.
type Error struct {
	Code     ErrorCode // Machine-parseable error code
	Op       string    // Operation chain, e.g., "setup.pull-images"
	Resource string    // Resource identifier (service name, scan target, URL)
	Cause    error     // Wrapped upstream error
	Advice   string    // Human-readable remediation hint
}

func (e *Error) Error() string {
	if e.Resource != "" {
		return fmt.Sprintf("[%s] %s (%s): %v", e.Code, e.Op, e.Resource, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %v", e.Code, e.Op, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// UserMessage returns the formatted user-facing error message with remediation advice.
func (e *Error) UserMessage() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Op)
	if e.Resource != "" {
		msg += fmt.Sprintf(" (resource: %s)", e.Resource)
	}
	if e.Advice != "" {
		msg += fmt.Sprintf("\n  → %s", e.Advice)
	}
	return msg
}

// New creates a new Error.
func New(code ErrorCode, op string, cause error) *Error {
	return &Error{Code: code, Op: op, Cause: cause}
}

// Newf creates a new Error with a formatted message as the cause.
func Newf(code ErrorCode, op, format string, args ...any) *Error {
	return &Error{Code: code, Op: op, Cause: fmt.Errorf(format, args...)}
}

// WithResource sets the resource identifier on an Error.
func (e *Error) WithResource(res string) *Error {
	e.Resource = res
	return e
}

// WithAdvice sets the human-readable remediation hint on an Error.
func (e *Error) WithAdvice(advice string) *Error {
	e.Advice = advice
	return e
}

// Wrap wraps an existing error as an Error at a new operation boundary.
func Wrap(err error, code ErrorCode, op string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Op: op, Cause: err}
}

// IsCode reports whether err is an Error with the given code.
func IsCode(err error, code ErrorCode) bool {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code == code
	}
	return false
}

// As extracts the *Error from err, or returns nil.
func As(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return nil
}
