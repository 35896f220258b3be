package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unified error code across the engine.
type ErrorCode string

// Coordination error codes
const (
	ErrNoAvailableAgents       ErrorCode = "NO_AVAILABLE_AGENTS"
	ErrTaskDecompositionFailed ErrorCode = "TASK_DECOMPOSITION_FAILED"
	ErrConsensusNotReached     ErrorCode = "CONSENSUS_NOT_REACHED"
	ErrInvalidConfiguration    ErrorCode = "INVALID_CONFIGURATION"
	ErrDuplicateAgent          ErrorCode = "DUPLICATE_AGENT"
	ErrAgentFailed             ErrorCode = "AGENT_FAILED"
	ErrAgentNotFound           ErrorCode = "AGENT_NOT_FOUND"
	ErrSupervisorError         ErrorCode = "SUPERVISOR_ERROR"
)

// Workflow error codes
const (
	ErrWorkflowInvalid ErrorCode = "WORKFLOW_INVALID"
	ErrGraphCycle      ErrorCode = "GRAPH_CYCLE"
)

// Storage error codes
const (
	ErrStoreUnavailable ErrorCode = "STORE_UNAVAILABLE"
	ErrNotFound         ErrorCode = "NOT_FOUND"
)

// Error represents a structured error with code, message, and metadata.
type Error struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Retryable bool      `json:"retryable"`
	Cause     error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithRetryable marks the error as retryable.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// AsError extracts a *Error from err, unwrapping as needed.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) ErrorCode {
	if e, ok := AsError(err); ok {
		return e.Code
	}
	return ""
}

// IsErrorCode checks whether err carries the given code.
func IsErrorCode(err error, code ErrorCode) bool {
	return GetErrorCode(err) == code
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	if e, ok := AsError(err); ok {
		return e.Retryable
	}
	return false
}
