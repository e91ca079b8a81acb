// Package rocblas structured status and error types shared by every routine.
package rocblas

import (
	"fmt"
)

// Status is the result code returned by every library routine.
type Status int

const (
	// StatusSuccess indicates the call completed (or was a defined no-op).
	StatusSuccess Status = iota
	// StatusInvalidHandle indicates a nil handle argument.
	StatusInvalidHandle
	// StatusInvalidPointer indicates a required pointer was nil for nonzero dimensions.
	StatusInvalidPointer
	// StatusInvalidValue indicates a malformed dimension, increment, or enum.
	StatusInvalidValue
	// StatusMemoryError indicates workspace or buffer allocation failed.
	StatusMemoryError
	// StatusInternalError is the catch-all for unexpected faults at the API boundary.
	StatusInternalError
	// StatusNotImplemented indicates the requested variant is not available.
	StatusNotImplemented
	// StatusSizeUnchanged is returned by a size query that had nothing to record.
	StatusSizeUnchanged
	// StatusSizeIncreased is returned by a size query that grew the requirement.
	StatusSizeIncreased
	// StatusCheckNumericsFail indicates a NaN or Inf was found with checking enabled.
	StatusCheckNumericsFail
)

// String returns the status as a string.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusInvalidHandle:
		return "invalid_handle"
	case StatusInvalidPointer:
		return "invalid_pointer"
	case StatusInvalidValue:
		return "invalid_value"
	case StatusMemoryError:
		return "memory_error"
	case StatusInternalError:
		return "internal_error"
	case StatusNotImplemented:
		return "not_implemented"
	case StatusSizeUnchanged:
		return "size_unchanged"
	case StatusSizeIncreased:
		return "size_increased"
	case StatusCheckNumericsFail:
		return "check_numerics_fail"
	default:
		return "unknown"
	}
}

// Err converts the status to an error, nil for the non-error statuses.
// Size-query statuses are part of the query protocol, not failures.
func (s Status) Err() error {
	switch s {
	case StatusSuccess, StatusSizeUnchanged, StatusSizeIncreased:
		return nil
	}
	return &Error{Status: s}
}

// Error carries a status with the operation and context that produced it.
type Error struct {
	Status  Status
	Op      string // routine that failed, e.g. "sgbmv"
	Message string // human-readable detail
	Err     error  // underlying error if any
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Status.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		return fmt.Sprintf("rocblas: %s (caused by: %v)", msg, e.Err)
	}
	return "rocblas: " + msg
}

// Unwrap allows error chain inspection.
func (e *Error) Unwrap() error {
	return e.Err
}

// Common error constructors

// NewMemoryError creates an allocation failure error.
func NewMemoryError(op string, message string, err error) error {
	return &Error{
		Status:  StatusMemoryError,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// NewInvalidArgError creates an invalid argument error.
func NewInvalidArgError(op string, message string) error {
	return &Error{
		Status:  StatusInvalidValue,
		Op:      op,
		Message: message,
	}
}

// NewExecutionError creates an error for a fault inside a launched kernel.
func NewExecutionError(op string, message string, err error) error {
	return &Error{
		Status:  StatusInternalError,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// NewNumericalError creates a numerics check failure error.
func NewNumericalError(op string, message string) error {
	return &Error{
		Status:  StatusCheckNumericsFail,
		Op:      op,
		Message: message,
	}
}

// Common pre-defined errors

var (
	// ErrOutOfMemory indicates memory allocation failure.
	ErrOutOfMemory = NewMemoryError("Malloc", "out of memory", nil)

	// ErrInvalidSize indicates an invalid size parameter.
	ErrInvalidSize = NewInvalidArgError("Malloc", "size must be positive")

	// ErrNullPointer indicates a nil pointer where data was required.
	ErrNullPointer = &Error{Status: StatusInvalidPointer, Op: "Memory", Message: "null pointer"}

	// ErrDoubleFree indicates a second Free of the same allocation.
	ErrDoubleFree = NewMemoryError("Free", "double free detected", nil)

	// ErrInvalidDevice indicates an invalid device ID.
	ErrInvalidDevice = NewInvalidArgError("SetDevice", "invalid device ID")

	// ErrInvalidHandle indicates a nil or closed handle.
	ErrInvalidHandle = &Error{Status: StatusInvalidHandle, Op: "Handle", Message: "nil handle"}
)

// IsMemoryError checks whether an error is an allocation failure.
func IsMemoryError(err error) bool {
	if e, ok := err.(*Error); ok {
		return e.Status == StatusMemoryError
	}
	return false
}

// IsInvalidArgError checks whether an error is an invalid argument error.
func IsInvalidArgError(err error) bool {
	if e, ok := err.(*Error); ok {
		return e.Status == StatusInvalidValue || e.Status == StatusInvalidPointer
	}
	return false
}

// StatusOf maps an error back onto the status taxonomy. Unknown error
// values become StatusInternalError so no fault crosses the boundary raw.
func StatusOf(err error) Status {
	if err == nil {
		return StatusSuccess
	}
	if e, ok := err.(*Error); ok {
		return e.Status
	}
	return StatusInternalError
}
