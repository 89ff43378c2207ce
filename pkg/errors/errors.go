package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code for stable testing
type ErrorCode string

// Error codes for different error categories
const (
	// General errors
	ErrUnknown      ErrorCode = "UNKNOWN"
	ErrInternal     ErrorCode = "INTERNAL"
	ErrInvalidInput ErrorCode = "INVALID_INPUT"
	ErrIoFailure    ErrorCode = "IO_FAILURE"

	// Registry errors
	ErrAlreadyTracked  ErrorCode = "ALREADY_TRACKED"
	ErrNotTracked      ErrorCode = "NOT_TRACKED"
	ErrRegistryCorrupt ErrorCode = "REGISTRY_CORRUPT"
	ErrRegistryLocked  ErrorCode = "REGISTRY_LOCKED"

	// Path resolution errors
	ErrPathOutsideHome     ErrorCode = "PATH_OUTSIDE_HOME"
	ErrUnresolvedVariable  ErrorCode = "UNRESOLVED_VARIABLE"

	// Reconciliation errors
	ErrSymlinkConflict  ErrorCode = "SYMLINK_CONFLICT"
	ErrDecryptionFailed ErrorCode = "DECRYPTION_FAILED"

	// Crypto errors
	ErrKeyLoad     ErrorCode = "KEY_LOAD"
	ErrKeyGenerate ErrorCode = "KEY_GENERATE"

	// Configuration errors
	ErrConfigLoad  ErrorCode = "CONFIG_LOAD"
	ErrConfigParse ErrorCode = "CONFIG_PARSE"
)

// DotconfError represents a structured error with code and details
type DotconfError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *DotconfError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *DotconfError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is interface
func (e *DotconfError) Is(target error) bool {
	var targetErr *DotconfError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new DotconfError with the given code and message
func New(code ErrorCode, message string) *DotconfError {
	return &DotconfError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new DotconfError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *DotconfError {
	return &DotconfError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with a DotconfError
func Wrap(err error, code ErrorCode, message string) *DotconfError {
	if err == nil {
		return nil
	}
	return &DotconfError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *DotconfError {
	if err == nil {
		return nil
	}
	return &DotconfError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// WithDetail adds a detail to the error
func (e *DotconfError) WithDetail(key string, value interface{}) *DotconfError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	var dcErr *DotconfError
	if errors.As(err, &dcErr) {
		return dcErr.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown if not a DotconfError
func GetErrorCode(err error) ErrorCode {
	var dcErr *DotconfError
	if errors.As(err, &dcErr) {
		return dcErr.Code
	}
	return ErrUnknown
}
