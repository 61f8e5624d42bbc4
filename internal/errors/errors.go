package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a RepoVault error code.
type ErrorCode string

const (
	ErrInvalidInput   ErrorCode = "INVALID_INPUT"     // 400
	ErrParse          ErrorCode = "PARSE_ERROR"       // 400
	ErrFileNotFound   ErrorCode = "FILE_NOT_FOUND"    // 404
	ErrDuplicateEntry ErrorCode = "DUPLICATE_ENTRY"   // 409
	ErrUninitialized  ErrorCode = "UNINITIALIZED"     // 409
	ErrValidation     ErrorCode = "VALIDATION_ERROR"  // 422
	ErrPersistence    ErrorCode = "PERSISTENCE_ERROR" // 500
	ErrInternal       ErrorCode = "INTERNAL"          // 500
)

// VaultError represents a structured error with code, status, and details.
type VaultError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any

	cause error
}

// Error implements the error interface.
func (e *VaultError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *VaultError) Unwrap() error {
	return e.cause
}

// NewInvalidInput creates a 400 error for malformed input such as a non-GitHub URL.
func NewInvalidInput(msg string) *VaultError {
	return &VaultError{
		Code:    ErrInvalidInput,
		Status:  400,
		Message: msg,
	}
}

// NewParseError creates a 400 error for an import payload that is not a JSON array.
func NewParseError(msg string) *VaultError {
	return &VaultError{
		Code:    ErrParse,
		Status:  400,
		Message: msg,
	}
}

// NewFileNotFound creates a 404 error for a missing import file.
func NewFileNotFound(path string) *VaultError {
	return &VaultError{
		Code:    ErrFileNotFound,
		Status:  404,
		Message: fmt.Sprintf("file not found: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewDuplicateEntry creates a 409 error when owner/repo is already bookmarked.
func NewDuplicateEntry(owner, repo string) *VaultError {
	return &VaultError{
		Code:    ErrDuplicateEntry,
		Status:  409,
		Message: "already bookmarked",
		Details: map[string]any{"owner": owner, "repo": repo},
	}
}

// NewUninitialized creates a 409 error for a store used before Load.
func NewUninitialized() *VaultError {
	return &VaultError{
		Code:    ErrUninitialized,
		Status:  409,
		Message: "bookmark store has not been loaded",
	}
}

// NewValidation creates a 422 error for an import element missing a required field.
func NewValidation(index int, fields map[string]string) *VaultError {
	return &VaultError{
		Code:    ErrValidation,
		Status:  422,
		Message: fmt.Sprintf("invalid bookmark structure at index %d", index),
		Details: map[string]any{"index": index, "fields": fields},
	}
}

// NewPersistence creates a 500 error wrapping a storage gateway failure.
func NewPersistence(op string, err error) *VaultError {
	msg := op + " failed"
	if err != nil {
		msg = fmt.Sprintf("%s failed: %v", op, err)
	}
	return &VaultError{
		Code:    ErrPersistence,
		Status:  500,
		Message: msg,
		cause:   err,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *VaultError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &VaultError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
		cause:   err,
	}
}

// Is checks if an error is (or wraps) a VaultError with the given code.
func Is(err error, code ErrorCode) bool {
	var vErr *VaultError
	if stderrors.As(err, &vErr) {
		return vErr.Code == code
	}
	return false
}
