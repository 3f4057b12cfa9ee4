// Package errors provides centralized error definitions and error handling utilities
// for redcode. It defines the sentinel errors of the document session, the typed
// errors that carry locator and document context, and classification helpers used
// by the presentation layer to decide what to show the user.
//
// # Error Types
//
// Domain-specific errors:
//   - StorageError: a read, write, create or delete against Storage failed (IOError)
//   - DocumentError: an operation referenced a document that is not in the session,
//     or could not run against it in its current state
//
// # Usage
//
//	err := errors.NewStorageError(errors.OpWrite, "/tmp/a.py", ioErr)
//	if errors.Is(err, errors.ErrStorageWrite) { ... }
//
//	var docErr *errors.DocumentError
//	if errors.As(err, &docErr) { ... }
//
//	if errors.IsRetryable(err) { ... }
package errors

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityDebug is for errors that are useful for debugging but not critical.
	SeverityDebug Severity = iota
	// SeverityInfo is for informational errors that don't indicate a problem.
	SeverityInfo
	// SeverityWarning is for errors that might indicate a problem but aren't critical.
	SeverityWarning
	// SeverityError is for errors that indicate a real problem.
	SeverityError
	// SeverityCritical is for errors that require immediate attention.
	SeverityCritical
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Storage-related sentinel errors
var (
	// ErrStorageRead indicates that reading a locator failed.
	ErrStorageRead = New("storage read failed")
	// ErrStorageWrite indicates that writing a locator failed.
	ErrStorageWrite = New("storage write failed")
	// ErrStorageCreate indicates that creating a new locator failed.
	ErrStorageCreate = New("storage create failed")
	// ErrStorageDelete indicates that deleting a locator failed.
	ErrStorageDelete = New("storage delete failed")
	// ErrNotFound indicates that a locator does not exist.
	ErrNotFound = New("not found")
	// ErrNotText indicates that a file's bytes are not text the editor can
	// round-trip unchanged.
	ErrNotText = New("not a UTF-8 text file")
)

// Session-related sentinel errors
var (
	// ErrInvalidIndex indicates that a document id or tab index no longer
	// refers to a document in the session.
	ErrInvalidIndex = New("invalid document index")
	// ErrSaveInProgress indicates that a save was requested while a prior save
	// of the same document or locator is still outstanding.
	ErrSaveInProgress = New("save already in progress")
	// ErrSaveCancelled indicates that a save was cancelled before it completed.
	ErrSaveCancelled = New("save cancelled")
	// ErrNoLocator indicates that an untitled document was saved without a
	// target locator.
	ErrNoLocator = New("document has no storage locator")
	// ErrCloseResolved indicates that a close request was already resolved by
	// an earlier command.
	ErrCloseResolved = New("close request already resolved")
)

// -----------------------------------------------------------------------------
// Base Error Interface
// -----------------------------------------------------------------------------

// EditorError is the base interface for all redcode errors.
type EditorError interface {
	error

	// Unwrap returns the underlying error, if any.
	Unwrap() error

	// Is reports whether this error matches the target error.
	Is(target error) bool

	// Severity returns the severity level of this error.
	Severity() Severity

	// IsRetryable returns true if the operation may succeed on retry.
	IsRetryable() bool

	// IsUserFacing returns true if the error message is safe to display
	// to end users.
	IsUserFacing() bool
}

// baseError provides common functionality for all error types.
type baseError struct {
	message    string
	cause      error
	severity   Severity
	retryable  bool
	userFacing bool
}

// Error returns the error message.
func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error.
func (e *baseError) Unwrap() error {
	return e.cause
}

// Is checks if this error matches the target.
func (e *baseError) Is(target error) bool {
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// Severity returns the error severity.
func (e *baseError) Severity() Severity {
	return e.severity
}

// IsRetryable returns whether the error is retryable.
func (e *baseError) IsRetryable() bool {
	return e.retryable
}

// IsUserFacing returns whether the error is safe to show users.
func (e *baseError) IsUserFacing() bool {
	return e.userFacing
}

// -----------------------------------------------------------------------------
// Domain-Specific Errors
// -----------------------------------------------------------------------------

// Op names the storage operation that failed.
type Op string

// Storage operations.
const (
	OpRead   Op = "read"
	OpWrite  Op = "write"
	OpCreate Op = "create"
	OpDelete Op = "delete"
)

// sentinel returns the sentinel error matching the operation.
func (o Op) sentinel() error {
	switch o {
	case OpRead:
		return ErrStorageRead
	case OpWrite:
		return ErrStorageWrite
	case OpCreate:
		return ErrStorageCreate
	case OpDelete:
		return ErrStorageDelete
	default:
		return nil
	}
}

// StorageError is the IOError of the session: a Storage operation against a
// locator failed. It matches both the operation's sentinel (ErrStorageWrite
// for a failed write) and whatever the underlying cause matches.
//
// Example:
//
//	err := errors.NewStorageError(errors.OpWrite, "/home/me/a.py", fs.ErrPermission)
//	fmt.Println(err) // "storage error [op=write, locator=/home/me/a.py]: storage write failed: permission denied"
type StorageError struct {
	baseError
	Op      Op
	Locator string
}

// NewStorageError creates a new StorageError. Cancellation causes are marked
// retryable and downgraded to a warning since the user chose to stop.
func NewStorageError(op Op, locator string, cause error) *StorageError {
	e := &StorageError{
		baseError: baseError{
			message:    string(op) + " failed",
			cause:      cause,
			severity:   SeverityError,
			retryable:  false,
			userFacing: true,
		},
		Op:      op,
		Locator: locator,
	}
	if s := op.sentinel(); s != nil {
		e.message = s.Error()
	}
	if errors.Is(cause, context.Canceled) || errors.Is(cause, ErrSaveCancelled) {
		e.severity = SeverityWarning
		e.retryable = true
	}
	if errors.Is(cause, context.DeadlineExceeded) {
		e.retryable = true
	}
	return e
}

// WithSeverity sets the error severity.
func (e *StorageError) WithSeverity(s Severity) *StorageError {
	e.severity = s
	return e
}

// Error returns the formatted error message.
func (e *StorageError) Error() string {
	var parts []string
	if e.Op != "" {
		parts = append(parts, fmt.Sprintf("op=%s", e.Op))
	}
	if e.Locator != "" {
		parts = append(parts, fmt.Sprintf("locator=%s", e.Locator))
	}

	prefix := "storage error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("storage error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *StorageError) Is(target error) bool {
	if _, ok := target.(*StorageError); ok {
		return true
	}
	if s := e.Op.sentinel(); s != nil && target == s {
		return true
	}
	if target == ErrNotFound && errors.Is(e.cause, fs.ErrNotExist) {
		return true
	}
	return e.baseError.Is(target)
}

// DocumentError represents a failed operation against one document of the
// session.
//
// Example:
//
//	err := errors.NewDocumentError("update cursor", errors.ErrInvalidIndex).WithDocumentID("6f1c...")
type DocumentError struct {
	baseError
	DocumentID string
	Index      int
}

// NewDocumentError creates a new DocumentError.
func NewDocumentError(message string, cause error) *DocumentError {
	e := &DocumentError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityError,
			retryable:  false,
			userFacing: true,
		},
		Index: -1, // -1 indicates not set
	}
	switch {
	case errors.Is(cause, ErrSaveInProgress):
		e.retryable = true
		e.severity = SeverityWarning
	case errors.Is(cause, ErrInvalidIndex):
		// A stale id is a programming error, not something to show.
		e.userFacing = false
	}
	return e
}

// WithDocumentID adds a document id to the error context.
func (e *DocumentError) WithDocumentID(id string) *DocumentError {
	e.DocumentID = id
	return e
}

// WithIndex adds a tab index to the error context.
func (e *DocumentError) WithIndex(idx int) *DocumentError {
	e.Index = idx
	return e
}

// Error returns the formatted error message.
func (e *DocumentError) Error() string {
	var parts []string
	if e.DocumentID != "" {
		parts = append(parts, fmt.Sprintf("document=%s", e.DocumentID))
	}
	if e.Index >= 0 {
		parts = append(parts, fmt.Sprintf("index=%d", e.Index))
	}

	prefix := "document error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("document error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *DocumentError) Is(target error) bool {
	if _, ok := target.(*DocumentError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Classification Helpers
// -----------------------------------------------------------------------------

// IsRetryable returns true if the error is transient and the operation
// may succeed on retry. SaveInProgress and cancelled saves are retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var editorErr EditorError
	if As(err, &editorErr) {
		return editorErr.IsRetryable()
	}

	return Is(err, ErrSaveInProgress) || Is(err, context.DeadlineExceeded)
}

// IsUserFacing returns true if the error message is safe to display to end users.
//
// Example:
//
//	if errors.IsUserFacing(err) {
//	    status.Show(err.Error())
//	} else {
//	    logger.Error("internal error", "error", err)
//	}
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}

	var editorErr EditorError
	if As(err, &editorErr) {
		return editorErr.IsUserFacing()
	}
	return false
}

// GetSeverity returns the severity level of the error.
// Returns SeverityError for errors that don't implement EditorError.
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityDebug
	}

	var editorErr EditorError
	if As(err, &editorErr) {
		return editorErr.Severity()
	}

	return SeverityError
}

// IsCancelled reports whether err stems from a cancelled operation, either a
// cancelled context or an explicit ErrSaveCancelled.
func IsCancelled(err error) bool {
	return Is(err, context.Canceled) || Is(err, ErrSaveCancelled)
}

// -----------------------------------------------------------------------------
// Convenience Constructors
// -----------------------------------------------------------------------------

// Wrap wraps an error with additional context message.
// Unlike fmt.Errorf with %w, this returns nil for a nil error.
//
// Example:
//
//	err := errors.Wrap(baseErr, "failed to restore workspace")
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
