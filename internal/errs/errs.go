// ABOUTME: Typed error kinds shared across storage, auth, sync, and export
// ABOUTME: Lower layers classify provider failures here instead of leaking them
package errs

import (
	"errors"
	"fmt"
)

// Kind identifies a class of failure. The set is closed: every error that
// crosses a component boundary carries one of these.
type Kind string

const (
	AuthFailed         Kind = "AUTH_FAILED"
	TokenExpired       Kind = "TOKEN_EXPIRED"
	PermissionDenied   Kind = "PERMISSION_DENIED"
	QuotaExceeded      Kind = "QUOTA_EXCEEDED"
	SerializationError Kind = "SERIALIZATION_ERROR"
	SyncInProgress     Kind = "SYNC_IN_PROGRESS"
	NetworkError       Kind = "NETWORK_ERROR"
	StorageError       Kind = "STORAGE_ERROR"
	Unknown            Kind = "UNKNOWN"
)

// Error is a classified failure with a human-readable message and an
// optional retry hint.
type Error struct {
	Kind      Kind
	Message   string
	Retryable bool
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a classified error.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message, Retryable: kind == NetworkError}
}

// Newf creates a classified error with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return New(kind, fmt.Sprintf(format, args...))
}

// Wrap classifies an underlying error.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Retryable: kind == NetworkError, Err: err}
}

// Retryable marks the error as worth retrying regardless of kind.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// KindOf returns the kind of err, or Unknown for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// IsRetryable reports whether err is worth retrying. Unclassified errors
// are not retried.
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable
	}
	return false
}
