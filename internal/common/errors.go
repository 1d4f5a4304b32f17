// Package common contains shared constants, sentinel errors and the upload
// error taxonomy used across photoqueue components. Callers should use
// errors.Is / errors.As to match these values.
package common

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Encryption precondition errors (album or process key absent).
	ErrMissingKey = errors.New("missing public key")

	// Generic internal flow control.
	ErrInternal = errors.New("internal error")
)

// ValidationError reports a malformed record or payload detected before any
// network transfer. Validation failures are never retried automatically.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation: %s", e.Msg)
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Msg)
}

// NetworkError wraps a transport-level failure (connection reset, DNS,
// timeout). Network errors are transient and eligible for automatic retry.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("network: %v", e.Err) }
func (e *NetworkError) Unwrap() error { return e.Err }

// ServerError reports a non-2xx response from the photo API.
type ServerError struct {
	StatusCode int
	Body       string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server: unexpected status %d: %s", e.StatusCode, e.Body)
}

// Retryable reports whether the response status warrants another attempt:
// 5xx and 429 are transient, any other 4xx is a permanent rejection.
func (e *ServerError) Retryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// StorageError wraps a failure of the local durable store (quota exceeded,
// corruption). The queue degrades to in-memory state for the affected
// record instead of crashing.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("storage: %s: %v", e.Op, e.Err) }
func (e *StorageError) Unwrap() error { return e.Err }

// Retryable reports whether err may be retried automatically.
// Network failures and 5xx/429 server responses qualify; validation
// failures, 4xx rejections and missing keys require user action.
func Retryable(err error) bool {
	var ne *NetworkError
	if errors.As(err, &ne) {
		return true
	}
	var se *ServerError
	if errors.As(err, &se) {
		return se.Retryable()
	}
	return false
}
