// ABOUTME: Custom error types for the core business logic
// ABOUTME: Classifies per-feed refresh failures (transport, content, parse, storage)

package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRequest is delivered when no request could be built for an item
	ErrInvalidRequest = errors.New("no request could be built for item")

	// ErrDownloadAborted is delivered when the delegate stopped a download mid-stream
	ErrDownloadAborted = errors.New("download aborted")

	// ErrBodyTooLarge is delivered when a body exceeds the configured maximum
	ErrBodyTooLarge = errors.New("response body too large")
)

// NotFoundError represents a resource not found error
type NotFoundError struct {
	Resource string
	ID       string
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// TransportError represents a network failure or an unexpected HTTP status
type TransportError struct {
	URL        string
	StatusCode int
	Err        error
}

// Error implements the error interface
func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transport error for %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("transport error for %s: unexpected status %d", e.URL, e.StatusCode)
}

// Unwrap returns the underlying error
func (e *TransportError) Unwrap() error {
	return e.Err
}

// ContentError represents a body that cannot be a feed (empty, image, ...)
type ContentError struct {
	URL    string
	Reason string
}

// Error implements the error interface
func (e *ContentError) Error() string {
	return fmt.Sprintf("content error for %s: %s", e.URL, e.Reason)
}

// ParseError represents a parser failure
type ParseError struct {
	URL string
	Err error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error for %s: %v", e.URL, e.Err)
}

// Unwrap returns the underlying error
func (e *ParseError) Unwrap() error {
	return e.Err
}

// StorageError represents a reconciliation or persistence failure
type StorageError struct {
	Op  string
	Err error
}

// Error implements the error interface
func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error during %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error
func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsNotFound checks if an error is a NotFoundError
func IsNotFound(err error) bool {
	var notFoundErr *NotFoundError
	return errors.As(err, &notFoundErr)
}

// IsValidation checks if an error is a ValidationError
func IsValidation(err error) bool {
	var validationErr *ValidationError
	return errors.As(err, &validationErr)
}

// IsTransport checks if an error is a TransportError
func IsTransport(err error) bool {
	var transportErr *TransportError
	return errors.As(err, &transportErr)
}

// IsContent checks if an error is a ContentError
func IsContent(err error) bool {
	var contentErr *ContentError
	return errors.As(err, &contentErr)
}

// IsParse checks if an error is a ParseError
func IsParse(err error) bool {
	var parseErr *ParseError
	return errors.As(err, &parseErr)
}

// IsStorage checks if an error is a StorageError
func IsStorage(err error) bool {
	var storageErr *StorageError
	return errors.As(err, &storageErr)
}

// Kind returns a short label for logging
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case IsTransport(err):
		return "transport"
	case IsContent(err):
		return "content"
	case IsParse(err):
		return "parse"
	case IsStorage(err):
		return "storage"
	case IsValidation(err):
		return "validation"
	case IsNotFound(err):
		return "not_found"
	default:
		return "unknown"
	}
}

// WrapError wraps an error with additional context
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
