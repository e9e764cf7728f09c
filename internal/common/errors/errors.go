// Package errors provides the standardized error taxonomy shared by the
// submission service, the store implementations, and the dispatcher.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeValidation         ErrorCode = "VALIDATION_ERROR"
	ErrCodePersistence        ErrorCode = "PERSISTENCE_ERROR"
	ErrCodeDelivery           ErrorCode = "DELIVERY_ERROR"
	ErrCodeUnsupportedChannel ErrorCode = "UNSUPPORTED_CHANNEL"
	ErrCodeNotFound           ErrorCode = "NOT_FOUND"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Retryable bool      `json:"retryable"`
	Timestamp time.Time `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *StandardError) Unwrap() error {
	return e.cause
}

// NewValidationError creates a non-retryable input validation error.
func NewValidationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidation,
		Message:   "Invalid notification input",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewPersistenceError creates a retryable store error. The caller must
// retry the whole operation; no partial state is exposed.
func NewPersistenceError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePersistence,
		Message:   "Notification store operation failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewDeliveryError creates a delivery error for a channel send attempt.
// The dispatcher converts it into a failed status transition and never
// propagates it further.
func NewDeliveryError(channel string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDelivery,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("channel: %s, error: %s", channel, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewUnsupportedChannelError creates a non-retryable configuration error
// for a channel with no registered sender. Loud in logs: it indicates a
// deployment defect, not a runtime condition.
func NewUnsupportedChannelError(channel string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnsupportedChannel,
		Message:   "No sender registered for channel",
		Details:   fmt.Sprintf("channel: %s", channel),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotFoundError creates a non-retryable lookup miss.
func NewNotFoundError(resource string) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotFound,
		Message:   fmt.Sprintf("%s not found", resource),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// CodeOf returns the error code carried by err, or "" for plain errors.
func CodeOf(err error) ErrorCode {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr.Code
	}
	return ""
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

// HTTPStatus maps an error to the status code returned by the API surface.
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case ErrCodeValidation:
		return http.StatusBadRequest
	case ErrCodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
