// Package errors provides the structured error type shared by the mediator,
// its behaviors and its transports. AppError carries a machine-readable code,
// an HTTP status and a retryable flag so transports can render it directly.
package errors

import (
	"fmt"
)

// AppError is the error shape clients see. Handlers return it to pick the
// status and code of a failed request; anything else is rendered as
// INTERNAL_ERROR by the transports.
type AppError struct {
	Code       ErrorCode      `json:"code"`
	Message    string         `json:"message"`
	Retryable  bool           `json:"retryable"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	// Cause is logged and audited but never sent to clients.
	Cause error `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Cause }

// WithCause records the underlying error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail adds a detail and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithStatus overrides the status taken from the code catalog.
func (e *AppError) WithStatus(status int) *AppError {
	e.HTTPStatus = status
	return e
}

// New creates an AppError whose status and retryability come from code.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: StatusOf(code),
		Retryable:  IsRetryableCode(code),
	}
}

// Newf is New with a formatted message.
func Newf(code ErrorCode, format string, args ...any) *AppError {
	return New(code, fmt.Sprintf(format, args...))
}

// ---------- availability ----------

// ServiceUnavailable reports a dependency that refuses calls for now, e.g.
// behind an open circuit breaker.
func ServiceUnavailable(service string) *AppError {
	return Newf(ErrCodeServiceUnavailable, "The %s is temporarily unavailable. Please try again.", service).
		WithDetail("service", service)
}

func RateLimited() *AppError {
	return New(ErrCodeRateLimited, "Too many requests. Please wait a moment and try again.")
}

// Overloaded reports a request rejected by a concurrency limit.
func Overloaded(resource string) *AppError {
	return Newf(ErrCodeOverloaded, "Too many concurrent %s requests. Please try again.", resource).
		WithDetail("resource", resource)
}

// ---------- dispatch ----------

// UnregisteredRequest reports a request type without a handler.
func UnregisteredRequest(requestType string) *AppError {
	return Newf(ErrCodeUnregisteredRequest, "No handler is registered for %s.", requestType).
		WithDetail("request_type", requestType)
}

// DuplicateHandler reports a second handler for one request type.
func DuplicateHandler(requestType string) *AppError {
	return Newf(ErrCodeDuplicateHandler, "A handler for %s is already registered.", requestType).
		WithDetail("request_type", requestType)
}

func NotSupported(message string) *AppError {
	return New(ErrCodeNotSupported, message)
}

// ---------- request ----------

// NotFound reports a missing resource. id is optional.
func NotFound(resource, id string) *AppError {
	e := Newf(ErrCodeNotFound, "The requested %s was not found.", resource).WithDetail("resource", resource)
	if id != "" {
		e.WithDetail("id", id)
	}
	return e
}

// InvalidInput reports a request that could not be decoded. field names
// the part of the request at fault and may be empty.
func InvalidInput(field, reason string) *AppError {
	e := Newf(ErrCodeInvalidInput, "Invalid input: %s", reason)
	if field != "" {
		e.WithDetail("field", field)
	}
	return e
}

// Validation reports a request that decoded but broke a validation rule.
func Validation(message string) *AppError {
	return New(ErrCodeInvalidInput, message)
}

func Unauthorized(reason string) *AppError {
	if reason == "" {
		reason = "Authentication required."
	}
	return New(ErrCodeUnauthorized, reason)
}

func Forbidden(reason string) *AppError {
	if reason == "" {
		reason = "You don't have permission to perform this action."
	}
	return New(ErrCodeForbidden, reason)
}

func InvalidToken() *AppError {
	return New(ErrCodeInvalidToken, "Invalid authentication token. Please log in again.")
}

// Internal hides cause behind a generic message.
func Internal(cause error) *AppError {
	return New(ErrCodeInternal, "An unexpected error occurred. Please try again or contact support.").
		WithCause(cause)
}
