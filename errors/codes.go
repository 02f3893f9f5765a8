package errors

import "net/http"

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Availability errors. Callers may retry these.
const (
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	ErrCodeRateLimited        ErrorCode = "RATE_LIMITED"
	ErrCodeOverloaded         ErrorCode = "OVERLOADED"
)

// Dispatch errors raised by the mediator itself.
const (
	ErrCodeDuplicateHandler    ErrorCode = "DUPLICATE_HANDLER"
	ErrCodeUnregisteredRequest ErrorCode = "UNREGISTERED_REQUEST"
	ErrCodeNotSupported        ErrorCode = "NOT_SUPPORTED"
)

// Request errors.
const (
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrCodeInvalidToken ErrorCode = "INVALID_TOKEN"
)

// ErrCodeInternal marks a failure that is the service's fault.
const ErrCodeInternal ErrorCode = "INTERNAL_ERROR"

type codeInfo struct {
	status    int
	retryable bool
}

var catalog = map[ErrorCode]codeInfo{
	ErrCodeServiceUnavailable:  {http.StatusServiceUnavailable, true},
	ErrCodeRateLimited:         {http.StatusTooManyRequests, true},
	ErrCodeOverloaded:          {http.StatusServiceUnavailable, true},
	ErrCodeDuplicateHandler:    {http.StatusConflict, false},
	ErrCodeUnregisteredRequest: {http.StatusNotFound, false},
	ErrCodeNotSupported:        {http.StatusConflict, false},
	ErrCodeNotFound:            {http.StatusNotFound, false},
	ErrCodeInvalidInput:        {http.StatusBadRequest, false},
	ErrCodeUnauthorized:        {http.StatusUnauthorized, false},
	ErrCodeForbidden:           {http.StatusForbidden, false},
	ErrCodeInvalidToken:        {http.StatusUnauthorized, false},
	ErrCodeInternal:            {http.StatusInternalServerError, false},
}

// IsRetryableCode reports whether a failure with code may succeed on a
// later attempt.
func IsRetryableCode(code ErrorCode) bool {
	return catalog[code].retryable
}

// StatusOf returns the HTTP status registered for code, or 500 for codes
// outside the catalog.
func StatusOf(code ErrorCode) int {
	if info, ok := catalog[code]; ok {
		return info.status
	}
	return http.StatusInternalServerError
}
