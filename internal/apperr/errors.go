package apperr

import (
	"net/http"

	"github.com/pkg/errors"
)

// Error is a failure that maps onto an HTTP response.
type Error struct {
	Message    string
	StatusCode int
	Code       string
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Error codes
const (
	CodeValidation       = "VALIDATION_ERROR"
	CodeUnauthenticated  = "UNAUTHORIZED"
	CodeForbidden        = "FORBIDDEN"
	CodeNotFound         = "NOT_FOUND"
	CodeConflict         = "CONFLICT"
	CodeCapacityExceeded = "CAPACITY_EXCEEDED"
	CodeInternal         = "INTERNAL_ERROR"
)

// New creates an API error with custom details
func New(message string, statusCode int, code string) *Error {
	return &Error{Message: message, StatusCode: statusCode, Code: code}
}

func Validation(message string) *Error {
	return New(message, http.StatusBadRequest, CodeValidation)
}

func Unauthenticated(message string) *Error {
	return New(message, http.StatusUnauthorized, CodeUnauthenticated)
}

func Forbidden(message string) *Error {
	return New(message, http.StatusForbidden, CodeForbidden)
}

func NotFound(message string) *Error {
	return New(message, http.StatusNotFound, CodeNotFound)
}

func Conflict(message string) *Error {
	return New(message, http.StatusConflict, CodeConflict)
}

// CapacityExceeded is a validation failure raised when an event is full.
func CapacityExceeded() *Error {
	return New("Event has reached maximum capacity", http.StatusBadRequest, CodeCapacityExceeded)
}

// CodeOf returns the machine readable code for err.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// Is reports whether err carries the given code.
func Is(err error, code string) bool {
	return CodeOf(err) == code
}
