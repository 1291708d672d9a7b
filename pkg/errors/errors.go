package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrorType classifies failures raised while ingesting from the remote API
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeRateLimit  ErrorType = "rate_limit"
	ErrorTypeAuth       ErrorType = "auth"
	ErrorTypeTransport  ErrorType = "transport"
	ErrorTypeConnection ErrorType = "connection"
	ErrorTypeParsing    ErrorType = "parsing"
	ErrorTypeUnknown    ErrorType = "unknown"
)

// Error represents a typed failure. Code carries the HTTP status or remote
// API error code when one is known.
type Error struct {
	Type    ErrorType
	Message string
	Code    int
	Err     error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s error", e.Type)
	if e.Code != 0 {
		msg = fmt.Sprintf("%s (code %d)", msg, e.Code)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a typed error
func New(t ErrorType, message string) *Error {
	return &Error{Type: t, Message: message}
}

// Newf creates a typed error with a formatted message
func Newf(t ErrorType, format string, args ...interface{}) *Error {
	return &Error{Type: t, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a type to an underlying error
func Wrap(t ErrorType, err error, message string) *Error {
	return &Error{Type: t, Message: message, Err: err}
}

// WithCode returns a copy of the error carrying the given code
func (e *Error) WithCode(code int) *Error {
	c := *e
	c.Code = code
	return &c
}

// TypeOf returns the type of the first typed error in err's chain
func TypeOf(err error) ErrorType {
	if err == nil {
		return ""
	}
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Type
	}
	return ErrorTypeUnknown
}

// Is reports whether err carries the given type anywhere in its chain
func Is(err error, t ErrorType) bool {
	return err != nil && TypeOf(err) == t
}

func IsValidation(err error) bool    { return Is(err, ErrorTypeValidation) }
func IsRateLimit(err error) bool     { return Is(err, ErrorTypeRateLimit) }
func IsAuthorization(err error) bool { return Is(err, ErrorTypeAuth) }
func IsTransport(err error) bool     { return Is(err, ErrorTypeTransport) }
func IsConnection(err error) bool    { return Is(err, ErrorTypeConnection) }

// IsCanceled reports whether err stems from context cancellation
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// IsRetryable checks if an error type should be retried
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeTransport, ErrorTypeRateLimit:
		return true
	default:
		return false
	}
}

// TypeForStatus maps an HTTP status code to an error type
func TypeForStatus(statusCode int) ErrorType {
	switch {
	case statusCode == http.StatusTooManyRequests:
		return ErrorTypeRateLimit
	case statusCode == http.StatusUnauthorized,
		statusCode == http.StatusForbidden,
		statusCode == http.StatusNotFound:
		return ErrorTypeAuth
	case statusCode == 0, statusCode >= 500:
		return ErrorTypeTransport
	default:
		return ErrorTypeUnknown
	}
}
