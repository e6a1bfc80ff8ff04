package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType classifies failures across the crawl and analysis pipeline.
type ErrorType string

const (
	ErrorTypeValidation  ErrorType = "validation"
	ErrorTypeNetwork     ErrorType = "network"
	ErrorTypeRateLimit   ErrorType = "rate_limit"
	ErrorTypeParsing     ErrorType = "parsing"
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypePersistence ErrorType = "persistence"
	ErrorTypeServerError ErrorType = "server_error"
	ErrorTypeUnknown     ErrorType = "unknown"
)

// Error carries a failure type alongside the message and, for HTTP-level
// failures, the upstream status code.
type Error struct {
	Type    ErrorType
	Message string
	Code    int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
}

// New builds a typed error without a status code.
func New(t ErrorType, message string) *Error {
	return &Error{Type: t, Message: message}
}

// Newf builds a typed error with a formatted message.
func Newf(t ErrorType, format string, args ...interface{}) *Error {
	return &Error{Type: t, Message: fmt.Sprintf(format, args...)}
}

// IsFatal reports whether an error type must abort the session. Only
// validation failures at session init are fatal; everything in steady state
// degrades to partial results.
func IsFatal(errorType ErrorType) bool {
	return errorType == ErrorTypeValidation
}

// IsRecoverable reports whether the crawl loop should absorb the error and
// keep advancing.
func IsRecoverable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeNetwork, ErrorTypeRateLimit, ErrorTypeParsing, ErrorTypeServerError, ErrorTypeNotFound:
		return true
	default:
		return false
	}
}

// TypeOf extracts the error type from any error in the chain, or unknown for
// errors from outside the pipeline.
func TypeOf(err error) ErrorType {
	var typed *Error
	if stderrors.As(err, &typed) {
		return typed.Type
	}
	return ErrorTypeUnknown
}

// TypeForStatusCode maps an HTTP status to an error type.
func TypeForStatusCode(statusCode int) ErrorType {
	switch {
	case statusCode == 0:
		return ErrorTypeNetwork
	case statusCode == 404:
		return ErrorTypeNotFound
	case statusCode == 429:
		return ErrorTypeRateLimit
	case statusCode >= 500:
		return ErrorTypeServerError
	default:
		return ErrorTypeUnknown
	}
}
