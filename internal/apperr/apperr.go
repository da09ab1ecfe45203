// Package apperr defines the error type surfaced to API clients.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies an Error for clients
type Code string

const (
	CodeBadRequest     Code = "BAD_REQUEST"
	CodeValidation     Code = "VALIDATION_ERROR"
	CodeAuthentication Code = "AUTHENTICATION_ERROR"
	CodeForbidden      Code = "FORBIDDEN"
	CodeNotFound       Code = "NOT_FOUND"
	CodeInternal       Code = "INTERNAL_SERVER_ERROR"
)

// FieldError describes why a single input field was rejected
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// Error is a typed error that can be written to clients without leaking internals.
type Error struct {
	Code    Code
	Message string
	Fields  []FieldError
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
}

// Unwrap exposes the underlying error for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// New constructs an Error.
func New(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// Validation builds a VALIDATION_ERROR carrying per-field reasons.
func Validation(fields ...FieldError) *Error {
	msg := "Validation failed"
	if len(fields) == 1 {
		msg = fmt.Sprintf("%s: %s", fields[0].Field, fields[0].Reason)
	} else if len(fields) > 1 {
		msg = fmt.Sprintf("Validation failed for %d fields", len(fields))
	}
	return &Error{Code: CodeValidation, Message: msg, Fields: fields}
}

// NotFound builds a NOT_FOUND error.
func NotFound(message string) *Error {
	return &Error{Code: CodeNotFound, Message: message}
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// IsValidation reports whether err carries a VALIDATION_ERROR.
func IsValidation(err error) bool {
	ae, ok := As(err)
	return ok && ae.Code == CodeValidation
}

// Status maps an error to an HTTP status code. Errors that are not *Error map to 500.
func Status(err error) int {
	ae, ok := As(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch ae.Code {
	case CodeBadRequest, CodeValidation:
		return http.StatusBadRequest
	case CodeAuthentication:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
