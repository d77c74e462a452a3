// Package apperr defines the error taxonomy shared by services and handlers.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes.
const (
	CodeDataUnavailable = "DATA_UNAVAILABLE"
	CodeServiceError    = "SERVICE_ERROR"
	CodeParseError      = "PARSE_ERROR"
	CodeValidationGap   = "VALIDATION_GAP"
	CodeNotFound        = "NOT_FOUND"
	CodeBadRequest      = "BAD_REQUEST"
	CodeInternal        = "INTERNAL_ERROR"
)

// AppError carries a code, a user-facing message and an optional cause.
type AppError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
	Err     error             `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches any AppError with the same code.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithDetails attaches field-level details.
func (e *AppError) WithDetails(details map[string]string) *AppError {
	e.Details = details
	return e
}

// New creates an AppError.
func New(code, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Wrap wraps err with a code and message.
func Wrap(err error, code, message string) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// DataUnavailable reports missing dataset columns, rows or values.
func DataUnavailable(message string) *AppError {
	return New(CodeDataUnavailable, message)
}

// ServiceError wraps a text-generation collaborator failure.
func ServiceError(err error, message string) *AppError {
	return Wrap(err, CodeServiceError, message)
}

// ParseError wraps malformed model output.
func ParseError(err error, message string) *AppError {
	return Wrap(err, CodeParseError, message)
}

// ValidationGap reports missing required selections.
func ValidationGap(message string) *AppError {
	return New(CodeValidationGap, message)
}

// NotFound creates a not found error for resource.
func NotFound(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource))
}

// BadRequest creates a malformed request error.
func BadRequest(message string) *AppError {
	return New(CodeBadRequest, message)
}

// Internal wraps an unexpected failure.
func Internal(err error, message string) *AppError {
	return Wrap(err, CodeInternal, message)
}

// Code returns the error code, or CodeInternal for foreign errors.
func Code(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

func hasCode(err error, code string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// IsNotFound reports whether err is a not found error.
func IsNotFound(err error) bool { return hasCode(err, CodeNotFound) }

// IsDataUnavailable reports whether err is a data unavailable error.
func IsDataUnavailable(err error) bool { return hasCode(err, CodeDataUnavailable) }

// IsServiceError reports whether err is a collaborator failure.
func IsServiceError(err error) bool { return hasCode(err, CodeServiceError) }

// IsParseError reports whether err is a parse error.
func IsParseError(err error) bool { return hasCode(err, CodeParseError) }

// IsValidationGap reports whether err is a missing-selection error.
func IsValidationGap(err error) bool { return hasCode(err, CodeValidationGap) }

// HTTPStatus maps an error to the status code handlers respond with.
func HTTPStatus(err error) int {
	switch Code(err) {
	case CodeValidationGap, CodeBadRequest:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeDataUnavailable:
		return http.StatusUnprocessableEntity
	case CodeServiceError, CodeParseError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the user-facing message of err.
func Message(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "internal server error"
}
