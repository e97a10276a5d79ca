package errorutil

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes surfaced to clients.
const (
	CodeValidationFailed  = "VALIDATION_FAILED"
	CodeNotFound          = "NOT_FOUND"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeForbidden         = "FORBIDDEN"
	CodeConflict          = "CONFLICT"
	CodeMethodNotAllowed  = "METHOD_NOT_ALLOWED"
	CodeIOFailure         = "IO_FAILURE"
	CodeGenerationFailure = "GENERATION_FAILURE"
	CodeInternalError     = "INTERNAL_ERROR"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidationFailed, message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError(CodeForbidden, message, http.StatusForbidden, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError(CodeConflict, message, http.StatusConflict, details)
}

// NewIOFailure reports a persistence failure. Details carry the operation and
// target for server-side logs only.
func NewIOFailure(operation, target string, err error) error {
	return &DomainError{
		Code:       CodeIOFailure,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Details:    map[string]any{"operation": operation, "target": target},
		Err:        err,
	}
}

// NewGenerationFailure reports a ticket document that could not be produced.
func NewGenerationFailure(target string, err error) error {
	return &DomainError{
		Code:       CodeGenerationFailure,
		Message:    "ticket generation failed",
		HTTPStatus: http.StatusInternalServerError,
		Details:    map[string]any{"operation": "generate_ticket", "target": target},
		Err:        err,
	}
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternalError,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// FromStatus builds a DomainError for a bare HTTP status, e.g. a router 405.
func FromStatus(status int, message string) *DomainError {
	code := CodeInternalError
	switch status {
	case http.StatusBadRequest:
		code = CodeValidationFailed
	case http.StatusUnauthorized:
		code = CodeUnauthorized
	case http.StatusForbidden:
		code = CodeForbidden
	case http.StatusNotFound:
		code = CodeNotFound
	case http.StatusMethodNotAllowed:
		code = CodeMethodNotAllowed
	case http.StatusConflict:
		code = CodeConflict
	}
	if message == "" {
		message = http.StatusText(status)
	}
	return NewDomainError(code, message, status, nil)
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return &DomainError{
		Code:       CodeInternalError,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// HasCode reports whether err is a DomainError with the given code.
func HasCode(err error, code string) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr) && domainErr.Code == code
}
