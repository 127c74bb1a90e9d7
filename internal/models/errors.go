package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Error codes shared by the catalog, services and HTTP layer.
const (
	CodeValidation        = "VALIDATION_ERROR"
	CodeNotFound          = "NOT_FOUND"
	CodeRemoteUnavailable = "REMOTE_UNAVAILABLE"
	CodePartialFailure    = "PARTIAL_FAILURE"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeForbidden         = "FORBIDDEN"
	CodeInternal          = "INTERNAL_ERROR"
)

// ErrorResponse represents a standardized API error response
type ErrorResponse struct {
	Error  string   `json:"error"`
	Code   string   `json:"code,omitempty"`
	Fields []string `json:"fields,omitempty"`
}

// AppError represents a custom application error
type AppError struct {
	Code    string
	Message string
	// Fields names the offending input fields for validation errors.
	Fields []string
	Err    error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewNotFoundError reports a missing resource.
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

// NewValidationError reports bad input. Fields, when given, name the offending inputs.
func NewValidationError(message string, fields ...string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
		Fields:  fields,
	}
}

// NewMissingFieldsError reports required fields that were not supplied.
func NewMissingFieldsError(fields ...string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: "missing required field(s): " + strings.Join(fields, ", "),
		Fields:  fields,
	}
}

// NewRemoteUnavailableError wraps a transport or storage failure.
func NewRemoteUnavailableError(op string, err error) *AppError {
	return &AppError{
		Code:    CodeRemoteUnavailable,
		Message: op + " failed: remote store unavailable",
		Err:     err,
	}
}

// NewPartialFailureError reports a mutation that succeeded remotely while the
// follow-up resync did not; the local view may be stale.
func NewPartialFailureError(op string, err error) *AppError {
	return &AppError{
		Code:    CodePartialFailure,
		Message: op + " succeeded but the catalog could not be refreshed",
		Err:     err,
	}
}

// NewInvalidTransitionError reports a rejected status change.
func NewInvalidTransitionError(from, to ListingStatus) *AppError {
	return &AppError{
		Code:    CodeInvalidTransition,
		Message: fmt.Sprintf("cannot move listing from %s to %s", from, to),
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:    CodeUnauthorized,
		Message: message,
	}
}

func NewForbiddenError(message string) *AppError {
	return &AppError{
		Code:    CodeForbidden,
		Message: message,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: "Internal server error",
		Err:     err,
	}
}

// IsCode reports whether err (or anything it wraps) is an AppError with code.
func IsCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// StatusFor maps an error onto the HTTP status the API answers with.
func StatusFor(err error) int {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return fiber.StatusInternalServerError
	}
	switch appErr.Code {
	case CodeValidation:
		return fiber.StatusBadRequest
	case CodeUnauthorized:
		return fiber.StatusUnauthorized
	case CodeForbidden:
		return fiber.StatusForbidden
	case CodeNotFound:
		return fiber.StatusNotFound
	case CodeInvalidTransition:
		return fiber.StatusConflict
	case CodeRemoteUnavailable:
		return fiber.StatusServiceUnavailable
	case CodePartialFailure:
		return fiber.StatusAccepted
	default:
		return fiber.StatusInternalServerError
	}
}

// RespondWithError creates a standardized error response
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	var response ErrorResponse

	var appErr *AppError
	if errors.As(err, &appErr) {
		response = ErrorResponse{
			Error:  appErr.Message,
			Code:   appErr.Code,
			Fields: appErr.Fields,
		}
	} else {
		response = ErrorResponse{
			Error: err.Error(),
		}
		if status >= fiber.StatusInternalServerError {
			response.Error = "Internal server error"
		}
	}

	return c.Status(status).JSON(response)
}
