package models

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// ErrorResponse represents a standardized API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// Application error codes carried on AppError and in API responses.
const (
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeValidation   = "VALIDATION_ERROR"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeForbidden    = "FORBIDDEN"
	ErrCodeConflict     = "CONFLICT"
	ErrCodeInternal     = "INTERNAL_ERROR"
)

// AppError represents a custom application error
type AppError struct {
	Code    string
	Message string
	Err     error
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

// Predefined error constructors. Each wraps the underlying cause so callers
// can unwrap while responses only carry the message.
func NewNotFoundError(message string, err error) *AppError {
	return &AppError{Code: ErrCodeNotFound, Message: message, Err: err}
}

func NewValidationError(message string, err error) *AppError {
	return &AppError{Code: ErrCodeValidation, Message: message, Err: err}
}

func NewUnauthorizedError(message string, err error) *AppError {
	return &AppError{Code: ErrCodeUnauthorized, Message: message, Err: err}
}

func NewForbiddenError(message string, err error) *AppError {
	return &AppError{Code: ErrCodeForbidden, Message: message, Err: err}
}

func NewConflictError(message string, err error) *AppError {
	return &AppError{Code: ErrCodeConflict, Message: message, Err: err}
}

func NewInternalError(message string, err error) *AppError {
	return &AppError{Code: ErrCodeInternal, Message: message, Err: err}
}

// RespondWithError creates a standardized error response
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	var response ErrorResponse

	if appErr, ok := err.(*AppError); ok {
		response = ErrorResponse{
			Error: appErr.Message,
			Code:  appErr.Code,
		}
		if appErr.Err != nil {
			response.Details = appErr.Err.Error()
		}
	} else {
		response = ErrorResponse{
			Error: err.Error(),
		}
	}

	return c.Status(status).JSON(response)
}
