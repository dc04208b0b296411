package shared

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	ErrCodeValidation      = "VALIDATION_ERROR"
	ErrCodeNotFound        = "NOT_FOUND"
	ErrCodeUnauthorized    = "UNAUTHORIZED"
	ErrCodeForbidden       = "FORBIDDEN"
	ErrCodeConflict        = "CONFLICT"
	ErrCodeTooManyRequests = "RATE_LIMIT_EXCEEDED"
	ErrCodeTimeout         = "TIMEOUT"
	ErrCodeTransient       = "TRANSIENT"
	ErrCodeInternal        = "INTERNAL_ERROR"
)

// AppError is the structured error surfaced across service boundaries. Handlers
// never see raw driver or network errors, only this shape.
type AppError struct {
	StatusCode int
	Code       string
	Message    string
	Data       interface{}
	Err        error
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

func newAppError(status int, code string, err error, message string) *AppError {
	return &AppError{
		StatusCode: status,
		Code:       code,
		Message:    message,
		Err:        err,
	}
}

func NewBadRequestError(err error, message string) *AppError {
	return newAppError(http.StatusBadRequest, ErrCodeValidation, err, message)
}

func NewNotFoundError(err error, message string) *AppError {
	return newAppError(http.StatusNotFound, ErrCodeNotFound, err, message)
}

func NewUnauthorizedError(err error, message string) *AppError {
	return newAppError(http.StatusUnauthorized, ErrCodeUnauthorized, err, message)
}

func NewForbiddenError(err error, message string) *AppError {
	return newAppError(http.StatusForbidden, ErrCodeForbidden, err, message)
}

func NewConflictError(err error, message string) *AppError {
	return newAppError(http.StatusConflict, ErrCodeConflict, err, message)
}

func NewTooManyRequestsError(err error, message string) *AppError {
	return newAppError(http.StatusTooManyRequests, ErrCodeTooManyRequests, err, message)
}

// NewTimeoutError marks a call that exceeded its deadline. Kept distinct from
// NewTransientError so callers can decide whether a retry is worth it.
func NewTimeoutError(err error, message string) *AppError {
	return newAppError(http.StatusGatewayTimeout, ErrCodeTimeout, err, message)
}

// NewTransientError marks a retryable network/backend failure.
func NewTransientError(err error, message string) *AppError {
	return newAppError(http.StatusServiceUnavailable, ErrCodeTransient, err, message)
}

func NewInternalError(err error, message string) *AppError {
	return newAppError(http.StatusInternalServerError, ErrCodeInternal, err, message)
}

func GetAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func IsNotFound(err error) bool {
	return hasCode(err, ErrCodeNotFound)
}

func IsTransient(err error) bool {
	return hasCode(err, ErrCodeTransient)
}

func IsTimeout(err error) bool {
	return hasCode(err, ErrCodeTimeout)
}

func hasCode(err error, code string) bool {
	appErr, ok := GetAppError(err)
	return ok && appErr.Code == code
}
