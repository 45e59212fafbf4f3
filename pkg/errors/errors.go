package errors

import (
	"errors"
	"net/http"
)

// Standard error types
var (
	ErrNotFound           = errors.New("resource not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrConflict           = errors.New("resource conflict")
	ErrInternal           = errors.New("internal server error")
	ErrTemporaryFailure   = errors.New("temporary failure")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("timeout")
	ErrInvalidTransition  = errors.New("invalid status transition")
)

// AppError represents a structured application error with context
type AppError struct {
	Err        error
	StatusCode int
	Message    string
	Retryable  bool
	Context    map[string]interface{}
}

// Error returns the error message
func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithContext adds additional context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new AppError with the given parameters
func NewAppError(err error, message string, statusCode int, retryable bool) *AppError {
	return &AppError{
		Err:        err,
		Message:    message,
		StatusCode: statusCode,
		Retryable:  retryable,
		Context:    make(map[string]interface{}),
	}
}

// IsRetryable checks if the error is retryable
func IsRetryable(err error) bool {
	var appErr *AppError

	if errors.As(err, &appErr) {
		return appErr.Retryable
	}

	// By default, classify some standard errors as retryable
	return errors.Is(err, ErrTemporaryFailure) ||
		errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(message string) *AppError {
	return NewAppError(ErrNotFound, message, http.StatusNotFound, false)
}

// NewInvalidInputError creates an invalid input error
func NewInvalidInputError(message string) *AppError {
	return NewAppError(ErrInvalidInput, message, http.StatusBadRequest, false)
}

// NewConflictError creates a conflict error
func NewConflictError(message string) *AppError {
	return NewAppError(ErrConflict, message, http.StatusConflict, false)
}

// NewInternalError creates an internal server error
func NewInternalError(message string) *AppError {
	return NewAppError(ErrInternal, message, http.StatusInternalServerError, true)
}

// NewInvalidTransitionError creates the rejection returned when a requested
// order status change does not match a legal lifecycle edge. It is reported
// as a conflict and never retried: the caller is expected to ignore or log it.
func NewInvalidTransitionError(message string) *AppError {
	return NewAppError(ErrInvalidTransition, message, http.StatusConflict, false)
}
