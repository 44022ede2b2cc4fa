package errors

import (
	"fmt"
	"net/http"
)

// ErrorCode defines the error code type
type ErrorCode int

// System error codes
const (
	// Common error codes (1000-1999)
	ErrBadRequest         ErrorCode = 1000
	ErrUnauthorized       ErrorCode = 1001
	ErrForbidden          ErrorCode = 1002
	ErrNotFound           ErrorCode = 1003
	ErrMethodNotAllowed   ErrorCode = 1004
	ErrConflict           ErrorCode = 1005
	ErrTooManyRequests    ErrorCode = 1006
	ErrInternalServer     ErrorCode = 1007
	ErrServiceUnavailable ErrorCode = 1008
	ErrTimeout            ErrorCode = 1009
	ErrValidation         ErrorCode = 1010

	// Tenant related error codes (2000-2099)
	ErrTenantNotFound      ErrorCode = 2000
	ErrTenantAlreadyExists ErrorCode = 2001
	ErrTenantInactive      ErrorCode = 2002
	ErrTenantNameRequired  ErrorCode = 2003
	ErrTenantInvalidStatus ErrorCode = 2004

	// RAG pipeline error codes (3000-3099) — §7's taxonomy
	ErrQuotaExceeded       ErrorCode = 3000
	ErrUpstreamUnavailable ErrorCode = 3001
	ErrUpstreamTimeout     ErrorCode = 3002
	ErrCorrupted           ErrorCode = 3003
)

// AppError defines the application error structure
type AppError struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Details   any       `json:"details,omitempty"`
	HTTPCode  int       `json:"-"`
	retryable bool
}

// Error implements the error interface
func (e *AppError) Error() string {
	return fmt.Sprintf("error code: %d, error message: %s", e.Code, e.Message)
}

// WithDetails adds error details
func (e *AppError) WithDetails(details any) *AppError {
	e.Details = details
	return e
}

// Retryable reports whether this error's kind is one of §7's transient
// kinds (UpstreamUnavailable, UpstreamTimeout, TooManyRequests) that the
// retry collaborator should back off and retry, rather than give up on.
func (e *AppError) Retryable() bool {
	return e.retryable || e.Code == ErrTooManyRequests
}

// NewBadRequestError creates a bad request error
func NewBadRequestError(message string) *AppError {
	return &AppError{
		Code:     ErrBadRequest,
		Message:  message,
		HTTPCode: http.StatusBadRequest,
	}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:     ErrUnauthorized,
		Message:  message,
		HTTPCode: http.StatusUnauthorized,
	}
}

// NewForbiddenError creates a forbidden error
func NewForbiddenError(message string) *AppError {
	return &AppError{
		Code:     ErrForbidden,
		Message:  message,
		HTTPCode: http.StatusForbidden,
	}
}

// NewNotFoundError creates a not found error
func NewNotFoundError(message string) *AppError {
	return &AppError{
		Code:     ErrNotFound,
		Message:  message,
		HTTPCode: http.StatusNotFound,
	}
}

// NewConflictError creates a conflict error
func NewConflictError(message string) *AppError {
	return &AppError{
		Code:     ErrConflict,
		Message:  message,
		HTTPCode: http.StatusConflict,
	}
}

// NewInternalServerError creates an internal server error
func NewInternalServerError(message string) *AppError {
	if message == "" {
		message = "internal server error"
	}
	return &AppError{
		Code:     ErrInternalServer,
		Message:  message,
		HTTPCode: http.StatusInternalServerError,
	}
}

// NewValidationError creates a validation error
func NewValidationError(message string) *AppError {
	return &AppError{
		Code:     ErrValidation,
		Message:  message,
		HTTPCode: http.StatusBadRequest,
	}
}

// NewQuotaExceededError creates a quota-exceeded error (§7): a tenant has
// hit its daily request or token ceiling.
func NewQuotaExceededError(message string) *AppError {
	return &AppError{
		Code:      ErrQuotaExceeded,
		Message:   message,
		HTTPCode:  http.StatusTooManyRequests,
		retryable: false,
	}
}

// NewUpstreamUnavailableError creates an error for a collaborator (LLM,
// embedder, reranker, graph library, cache) that's unreachable or refused
// the call. Retryable with backoff per §7.
func NewUpstreamUnavailableError(message string) *AppError {
	return &AppError{
		Code:      ErrUpstreamUnavailable,
		Message:   message,
		HTTPCode:  http.StatusServiceUnavailable,
		retryable: true,
	}
}

// NewUpstreamTimeoutError creates an error for a collaborator call that
// exceeded its bounded timeout. Retryable with backoff per §7.
func NewUpstreamTimeoutError(message string) *AppError {
	return &AppError{
		Code:      ErrUpstreamTimeout,
		Message:   message,
		HTTPCode:  http.StatusGatewayTimeout,
		retryable: true,
	}
}

// NewCorruptedError creates an error for a stored payload (cache entry,
// persisted message) that failed to decode. §8: a corrupted cache payload
// is treated as a cache miss, not surfaced to the caller — this
// constructor exists for callers that need to log the distinction.
func NewCorruptedError(message string) *AppError {
	return &AppError{
		Code:     ErrCorrupted,
		Message:  message,
		HTTPCode: http.StatusInternalServerError,
	}
}

// Tenant related errors
func NewTenantNotFoundError() *AppError {
	return &AppError{
		Code:     ErrTenantNotFound,
		Message:  "tenant not found",
		HTTPCode: http.StatusNotFound,
	}
}

// NewTenantAlreadyExistsError creates a tenant already exists error
func NewTenantAlreadyExistsError() *AppError {
	return &AppError{
		Code:     ErrTenantAlreadyExists,
		Message:  "tenant already exists",
		HTTPCode: http.StatusConflict,
	}
}

// NewTenantInactiveError creates a tenant inactive error
func NewTenantInactiveError() *AppError {
	return &AppError{
		Code:     ErrTenantInactive,
		Message:  "tenant is inactive",
		HTTPCode: http.StatusForbidden,
	}
}

// IsAppError checks if the error is an AppError type
func IsAppError(err error) (*AppError, bool) {
	appErr, ok := err.(*AppError)
	return appErr, ok
}
