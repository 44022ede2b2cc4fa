package errors

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewBadRequestErrorSetsHTTPCode(t *testing.T) {
	err := NewBadRequestError("bad input")
	assert.Equal(t, ErrBadRequest, err.Code)
	assert.Equal(t, http.StatusBadRequest, err.HTTPCode)
	assert.False(t, err.Retryable())
}

func TestNewInternalServerErrorDefaultsMessage(t *testing.T) {
	err := NewInternalServerError("")
	assert.Equal(t, "internal server error", err.Message)
}

func TestNewInternalServerErrorKeepsGivenMessage(t *testing.T) {
	err := NewInternalServerError("db unreachable")
	assert.Equal(t, "db unreachable", err.Message)
}

func TestUpstreamErrorsAreRetryable(t *testing.T) {
	assert.True(t, NewUpstreamUnavailableError("embedder down").Retryable())
	assert.True(t, NewUpstreamTimeoutError("llm call timed out").Retryable())
}

func TestQuotaExceededErrorIsNotRetryable(t *testing.T) {
	err := NewQuotaExceededError("daily token quota exceeded")
	assert.False(t, err.Retryable())
	assert.Equal(t, http.StatusTooManyRequests, err.HTTPCode)
}

func TestWithDetailsAttachesDetails(t *testing.T) {
	err := NewValidationError("invalid field").WithDetails(map[string]string{"field": "email"})
	details, ok := err.Details.(map[string]string)
	assert.True(t, ok)
	assert.Equal(t, "email", details["field"])
}

func TestErrorImplementsErrorInterface(t *testing.T) {
	err := NewNotFoundError("document missing")
	assert.Contains(t, err.Error(), "document missing")
	assert.Contains(t, err.Error(), "1003")
}

func TestTenantErrorConstructors(t *testing.T) {
	assert.Equal(t, ErrTenantNotFound, NewTenantNotFoundError().Code)
	assert.Equal(t, ErrTenantAlreadyExists, NewTenantAlreadyExistsError().Code)
	assert.Equal(t, ErrTenantInactive, NewTenantInactiveError().Code)
}

func TestIsAppErrorDistinguishesAppErrorsFromPlainErrors(t *testing.T) {
	appErr, ok := IsAppError(NewBadRequestError("x"))
	assert.True(t, ok)
	assert.NotNil(t, appErr)

	_, ok = IsAppError(ErrSessionNotFound)
	assert.False(t, ok)
}
