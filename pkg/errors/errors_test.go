package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPredicatesSeeThroughWrapping(t *testing.T) {
	err := NewNotFoundError("conversation")

	assert.True(t, IsNotFound(err))
	assert.True(t, IsNotFound(fmt.Errorf("lookup: %w", err)))
	assert.False(t, IsNotFound(NewConflictError("taken")))
	assert.False(t, IsNotFound(nil))
}

func TestConstructorsCarryHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, NewValidationError("bad").HTTPStatus)
	assert.Equal(t, http.StatusNotFound, NewNotFoundError("user").HTTPStatus)
	assert.Equal(t, http.StatusConflict, NewConflictError("taken").HTTPStatus)
	assert.Equal(t, http.StatusForbidden, NewForbiddenError("").HTTPStatus)
	assert.Equal(t, http.StatusUnauthorized, NewUnauthorizedError("").HTTPStatus)
	assert.Equal(t, http.StatusInternalServerError, NewDatabaseError("put item", assert.AnError).HTTPStatus)
	assert.Equal(t, http.StatusBadGateway, NewExternalError("sns", assert.AnError).HTTPStatus)
}

func TestNotFoundMessageNamesResource(t *testing.T) {
	assert.Equal(t, "NOT_FOUND: conversation not found", NewNotFoundError("conversation").Error())
}

func TestWithCauseUnwraps(t *testing.T) {
	err := NewInternalError("boom").WithCause(assert.AnError)

	assert.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "caused by")
}

func TestWrapPreservesKind(t *testing.T) {
	wrapped := Wrap(NewConflictError("email is already taken"), "create user")

	assert.True(t, IsConflict(wrapped))
	assert.Contains(t, wrapped.Error(), "create user: email is already taken")
}

func TestWrapPlainErrorBecomesInternal(t *testing.T) {
	wrapped := Wrap(assert.AnError, "load config")

	require.NotNil(t, GetAppError(wrapped))
	assert.Equal(t, ErrorTypeInternal, GetAppError(wrapped).Type)
	assert.ErrorIs(t, wrapped, assert.AnError)
}

func TestWrapNilIsNil(t *testing.T) {
	assert.NoError(t, Wrap(nil, "anything"))
}
