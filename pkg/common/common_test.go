package common

import (
	"net/http/httptest"
	"strings"
	"testing"

	apperrors "converse-backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractPaginationParams(t *testing.T) {
	req := httptest.NewRequest("GET", "/messages?limit=10&exclusiveStartKey=abc", nil)
	params := ExtractPaginationParams(req)
	assert.Equal(t, 10, params.Limit)
	assert.Equal(t, "abc", params.ExclusiveStartKey)

	req = httptest.NewRequest("GET", "/messages", nil)
	assert.Equal(t, DefaultPaginationParams(), ExtractPaginationParams(req))

	// Oversized and garbage limits fall back sensibly.
	req = httptest.NewRequest("GET", "/messages?limit=500", nil)
	assert.Equal(t, 100, ExtractPaginationParams(req).Limit)
	req = httptest.NewRequest("GET", "/messages?limit=-1", nil)
	assert.Equal(t, 25, ExtractPaginationParams(req).Limit)
	req = httptest.NewRequest("GET", "/messages?limit=abc", nil)
	assert.Equal(t, 25, ExtractPaginationParams(req).Limit)
}

func TestValidateStruct(t *testing.T) {
	type createGroupRequest struct {
		Name string `json:"name" validate:"required,min=1,max=100"`
	}

	assert.Nil(t, ValidateStruct(createGroupRequest{Name: "standup"}))

	fields := ValidateStruct(createGroupRequest{})
	require.NotNil(t, fields)
	assert.Equal(t, "is required", fields["name"])

	fields = ValidateStruct(createGroupRequest{Name: strings.Repeat("x", 101)})
	require.NotNil(t, fields)
	assert.Equal(t, "must be at most 100 characters", fields["name"])
}

func TestRespondError_UsesAppErrorStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, apperrors.NewNotFoundError("conversation"))

	assert.Equal(t, 404, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "conversation not found")
}

func TestRespondError_PlainErrorIs500(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, assert.AnError)

	assert.Equal(t, 500, rec.Code)
	// Internals never leak their message to the client.
	assert.NotContains(t, rec.Body.String(), assert.AnError.Error())
}

func TestRespondError_ValidationIncludesFields(t *testing.T) {
	rec := httptest.NewRecorder()
	err := apperrors.NewValidationError("validation failed").
		WithDetails(map[string]interface{}{"name": "is required"})
	RespondError(rec, err)

	assert.Equal(t, 400, rec.Code)
	assert.Contains(t, rec.Body.String(), "validationErrors")
	assert.Contains(t, rec.Body.String(), "is required")
}

func TestParseJSONBody_EnforcesLimitAndShape(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	var p payload
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"standup"}`))
	require.NoError(t, ParseJSONBody(req, &p, 1024))
	assert.Equal(t, "standup", p.Name)

	req = httptest.NewRequest("POST", "/", strings.NewReader(`not json`))
	assert.Error(t, ParseJSONBody(req, &p, 1024))

	req = httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"`+strings.Repeat("x", 100)+`"}`))
	assert.Error(t, ParseJSONBody(req, &p, 10))
}
