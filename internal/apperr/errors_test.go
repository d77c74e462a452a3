package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	assert.Equal(t, "NOT_FOUND: vehicle not found", NotFound("vehicle").Error())

	wrapped := ServiceError(errors.New("timeout"), "generator failed")
	assert.Equal(t, "SERVICE_ERROR: generator failed: timeout", wrapped.Error())
}

func TestAppError_IsAndUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := fmt.Errorf("advisory: %w", ParseError(cause, "bad kpi json"))

	assert.True(t, errors.Is(err, cause))
	assert.True(t, errors.Is(err, New(CodeParseError, "")))
	assert.False(t, errors.Is(err, New(CodeNotFound, "")))
	assert.True(t, IsParseError(err))
	assert.False(t, IsServiceError(err))
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "validation gap", err: ValidationGap("Please select Year, Make, and Model."), want: http.StatusBadRequest},
		{name: "bad request", err: BadRequest("bad year"), want: http.StatusBadRequest},
		{name: "not found", err: NotFound("vehicle"), want: http.StatusNotFound},
		{name: "data unavailable", err: DataUnavailable("Fuel data unavailable."), want: http.StatusUnprocessableEntity},
		{name: "service error", err: ServiceError(nil, "down"), want: http.StatusBadGateway},
		{name: "foreign error", err: errors.New("plain"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestCodeAndMessage(t *testing.T) {
	assert.Equal(t, CodeInternal, Code(errors.New("x")))
	assert.Equal(t, "internal server error", Message(errors.New("x")))
	assert.Equal(t, "Fuel data unavailable.", Message(DataUnavailable("Fuel data unavailable.")))
	assert.True(t, IsDataUnavailable(DataUnavailable("x")))
	assert.True(t, IsValidationGap(ValidationGap("x")))
	assert.True(t, IsNotFound(NotFound("x")))
}
