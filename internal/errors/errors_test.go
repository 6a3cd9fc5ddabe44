package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCode_HTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeValidation, http.StatusBadRequest},
		{CodeNotFound, http.StatusNotFound},
		{CodeConflict, http.StatusConflict},
		{CodeRateLimited, http.StatusTooManyRequests},
		{CodeUnavailable, http.StatusInternalServerError},
		{CodeInternal, http.StatusInternalServerError},
		{Code("SOMETHING_ELSE"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.code.HTTPStatus())
		})
	}
}

func TestError_IsMatchesByCode(t *testing.T) {
	err := NotFound("OER not found")

	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrConflict)

	wrapped := fmt.Errorf("handler: %w", err)
	assert.ErrorIs(t, wrapped, ErrNotFound)
}

func TestUnavailable_HidesCauseFromMessage(t *testing.T) {
	cause := fmt.Errorf("dial tcp 10.0.0.1:27017: connection refused")
	err := Unavailable(cause, "failed to save OER")

	assert.Equal(t, "failed to save OER", err.Message)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, http.StatusInternalServerError, err.HTTPStatus())
	assert.ErrorIs(t, err, cause)
}

func TestValidationWithDetails(t *testing.T) {
	err := ValidationWithDetails("title is required", map[string]string{"title": "is required"})

	require.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, map[string]string{"title": "is required"}, err.Details)
	assert.Equal(t, http.StatusBadRequest, err.HTTPStatus())
}

func TestWrap_KeepsCause(t *testing.T) {
	cause := fmt.Errorf("index closed")
	err := Wrap(cause, CodeInternal, "search failed")

	assert.Equal(t, "search failed", err.Message)
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrInternal)
}
