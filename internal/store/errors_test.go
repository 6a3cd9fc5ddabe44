package store

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_IsByCode(t *testing.T) {
	custom := ErrNotFound.WithMessage("oer not found")
	assert.True(t, errors.Is(custom, ErrNotFound))
	assert.False(t, errors.Is(custom, ErrUnavailable))

	wrapped := fmt.Errorf("get: %w", custom)
	assert.True(t, errors.Is(wrapped, ErrNotFound))
}

func TestUnavailable(t *testing.T) {
	cause := errors.New("disk full")
	err := Unavailable("upsert resource", cause)

	assert.True(t, errors.Is(err, ErrUnavailable))
	assert.True(t, errors.Is(err, cause))

	var storeErr *Error
	assert.True(t, errors.As(err, &storeErr))
	assert.Equal(t, http.StatusInternalServerError, storeErr.HTTPCode())
	assert.Equal(t, "upsert resource failed", storeErr.Message)
}
