package validation_test

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/oerhub/oerhub-server/internal/errors"
	"github.com/oerhub/oerhub-server/internal/validation"
)

type saveRequest struct {
	ID          string `json:"id" validate:"recordid"`
	Title       string `json:"title" validate:"notblank,max=512"`
	Description string `json:"description,omitempty" validate:"max=8192"`
}

func TestValidator_ValidateSuccess(t *testing.T) {
	v := validation.New()

	err := v.Validate(saveRequest{ID: "oer-1", Title: "Linear Algebra"})
	assert.NoError(t, err)
}

func TestValidator_ValidateErrors(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name      string
		req       saveRequest
		wantField string
	}{
		{name: "missing id", req: saveRequest{Title: "T"}, wantField: "id"},
		{name: "id with slash", req: saveRequest{ID: "a/b", Title: "T"}, wantField: "id"},
		{name: "blank title", req: saveRequest{ID: "x", Title: "   "}, wantField: "title"},
		{name: "title too long", req: saveRequest{ID: "x", Title: strings.Repeat("a", 513)}, wantField: "title"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.req)
			require.Error(t, err)

			var domainErr *domainerrors.Error
			require.True(t, errors.As(err, &domainErr))
			assert.Equal(t, http.StatusBadRequest, domainErr.HTTPStatus())
			assert.True(t, strings.HasPrefix(domainErr.Message, tt.wantField+" "), domainErr.Message)

			details, ok := domainErr.Details.(map[string]string)
			require.True(t, ok)
			assert.Contains(t, details, tt.wantField)
		})
	}
}

func TestValidator_MultipleFields(t *testing.T) {
	v := validation.New()

	err := v.Validate(saveRequest{})
	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)

	details := domainErr.Details.(map[string]string)
	assert.Equal(t, "is required", details["title"])
	assert.Contains(t, details, "id")
}

func TestValidator_Var(t *testing.T) {
	v := validation.New()

	require.NoError(t, v.Var("limit", 5, "gte=0,lte=100"))

	err := v.Var("limit", 101, "gte=0,lte=100")
	require.ErrorIs(t, err, domainerrors.ErrValidation)
	assert.Equal(t, "limit must be less than or equal to 100", err.Error())
}

func TestValidRecordID(t *testing.T) {
	assert.True(t, validation.ValidRecordID("oer-1"))
	assert.True(t, validation.ValidRecordID("https:example.org?x=1"))
	assert.True(t, validation.ValidRecordID("Ünïcödé id"))
	assert.False(t, validation.ValidRecordID(""))
	assert.False(t, validation.ValidRecordID("a/b"))
	assert.False(t, validation.ValidRecordID("tab\tid"))
	assert.False(t, validation.ValidRecordID(strings.Repeat("x", 257)))
}
