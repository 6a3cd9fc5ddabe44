package api

import (
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/oerhub/oerhub-server/internal/errors"
	"github.com/oerhub/oerhub-server/internal/store"
)

// APIError implements huma.StatusError with the body every failed request
// returns. ErrorText repeats Message for clients written against the older
// {"error": "..."} shape.
type APIError struct { //nolint:revive // API prefix is intentional for clarity
	status    int
	Code      string `json:"code" doc:"Machine-readable error code"`
	Message   string `json:"message" doc:"Human-readable error message"`
	ErrorText string `json:"error" doc:"Same as message"`
	Details   any    `json:"details,omitempty" doc:"Additional error details"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// GetStatus implements huma.StatusError.
func (e *APIError) GetStatus() int {
	return e.status
}

// ContentType returns the content type for the error response.
func (e *APIError) ContentType(_ string) string {
	return "application/json"
}

func newAPIError(status int, code, message string, details any) *APIError {
	return &APIError{
		status:    status,
		Code:      code,
		Message:   message,
		ErrorText: message,
		Details:   details,
	}
}

// RegisterErrorHandler makes huma report domain and store errors with their
// own status and code. Request validation failures, which huma reports as
// 422, become 400. Call it before registering routes.
func RegisterErrorHandler() {
	huma.NewError = func(status int, message string, errs ...error) huma.StatusError {
		for _, err := range errs {
			var domainErr *domainerrors.Error
			if errors.As(err, &domainErr) {
				return newAPIError(domainErr.HTTPStatus(), string(domainErr.Code), domainErr.Message, domainErr.Details)
			}

			var storeErr *store.Error
			if errors.As(err, &storeErr) {
				return fromStoreError(storeErr)
			}
		}

		if status == http.StatusUnprocessableEntity {
			return newAPIError(http.StatusBadRequest, string(domainerrors.CodeValidation), message, validationDetails(errs))
		}

		return newAPIError(status, statusToCode(status), message, nil)
	}
}

// fromStoreError covers store errors a service did not translate. The
// underlying cause never reaches the client.
func fromStoreError(err *store.Error) *APIError {
	switch err.HTTPCode() {
	case http.StatusNotFound:
		return newAPIError(http.StatusNotFound, string(domainerrors.CodeNotFound), err.Message, nil)
	case http.StatusBadRequest:
		return newAPIError(http.StatusBadRequest, string(domainerrors.CodeValidation), err.Message, nil)
	default:
		return newAPIError(http.StatusInternalServerError, string(domainerrors.CodeUnavailable), "storage unavailable", nil)
	}
}

// validationDetails flattens huma's per-field errors into location -> message.
// It returns nil when there are none so the field is omitted.
func validationDetails(errs []error) any {
	details := make(map[string]string, len(errs))
	for _, err := range errs {
		var detail *huma.ErrorDetail
		if errors.As(err, &detail) {
			details[detail.Location] = detail.Message
		}
	}
	if len(details) == 0 {
		return nil
	}
	return details
}

// statusToCode maps HTTP status codes to domain error codes.
func statusToCode(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return string(domainerrors.CodeValidation)
	case http.StatusNotFound:
		return string(domainerrors.CodeNotFound)
	case http.StatusConflict:
		return string(domainerrors.CodeConflict)
	case http.StatusTooManyRequests:
		return string(domainerrors.CodeRateLimited)
	default:
		return string(domainerrors.CodeInternal)
	}
}
