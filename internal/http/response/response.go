// Package response writes JSON responses for handlers that run outside huma,
// such as middleware rejecting a request before it reaches an operation.
package response

import (
	"encoding/json"
	"log/slog"
	"net/http"

	domainerrors "github.com/oerhub/oerhub-server/internal/errors"
)

// ErrorBody matches the error body huma operations return.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// JSON writes v as a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil && logger != nil {
		logger.Error("failed to encode JSON response", "error", err)
	}
}

// Error writes an error body with the given status and code.
func Error(w http.ResponseWriter, status int, code, message string, logger *slog.Logger) {
	JSON(w, status, ErrorBody{Code: code, Message: message, Error: message}, logger)
}

// TooManyRequests writes a 429 response.
func TooManyRequests(w http.ResponseWriter, message string, logger *slog.Logger) {
	Error(w, domainerrors.ErrRateLimited.HTTPStatus(), string(domainerrors.ErrRateLimited.Code), message, logger)
}

// InternalError writes a 500 response with a generic message.
func InternalError(w http.ResponseWriter, logger *slog.Logger) {
	Error(w, domainerrors.ErrInternal.HTTPStatus(), string(domainerrors.ErrInternal.Code), domainerrors.ErrInternal.Message, logger)
}
