package service

import (
	"context"
	"errors"
	"log/slog"

	domainerrors "github.com/oerhub/oerhub-server/internal/errors"
	"github.com/oerhub/oerhub-server/internal/store"
)

// fromStore converts a store error into the domain taxonomy.
//
// ErrNotFound becomes NotFound with notFoundMsg. Anything else is a storage
// failure: it is logged with its cause and surfaced with a generic message.
func fromStore(ctx context.Context, logger *slog.Logger, op string, err error, notFoundMsg string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return domainerrors.NotFound(notFoundMsg)
	case errors.Is(err, store.ErrInvalidInput):
		var se *store.Error
		if errors.As(err, &se) {
			return domainerrors.Validation(se.Message)
		}
		return domainerrors.Validation("invalid input")
	default:
		logger.ErrorContext(ctx, "storage operation failed", "op", op, "error", err)
		return domainerrors.Unavailable(err, "storage unavailable")
	}
}
