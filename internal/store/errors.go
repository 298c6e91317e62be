package store

import (
	"errors"
	"fmt"

	"kazi_backend/internal/domain"
	"kazi_backend/platform/apperr"
)

// MapError translates gateway errors for the service layer. Domain errors
// pass through, ErrNotFound becomes notFound, ErrConflict becomes the
// retryable contention error, and anything else is wrapped as an
// infrastructure failure.
func MapError(err error, notFound *apperr.Error, op string) error {
	if err == nil {
		return nil
	}
	if e, ok := err.(*apperr.Error); ok {
		if e.Op == "" {
			return e.WithOp(op)
		}
		return e
	}
	if _, ok := apperr.As(err); ok {
		return err
	}
	switch {
	case errors.Is(err, ErrNotFound) && notFound != nil:
		return notFound.WithOp(op)
	case errors.Is(err, ErrConflict):
		e := domain.ErrTxContention.WithOp(op)
		e.Err = err
		return e
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
