package domainerrors

import (
	"errors"

	"didgate/pkg/platform/sentinel"
)

// FromStore translates a store sentinel into its domain code. Services call it
// exactly once, at the boundary where a store error enters business logic.
func FromStore(err error, msg string) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return Wrap(err, CodeNotFound, msg)
	case errors.Is(err, sentinel.ErrConflict):
		return Wrap(err, CodeConflict, msg)
	case errors.Is(err, sentinel.ErrUnavailable):
		return Wrap(err, CodeStoreUnavailable, msg)
	default:
		return Wrap(err, CodeInternal, msg)
	}
}
