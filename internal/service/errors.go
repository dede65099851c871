package service

import (
	"errors"
	"fmt"

	"procurement/db"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrInvalidState     = errors.New("invalid state")
	ErrConflict         = errors.New("conflict")
	ErrPermissionDenied = errors.New("permission denied")
	ErrUnauthorized     = errors.New("unauthorized")
)

// invalid wraps a request validation failure.
func invalid(err error) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
}

// storeError maps storage sentinels onto service errors. what names the
// entity in not-found messages.
func storeError(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, db.ErrNotFound):
		return fmt.Errorf("%w: %s not found", ErrNotFound, what)
	case errors.Is(err, db.ErrDuplicate):
		return fmt.Errorf("%w: %s already exists", ErrConflict, what)
	case errors.Is(err, db.ErrReferenced):
		return fmt.Errorf("%w: %s is referenced by other records", ErrConflict, what)
	case errors.Is(err, db.ErrOutOfRange):
		return fmt.Errorf("%w: %s has a value out of range", ErrInvalidInput, what)
	case errors.Is(err, db.ErrStale):
		return fmt.Errorf("%w: %s was changed by another request", ErrInvalidState, what)
	default:
		return err
	}
}
