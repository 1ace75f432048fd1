package service

import (
	"errors"
	"fmt"

	"github.com/stemsi/classroom-backend/internal/repository"
)

// Service-level errors. Handlers map these to HTTP statuses with errors.Is.
var (
	ErrNotFound           = repository.ErrNotFound
	ErrConflict           = errors.New("conflict")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrPendingRequestExists = fmt.Errorf("%w: a pending request already exists for this student and class", ErrConflict)
	ErrRequestResolved      = fmt.Errorf("%w: request is no longer pending", ErrConflict)
	ErrDependencyExists     = fmt.Errorf("%w: record is still referenced", ErrConflict)

	ErrUnsupportedFileType = fmt.Errorf("%w: unsupported file type", ErrInvalidInput)
	ErrFileTooLarge        = fmt.Errorf("%w: file too large", ErrInvalidInput)
)

// lookup annotates a failed lookup of a referenced entity.
func lookup(entity string, id int, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%s %d: %w", entity, id, ErrNotFound)
	}
	return fmt.Errorf("get %s %d: %w", entity, id, err)
}

// writeErr translates store constraint errors raised by a write.
func writeErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrReferenced):
		return fmt.Errorf("%w: %w", ErrDependencyExists, err)
	case errors.Is(err, repository.ErrDuplicate):
		return fmt.Errorf("%w: %w", ErrConflict, err)
	}
	return err
}
