package usecase

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrForbidden             = errors.New("forbidden")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
	// ErrWriteConflict means the draft kept moving underneath us. The caller
	// may retry the whole request.
	ErrWriteConflict = errors.New("draft write conflict")
)
