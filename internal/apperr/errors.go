package apperr

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrUnknownFormat   = errors.New("unknown format")
	ErrMissingResource = errors.New("missing resource")
	ErrInvalidConfig   = errors.New("invalid config")
)
