package services

import "errors"

// Error kinds surfaced to transport. Anything not matching one of these is a
// storage failure and must be reported as an opaque server error.
var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrAlreadyExists = errors.New("already exists")
)
