package domain

import "errors"

// Error kinds surfaced by the core. The transport layer maps these to
// status codes; anything not matching one of them is an internal failure.
var (
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrForbidden  = errors.New("forbidden")
	ErrValidation = errors.New("invalid input")
)
