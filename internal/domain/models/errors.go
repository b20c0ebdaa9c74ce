package models

import "errors"

var (
	// ErrNotFound is returned by registry lookups and activation on an unknown bot id.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput marks malformed snapshot fields, metrics or catalog definitions.
	ErrInvalidInput = errors.New("invalid input")
)
