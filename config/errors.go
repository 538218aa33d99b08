package config

import "errors"

var (
	// ErrInvalidName is returned when a variable name contains characters
	// outside [0-9a-z_.] or is empty.
	ErrInvalidName = errors.New("invalid config variable name")

	// ErrTypeMismatch is returned when a name is already registered with
	// a different value type.
	ErrTypeMismatch = errors.New("config variable type mismatch")
)
