package storage

import "errors"

var (
	// ErrInvalidInput is returned when a record is missing part of its natural key.
	ErrInvalidInput = errors.New("invalid input")
)
