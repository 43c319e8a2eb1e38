package authstore

import "errors"

var (
	// ErrNotFound is returned by writes addressed at a record that does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrInvariantViolation is returned when a payload is missing a required field.
	ErrInvariantViolation = errors.New("invariant violation")

	// ErrReadAfterWrite is returned when a record cannot be read back right after it was written.
	ErrReadAfterWrite = errors.New("record missing after write")

	// ErrNotSingle is returned when a lookup by a unique key matches more than one row.
	ErrNotSingle = errors.New("more than one record matched a unique key")
)
