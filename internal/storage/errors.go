package storage

import "errors"

// Journal errors. Records are append-only.
var (
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when a record id or signature is already
	// journaled.
	ErrDuplicateKey = errors.New("duplicate key: journal records are append-only")

	// ErrInvalidInput is returned for records the schema rejects.
	ErrInvalidInput = errors.New("invalid input")
)
