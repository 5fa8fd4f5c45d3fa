package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in
	// the store.
	ErrNotFound = errors.New("entity not found")

	// ErrRecordNotFound indicates that the requested record does not
	// exist in the store.
	ErrRecordNotFound = fmt.Errorf("%w: record", ErrNotFound)

	// ErrFieldUnknown is returned when a field write names a field the
	// record's type does not have.
	ErrFieldUnknown = errors.New("unknown field for record type")

	// ErrUpdateFailed is returned when an update operation fails for a
	// reason other than the entity being missing.
	ErrUpdateFailed = errors.New("update failed")
)
