package dalerrors

import "errors"

var (
	// ErrNotFound is returned when no row matches the lookup.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned on unique violations and stale versions.
	ErrConflict = errors.New("record conflict")
)
