package repository

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("repository: not found")
	// ErrDuplicateEmail indicates the email uniqueness constraint rejected a write.
	ErrDuplicateEmail = errors.New("repository: email already registered")
	// ErrConflict indicates a conditional write lost the race (e.g. the row was already activated).
	ErrConflict = errors.New("repository: conflicting state")
)
