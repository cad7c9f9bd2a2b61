package dao

import "errors"

// Common, reusable DAO errors, detected with errors.Is.
var (
	// ErrNotFound is returned when the requested entity does not exist.
	ErrNotFound = errors.New("dao: not found")

	// ErrAlreadyExists is returned by Create when the key is already taken.
	ErrAlreadyExists = errors.New("dao: already exists")

	// ErrInvalidID indicates that the supplied ID/key is empty or otherwise invalid.
	ErrInvalidID = errors.New("dao: invalid id")

	// ErrNilEntity is returned when the caller attempts to persist a nil pointer.
	ErrNilEntity = errors.New("dao: nil entity")
)
