package storage

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist
	ErrNotFound = errors.New("storage: record not found")
	// ErrDuplicate indicates a unique constraint violation
	ErrDuplicate = errors.New("storage: duplicate entry")
)
