package repositories

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates the attempted write would violate a uniqueness constraint.
	ErrConflict = errors.New("record conflict")
	// ErrTokenMismatch indicates a conditional refresh-token update found a
	// different stored value than expected. The session layer treats this as
	// token reuse.
	ErrTokenMismatch = errors.New("stored refresh token mismatch")
)
