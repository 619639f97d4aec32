package store

import "errors"

var (
	// ErrNotFound is returned when a requested record does not exist, or
	// exists but is owned by a different user. The two cases are
	// deliberately indistinguishable.
	ErrNotFound = errors.New("not found")

	// ErrEmailAlreadySet is returned by SetUserEmail when the user already
	// has an email attached.
	ErrEmailAlreadySet = errors.New("email already set")

	// ErrEmailTaken is returned when an email is already attached to a
	// different user.
	ErrEmailTaken = errors.New("email already in use")
)
