package user

import "errors"

var (
	// ErrNotFound reports a lookup or delete for an email with no user.
	ErrNotFound = errors.New("user not found")
	// ErrEmailExists reports a registration attempt with an email that is
	// already taken.
	ErrEmailExists = errors.New("email already exists")
)
