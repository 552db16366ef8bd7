package service

import "errors"

var (
	// ErrEmailInUse is returned when attempting to register a duplicate email.
	ErrEmailInUse = errors.New("auth: email already registered")
	// ErrInvalidCredentials represents login failure.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrUserBlacklisted blocks blacklisted accounts from logging in or charging.
	ErrUserBlacklisted = errors.New("account is blacklisted")
	// ErrForbidden is returned when an actor may not perform an operation on a
	// session or station they do not own.
	ErrForbidden = errors.New("operation not permitted")
	// ErrNotInQueue is returned by queue status checks for users with no entry.
	ErrNotInQueue = errors.New("not in queue")
)
