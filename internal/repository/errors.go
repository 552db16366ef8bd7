package repository

import "errors"

var (
	// ErrUserNotFound represents missing user rows.
	ErrUserNotFound = errors.New("user not found")
	// ErrStationNotFound represents missing station rows.
	ErrStationNotFound = errors.New("station not found")
	// ErrSessionNotFound represents missing session rows.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionNotActive is returned when finishing a session that already
	// left the active status.
	ErrSessionNotActive = errors.New("session not active")
	// ErrQueueEntryNotFound represents a user with no waiting-queue entry.
	ErrQueueEntryNotFound = errors.New("queue entry not found")
)
