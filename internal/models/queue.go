package models

import "time"

// QueueEntry is one user's place in a station's FIFO waiting line. At most one
// entry exists per (station, user) pair; ordering is joined_at with id as the
// tie breaker.
type QueueEntry struct {
	ID        int64     `db:"id" json:"id"`
	StationID int64     `db:"station_id" json:"station_id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	JoinedAt  time.Time `db:"joined_at" json:"joined_at"`
}

// QueueOverviewEntry is a queue entry joined with display names for the admin
// queue view.
type QueueOverviewEntry struct {
	StationID   int64     `db:"station_id" json:"station_id"`
	StationName string    `db:"station_name" json:"station_name"`
	UserName    string    `db:"user_name" json:"user_name"`
	JoinedAt    time.Time `db:"joined_at" json:"joined_at"`
}
