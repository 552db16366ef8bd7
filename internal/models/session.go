package models

import "time"

// Session lifecycle statuses. Completed and Cancelled are terminal.
const (
	SessionStatusActive    = "active"
	SessionStatusCompleted = "completed"
	SessionStatusCancelled = "cancelled"
)

// Session represents a charging session occupying one of a station's chargers
// while its status is active.
type Session struct {
	ID              int64      `db:"id" json:"id"`
	UserID          int64      `db:"user_id" json:"user_id"`
	StationID       int64      `db:"station_id" json:"station_id"`
	Units           float64    `db:"units" json:"units"`
	Amount          float64    `db:"amount" json:"amount"`
	PaymentToken    string     `db:"payment_token" json:"payment_token"`
	Status          string     `db:"status" json:"status"`
	StartedAt       time.Time  `db:"started_at" json:"started_at"`
	CompletedAt     *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	DurationMinutes *int       `db:"duration_minutes" json:"duration_minutes,omitempty"`
}

// ActiveSessionView joins an active session with user and station details for
// owner dashboards.
type ActiveSessionView struct {
	Session
	StationName string `db:"station_name" json:"station_name"`
	UserName    string `db:"user_name" json:"user_name"`
	UserEmail   string `db:"user_email" json:"user_email"`
}
