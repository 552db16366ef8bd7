package models

import "time"

// Roles understood by the marketplace.
const (
	RoleUser  = "user"
	RoleOwner = "owner"
	RoleAdmin = "admin"
)

// User is an EV driver, a station owner or an administrator.
type User struct {
	ID           int64     `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         string    `db:"role" json:"role"`
	Blacklisted  bool      `db:"blacklisted" json:"blacklisted"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
