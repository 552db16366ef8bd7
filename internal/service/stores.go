package service

import (
	"context"
	"time"

	"chargehub/internal/models"
	"chargehub/internal/repository"
)

// UserStore defines user persistence used across services.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Update(ctx context.Context, user *models.User) error
	SetBlacklist(ctx context.Context, userID int64, blacklisted bool) error
}

// StationStore defines station persistence.
type StationStore interface {
	Create(ctx context.Context, station *models.Station) error
	GetByID(ctx context.Context, id int64) (*models.Station, error)
	ListApproved(ctx context.Context) ([]models.Station, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]models.Station, error)
	ListAll(ctx context.Context) ([]models.Station, error)
	Approve(ctx context.Context, id int64) error
}

// SessionStore defines read access to charging sessions.
type SessionStore interface {
	GetByID(ctx context.Context, id int64) (*models.Session, error)
	HistoryForUser(ctx context.Context, userID int64, limit int) ([]models.Session, error)
	ActiveForOwner(ctx context.Context, ownerID int64) ([]models.ActiveSessionView, error)
	ActiveAll(ctx context.Context) ([]models.ActiveSessionView, error)
}

// AdmissionStore defines the locking transaction and the lock-free reads the
// admission controller needs.
type AdmissionStore interface {
	InStationTx(ctx context.Context, stationID int64, fn func(tx repository.AdmissionTx) error) error
	CountActive(ctx context.Context, stationID int64) (int, error)
	QueueEntry(ctx context.Context, stationID, userID int64) (*models.QueueEntry, error)
	QueuePosition(ctx context.Context, entry *models.QueueEntry) (int, error)
	WaitingCount(ctx context.Context, stationID int64) (int, error)
}

// InsightsStore defines the aggregate queries behind dashboards and analytics.
type InsightsStore interface {
	Dashboard(ctx context.Context) (*repository.DashboardTotals, error)
	UserTotals(ctx context.Context, userID int64) (*repository.UserTotals, error)
	HourlyStarts(ctx context.Context, stationID int64, since time.Time) ([24]int, error)
	QueueOverview(ctx context.Context) ([]models.QueueOverviewEntry, error)
}
