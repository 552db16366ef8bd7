package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"chargehub/internal/models"
)

// InsightsRepository runs the aggregate queries behind user insights, station
// analytics and the admin dashboard.
type InsightsRepository struct {
	db *sql.DB
}

// NewInsightsRepository returns repository.
func NewInsightsRepository(db *sql.DB) *InsightsRepository {
	return &InsightsRepository{db: db}
}

// DashboardTotals holds platform-wide counters for the admin dashboard.
type DashboardTotals struct {
	Users    int     `json:"users"`
	Stations int     `json:"stations"`
	Sessions int     `json:"sessions"`
	Revenue  float64 `json:"revenue"`
}

// Dashboard returns platform totals.
func (r *InsightsRepository) Dashboard(ctx context.Context) (*DashboardTotals, error) {
	const query = `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM stations),
			(SELECT COUNT(*) FROM charging_sessions),
			(SELECT COALESCE(SUM(amount), 0) FROM charging_sessions)
	`
	var totals DashboardTotals
	if err := r.db.QueryRowContext(ctx, query).Scan(&totals.Users, &totals.Stations, &totals.Sessions, &totals.Revenue); err != nil {
		return nil, err
	}
	return &totals, nil
}

// UserTotals summarizes one user's completed charging activity.
type UserTotals struct {
	Sessions        int     `json:"sessions"`
	Units           float64 `json:"units"`
	Spent           float64 `json:"spent"`
	FavoriteStation string  `json:"favorite_station,omitempty"`
}

// UserTotals aggregates completed sessions for a user and finds the most
// visited station.
func (r *InsightsRepository) UserTotals(ctx context.Context, userID int64) (*UserTotals, error) {
	const query = `
		SELECT COUNT(*), COALESCE(SUM(units), 0), COALESCE(SUM(amount), 0)
		FROM charging_sessions
		WHERE user_id = $1 AND status = 'completed'
	`
	var totals UserTotals
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&totals.Sessions, &totals.Units, &totals.Spent); err != nil {
		return nil, err
	}

	const favQuery = `
		SELECT s.name
		FROM charging_sessions cs
		JOIN stations s ON cs.station_id = s.id
		WHERE cs.user_id = $1 AND cs.status = 'completed'
		GROUP BY s.name
		ORDER BY COUNT(*) DESC
		LIMIT 1
	`
	err := r.db.QueryRowContext(ctx, favQuery, userID).Scan(&totals.FavoriteStation)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	return &totals, nil
}

// HourlyStarts counts session starts per hour of day since the given time.
// The result always has 24 buckets.
func (r *InsightsRepository) HourlyStarts(ctx context.Context, stationID int64, since time.Time) ([24]int, error) {
	const query = `
		SELECT EXTRACT(HOUR FROM started_at)::int AS hour, COUNT(*)
		FROM charging_sessions
		WHERE station_id = $1 AND started_at > $2
		GROUP BY hour
	`
	var buckets [24]int
	rows, err := r.db.QueryContext(ctx, query, stationID, since)
	if err != nil {
		return buckets, err
	}
	defer rows.Close()

	for rows.Next() {
		var hour, count int
		if err := rows.Scan(&hour, &count); err != nil {
			return buckets, err
		}
		if hour >= 0 && hour < 24 {
			buckets[hour] = count
		}
	}
	return buckets, rows.Err()
}

// QueueOverview returns all waiting-queue entries in FIFO order with display
// names, for the admin queue view.
func (r *InsightsRepository) QueueOverview(ctx context.Context) ([]models.QueueOverviewEntry, error) {
	const query = `
		SELECT w.station_id, s.name, u.name, w.joined_at
		FROM waiting_queue w
		JOIN stations s ON w.station_id = s.id
		JOIN users u ON w.user_id = u.id
		ORDER BY w.joined_at ASC, w.id ASC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.QueueOverviewEntry
	for rows.Next() {
		var e models.QueueOverviewEntry
		if err := rows.Scan(&e.StationID, &e.StationName, &e.UserName, &e.JoinedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
