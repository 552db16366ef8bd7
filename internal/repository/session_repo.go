package repository

import (
	"context"
	"database/sql"
	"errors"

	"chargehub/internal/models"
)

// SessionRepository provides read access to charging sessions. Writes go
// through AdmissionRepository so they stay under the station lock.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository returns repository.
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

const sessionColumns = `id, user_id, station_id, units, amount, payment_token, status, started_at, completed_at, duration_minutes`

// GetByID fetches a session by id.
func (r *SessionRepository) GetByID(ctx context.Context, id int64) (*models.Session, error) {
	const query = `SELECT ` + sessionColumns + ` FROM charging_sessions WHERE id = $1`
	var s models.Session
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&s.ID, &s.UserID, &s.StationID, &s.Units, &s.Amount, &s.PaymentToken,
		&s.Status, &s.StartedAt, &s.CompletedAt, &s.DurationMinutes,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &s, nil
}

// HistoryForUser returns a user's sessions, newest first.
func (r *SessionRepository) HistoryForUser(ctx context.Context, userID int64, limit int) ([]models.Session, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `
		SELECT ` + sessionColumns + `
		FROM charging_sessions
		WHERE user_id = $1
		ORDER BY id DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []models.Session
	for rows.Next() {
		var s models.Session
		if err := rows.Scan(
			&s.ID, &s.UserID, &s.StationID, &s.Units, &s.Amount, &s.PaymentToken,
			&s.Status, &s.StartedAt, &s.CompletedAt, &s.DurationMinutes,
		); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

// ActiveForOwner returns active sessions across all of an owner's stations,
// joined with user and station display details.
func (r *SessionRepository) ActiveForOwner(ctx context.Context, ownerID int64) ([]models.ActiveSessionView, error) {
	const query = `
		SELECT cs.id, cs.user_id, cs.station_id, cs.units, cs.amount, cs.payment_token,
		       cs.status, cs.started_at, cs.completed_at, cs.duration_minutes,
		       s.name, u.name, u.email
		FROM charging_sessions cs
		JOIN stations s ON cs.station_id = s.id
		JOIN users u ON cs.user_id = u.id
		WHERE s.owner_id = $1 AND cs.status = 'active'
		ORDER BY cs.started_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanActiveViews(rows)
}

// ActiveAll returns every active session on the platform, for the admin view.
func (r *SessionRepository) ActiveAll(ctx context.Context) ([]models.ActiveSessionView, error) {
	const query = `
		SELECT cs.id, cs.user_id, cs.station_id, cs.units, cs.amount, cs.payment_token,
		       cs.status, cs.started_at, cs.completed_at, cs.duration_minutes,
		       s.name, u.name, u.email
		FROM charging_sessions cs
		JOIN stations s ON cs.station_id = s.id
		JOIN users u ON cs.user_id = u.id
		WHERE cs.status = 'active'
		ORDER BY cs.started_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanActiveViews(rows)
}

func scanActiveViews(rows *sql.Rows) ([]models.ActiveSessionView, error) {
	var views []models.ActiveSessionView
	for rows.Next() {
		var v models.ActiveSessionView
		if err := rows.Scan(
			&v.ID, &v.UserID, &v.StationID, &v.Units, &v.Amount, &v.PaymentToken,
			&v.Status, &v.StartedAt, &v.CompletedAt, &v.DurationMinutes,
			&v.StationName, &v.UserName, &v.UserEmail,
		); err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return views, nil
}
