package repository

import (
	"context"
	"database/sql"
	"errors"

	"chargehub/internal/models"
)

// AdmissionTx is the set of operations available while holding a station's row
// lock. Admission decisions and session exits run through it so that counting
// active sessions and writing the outcome happen atomically per station.
type AdmissionTx interface {
	CountActive(ctx context.Context, stationID int64) (int, error)
	InsertSession(ctx context.Context, session *models.Session) error
	QueueEntry(ctx context.Context, stationID, userID int64) (*models.QueueEntry, error)
	InsertQueueEntry(ctx context.Context, entry *models.QueueEntry) error
	QueuePosition(ctx context.Context, entry *models.QueueEntry) (int, error)
	FinishSession(ctx context.Context, session *models.Session) error
	PopQueueHead(ctx context.Context, stationID int64) (*models.QueueEntry, error)
}

// AdmissionRepository owns the charging_sessions and waiting_queue tables.
type AdmissionRepository struct {
	db *sql.DB
}

// NewAdmissionRepository returns repository.
func NewAdmissionRepository(db *sql.DB) *AdmissionRepository {
	return &AdmissionRepository{db: db}
}

// InStationTx runs fn inside a transaction that holds the station's row lock,
// serializing admissions and exits for that station. Returns
// ErrStationNotFound when the station does not exist.
func (r *AdmissionRepository) InStationTx(ctx context.Context, stationID int64, fn func(tx AdmissionTx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var locked int64
	err = tx.QueryRowContext(ctx, `SELECT id FROM stations WHERE id = $1 FOR UPDATE`, stationID).Scan(&locked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrStationNotFound
		}
		return err
	}

	if err := fn(&admissionTx{tx: tx}); err != nil {
		return err
	}
	return tx.Commit()
}

// CountActive counts active sessions for a station outside any lock. Callers
// that act on the result must re-check inside InStationTx.
func (r *AdmissionRepository) CountActive(ctx context.Context, stationID int64) (int, error) {
	return countActive(ctx, r.db, stationID)
}

// QueueEntry returns the user's waiting-queue entry for a station.
func (r *AdmissionRepository) QueueEntry(ctx context.Context, stationID, userID int64) (*models.QueueEntry, error) {
	return queueEntry(ctx, r.db, stationID, userID)
}

// QueuePosition returns the 1-based FIFO position of an entry.
func (r *AdmissionRepository) QueuePosition(ctx context.Context, entry *models.QueueEntry) (int, error) {
	return queuePosition(ctx, r.db, entry)
}

// WaitingCount returns the queue length for one station.
func (r *AdmissionRepository) WaitingCount(ctx context.Context, stationID int64) (int, error) {
	const query = `SELECT COUNT(*) FROM waiting_queue WHERE station_id = $1`
	var count int
	if err := r.db.QueryRowContext(ctx, query, stationID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

type admissionTx struct {
	tx *sql.Tx
}

func (t *admissionTx) CountActive(ctx context.Context, stationID int64) (int, error) {
	return countActive(ctx, t.tx, stationID)
}

func (t *admissionTx) InsertSession(ctx context.Context, session *models.Session) error {
	const query = `
		INSERT INTO charging_sessions (user_id, station_id, units, amount, payment_token, status, started_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	return t.tx.QueryRowContext(ctx, query,
		session.UserID,
		session.StationID,
		session.Units,
		session.Amount,
		session.PaymentToken,
		session.Status,
		session.StartedAt,
	).Scan(&session.ID)
}

func (t *admissionTx) QueueEntry(ctx context.Context, stationID, userID int64) (*models.QueueEntry, error) {
	return queueEntry(ctx, t.tx, stationID, userID)
}

func (t *admissionTx) InsertQueueEntry(ctx context.Context, entry *models.QueueEntry) error {
	const query = `
		INSERT INTO waiting_queue (station_id, user_id, joined_at)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	return t.tx.QueryRowContext(ctx, query, entry.StationID, entry.UserID, entry.JoinedAt).Scan(&entry.ID)
}

func (t *admissionTx) QueuePosition(ctx context.Context, entry *models.QueueEntry) (int, error) {
	return queuePosition(ctx, t.tx, entry)
}

// FinishSession moves an active session to a terminal status. Returns
// ErrSessionNotActive when the row already left active, which keeps replays
// from finishing a session twice.
func (t *admissionTx) FinishSession(ctx context.Context, session *models.Session) error {
	const query = `
		UPDATE charging_sessions
		SET status = $2, amount = $3, completed_at = $4, duration_minutes = $5
		WHERE id = $1 AND status = 'active'
	`
	result, err := t.tx.ExecContext(ctx, query,
		session.ID,
		session.Status,
		session.Amount,
		session.CompletedAt,
		session.DurationMinutes,
	)
	if err != nil {
		return err
	}
	return requireAffected(result, ErrSessionNotActive)
}

// PopQueueHead removes and returns the earliest-joined entry for a station,
// or nil when the queue is empty.
func (t *admissionTx) PopQueueHead(ctx context.Context, stationID int64) (*models.QueueEntry, error) {
	const query = `
		DELETE FROM waiting_queue
		WHERE id = (
			SELECT id FROM waiting_queue
			WHERE station_id = $1
			ORDER BY joined_at ASC, id ASC
			LIMIT 1
		)
		RETURNING id, station_id, user_id, joined_at
	`
	var entry models.QueueEntry
	err := t.tx.QueryRowContext(ctx, query, stationID).
		Scan(&entry.ID, &entry.StationID, &entry.UserID, &entry.JoinedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func countActive(ctx context.Context, q querier, stationID int64) (int, error) {
	const query = `SELECT COUNT(*) FROM charging_sessions WHERE station_id = $1 AND status = 'active'`
	var count int
	if err := q.QueryRowContext(ctx, query, stationID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func queueEntry(ctx context.Context, q querier, stationID, userID int64) (*models.QueueEntry, error) {
	const query = `
		SELECT id, station_id, user_id, joined_at
		FROM waiting_queue
		WHERE station_id = $1 AND user_id = $2
	`
	var entry models.QueueEntry
	err := q.QueryRowContext(ctx, query, stationID, userID).
		Scan(&entry.ID, &entry.StationID, &entry.UserID, &entry.JoinedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrQueueEntryNotFound
		}
		return nil, err
	}
	return &entry, nil
}

// queuePosition counts entries that joined at or before the given entry, ties
// broken by insertion id, so the result is a stable 1-based FIFO position.
func queuePosition(ctx context.Context, q querier, entry *models.QueueEntry) (int, error) {
	const query = `
		SELECT COUNT(*)
		FROM waiting_queue
		WHERE station_id = $1
		  AND (joined_at < $2 OR (joined_at = $2 AND id <= $3))
	`
	var position int
	if err := q.QueryRowContext(ctx, query, entry.StationID, entry.JoinedAt, entry.ID).Scan(&position); err != nil {
		return 0, err
	}
	return position, nil
}
