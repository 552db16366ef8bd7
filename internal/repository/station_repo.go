package repository

import (
	"context"
	"database/sql"
	"errors"

	"chargehub/internal/models"
)

// StationRepository handles persistence of marketplace stations.
type StationRepository struct {
	db *sql.DB
}

// NewStationRepository returns repository.
func NewStationRepository(db *sql.DB) *StationRepository {
	return &StationRepository{db: db}
}

const stationColumns = `id, name, location, chargers, price_per_kwh, green_score, owner_id, approved, created_at`

// Create inserts a new, unapproved station.
func (r *StationRepository) Create(ctx context.Context, station *models.Station) error {
	const query = `
		INSERT INTO stations (name, location, chargers, price_per_kwh, green_score, owner_id, approved)
		VALUES ($1, $2, $3, $4, $5, $6, FALSE)
		RETURNING id, created_at
	`
	return r.db.QueryRowContext(ctx, query,
		station.Name,
		station.Location,
		station.Chargers,
		station.PricePerKWh,
		station.GreenScore,
		station.OwnerID,
	).Scan(&station.ID, &station.CreatedAt)
}

// GetByID fetches a station by id.
func (r *StationRepository) GetByID(ctx context.Context, id int64) (*models.Station, error) {
	const query = `SELECT ` + stationColumns + ` FROM stations WHERE id = $1`
	var s models.Station
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&s.ID, &s.Name, &s.Location, &s.Chargers, &s.PricePerKWh, &s.GreenScore, &s.OwnerID, &s.Approved, &s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStationNotFound
		}
		return nil, err
	}
	return &s, nil
}

// ListApproved returns all approved stations ordered by name.
func (r *StationRepository) ListApproved(ctx context.Context) ([]models.Station, error) {
	const query = `SELECT ` + stationColumns + ` FROM stations WHERE approved ORDER BY name ASC`
	return r.queryStations(ctx, query)
}

// ListByOwner returns stations belonging to one owner.
func (r *StationRepository) ListByOwner(ctx context.Context, ownerID int64) ([]models.Station, error) {
	const query = `SELECT ` + stationColumns + ` FROM stations WHERE owner_id = $1 ORDER BY name ASC`
	return r.queryStations(ctx, query, ownerID)
}

// ListAll returns every station including unapproved ones.
func (r *StationRepository) ListAll(ctx context.Context) ([]models.Station, error) {
	const query = `SELECT ` + stationColumns + ` FROM stations ORDER BY id ASC`
	return r.queryStations(ctx, query)
}

// Approve marks a station as approved.
func (r *StationRepository) Approve(ctx context.Context, id int64) error {
	const query = `UPDATE stations SET approved = TRUE WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return requireAffected(result, ErrStationNotFound)
}

func (r *StationRepository) queryStations(ctx context.Context, query string, args ...interface{}) ([]models.Station, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stations []models.Station
	for rows.Next() {
		var s models.Station
		if err := rows.Scan(
			&s.ID, &s.Name, &s.Location, &s.Chargers, &s.PricePerKWh, &s.GreenScore, &s.OwnerID, &s.Approved, &s.CreatedAt,
		); err != nil {
			return nil, err
		}
		stations = append(stations, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return stations, nil
}
