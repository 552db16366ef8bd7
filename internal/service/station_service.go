package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"chargehub/internal/models"
)

// StationService handles marketplace station listings and approval.
type StationService struct {
	repo   StationStore
	logger *zap.Logger
}

// NewStationService builds service.
func NewStationService(repo StationStore, logger *zap.Logger) *StationService {
	return &StationService{repo: repo, logger: logger}
}

// CreateStationInput is the owner's listing form.
type CreateStationInput struct {
	Name        string
	Location    string
	Chargers    int
	PricePerKWh float64
	GreenScore  int
}

// Create lists a new station for an owner. Stations start unapproved and stay
// hidden from drivers until an admin approves them.
func (s *StationService) Create(ctx context.Context, ownerID int64, input CreateStationInput) (*models.Station, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return nil, errors.New("station: name required")
	}
	if input.Chargers < 1 {
		return nil, errors.New("station: at least one charger required")
	}
	if input.PricePerKWh < 0 {
		return nil, errors.New("station: negative price")
	}

	station := &models.Station{
		Name:        input.Name,
		Location:    strings.TrimSpace(input.Location),
		Chargers:    input.Chargers,
		PricePerKWh: input.PricePerKWh,
		GreenScore:  input.GreenScore,
		OwnerID:     ownerID,
	}
	if err := s.repo.Create(ctx, station); err != nil {
		return nil, err
	}

	s.logger.Info("station listed",
		zap.Int64("station_id", station.ID),
		zap.Int64("owner_id", ownerID),
	)
	return station, nil
}

// ListApproved returns stations visible to drivers.
func (s *StationService) ListApproved(ctx context.Context) ([]models.Station, error) {
	return s.repo.ListApproved(ctx)
}

// ListByOwner returns an owner's stations.
func (s *StationService) ListByOwner(ctx context.Context, ownerID int64) ([]models.Station, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

// ListAll returns every station including unapproved ones.
func (s *StationService) ListAll(ctx context.Context) ([]models.Station, error) {
	return s.repo.ListAll(ctx)
}

// Approve makes a station visible to drivers.
func (s *StationService) Approve(ctx context.Context, stationID int64) error {
	if err := s.repo.Approve(ctx, stationID); err != nil {
		return err
	}
	s.logger.Info("station approved", zap.Int64("station_id", stationID))
	return nil
}

// GetByID fetches one station.
func (s *StationService) GetByID(ctx context.Context, id int64) (*models.Station, error) {
	return s.repo.GetByID(ctx, id)
}
