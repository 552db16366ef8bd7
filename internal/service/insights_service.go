package service

import (
	"context"
	"fmt"
	"time"

	"chargehub/internal/repository"
)

// analyticsWindow is how far back station analytics look.
const analyticsWindow = 30 * 24 * time.Hour

// HourActivity is one bucket of a station's peak-hour histogram.
type HourActivity struct {
	Hour      string `json:"hour"`
	Count     int    `json:"count"`
	Intensity int    `json:"intensity"`
	IsPeak    bool   `json:"is_peak"`
}

// StationAnalytics summarizes a station's recent usage.
type StationAnalytics struct {
	StationID     int64          `json:"station_id"`
	TotalSessions int            `json:"total_sessions"`
	Hours         []HourActivity `json:"hours,omitempty"`
}

// InsightsService shapes the SQL aggregates into dashboard payloads.
type InsightsService struct {
	repo InsightsStore
	now  func() time.Time
}

// NewInsightsService builds service.
func NewInsightsService(repo InsightsStore) *InsightsService {
	return &InsightsService{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// UserInsights returns a driver's charging totals.
func (s *InsightsService) UserInsights(ctx context.Context, userID int64) (*repository.UserTotals, error) {
	return s.repo.UserTotals(ctx, userID)
}

// StationAnalytics builds the peak-hour histogram for a station over the last
// thirty days. Intensity is scaled 0-10 against the busiest hour; an hour is a
// peak when it holds more than a twelfth of all starts.
func (s *InsightsService) StationAnalytics(ctx context.Context, stationID int64) (*StationAnalytics, error) {
	buckets, err := s.repo.HourlyStarts(ctx, stationID, s.now().Add(-analyticsWindow))
	if err != nil {
		return nil, err
	}

	total := 0
	busiest := 0
	for _, count := range buckets {
		total += count
		if count > busiest {
			busiest = count
		}
	}

	analytics := &StationAnalytics{StationID: stationID, TotalSessions: total}
	if total == 0 {
		return analytics, nil
	}

	analytics.Hours = make([]HourActivity, 0, len(buckets))
	for hour, count := range buckets {
		intensity := 0
		if busiest > 0 {
			intensity = count * 10 / busiest
		}
		analytics.Hours = append(analytics.Hours, HourActivity{
			Hour:      fmt.Sprintf("%02d:00", hour),
			Count:     count,
			Intensity: intensity,
			IsPeak:    count*12 > total,
		})
	}
	return analytics, nil
}
