package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"chargehub/internal/service"
)

// StationHandlers exposes the public station listing and per-station
// analytics.
type StationHandlers struct {
	stations *service.StationService
	insights *service.InsightsService
	logger   *zap.Logger
}

// NewStationHandlers returns handler.
func NewStationHandlers(stations *service.StationService, insights *service.InsightsService, logger *zap.Logger) *StationHandlers {
	return &StationHandlers{stations: stations, insights: insights, logger: logger}
}

// ListApproved handles GET /stations.
func (h *StationHandlers) ListApproved(w http.ResponseWriter, r *http.Request) {
	stations, err := h.stations.ListApproved(r.Context())
	if err != nil {
		h.logger.Error("failed to list stations", zap.Error(err))
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stations)
}

// Analytics handles GET /stations/analytics?station_id=.
func (h *StationHandlers) Analytics(w http.ResponseWriter, r *http.Request) {
	stationID, err := strconv.ParseInt(r.URL.Query().Get("station_id"), 10, 64)
	if err != nil || stationID == 0 {
		writeError(w, http.StatusBadRequest, "station_id is required")
		return
	}

	if _, err := h.stations.GetByID(r.Context(), stationID); err != nil {
		writeServiceError(w, err)
		return
	}

	analytics, err := h.insights.StationAnalytics(r.Context(), stationID)
	if err != nil {
		h.logger.Error("failed to build station analytics", zap.Error(err))
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, analytics)
}
